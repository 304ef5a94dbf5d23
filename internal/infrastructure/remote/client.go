// Package remote - HTTP клиент удалённого REST API маркетплейса.
// Только ввод-вывод: никаких правил жизненного цикла здесь нет.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/metrics"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// Ответы с ошибкой обрезаются при чтении, detail обычно короткий.
const maxErrorBody = 64 << 10

// Client реализует repository.MarketplaceGateway поверх net/http.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ repository.MarketplaceGateway = (*Client)(nil)

// NewClient создаёт клиент; baseURL без завершающего слеша.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// request описывает один вызов API.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

// do выполняет запрос и декодирует тело ответа в out (если out != nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	started := time.Now()
	err := c.roundTrip(ctx, r, out)
	metrics.RemoteRequestDuration.WithLabelValues(r.op).Observe(time.Since(started).Seconds())

	switch {
	case err == nil:
		metrics.RemoteRequestsTotal.WithLabelValues(r.op, metrics.OutcomeOK).Inc()
	case apperror.IsUnavailable(err):
		metrics.RemoteRequestsTotal.WithLabelValues(r.op, metrics.OutcomeFailed).Inc()
	default:
		metrics.RemoteRequestsTotal.WithLabelValues(r.op, metrics.OutcomeRejected).Inc()
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать запрос")
		}
		body = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать запрос")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.L().WithFields(logrus.Fields{
			"op":     r.op,
			"method": r.method,
			"path":   r.path,
		}).WithError(err).Warn("remote: запрос не выполнен")
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "удалённый API недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := apperror.FromStatus(resp.StatusCode, parseDetail(raw))
		logger.L().WithFields(logrus.Fields{
			"op":     r.op,
			"status": resp.StatusCode,
			"detail": appErr.Detail,
		}).Debug("remote: API вернул ошибку")
		return appErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.Wrap(fmt.Errorf("remote: %s: %w", r.op, err), apperror.ErrCodeUnavailable, "некорректный ответ удалённого API")
	}
	return nil
}

// parseDetail достаёт текст из тела {"detail": ...}. detail бывает строкой,
// списком ошибок валидации [{"loc": [...], "msg": "..."}] или объектом.
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []validationItem
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if msg := item.String(); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &obj); err == nil {
		if obj.Msg != "" {
			return obj.Msg
		}
		return obj.Message
	}
	return ""
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// String даёт "field: msg"; служебный префикс body/query из loc опускается.
func (v validationItem) String() string {
	msg := strings.TrimSpace(v.Msg)
	if msg == "" {
		return ""
	}

	var field string
	for _, part := range v.Loc {
		s := fmt.Sprint(part)
		if s == "body" || s == "query" || s == "path" {
			continue
		}
		field = s
	}
	if field == "" {
		return msg
	}
	return field + ": " + msg
}

func orderPath(orderID string, suffix string) string {
	return "/orders/" + url.PathEscape(orderID) + suffix
}
