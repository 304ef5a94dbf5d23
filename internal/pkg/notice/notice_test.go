package notice

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

func fixedBuilder(at time.Time) *Builder {
	b := NewBuilder(0)
	b.now = func() time.Time { return at }
	return b
}

func TestBuilder_DefaultTTL(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := fixedBuilder(at).Success("Order accepted")

	assert.Equal(t, ToneSuccess, n.Tone)
	assert.Equal(t, at.Add(3500*time.Millisecond), n.ExpiresAt)
	assert.False(t, n.Expired(at.Add(3*time.Second)))
	assert.True(t, n.Expired(at.Add(4*time.Second)))
}

func TestFromError_ServerDetailVerbatim(t *testing.T) {
	err := apperror.FromStatus(http.StatusBadRequest, "Order already accepted")
	n := NewBuilder(time.Second).FromError(fmt.Errorf("remote: accept: %w", err), "Unable to accept order")

	require.NotNil(t, n)
	assert.Equal(t, ToneError, n.Tone)
	assert.Equal(t, "Order already accepted", n.Message)
}

func TestFromError_TransportFallsBack(t *testing.T) {
	err := apperror.Wrap(errors.New("dial tcp: refused"), apperror.ErrCodeUnavailable, "удалённый API недоступен")

	assert.Equal(t, "Unable to accept order", MessageFor(err, "Unable to accept order"))
	assert.Equal(t, "Login failed", MessageFor(errors.New("boom"), "Login failed"))
}

func TestExpired_Nil(t *testing.T) {
	var n *Notice
	assert.True(t, n.Expired(time.Now()))
}
