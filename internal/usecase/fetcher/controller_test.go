package fetcher_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/lifecycle"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/infrastructure/remote/remotetest"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/notice"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/fetcher"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	market *remotetest.Marketplace
	ctrl   *fetcher.Controller
}

func newFixture() *fixture {
	market := remotetest.New()
	return &fixture{
		market: market,
		ctrl:   fetcher.NewController(market, notice.NewBuilder(time.Second)),
	}
}

func (f *fixture) login(id, name string) *entity.Session {
	user := entity.User{ID: id, Name: name, Email: id + "@campus.edu"}
	token := f.market.AddUser(user)
	return entity.NewSession(user, token, time.Now().Add(time.Hour))
}

func validOffer() entity.OfferInput {
	return entity.OfferInput{
		CurrentLocation:       "Library",
		Destination:           "H-12 Hostels",
		ArrivalTime:           "5:00 PM",
		PickupCapability:      "small bags",
		ContactNumber:         "0300-1234567",
		EstimatedDeliveryTime: "20 min",
	}
}

func TestAccept_MovesOrderToMyTasks(t *testing.T) {
	f := newFixture()
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")
	f.market.AddOrder(entity.Order{ID: "o1", Item: "Chips", Status: valueobject.OrderStatusOpen, RequesterID: "u1"})

	res, err := f.ctrl.Accept(context.Background(), zara, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Order accepted", res.Notice.Message)
	require.Len(t, res.Board.MyTasks, 1)
	assert.Empty(t, res.Board.PublicOpen)

	task := res.Board.MyTasks[0]
	assert.True(t, task.Allows(lifecycle.ActionSetStatus))
	assert.True(t, task.Allows(lifecycle.ActionChat))
	assert.Equal(t, "Z", task.FetcherInitial)
}

func TestAccept_RacingFetchersSeeSingleOutcome(t *testing.T) {
	f := newFixture()
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")
	omar := f.login("u3", "Omar")
	f.market.AddOrder(entity.Order{ID: "o1", Item: "Chips", Status: valueobject.OrderStatusOpen, RequesterID: "u1"})

	// Omar успевает принять заказ между проверкой и запросом Zara.
	f.market.BeforeAccept = func(m *remotetest.Marketplace, orderID string) {
		m.BeforeAccept = nil
		m.SetOrder(entity.Order{
			ID:          orderID,
			Item:        "Chips",
			Status:      valueobject.OrderStatusAccepted,
			RequesterID: "u1",
			FetcherID:   strPtr("u3"),
		})
	}

	res, err := f.ctrl.Accept(context.Background(), zara, "o1")
	require.NoError(t, err)
	assert.Equal(t, notice.ToneError, res.Notice.Tone)
	assert.Equal(t, "Order not available for acceptance", res.Notice.Message)
	assert.Equal(t, 0, res.Board.Count())

	omarBoard, err := f.ctrl.Board(context.Background(), omar)
	require.NoError(t, err)
	require.Len(t, omarBoard.MyTasks, 1)
	assert.Equal(t, "o1", omarBoard.MyTasks[0].Order.ID)
}

func TestAccept_AlreadyTakenIsRejectedLocally(t *testing.T) {
	f := newFixture()
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")
	f.market.AddOrder(entity.Order{ID: "o1", Status: valueobject.OrderStatusAccepted, RequesterID: "u1", FetcherID: strPtr("u3")})

	res, err := f.ctrl.Accept(context.Background(), zara, "o1")
	assert.True(t, apperror.IsNotFound(err))
	require.NotNil(t, res)
	assert.Equal(t, notice.ToneError, res.Notice.Tone)
	assert.NotContains(t, f.market.Calls(), "accept_order")
}

func TestAccept_TargetedOrderForAnotherFetcher(t *testing.T) {
	f := newFixture()
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")
	omar := f.login("u3", "Omar")
	f.market.AddOffer(entity.Offer{ID: "off1", FetcherID: "u3"})
	f.market.AddOrder(entity.Order{ID: "o1", Status: valueobject.OrderStatusOpen, RequesterID: "u1", TargetOfferID: strPtr("off1")})

	_, err := f.ctrl.Accept(context.Background(), zara, "o1")
	assert.ErrorIs(t, err, apperror.ErrActionNotOffered)

	board, err := f.ctrl.Board(context.Background(), omar)
	require.NoError(t, err)
	require.Len(t, board.Targeted, 1)

	res, err := f.ctrl.Accept(context.Background(), omar, "o1")
	require.NoError(t, err)
	assert.Len(t, res.Board.MyTasks, 1)
}

func TestSetStatus_ForwardOnly(t *testing.T) {
	f := newFixture()
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")
	f.market.AddOrder(entity.Order{ID: "o1", Status: valueobject.OrderStatusPickedUp, RequesterID: "u1", FetcherID: strPtr("u2")})

	_, err := f.ctrl.SetStatus(context.Background(), zara, "o1", valueobject.OrderStatusAccepted)
	assert.ErrorIs(t, err, apperror.ErrActionNotOffered)

	res, err := f.ctrl.SetStatus(context.Background(), zara, "o1", valueobject.OrderStatusDelivered)
	require.NoError(t, err)
	require.Len(t, res.Board.MyTasks, 1)
	assert.True(t, res.Board.MyTasks[0].Allows(lifecycle.ActionSubmitPayout))
}

func TestSubmitPayout_HidesDeliveredTask(t *testing.T) {
	f := newFixture()
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")
	f.market.AddOrder(entity.Order{ID: "o1", Status: valueobject.OrderStatusDelivered, RequesterID: "u1", FetcherID: strPtr("u2")})

	res, err := f.ctrl.SubmitPayout(context.Background(), zara, "o1", entity.PayoutDetails{BankName: "HBL", AccountNumber: "123", AccountTitle: "Zara"})
	require.NoError(t, err)
	assert.Equal(t, notice.ToneSuccess, res.Notice.Tone)
	assert.Equal(t, 0, res.Board.Count())

	stored, _ := f.market.Order("o1")
	assert.True(t, stored.IsPayoutClaimed())
}

func TestSubmitPayout_ValidatesDetails(t *testing.T) {
	f := newFixture()
	zara := f.login("u2", "Zara")

	_, err := f.ctrl.SubmitPayout(context.Background(), zara, "o1", entity.PayoutDetails{BankName: "HBL"})
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.market.Calls())
}

func TestOffers_CreateUpdateDelete(t *testing.T) {
	f := newFixture()
	zara := f.login("u2", "Zara")
	omar := f.login("u3", "Omar")

	res, err := f.ctrl.CreateOffer(context.Background(), zara, validOffer())
	require.NoError(t, err)
	require.Len(t, res.Board.MyOffers, 1)
	offerID := res.Board.MyOffers[0].ID

	_, err = f.ctrl.UpdateOffer(context.Background(), omar, offerID, validOffer())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	update := validOffer()
	update.Destination = "Main Gate"
	res, err = f.ctrl.UpdateOffer(context.Background(), zara, offerID, update)
	require.NoError(t, err)
	assert.Equal(t, "Main Gate", res.Board.MyOffers[0].Destination)

	res, err = f.ctrl.DeleteOffer(context.Background(), zara, offerID)
	require.NoError(t, err)
	assert.Empty(t, res.Board.MyOffers)
}

// Сервер отдаёт ограниченную выборку свежих заказов. Старый открытый заказ
// должен остаться в общем пуле, даже если его вытеснили доставленные.
func TestBoard_OldOpenOrderBeyondListLimit(t *testing.T) {
	f := newFixture()
	f.market.ListLimit = 100
	f.login("u1", "Ali")
	zara := f.login("u2", "Zara")

	f.market.AddOrder(entity.Order{ID: "old-open", Item: "Chips", Status: valueobject.OrderStatusOpen, RequesterID: "u1"})
	for i := 0; i < 100; i++ {
		f.market.AddOrder(entity.Order{
			ID:          fmt.Sprintf("d%03d", i),
			Item:        "Tea",
			Status:      valueobject.OrderStatusDelivered,
			RequesterID: "u1",
			FetcherID:   strPtr("u3"),
		})
	}

	board, err := f.ctrl.Board(context.Background(), zara)
	require.NoError(t, err)
	require.Len(t, board.PublicOpen, 1)
	assert.Equal(t, "old-open", board.PublicOpen[0].Order.ID)
	assert.True(t, board.PublicOpen[0].Allows(lifecycle.ActionAccept))

	res, err := f.ctrl.Accept(context.Background(), zara, "old-open")
	require.NoError(t, err)
	assert.Equal(t, notice.ToneSuccess, res.Notice.Tone)
	assert.Empty(t, res.Board.PublicOpen)
}
