package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/lifecycle"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func payoutPtr(p valueobject.PayoutStatus) *valueobject.PayoutStatus { return &p }

func user(id string) entity.User {
	return entity.User{ID: id, Name: "User " + id, Email: id + "@campus.test"}
}

func order(id string, status valueobject.OrderStatus, requester string) entity.Order {
	return entity.Order{ID: id, Item: "Chips", DropoffLocation: "Hostel 4", Status: status, RequesterID: requester}
}

func assigned(o entity.Order, fetcher string) entity.Order {
	o.FetcherID = strPtr(fetcher)
	return o
}

func ids(list []lifecycle.ClassifiedOrder) []string {
	out := make([]string, 0, len(list))
	for _, co := range list {
		out = append(out, co.Order.ID)
	}
	return out
}

func TestVisibleOrdersFor_Requester(t *testing.T) {
	orders := []entity.Order{
		order("o1", valueobject.OrderStatusOpen, "u1"),
		assigned(order("o2", valueobject.OrderStatusDelivered, "u1"), "u2"),
		order("o3", valueobject.OrderStatusOpen, "u9"),
	}

	visible := lifecycle.VisibleOrdersFor(valueobject.RoleRequester, orders, user("u1"), nil)

	assert.Equal(t, []string{"o1", "o2"}, ids(visible))
	for _, co := range visible {
		assert.Equal(t, lifecycle.CategoryMine, co.Category)
	}
}

func TestVisibleOrdersFor_FetcherFilterAndClassification(t *testing.T) {
	targeted := order("o3", valueobject.OrderStatusOpen, "u1")
	targeted.TargetOfferID = strPtr("off-mine")
	foreignTarget := order("o4", valueobject.OrderStatusOpen, "u1")
	foreignTarget.TargetOfferID = strPtr("off-other")

	orders := []entity.Order{
		order("o1", valueobject.OrderStatusOpen, "u1"),
		order("o2", valueobject.OrderStatusOpen, "u2"),
		targeted,
		foreignTarget,
		assigned(order("o5", valueobject.OrderStatusAccepted, "u1"), "u2"),
		assigned(order("o6", valueobject.OrderStatusAccepted, "u1"), "u3"),
	}
	offers := []entity.Offer{{ID: "off-mine", FetcherID: "u2"}}

	visible := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, user("u2"), offers)

	got := map[string]lifecycle.Category{}
	for _, co := range visible {
		got[co.Order.ID] = co.Category
	}
	assert.Equal(t, map[string]lifecycle.Category{
		"o1": lifecycle.CategoryPublicOpen,
		"o3": lifecycle.CategoryTargeted,
		"o4": lifecycle.CategoryPublicOpen,
		"o5": lifecycle.CategoryMyTask,
	}, got)
}

func TestVisibleOrdersFor_FetcherNeverSeesForeignNonOpen(t *testing.T) {
	statuses := valueobject.OrderStatuses
	var orders []entity.Order
	for i, s := range statuses {
		o := order("x"+string(rune('a'+i)), s, "u1")
		if s != valueobject.OrderStatusOpen {
			o = assigned(o, "u3")
		}
		orders = append(orders, o)
	}

	for _, co := range lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, user("u2"), nil) {
		if co.Order.Status != valueobject.OrderStatusOpen {
			assert.True(t, co.Order.IsAssignedTo("u2"), "order %s leaked", co.Order.ID)
		}
	}
}

func TestVisibleOrdersFor_DedupByID(t *testing.T) {
	o := order("o1", valueobject.OrderStatusOpen, "u1")
	orders := []entity.Order{o, order("o2", valueobject.OrderStatusOpen, "u1"), o}

	visible := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, user("u2"), nil)

	assert.Equal(t, []string{"o1", "o2"}, ids(visible))
}

func TestVisibleOrdersFor_DedupKeepsMostAdvancedCopy(t *testing.T) {
	stale := order("o1", valueobject.OrderStatusOpen, "u1")
	fresh := assigned(order("o1", valueobject.OrderStatusAccepted, "u1"), "u3")

	visible := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, []entity.Order{stale, fresh}, user("u2"), nil)

	assert.Empty(t, visible, "order taken by another fetcher must not stay on the open board")
}

func TestVisibleOrdersFor_Idempotent(t *testing.T) {
	orders := []entity.Order{
		order("o1", valueobject.OrderStatusOpen, "u1"),
		assigned(order("o2", valueobject.OrderStatusPickedUp, "u1"), "u2"),
	}

	first := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, user("u2"), nil)
	second := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, user("u2"), nil)

	assert.Equal(t, first, second)
}

func TestVisibleOrdersFor_FailsClosedOnMalformed(t *testing.T) {
	orders := []entity.Order{
		{ID: "", Status: valueobject.OrderStatusOpen, RequesterID: "u1"},
		{ID: "o2", Status: "archived", RequesterID: "u1"},
		{ID: "o3", Status: valueobject.OrderStatusOpen},
		order("o4", valueobject.OrderStatusOpen, "u1"),
	}

	visible := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, user("u2"), nil)

	assert.Equal(t, []string{"o4"}, ids(visible))
	assert.Nil(t, lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, orders, entity.User{}, nil))
	assert.Nil(t, lifecycle.VisibleOrdersFor(valueobject.Role("admin"), orders, user("u2"), nil))
}

// Выполненная задача остаётся на доске до заявки на выплату.
func TestVisibleOrdersFor_DeliveredHiddenOnlyAfterPayoutClaim(t *testing.T) {
	o := assigned(order("o1", valueobject.OrderStatusDelivered, "u1"), "u2")

	visible := lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, []entity.Order{o}, user("u2"), nil)
	require.Len(t, visible, 1)
	assert.Equal(t, lifecycle.CategoryMyTask, visible[0].Category)

	o.PayoutStatus = payoutPtr(valueobject.PayoutStatusPending)
	visible = lifecycle.VisibleOrdersFor(valueobject.RoleFetcher, []entity.Order{o}, user("u2"), nil)
	assert.Empty(t, visible)
}

func TestCanAccept_UntargetedOpenOrder(t *testing.T) {
	o := order("o1", valueobject.OrderStatusOpen, "u1")

	assert.True(t, lifecycle.CanAccept(o, user("u2"), nil))
	assert.False(t, lifecycle.CanAccept(o, user("u1"), nil), "requester cannot accept own order")
}

func TestCanAccept_TargetedOrder(t *testing.T) {
	o := order("o1", valueobject.OrderStatusOpen, "u1")
	o.TargetOfferID = strPtr("off1")
	offers := []entity.Offer{{ID: "off1", FetcherID: "u3"}}

	assert.False(t, lifecycle.CanAccept(o, user("u2"), offers))
	assert.True(t, lifecycle.CanAccept(o, user("u3"), offers))
	assert.False(t, lifecycle.CanAccept(o, user("u3"), nil), "unknown offer fails closed")
}

func TestCanAccept_NonOpen(t *testing.T) {
	for _, s := range []valueobject.OrderStatus{valueobject.OrderStatusAccepted, valueobject.OrderStatusPickedUp, valueobject.OrderStatusDelivered} {
		assert.False(t, lifecycle.CanAccept(order("o1", s, "u1"), user("u2"), nil), string(s))
	}
	assert.False(t, lifecycle.CanAccept(entity.Order{ID: "o1", Status: valueobject.OrderStatusOpen}, user("u2"), nil))
}

func TestLegalNextStatuses_NeverCurrentOrBackward(t *testing.T) {
	for _, role := range []valueobject.Role{valueobject.RoleRequester, valueobject.RoleFetcher} {
		for _, current := range valueobject.OrderStatuses {
			for _, next := range lifecycle.LegalNextStatuses(current, role) {
				assert.NotEqual(t, current, next, "%s/%s", role, current)
				assert.True(t, current.Before(next), "%s/%s -> %s moves backward", role, current, next)
			}
		}
	}
}

func TestLegalNextStatuses_Fetcher(t *testing.T) {
	assert.Empty(t, lifecycle.LegalNextStatuses(valueobject.OrderStatusOpen, valueobject.RoleFetcher))
	assert.Equal(t,
		[]valueobject.OrderStatus{valueobject.OrderStatusPickedUp, valueobject.OrderStatusDelivered},
		lifecycle.LegalNextStatuses(valueobject.OrderStatusAccepted, valueobject.RoleFetcher))
	assert.Equal(t,
		[]valueobject.OrderStatus{valueobject.OrderStatusDelivered},
		lifecycle.LegalNextStatuses(valueobject.OrderStatusPickedUp, valueobject.RoleFetcher))
	assert.Empty(t, lifecycle.LegalNextStatuses(valueobject.OrderStatusDelivered, valueobject.RoleFetcher))
}

func TestStatusOptions_Requester(t *testing.T) {
	options := lifecycle.StatusOptions(valueobject.OrderStatusAccepted, valueobject.RoleRequester)
	require.Len(t, options, 3)

	for _, opt := range options {
		assert.NotEqual(t, valueobject.OrderStatusAccepted, opt.Status)
		if opt.Status == valueobject.OrderStatusDelivered {
			assert.True(t, opt.Enabled)
			assert.Equal(t, "Delivery Received", opt.Label)
		} else {
			assert.False(t, opt.Enabled, "%s must be display-only", opt.Status)
		}
	}

	assert.Empty(t, lifecycle.LegalNextStatuses(valueobject.OrderStatusOpen, valueobject.RoleRequester))
	assert.Nil(t, lifecycle.StatusOptions(valueobject.OrderStatus("bogus"), valueobject.RoleRequester))
}

func TestStatusOptions_FetcherDisablesPassedSteps(t *testing.T) {
	options := lifecycle.StatusOptions(valueobject.OrderStatusPickedUp, valueobject.RoleFetcher)
	require.Len(t, options, 2)
	assert.False(t, options[0].Enabled)
	assert.True(t, options[1].Enabled)
}

func TestPaymentGate(t *testing.T) {
	o := assigned(order("o1", valueobject.OrderStatusAccepted, "u1"), "u2")
	assert.True(t, lifecycle.PaymentGate(o).Open)

	o.PaymentSent = boolPtr(true)
	o.TxnID = strPtr("TX123")
	gate := lifecycle.PaymentGate(o)
	assert.False(t, gate.Open)
	assert.NotEmpty(t, gate.Reason)

	assert.False(t, lifecycle.PaymentGate(order("o2", valueobject.OrderStatusOpen, "u1")).Open)
	assert.False(t, lifecycle.PaymentGate(assigned(order("o3", valueobject.OrderStatusPickedUp, "u1"), "u2")).Open)
}

func TestPayoutGate(t *testing.T) {
	o := assigned(order("o1", valueobject.OrderStatusDelivered, "u1"), "u2")

	assert.True(t, lifecycle.PayoutGate(o, user("u2")).Open)
	assert.False(t, lifecycle.PayoutGate(o, user("u3")).Open)

	o.PayoutStatus = payoutPtr(valueobject.PayoutStatusPending)
	assert.False(t, lifecycle.PayoutGate(o, user("u2")).Open)

	assert.False(t, lifecycle.PayoutGate(assigned(order("o2", valueobject.OrderStatusPickedUp, "u1"), "u2"), user("u2")).Open)
}

func TestRequesterBoard_DeliveryReceivedAction(t *testing.T) {
	accepted := assigned(order("o1", valueobject.OrderStatusAccepted, "u1"), "u2")
	open := order("o2", valueobject.OrderStatusOpen, "u1")

	board := lifecycle.BuildRequesterBoard([]entity.Order{accepted, open}, user("u1"))

	card, ok := board.Find("o1")
	require.True(t, ok)
	assert.True(t, card.Allows(lifecycle.ActionDeliveryReceived))
	assert.True(t, card.Allows(lifecycle.ActionSubmitPayment))
	assert.True(t, card.Allows(lifecycle.ActionChat))

	card, ok = board.Find("o2")
	require.True(t, ok)
	assert.False(t, card.Allows(lifecycle.ActionDeliveryReceived))
	assert.False(t, card.Allows(lifecycle.ActionChat))
}

func TestRequesterBoard_DeliveryNotGatedByPayment(t *testing.T) {
	o := assigned(order("o1", valueobject.OrderStatusPickedUp, "u1"), "u2")
	o.PaymentSent = boolPtr(false)

	card, ok := lifecycle.BuildRequesterBoard([]entity.Order{o}, user("u1")).Find("o1")
	require.True(t, ok)
	assert.True(t, card.Allows(lifecycle.ActionDeliveryReceived))
}

func TestFetcherBoard_Sections(t *testing.T) {
	targeted := order("o2", valueobject.OrderStatusOpen, "u1")
	targeted.TargetOfferID = strPtr("off1")
	delivered := assigned(order("o3", valueobject.OrderStatusDelivered, "u1"), "u2")
	delivered.FetcherName = strPtr("  zara")
	delivered.RequesterName = nil

	board := lifecycle.BuildFetcherBoard(
		[]entity.Order{order("o1", valueobject.OrderStatusOpen, "u1"), targeted, delivered},
		[]entity.Offer{{ID: "off1", FetcherID: "u2"}, {ID: "off9", FetcherID: "u5"}},
		user("u2"),
	)

	require.Len(t, board.PublicOpen, 1)
	require.Len(t, board.Targeted, 1)
	require.Len(t, board.MyTasks, 1)
	require.Len(t, board.MyOffers, 1)
	assert.Equal(t, 3, board.Count())

	assert.True(t, board.PublicOpen[0].Allows(lifecycle.ActionAccept))
	assert.True(t, board.Targeted[0].Allows(lifecycle.ActionAccept))

	task := board.MyTasks[0]
	assert.True(t, task.Allows(lifecycle.ActionSubmitPayout))
	assert.False(t, task.Allows(lifecycle.ActionSetStatus))
	assert.Equal(t, "?", task.RequesterInitial)
	assert.Equal(t, "Z", task.FetcherInitial)
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "?", lifecycle.Initial(nil))
	assert.Equal(t, "?", lifecycle.Initial(strPtr("   ")))
	assert.Equal(t, "A", lifecycle.Initial(strPtr("ali")))
	assert.Equal(t, "Ж", lifecycle.Initial(strPtr("жанна")))
}

func TestAuthorizeFetcher(t *testing.T) {
	targeted := order("o1", valueobject.OrderStatusOpen, "u1")
	targeted.TargetOfferID = strPtr("off1")
	offers := []entity.Offer{{ID: "off1", FetcherID: "u3"}}

	err := lifecycle.AuthorizeFetcher(targeted, user("u2"), offers, lifecycle.ActionAccept, "")
	assert.ErrorIs(t, err, apperror.ErrActionNotOffered)
	assert.NoError(t, lifecycle.AuthorizeFetcher(targeted, user("u3"), offers, lifecycle.ActionAccept, ""))

	task := assigned(order("o2", valueobject.OrderStatusPickedUp, "u1"), "u2")
	assert.NoError(t, lifecycle.AuthorizeFetcher(task, user("u2"), nil, lifecycle.ActionSetStatus, valueobject.OrderStatusDelivered))
	assert.ErrorIs(t,
		lifecycle.AuthorizeFetcher(task, user("u2"), nil, lifecycle.ActionSetStatus, valueobject.OrderStatusAccepted),
		apperror.ErrActionNotOffered)

	foreign := assigned(order("o3", valueobject.OrderStatusPickedUp, "u1"), "u9")
	assert.ErrorIs(t,
		lifecycle.AuthorizeFetcher(foreign, user("u2"), nil, lifecycle.ActionSetStatus, valueobject.OrderStatusDelivered),
		apperror.ErrForbidden)
}

func TestAuthorizeRequester(t *testing.T) {
	o := assigned(order("o1", valueobject.OrderStatusAccepted, "u1"), "u2")

	assert.NoError(t, lifecycle.AuthorizeRequester(o, user("u1"), lifecycle.ActionSetStatus, valueobject.OrderStatusDelivered))
	assert.ErrorIs(t,
		lifecycle.AuthorizeRequester(o, user("u1"), lifecycle.ActionSetStatus, valueobject.OrderStatusPickedUp),
		apperror.ErrActionNotOffered)
	assert.ErrorIs(t,
		lifecycle.AuthorizeRequester(o, user("u2"), lifecycle.ActionDeliveryReceived, ""),
		apperror.ErrForbidden)
}
