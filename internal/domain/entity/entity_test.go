package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_DecodeOptionalFields(t *testing.T) {
	raw := `{
		"id": "o1",
		"item": "Chips",
		"dropoff_location": "Hostel 4",
		"status": "delivered",
		"requester_id": "u1",
		"fetcher_id": "u2",
		"payout_status": "PENDING",
		"created_at": "2024-03-01T10:15:30.123456"
	}`

	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.True(t, o.IsWellFormed())
	assert.True(t, o.IsAssignedTo("u2"))
	assert.False(t, o.IsAssignedTo(""))
	assert.True(t, o.IsPayoutClaimed())
	assert.False(t, o.IsTargeted())
	assert.False(t, o.IsPaymentSent())
	assert.Nil(t, o.Instructions)
	require.NotNil(t, o.CreatedAt)
	assert.Equal(t, 2024, o.CreatedAt.Year())
}

func TestOrder_IsWellFormed_MissingFields(t *testing.T) {
	assert.False(t, (*Order)(nil).IsWellFormed())
	assert.False(t, (&Order{ID: "o1", Status: "open"}).IsWellFormed())
	assert.False(t, (&Order{ID: "o1", RequesterID: "u1", Status: "lost"}).IsWellFormed())
}

func TestTimestamp_RFC3339AndNull(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T10:15:30Z"`), &ts))
	assert.Equal(t, 10, ts.Hour())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestSortMessages(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []ChatMessage{
		{ID: "m3", CreatedAt: NewTimestamp(base.Add(2 * time.Minute))},
		{ID: "m1", CreatedAt: NewTimestamp(base)},
		{ID: "m2", CreatedAt: NewTimestamp(base.Add(time.Minute))},
	}

	SortMessages(msgs)

	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestOffersOwnedBy(t *testing.T) {
	offers := []Offer{{ID: "a", FetcherID: "u1"}, {ID: "b", FetcherID: "u2"}, {ID: "c", FetcherID: "u1"}}
	owned := OffersOwnedBy(offers, "u1")
	require.Len(t, owned, 2)
	assert.Equal(t, "a", owned[0].ID)
	assert.Equal(t, "c", owned[1].ID)
	assert.Empty(t, OffersOwnedBy(offers, ""))
}
