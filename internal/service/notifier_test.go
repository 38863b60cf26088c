package service

import (
	"encoding/json"
	"testing"

	"rentalhub/internal/events"
	"rentalhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_WithoutScheduler(t *testing.T) {
	f := newFixture(t)
	bus := events.NewEventBus()
	NewNotifier(f.repos.Notifications, nil, Options{}).Register(bus)

	err := bus.PublishJSON(f.ctx, events.EventBookingStatusChanged, events.BookingEventPayload{
		BookingID:   2,
		UserID:      3,
		ProductID:   3,
		ProductName: "Makita Cordless Drill Set",
		OldStatus:   models.StatusConfirmed,
		NewStatus:   models.StatusCompleted,
	})
	require.NoError(t, err)

	assert.Len(t, f.notificationsOf(t, 3, models.NotificationBookingCompleted), 1)
	assert.Len(t, f.notificationsOf(t, 3, models.NotificationReviewRequest), 1, "sent right away")
}

func TestNotifier_BadPayload(t *testing.T) {
	f := newFixture(t)
	n := NewNotifier(f.repos.Notifications, nil, Options{})

	assert.Error(t, n.HandleReviewRequest(f.ctx, []byte("{")))
	assert.Error(t, n.HandleStatusChanged(f.ctx, &events.Event{Type: events.EventBookingStatusChanged, Payload: []byte("nope")}))
}

func TestNotifier_ReviewRequestRetriedJob(t *testing.T) {
	f := newFixture(t)
	n := NewNotifier(f.repos.Notifications, nil, Options{})

	payload, err := json.Marshal(models.ReviewRequestPayload{
		BookingID:   2,
		UserID:      3,
		ProductID:   3,
		ProductName: "Makita Cordless Drill Set",
	})
	require.NoError(t, err)

	// A job whose completion failed to persist runs its handler again.
	require.NoError(t, n.HandleReviewRequest(f.ctx, payload))
	require.NoError(t, n.HandleReviewRequest(f.ctx, payload))

	sent := f.notificationsOf(t, 3, models.NotificationReviewRequest)
	require.Len(t, sent, 1)
	assert.Equal(t, models.BookingID(2), sent[0].BookingID)

	other, err := json.Marshal(models.ReviewRequestPayload{BookingID: 4, UserID: 3, ProductID: 4, ProductName: "Other"})
	require.NoError(t, err)
	require.NoError(t, n.HandleReviewRequest(f.ctx, other))
	assert.Len(t, f.notificationsOf(t, 3, models.NotificationReviewRequest), 2, "other bookings still get one")
}
