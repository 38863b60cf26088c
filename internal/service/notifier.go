package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/metrics"
	"rentalhub/internal/models"
)

const (
	msgPaymentReminder  = "Your booking for %s has been received. Please complete the payment to confirm it."
	msgBookingConfirmed = "Your booking for %s has been confirmed."
	msgBookingCancelled = "Your booking for %s has been cancelled."
	msgBookingCompleted = "Your rental of %s is complete. Thank you for renting with us!"
	msgReviewRequest    = "How was your experience with %s? Leave a review to help other renters."
)

var errAlreadyNotified = errors.New("notification already sent")

// Notifier turns booking events into user notifications. The review request
// that follows a completed rental is scheduled as a delayed job.
type Notifier struct {
	base
	notifications domain.Collection[models.Notification]
	scheduler     domain.JobScheduler
	reviewDelay   time.Duration
}

func NewNotifier(notifications domain.Collection[models.Notification], scheduler domain.JobScheduler, opts Options) *Notifier {
	return &Notifier{
		base:          newBase(Options{Logger: opts.Logger, Now: opts.Now}, "notifier"),
		notifications: notifications,
		scheduler:     scheduler,
		reviewDelay:   opts.ReviewRequestDelay,
	}
}

// Register subscribes the notifier to the bus and installs the review
// request job handler.
func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.HandleBookingCreated)
	bus.Subscribe(events.EventBookingStatusChanged, n.HandleStatusChanged)
	if n.scheduler != nil {
		n.scheduler.Handle(models.JobTypeReviewRequest, n.HandleReviewRequest)
	}
}

func (n *Notifier) HandleBookingCreated(ctx context.Context, event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}
	return n.notify(ctx, p.UserID, p.BookingID, models.NotificationPaymentReminder, fmt.Sprintf(msgPaymentReminder, p.ProductName))
}

// HandleStatusChanged emits at most one notification per transition.
func (n *Notifier) HandleStatusChanged(ctx context.Context, event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}

	switch {
	case p.NewStatus == models.StatusCancelled:
		return n.notify(ctx, p.UserID, p.BookingID, models.NotificationBookingCancelled, fmt.Sprintf(msgBookingCancelled, p.ProductName))
	case p.NewStatus == models.StatusCompleted:
		if err := n.notify(ctx, p.UserID, p.BookingID, models.NotificationBookingCompleted, fmt.Sprintf(msgBookingCompleted, p.ProductName)); err != nil {
			return err
		}
		return n.scheduleReviewRequest(ctx, p)
	case p.OldStatus == models.StatusPending && p.NewStatus == models.StatusConfirmed && p.PaymentCompleted:
		return n.notify(ctx, p.UserID, p.BookingID, models.NotificationBookingConfirmed, fmt.Sprintf(msgBookingConfirmed, p.ProductName))
	default:
		return nil
	}
}

func (n *Notifier) HandleReviewRequest(ctx context.Context, payload []byte) error {
	var p models.ReviewRequestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode review request: %w", err)
	}
	err := n.notifyOnce(ctx, p.UserID, p.BookingID, models.NotificationReviewRequest, fmt.Sprintf(msgReviewRequest, p.ProductName))
	if errors.Is(err, errAlreadyNotified) {
		n.logger.Debug().Int64("booking_id", p.BookingID.Int64()).Msg("Review request already sent")
		return nil
	}
	return err
}

func (n *Notifier) scheduleReviewRequest(ctx context.Context, p events.BookingEventPayload) error {
	payload := models.ReviewRequestPayload{
		BookingID:   p.BookingID,
		UserID:      p.UserID,
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
	}
	if n.scheduler == nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return n.HandleReviewRequest(ctx, b)
	}

	job, err := n.scheduler.Schedule(ctx, models.JobTypeReviewRequest, payload, n.reviewDelay)
	if err != nil {
		return fmt.Errorf("schedule review request: %w", err)
	}
	n.logger.Debug().
		Int64("job_id", job.ID.Int64()).
		Int64("booking_id", p.BookingID.Int64()).
		Str("run_at", job.RunAt.String()).
		Msg("Review request scheduled")
	return nil
}

func (n *Notifier) notify(ctx context.Context, userID models.UserID, bookingID models.BookingID, kind models.NotificationType, message string) error {
	return n.add(ctx, userID, bookingID, kind, message, nil)
}

// notifyOnce skips the notification when the booking already has one of the
// same kind. A retried job therefore never notifies twice.
func (n *Notifier) notifyOnce(ctx context.Context, userID models.UserID, bookingID models.BookingID, kind models.NotificationType, message string) error {
	return n.add(ctx, userID, bookingID, kind, message, func(existing []models.Notification) error {
		for _, item := range existing {
			if item.BookingID == bookingID && item.Type == kind {
				return errAlreadyNotified
			}
		}
		return nil
	})
}

func (n *Notifier) add(ctx context.Context, userID models.UserID, bookingID models.BookingID, kind models.NotificationType, message string, check func([]models.Notification) error) error {
	created, err := n.notifications.AddIf(ctx, models.Notification{
		UserID:    userID,
		BookingID: bookingID,
		Message:   message,
		Type:      kind,
		CreatedAt: models.NewTimestamp(n.now()),
	}, check)
	if errors.Is(err, errAlreadyNotified) {
		return err
	}
	if err != nil {
		return fmt.Errorf("create %s notification: %w", kind, err)
	}
	metrics.IncNotification(string(kind))
	n.logger.Info().
		Int64("notification_id", created.ID.Int64()).
		Int64("user_id", userID.Int64()).
		Str("type", string(kind)).
		Msg("Notification created")
	return nil
}
