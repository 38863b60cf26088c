package service

import (
	"context"
	"sort"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/metrics"
	"rentalhub/internal/models"
)

type CreateNotificationInput struct {
	UserID    models.UserID           `json:"user_id" validate:"gt=0"`
	BookingID models.BookingID        `json:"booking_id" validate:"gte=0"`
	Message   string                  `json:"message" validate:"required,max=1000"`
	Type      models.NotificationType `json:"type" validate:"omitempty,oneof=payment_reminder booking_confirmed booking_cancelled booking_completed review_request system"`
}

type NotificationService struct {
	base
	notifications domain.Collection[models.Notification]
	users         domain.Collection[models.User]
}

func NewNotificationService(
	notifications domain.Collection[models.Notification],
	users domain.Collection[models.User],
	opts Options,
) *NotificationService {
	return &NotificationService{
		base:          newBase(opts, "notifications"),
		notifications: notifications,
		users:         users,
	}
}

func (s *NotificationService) GetAll(ctx context.Context) ([]models.Notification, error) {
	done, err := s.enter(ctx, "notifications.get_all")
	if err != nil {
		return nil, err
	}
	defer done()

	items, err := s.notifications.All(ctx)
	if err != nil {
		return nil, err
	}
	sortNotifications(items)
	return items, nil
}

func (s *NotificationService) GetByUserID(ctx context.Context, userID models.UserID) ([]models.Notification, error) {
	done, err := s.enter(ctx, "notifications.get_by_user_id")
	if err != nil {
		return nil, err
	}
	defer done()

	items, err := s.notifications.Query(ctx, database.Record{"user_id": userID})
	if err != nil {
		return nil, err
	}
	sortNotifications(items)
	return items, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id models.NotificationID) (*models.Notification, error) {
	done, err := s.enter(ctx, "notifications.mark_as_read")
	if err != nil {
		return nil, err
	}
	defer done()

	updated, err := s.notifications.Update(ctx, id, database.Record{"is_read": true})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("notification", id)
	}
	return updated, nil
}

// MarkAllAsRead marks every unread notification of the user and returns
// how many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID models.UserID) (int, error) {
	done, err := s.enter(ctx, "notifications.mark_all_as_read")
	if err != nil {
		return 0, err
	}
	defer done()

	unread, err := s.notifications.Query(ctx, database.Record{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, n := range unread {
		updated, err := s.notifications.Update(ctx, n.ID, database.Record{"is_read": true})
		if err != nil {
			return marked, err
		}
		if updated != nil {
			marked++
		}
	}
	return marked, nil
}

func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	done, err := s.enter(ctx, "notifications.create")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.NotificationSystem
	}

	user, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user", in.UserID)
	}

	created, err := s.notifications.Add(ctx, models.Notification{
		UserID:    in.UserID,
		BookingID: in.BookingID,
		Message:   in.Message,
		Type:      in.Type,
		CreatedAt: models.NewTimestamp(s.now()),
	})
	if err != nil {
		return nil, err
	}
	metrics.IncNotification(string(created.Type))
	return created, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID models.UserID) (int, error) {
	done, err := s.enter(ctx, "notifications.get_unread_count")
	if err != nil {
		return 0, err
	}
	defer done()

	unread, err := s.notifications.Query(ctx, database.Record{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

func sortNotifications(items []models.Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt.Time) {
			return items[i].CreatedAt.After(items[j].CreatedAt.Time)
		}
		return items[i].ID > items[j].ID
	})
}
