package service

import (
	"context"
	"sort"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/models"
)

type CreateBookingInput struct {
	UserID    models.UserID    `json:"user_id" validate:"gt=0"`
	ProductID models.ProductID `json:"product_id" validate:"gt=0"`
	StartDate models.Date      `json:"start_date"`
	EndDate   models.Date      `json:"end_date"`
	Message   string           `json:"message" validate:"max=1000"`
}

type BookingService struct {
	base
	bookings domain.Collection[models.Booking]
	products domain.Collection[models.Product]
	users    domain.Collection[models.User]
	events   domain.EventPublisher
}

// NewBookingService wires the booking façade. publisher may be nil, in which
// case no notifications are produced.
func NewBookingService(
	bookings domain.Collection[models.Booking],
	products domain.Collection[models.Product],
	users domain.Collection[models.User],
	publisher domain.EventPublisher,
	opts Options,
) *BookingService {
	return &BookingService{
		base:     newBase(opts, "bookings"),
		bookings: bookings,
		products: products,
		users:    users,
		events:   publisher,
	}
}

// GetAll returns every booking joined with its product and user, newest first.
func (s *BookingService) GetAll(ctx context.Context) ([]models.BookingDetails, error) {
	done, err := s.enter(ctx, "bookings.get_all")
	if err != nil {
		return nil, err
	}
	defer done()

	bookings, err := s.bookings.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, bookings)
}

func (s *BookingService) GetByUserID(ctx context.Context, userID models.UserID) ([]models.BookingDetails, error) {
	done, err := s.enter(ctx, "bookings.get_by_user_id")
	if err != nil {
		return nil, err
	}
	defer done()

	bookings, err := s.bookings.Query(ctx, database.Record{"user_id": userID})
	if err != nil {
		return nil, err
	}
	return s.details(ctx, bookings)
}

func (s *BookingService) GetByID(ctx context.Context, id models.BookingID) (*models.BookingDetails, error) {
	done, err := s.enter(ctx, "bookings.get_by_id")
	if err != nil {
		return nil, err
	}
	defer done()

	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.NotFound("booking", id)
	}
	details, err := s.details(ctx, []models.Booking{*booking})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Create stores a new pending booking and publishes booking.created.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	done, err := s.enter(ctx, "bookings.create")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, domain.Validation("start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate.Time) {
		return nil, domain.Validation("end_date must not be before start_date")
	}

	user, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user", in.UserID)
	}
	if user.IsBlocked() {
		return nil, domain.Auth("account is blocked")
	}

	product, err := s.products.Get(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("product", in.ProductID)
	}
	if product.Status == models.ProductComingSoon {
		return nil, domain.Validation("product %q is not available for rent yet", product.Name)
	}

	now := models.NewTimestamp(s.now())
	created, err := s.bookings.Add(ctx, models.Booking{
		UserID:      in.UserID,
		ProductID:   in.ProductID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		BookingDate: now,
		Status:      models.StatusPending,
		Message:     in.Message,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", created.ID.Int64()).
		Int64("user_id", created.UserID.Int64()).
		Int64("product_id", created.ProductID.Int64()).
		Msg("Booking created")

	s.publishEvent(ctx, events.EventBookingCreated, events.BookingEventPayload{
		BookingID:   created.ID,
		UserID:      created.UserID,
		ProductID:   created.ProductID,
		ProductName: product.Name,
		NewStatus:   created.Status,
	})
	return created, nil
}

// UpdateStatus moves a booking to status and publishes
// booking.status_changed. paymentCompleted is only ever set, never cleared.
func (s *BookingService) UpdateStatus(ctx context.Context, id models.BookingID, status models.BookingStatus, paymentCompleted bool) (*models.Booking, error) {
	done, err := s.enter(ctx, "bookings.update_status")
	if err != nil {
		return nil, err
	}
	defer done()

	if !status.Valid() {
		return nil, domain.Validation("invalid booking status %q", status)
	}

	var oldStatus models.BookingStatus
	updated, err := s.bookings.UpdateFunc(ctx, id, func(current *models.Booking, _ []models.Booking) (database.Record, error) {
		if !models.CanTransition(current.Status, status) {
			return nil, domain.Validation("cannot change booking status from %s to %s", current.Status, status)
		}
		oldStatus = current.Status
		fields := database.Record{
			"status":     status,
			"updated_at": models.NewTimestamp(s.now()),
		}
		if paymentCompleted {
			fields["payment_completed"] = true
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("booking", id)
	}

	productName := models.UnknownProductName
	if product, err := s.products.Get(ctx, updated.ProductID); err == nil && product != nil {
		productName = product.Name
	}

	s.logger.Info().
		Int64("booking_id", id.Int64()).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(status)).
		Bool("payment_completed", paymentCompleted).
		Msg("Booking status updated")

	s.publishEvent(ctx, events.EventBookingStatusChanged, events.BookingEventPayload{
		BookingID:        updated.ID,
		UserID:           updated.UserID,
		ProductID:        updated.ProductID,
		ProductName:      productName,
		OldStatus:        oldStatus,
		NewStatus:        status,
		PaymentCompleted: paymentCompleted,
	})
	return updated, nil
}

func (s *BookingService) details(ctx context.Context, bookings []models.Booking) ([]models.BookingDetails, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	return joinBookings(bookings, products, users), nil
}

// joinBookings resolves product and user names and orders the result
// newest first.
func joinBookings(bookings []models.Booking, products []models.Product, users []models.User) []models.BookingDetails {
	productsByID := make(map[models.ProductID]*models.Product, len(products))
	for i := range products {
		productsByID[products[i].ID] = &products[i]
	}
	usersByID := make(map[models.UserID]*models.User, len(users))
	for i := range users {
		usersByID[users[i].ID] = &users[i]
	}

	out := make([]models.BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, models.NewBookingDetails(b, productsByID[b.ProductID], usersByID[b.UserID]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate.Time) {
			return out[i].BookingDate.After(out[j].BookingDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, payload events.BookingEventPayload) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, eventType, payload); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", eventType).
			Int64("booking_id", payload.BookingID.Int64()).
			Msg("publish event error")
	}
}
