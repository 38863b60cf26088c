package service

import (
	"context"
	"strings"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/models"
	"rentalhub/internal/password"
)

const errInvalidCredentials = "invalid email or password"

type RegisterInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"max=32"`
}

// UpdateProfileInput changes the given fields only. CurrentPassword must be
// set to change Email or Password.
type UpdateProfileInput struct {
	FullName        *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email           *string `json:"email" validate:"omitempty,email,max=254"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	Password        *string `json:"password" validate:"omitempty,min=6,max=72"`
	CurrentPassword *string `json:"current_password"`
}

type UserService struct {
	base
	users    domain.Collection[models.User]
	bookings domain.Collection[models.Booking]
	products domain.Collection[models.Product]
}

func NewUserService(
	users domain.Collection[models.User],
	bookings domain.Collection[models.Booking],
	products domain.Collection[models.Product],
	opts Options,
) *UserService {
	return &UserService{
		base:     newBase(opts, "users"),
		users:    users,
		bookings: bookings,
		products: products,
	}
}

// Login checks the credentials and returns the redacted user.
func (s *UserService) Login(ctx context.Context, email, plain string) (*models.User, error) {
	done, err := s.enter(ctx, "users.login")
	if err != nil {
		return nil, err
	}
	defer done()

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Matches(user.Password, plain) {
		s.logger.Warn().Str("email", normalizeEmail(email)).Msg("Login failed")
		return nil, domain.Auth(errInvalidCredentials)
	}
	if user.IsBlocked() {
		return nil, domain.Auth("account is blocked")
	}

	redacted := user.Redacted()
	return &redacted, nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	done, err := s.enter(ctx, "users.register")
	if err != nil {
		return nil, err
	}
	defer done()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, domain.Internal("could not register user", err)
	}

	user := models.User{
		FullName:  in.FullName,
		Email:     in.Email,
		Password:  hashed,
		Phone:     in.Phone,
		Role:      models.RoleUser,
		Status:    models.UserActive,
		CreatedAt: models.NewTimestamp(s.now()),
	}
	created, err := s.users.AddIf(ctx, user, func(existing []models.User) error {
		if emailTaken(existing, in.Email, 0) {
			return domain.Validation("email already in use")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", created.ID.Int64()).Msg("User registered")
	redacted := created.Redacted()
	return &redacted, nil
}

func (s *UserService) GetProfile(ctx context.Context, id models.UserID) (*models.User, error) {
	done, err := s.enter(ctx, "users.get_profile")
	if err != nil {
		return nil, err
	}
	defer done()

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user", id)
	}
	redacted := user.Redacted()
	return &redacted, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id models.UserID, in UpdateProfileInput) (*models.User, error) {
	done, err := s.enter(ctx, "users.update_profile")
	if err != nil {
		return nil, err
	}
	defer done()

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	fields := database.Record{}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if in.Password != nil {
		hashed, err := password.Hash(*in.Password)
		if err != nil {
			return nil, domain.Internal("could not update password", err)
		}
		fields["password"] = hashed
	}

	sensitive := in.Email != nil || in.Password != nil
	if sensitive && (in.CurrentPassword == nil || *in.CurrentPassword == "") {
		return nil, domain.Validation("current_password is required to change email or password")
	}

	updated, err := s.users.UpdateFunc(ctx, id, func(current *models.User, all []models.User) (database.Record, error) {
		if sensitive && !password.Matches(current.Password, *in.CurrentPassword) {
			return nil, domain.Auth("current password is incorrect")
		}
		if in.Email != nil && emailTaken(all, *in.Email, id) {
			return nil, domain.Validation("email already in use")
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("user", id)
	}
	redacted := updated.Redacted()
	return &redacted, nil
}

func (s *UserService) GetAll(ctx context.Context) ([]models.User, error) {
	done, err := s.enter(ctx, "users.get_all")
	if err != nil {
		return nil, err
	}
	defer done()

	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Redacted()
	}
	return users, nil
}

// GetStats summarizes the bookings of one user. Spending counts confirmed
// and completed bookings only.
func (s *UserService) GetStats(ctx context.Context, id models.UserID) (*models.UserStats, error) {
	done, err := s.enter(ctx, "users.get_stats")
	if err != nil {
		return nil, err
	}
	defer done()

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user", id)
	}

	bookings, err := s.bookings.Query(ctx, database.Record{"user_id": id})
	if err != nil {
		return nil, err
	}
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[models.ProductID]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	stats := &models.UserStats{TotalBookings: len(bookings)}
	for _, b := range bookings {
		switch b.Status {
		case models.StatusPending, models.StatusConfirmed:
			stats.ActiveBookings++
		case models.StatusCompleted:
			stats.CompletedBookings++
		case models.StatusCancelled:
			stats.CancelledBookings++
		}
		if models.CountsTowardRevenue(b.Status) {
			stats.TotalSpent += models.BookingAmount(prices[b.ProductID], b.StartDate, b.EndDate)
		}
	}
	return stats, nil
}

func (s *UserService) UpdateStatus(ctx context.Context, id models.UserID, status models.UserStatus) (*models.User, error) {
	done, err := s.enter(ctx, "users.update_status")
	if err != nil {
		return nil, err
	}
	defer done()

	if !status.Valid() {
		return nil, domain.Validation("invalid user status %q", status)
	}

	updated, err := s.users.Update(ctx, id, database.Record{"status": status})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("user", id)
	}

	s.logger.Info().Int64("user_id", id.Int64()).Str("status", string(status)).Msg("User status updated")
	redacted := updated.Redacted()
	return &redacted, nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	matches, err := s.users.Filter(ctx, func(u *models.User) bool {
		return normalizeEmail(u.Email) == email
	})
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &matches[0], nil
}

// emailTaken reports whether a user other than self already has email.
func emailTaken(users []models.User, email string, self models.UserID) bool {
	email = normalizeEmail(email)
	for _, u := range users {
		if u.ID != self && normalizeEmail(u.Email) == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
