package service

import (
	"errors"
	"testing"

	"rentalhub/internal/domain"
	"rentalhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Login(t *testing.T) {
	f := newFixture(t)
	users := f.admin.Users

	user, err := users.Login(f.ctx, " John@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.UserID(2), user.ID)
	assert.Empty(t, user.Password)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "john@example.com", "nope"},
		{"unknown email", "ghost@example.com", "password123"},
		{"blocked account", "alex@example.com", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Login(f.ctx, tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrAuth))
			assert.NotContains(t, err.Error(), tt.password)
		})
	}
}

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)
	users := f.admin.Users

	created, err := users.Register(f.ctx, RegisterInput{FullName: "Nina Park", Email: "Nina@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.UserID(5), created.ID)
	assert.Equal(t, "nina@example.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.Equal(t, models.UserActive, created.Status)
	assert.Empty(t, created.Password)

	stored, err := f.repos.Users.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)

	_, err = users.Login(f.ctx, "nina@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input RegisterInput
		msg   string
	}{
		{"duplicate email", RegisterInput{FullName: "John", Email: "JOHN@example.com", Password: "secret1"}, "email already in use"},
		{"short password", RegisterInput{FullName: "Tom", Email: "tom@example.com", Password: "123"}, "password must be at least 6 characters"},
		{"bad email", RegisterInput{FullName: "Tom", Email: "tom", Password: "secret1"}, "email must be a valid email address"},
		{"missing name", RegisterInput{Email: "tom@example.com", Password: "secret1"}, "full_name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Register(f.ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, tt.msg, domain.MessageOf(err))
		})
	}
}

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t)
	users := f.admin.Users

	profile, err := users.GetProfile(f.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Maria Garcia", profile.FullName)
	assert.Empty(t, profile.Password)

	_, err = users.GetProfile(f.ctx, 50)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	current := "password123"
	taken := "john@example.com"
	_, err = users.UpdateProfile(f.ctx, 3, UpdateProfileInput{Email: &taken, CurrentPassword: &current})
	assert.ErrorIs(t, err, domain.ErrValidation)

	own := "MARIA@example.com"
	phone := "+34 600 000 000"
	newPassword := "newsecret"
	updated, err := users.UpdateProfile(f.ctx, 3, UpdateProfileInput{Email: &own, Phone: &phone, Password: &newPassword, CurrentPassword: &current})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", updated.Email)
	assert.Equal(t, phone, updated.Phone)
	assert.Empty(t, updated.Password)

	_, err = users.Login(f.ctx, "maria@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, err = users.Login(f.ctx, "maria@example.com", newPassword)
	assert.NoError(t, err)
}

func TestUserService_GetAllRedacted(t *testing.T) {
	f := newFixture(t)

	all, err := f.admin.Users.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, u := range all {
		assert.Empty(t, u.Password)
	}
}

func TestUserService_GetStats(t *testing.T) {
	f := newFixture(t)

	stats, err := f.admin.Users.GetStats(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{
		TotalBookings:     2,
		ActiveBookings:    1,
		CompletedBookings: 1,
		TotalSpent:        135,
	}, *stats)

	stats, err = f.admin.Users.GetStats(f.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CancelledBookings)
	assert.Equal(t, 30.0, stats.TotalSpent)

	_, err = f.admin.Users.GetStats(f.ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	users := f.admin.Users

	_, err := users.UpdateStatus(f.ctx, 2, "suspended")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = users.UpdateStatus(f.ctx, 99, models.UserBlocked)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	blocked, err := users.UpdateStatus(f.ctx, 2, models.UserBlocked)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked())

	_, err = users.Login(f.ctx, "john@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, err = users.UpdateStatus(f.ctx, 4, models.UserActive)
	require.NoError(t, err)
	_, err = users.Login(f.ctx, "alex@example.com", "password123")
	assert.NoError(t, err)
}

func TestUserService_UpdateProfileNeedsCurrentPassword(t *testing.T) {
	f := newFixture(t)
	users := f.admin.Users
	newPassword := "newsecret"

	_, err := users.UpdateProfile(f.ctx, 2, UpdateProfileInput{Password: &newPassword})
	assert.ErrorIs(t, err, domain.ErrValidation)

	wrong := "not-my-password"
	_, err = users.UpdateProfile(f.ctx, 2, UpdateProfileInput{Password: &newPassword, CurrentPassword: &wrong})
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, err = users.Login(f.ctx, "john@example.com", "password123")
	assert.NoError(t, err)

	name := "Johnny Smith"
	updated, err := users.UpdateProfile(f.ctx, 2, UpdateProfileInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
}
