package service

import (
	"testing"

	"rentalhub/internal/domain"
	"rentalhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService(t *testing.T) {
	f := newFixture(t)
	reviews := f.admin.Reviews

	all, err := reviews.GetAll(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = reviews.Create(f.ctx, CreateReviewInput{UserID: 3, ProductID: 3, BookingID: 2, Rating: 4})
	require.Error(t, err)
	assert.Equal(t, "only completed bookings can be reviewed", domain.MessageOf(err))

	_, err = f.admin.Bookings.UpdateStatus(f.ctx, 2, models.StatusCompleted, false)
	require.NoError(t, err)

	created, err := reviews.Create(f.ctx, CreateReviewInput{UserID: 3, ProductID: 3, BookingID: 2, Rating: 4, ReviewText: "Solid drill."})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewID(2), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	forDrill, err := reviews.GetByProductID(f.ctx, 3)
	require.NoError(t, err)
	require.Len(t, forDrill, 1)
	assert.Equal(t, 4, forDrill[0].Rating)

	all, err = reviews.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, created.ID, all[0].ID, "newest first")
}

func TestReviewService_Rejected(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input CreateReviewInput
		want  error
	}{
		{"rating too high", CreateReviewInput{UserID: 2, ProductID: 1, BookingID: 1, Rating: 6}, domain.ErrValidation},
		{"rating too low", CreateReviewInput{UserID: 2, ProductID: 1, BookingID: 1, Rating: 0}, domain.ErrValidation},
		{"already reviewed", CreateReviewInput{UserID: 2, ProductID: 1, BookingID: 1, Rating: 3}, domain.ErrValidation},
		{"someone else's booking", CreateReviewInput{UserID: 3, ProductID: 1, BookingID: 1, Rating: 3}, domain.ErrValidation},
		{"wrong product", CreateReviewInput{UserID: 2, ProductID: 2, BookingID: 1, Rating: 3}, domain.ErrValidation},
		{"missing booking", CreateReviewInput{UserID: 2, ProductID: 1, BookingID: 40, Rating: 3}, domain.ErrNotFound},
		{"missing user", CreateReviewInput{UserID: 40, ProductID: 1, BookingID: 1, Rating: 3}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.admin.Reviews.Create(f.ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
