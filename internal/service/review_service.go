package service

import (
	"context"
	"sort"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/models"
)

type CreateReviewInput struct {
	UserID     models.UserID    `json:"user_id" validate:"gt=0"`
	ProductID  models.ProductID `json:"product_id" validate:"gt=0"`
	BookingID  models.BookingID `json:"booking_id" validate:"gt=0"`
	Rating     int              `json:"rating" validate:"gte=1,lte=5"`
	ReviewText string           `json:"review_text" validate:"max=2000"`
}

type ReviewService struct {
	base
	reviews  domain.Collection[models.Review]
	bookings domain.Collection[models.Booking]
	products domain.Collection[models.Product]
	users    domain.Collection[models.User]
}

func NewReviewService(
	reviews domain.Collection[models.Review],
	bookings domain.Collection[models.Booking],
	products domain.Collection[models.Product],
	users domain.Collection[models.User],
	opts Options,
) *ReviewService {
	return &ReviewService{
		base:     newBase(opts, "reviews"),
		reviews:  reviews,
		bookings: bookings,
		products: products,
		users:    users,
	}
}

func (s *ReviewService) GetAll(ctx context.Context) ([]models.Review, error) {
	done, err := s.enter(ctx, "reviews.get_all")
	if err != nil {
		return nil, err
	}
	defer done()

	reviews, err := s.reviews.All(ctx)
	if err != nil {
		return nil, err
	}
	sortReviews(reviews)
	return reviews, nil
}

func (s *ReviewService) GetByProductID(ctx context.Context, productID models.ProductID) ([]models.Review, error) {
	done, err := s.enter(ctx, "reviews.get_by_product_id")
	if err != nil {
		return nil, err
	}
	defer done()

	reviews, err := s.reviews.Query(ctx, database.Record{"product_id": productID})
	if err != nil {
		return nil, err
	}
	sortReviews(reviews)
	return reviews, nil
}

// Create stores a review for a completed booking. Each booking can be
// reviewed once, by the user who made it.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	done, err := s.enter(ctx, "reviews.create")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user", in.UserID)
	}
	product, err := s.products.Get(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("product", in.ProductID)
	}
	booking, err := s.bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.NotFound("booking", in.BookingID)
	}

	if booking.UserID != in.UserID || booking.ProductID != in.ProductID {
		return nil, domain.Validation("booking %d does not belong to this user and product", in.BookingID)
	}
	if booking.Status != models.StatusCompleted {
		return nil, domain.Validation("only completed bookings can be reviewed")
	}

	review := models.Review{
		UserID:     in.UserID,
		ProductID:  in.ProductID,
		BookingID:  in.BookingID,
		Rating:     in.Rating,
		ReviewText: in.ReviewText,
		CreatedAt:  models.NewTimestamp(s.now()),
	}
	created, err := s.reviews.AddIf(ctx, review, func(existing []models.Review) error {
		for _, r := range existing {
			if r.BookingID == in.BookingID {
				return domain.Validation("booking %d has already been reviewed", in.BookingID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("review_id", created.ID.Int64()).
		Int64("product_id", created.ProductID.Int64()).
		Int("rating", created.Rating).
		Msg("Review created")
	return created, nil
}

func sortReviews(reviews []models.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt.Time) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt.Time)
		}
		return reviews[i].ID > reviews[j].ID
	})
}
