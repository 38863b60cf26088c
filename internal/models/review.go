package models

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         ReviewID  `json:"id" yaml:"id"`
	UserID     UserID    `json:"user_id" yaml:"user_id"`
	ProductID  ProductID `json:"product_id" yaml:"product_id"`
	BookingID  BookingID `json:"booking_id" yaml:"booking_id"`
	Rating     int       `json:"rating" yaml:"rating"`
	ReviewText string    `json:"review_text" yaml:"review_text"`
	CreatedAt  Timestamp `json:"created_at" yaml:"created_at"`
}
