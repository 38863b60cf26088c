package models

type Booking struct {
	ID               BookingID     `json:"id" yaml:"id"`
	UserID           UserID        `json:"user_id" yaml:"user_id"`
	ProductID        ProductID     `json:"product_id" yaml:"product_id"`
	StartDate        Date          `json:"start_date" yaml:"start_date"`
	EndDate          Date          `json:"end_date" yaml:"end_date"`
	BookingDate      Timestamp     `json:"booking_date" yaml:"booking_date"`
	Status           BookingStatus `json:"status" yaml:"status"`
	Message          string        `json:"message" yaml:"message"`
	PaymentCompleted bool          `json:"payment_completed" yaml:"payment_completed"`
	UpdatedAt        Timestamp     `json:"updated_at" yaml:"updated_at"`
}

// Days is the billable rental length, see DaysBetween.
func (b Booking) Days() int {
	return DaysBetween(b.StartDate, b.EndDate)
}

// BookingDetails is a booking joined with its product and user.
type BookingDetails struct {
	Booking
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image,omitempty"`
	Category     string  `json:"category,omitempty"`
	Price        float64 `json:"price"`
	UserName     string  `json:"user_name"`
	UserEmail    string  `json:"user_email,omitempty"`
	RentalDays   int     `json:"rental_days"`
	TotalPrice   float64 `json:"total_price"`
}

// NewBookingDetails joins b with its product and user. Either may be nil
// when the referenced record no longer exists.
func NewBookingDetails(b Booking, product *Product, user *User) BookingDetails {
	d := BookingDetails{
		Booking:     b,
		ProductName: UnknownProductName,
		UserName:    UnknownUserName,
		RentalDays:  b.Days(),
	}
	if product != nil {
		d.ProductName = product.Name
		d.ProductImage = product.ImageURL
		d.Category = product.Category
		d.Price = product.Price
		d.TotalPrice = BookingAmount(product.Price, b.StartDate, b.EndDate)
	}
	if user != nil {
		d.UserName = user.FullName
		d.UserEmail = user.Email
	}
	return d
}
