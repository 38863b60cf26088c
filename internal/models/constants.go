package models

type (
	BookingStatus    string
	ProductStatus    string
	PriceType        string
	UserRole         string
	UserStatus       string
	NotificationType string
)

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

const (
	ProductAvailable  ProductStatus = "available"
	ProductRented     ProductStatus = "rented"
	ProductComingSoon ProductStatus = "coming_soon"
)

const (
	PricePerHour  PriceType = "hour"
	PricePerDay   PriceType = "day"
	PricePerWeek  PriceType = "week"
	PricePerMonth PriceType = "month"
)

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"

	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

const (
	NotificationPaymentReminder  NotificationType = "payment_reminder"
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationReviewRequest    NotificationType = "review_request"
	NotificationSystem           NotificationType = "system"
)

const (
	// UnknownProductName is shown for bookings whose product was deleted.
	UnknownProductName = "Unknown Product"
	UnknownUserName    = "Unknown User"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductRented, ProductComingSoon:
		return true
	}
	return false
}

func (p PriceType) Valid() bool {
	switch p {
	case PricePerHour, PricePerDay, PricePerWeek, PricePerMonth:
		return true
	}
	return false
}

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserBlocked
}

func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationPaymentReminder, NotificationBookingConfirmed, NotificationBookingCancelled,
		NotificationBookingCompleted, NotificationReviewRequest, NotificationSystem:
		return true
	}
	return false
}
