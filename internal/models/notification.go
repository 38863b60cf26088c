package models

type Notification struct {
	ID        NotificationID   `json:"id" yaml:"id"`
	UserID    UserID           `json:"user_id" yaml:"user_id"`
	BookingID BookingID        `json:"booking_id,omitempty" yaml:"booking_id"`
	Message   string           `json:"message" yaml:"message"`
	Type      NotificationType `json:"type" yaml:"type"`
	IsRead    bool             `json:"is_read" yaml:"is_read"`
	CreatedAt Timestamp        `json:"created_at" yaml:"created_at"`
}
