package models

type User struct {
	ID        UserID     `json:"id" yaml:"id"`
	FullName  string     `json:"full_name" yaml:"full_name"`
	Email     string     `json:"email" yaml:"email"`
	Password  string     `json:"password,omitempty" yaml:"password"`
	Phone     string     `json:"phone" yaml:"phone"`
	Role      UserRole   `json:"role" yaml:"role"`
	Status    UserStatus `json:"status" yaml:"status"`
	CreatedAt Timestamp  `json:"created_at" yaml:"created_at"`
}

// Redacted returns a copy of the user without the password hash.
func (u User) Redacted() User {
	u.Password = ""
	return u
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsBlocked() bool {
	return u.Status == UserBlocked
}

type UserStats struct {
	TotalBookings     int     `json:"total_bookings"`
	ActiveBookings    int     `json:"active_bookings"`
	CompletedBookings int     `json:"completed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	TotalSpent        float64 `json:"total_spent"`
}
