package models

type MonthlyStat struct {
	Month    string  `json:"month"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

type DashboardStats struct {
	TotalUsers        int                   `json:"total_users"`
	TotalProducts     int                   `json:"total_products"`
	AvailableProducts int                   `json:"available_products"`
	TotalBookings     int                   `json:"total_bookings"`
	BookingsByStatus  map[BookingStatus]int `json:"bookings_by_status"`
	TotalRevenue      float64               `json:"total_revenue"`
	Monthly           []MonthlyStat         `json:"monthly"`
}
