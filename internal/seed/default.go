package seed

import (
	"time"

	"rentalhub/internal/models"
)

func ts(year int, month time.Month, day, hour, minute int) models.Timestamp {
	return models.NewTimestamp(time.Date(year, month, day, hour, minute, 0, 0, time.Local))
}

// Default is the dataset a new installation starts with.
func Default() *Dataset {
	return &Dataset{
		Users: []models.User{
			{ID: 1, FullName: "Admin User", Email: "admin@rentalhub.local", Password: "admin123", Phone: "+1 555 0100", Role: models.RoleAdmin, Status: models.UserActive, CreatedAt: ts(2024, time.January, 2, 9, 0)},
			{ID: 2, FullName: "John Smith", Email: "john@example.com", Password: "password123", Phone: "+1 555 0101", Role: models.RoleUser, Status: models.UserActive, CreatedAt: ts(2024, time.January, 15, 10, 30)},
			{ID: 3, FullName: "Maria Garcia", Email: "maria@example.com", Password: "password123", Phone: "+1 555 0102", Role: models.RoleUser, Status: models.UserActive, CreatedAt: ts(2024, time.February, 3, 18, 5)},
			{ID: 4, FullName: "Alex Chen", Email: "alex@example.com", Password: "password123", Phone: "+1 555 0103", Role: models.RoleUser, Status: models.UserBlocked, CreatedAt: ts(2024, time.March, 11, 12, 45)},
		},
		Products: []models.Product{
			{ID: 1, Name: "Canon EOS R5 Camera Kit", Category: "Cameras", Description: "Full-frame mirrorless body with 24-105mm lens, two batteries and a 128GB card.", Price: 45, PriceType: models.PricePerDay, Deposit: 500, Status: models.ProductAvailable, ImageURL: "/images/products/canon-r5.jpg", Features: []string{"45MP sensor", "8K video", "In-body stabilization"}, CreatedAt: ts(2024, time.January, 5, 9, 0)},
			{ID: 2, Name: "DJI Mavic 3 Pro Drone", Category: "Drones", Description: "Triple-camera drone with three batteries and a charging hub.", Price: 60, PriceType: models.PricePerDay, Deposit: 800, Status: models.ProductAvailable, ImageURL: "/images/products/mavic-3.jpg", Features: []string{"43 min flight time", "4/3 CMOS camera", "Obstacle sensing"}, CreatedAt: ts(2024, time.January, 5, 9, 10)},
			{ID: 3, Name: "Makita Cordless Drill Set", Category: "Tools", Description: "18V drill driver with two batteries, charger and bit set.", Price: 15, PriceType: models.PricePerDay, Deposit: 100, Status: models.ProductRented, ImageURL: "/images/products/makita-drill.jpg", Features: []string{"Brushless motor", "Two 5Ah batteries"}, CreatedAt: ts(2024, time.January, 6, 11, 0)},
			{ID: 4, Name: "4-Person Camping Tent", Category: "Outdoor", Description: "Waterproof dome tent that sets up in ten minutes.", Price: 25, PriceType: models.PricePerDay, Deposit: 50, Status: models.ProductAvailable, ImageURL: "/images/products/tent.jpg", Features: []string{"Sleeps 4", "3000mm waterproofing"}, CreatedAt: ts(2024, time.January, 8, 14, 20)},
			{ID: 5, Name: "Sony FX3 Cinema Camera", Category: "Cameras", Description: "Compact full-frame cinema camera.", Price: 120, PriceType: models.PricePerDay, Deposit: 1500, Status: models.ProductComingSoon, ImageURL: "/images/products/sony-fx3.jpg", Features: []string{"4K 120p", "Dual base ISO"}, CreatedAt: ts(2024, time.February, 20, 16, 0)},
			{ID: 6, Name: "Electric Scooter", Category: "Mobility", Description: "Foldable scooter with 40 km range, helmet included.", Price: 8, PriceType: models.PricePerHour, Deposit: 200, Status: models.ProductAvailable, ImageURL: "/images/products/scooter.jpg", Features: []string{"40 km range", "25 km/h top speed"}, CreatedAt: ts(2024, time.March, 1, 10, 0)},
		},
		Bookings: []models.Booking{
			{ID: 1, UserID: 2, ProductID: 1, StartDate: models.NewDate(2024, time.April, 5), EndDate: models.NewDate(2024, time.April, 8), BookingDate: ts(2024, time.April, 1, 13, 20), Status: models.StatusCompleted, Message: "Weekend wedding shoot.", PaymentCompleted: true, UpdatedAt: ts(2024, time.April, 8, 19, 0)},
			{ID: 2, UserID: 3, ProductID: 3, StartDate: models.NewDate(2024, time.May, 10), EndDate: models.NewDate(2024, time.May, 12), BookingDate: ts(2024, time.May, 6, 9, 45), Status: models.StatusConfirmed, Message: "Kitchen renovation.", PaymentCompleted: true, UpdatedAt: ts(2024, time.May, 6, 15, 0)},
			{ID: 3, UserID: 2, ProductID: 2, StartDate: models.NewDate(2024, time.June, 1), EndDate: models.NewDate(2024, time.June, 3), BookingDate: ts(2024, time.May, 20, 17, 30), Status: models.StatusPending, Message: "Aerial shots of the coast.", UpdatedAt: ts(2024, time.May, 20, 17, 30)},
			{ID: 4, UserID: 3, ProductID: 4, StartDate: models.NewDate(2024, time.June, 14), EndDate: models.NewDate(2024, time.June, 16), BookingDate: ts(2024, time.May, 25, 8, 10), Status: models.StatusCancelled, Message: "Camping trip, plans changed.", UpdatedAt: ts(2024, time.May, 27, 11, 0)},
		},
		Reviews: []models.Review{
			{ID: 1, UserID: 2, ProductID: 1, BookingID: 1, Rating: 5, ReviewText: "Spotless kit, batteries fully charged. Will rent again.", CreatedAt: ts(2024, time.April, 9, 10, 0)},
		},
		Notifications: []models.Notification{
			{ID: 1, UserID: 2, BookingID: 1, Message: "Your rental of Canon EOS R5 Camera Kit is complete. Thank you for renting with us!", Type: models.NotificationBookingCompleted, IsRead: true, CreatedAt: ts(2024, time.April, 8, 19, 0)},
			{ID: 2, UserID: 3, BookingID: 2, Message: "Your booking for Makita Cordless Drill Set has been confirmed.", Type: models.NotificationBookingConfirmed, CreatedAt: ts(2024, time.May, 6, 15, 0)},
			{ID: 3, UserID: 2, BookingID: 3, Message: "Your booking for DJI Mavic 3 Pro Drone has been received. Please complete the payment to confirm it.", Type: models.NotificationPaymentReminder, CreatedAt: ts(2024, time.May, 20, 17, 30)},
			{ID: 4, UserID: 3, BookingID: 4, Message: "Your booking for 4-Person Camping Tent has been cancelled.", Type: models.NotificationBookingCancelled, CreatedAt: ts(2024, time.May, 27, 11, 0)},
		},
	}
}
