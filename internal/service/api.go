package service

import (
	"rentalhub/internal/domain"
	"rentalhub/internal/repository"
)

// API groups the entity services used by regular clients.
type API struct {
	Products      *ProductService
	Bookings      *BookingService
	Users         *UserService
	Reviews       *ReviewService
	Notifications *NotificationService
}

func NewAPI(repos *repository.Repositories, publisher domain.EventPublisher, opts Options) *API {
	return &API{
		Products:      NewProductService(repos.Products, opts),
		Bookings:      NewBookingService(repos.Bookings, repos.Products, repos.Users, publisher, opts),
		Users:         NewUserService(repos.Users, repos.Bookings, repos.Products, opts),
		Reviews:       NewReviewService(repos.Reviews, repos.Bookings, repos.Products, repos.Users, opts),
		Notifications: NewNotificationService(repos.Notifications, repos.Users, opts),
	}
}

// Admin is the API plus dashboard, export and store maintenance. It shares
// the entity services of the API it was built from.
type Admin struct {
	*API
	Dashboard *AdminService
}

func NewAdmin(api *API, repos *repository.Repositories, store domain.StoreAdmin, opts Options) *Admin {
	return &Admin{
		API:       api,
		Dashboard: NewAdminService(repos.Users, repos.Products, repos.Bookings, store, opts),
	}
}
