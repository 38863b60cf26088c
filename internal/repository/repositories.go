package repository

import (
	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/models"
)

// Repositories groups the typed collections of one store.
type Repositories struct {
	Users         domain.Collection[models.User]
	Products      domain.Collection[models.Product]
	Bookings      domain.Collection[models.Booking]
	Reviews       domain.Collection[models.Review]
	Notifications domain.Collection[models.Notification]
	Jobs          domain.Collection[models.ScheduledJob]
}

func New(store *database.Store) *Repositories {
	return &Repositories{
		Users:         NewCollection[models.User](store, database.CollectionUsers),
		Products:      NewCollection[models.Product](store, database.CollectionProducts),
		Bookings:      NewCollection[models.Booking](store, database.CollectionBookings),
		Reviews:       NewCollection[models.Review](store, database.CollectionReviews),
		Notifications: NewCollection[models.Notification](store, database.CollectionNotifications),
		Jobs:          NewCollection[models.ScheduledJob](store, database.CollectionScheduledJobs),
	}
}
