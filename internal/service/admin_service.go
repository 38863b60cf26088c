package service

import (
	"context"
	"io"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/export"
	"rentalhub/internal/models"
)

// MonthsInDashboard is the length of the monthly series in dashboard stats.
const MonthsInDashboard = 6

type AdminService struct {
	base
	users    domain.Collection[models.User]
	products domain.Collection[models.Product]
	bookings domain.Collection[models.Booking]
	store    domain.StoreAdmin
}

func NewAdminService(
	users domain.Collection[models.User],
	products domain.Collection[models.Product],
	bookings domain.Collection[models.Booking],
	store domain.StoreAdmin,
	opts Options,
) *AdminService {
	return &AdminService{
		base:     newBase(opts, "admin"),
		users:    users,
		products: products,
		bookings: bookings,
		store:    store,
	}
}

// GetDashboardStats scans every collection and aggregates totals plus a
// monthly series ending with the month of now.
func (s *AdminService) GetDashboardStats(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	done, err := s.enter(ctx, "admin.get_dashboard_stats")
	if err != nil {
		return nil, err
	}
	defer done()

	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.All(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalUsers:    len(users),
		TotalProducts: len(products),
		TotalBookings: len(bookings),
		BookingsByStatus: map[models.BookingStatus]int{
			models.StatusPending:   0,
			models.StatusConfirmed: 0,
			models.StatusCompleted: 0,
			models.StatusCancelled: 0,
		},
	}

	prices := make(map[models.ProductID]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
		if p.IsAvailable() {
			stats.AvailableProducts++
		}
	}

	stats.Monthly = monthlySeries(now)
	months := make(map[string]*models.MonthlyStat, len(stats.Monthly))
	for i := range stats.Monthly {
		months[stats.Monthly[i].Month] = &stats.Monthly[i]
	}

	for _, b := range bookings {
		stats.BookingsByStatus[b.Status]++

		var amount float64
		if models.CountsTowardRevenue(b.Status) {
			amount = models.BookingAmount(prices[b.ProductID], b.StartDate, b.EndDate)
			stats.TotalRevenue += amount
		}

		if b.BookingDate.IsZero() {
			continue
		}
		if m, ok := months[models.MonthKey(b.BookingDate.Time)]; ok {
			m.Bookings++
			m.Revenue += amount
		}
	}
	return stats, nil
}

// ExportBookings writes bookings whose rental period overlaps [from, to] as
// an xlsx workbook. A zero bound is open.
func (s *AdminService) ExportBookings(ctx context.Context, w io.Writer, from, to time.Time) error {
	done, err := s.enter(ctx, "admin.export_bookings")
	if err != nil {
		return err
	}
	defer done()

	bookings, err := s.bookings.Filter(ctx, func(b *models.Booking) bool {
		if !from.IsZero() && b.EndDate.Before(from) {
			return false
		}
		if !to.IsZero() && b.StartDate.After(to) {
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	products, err := s.products.All(ctx)
	if err != nil {
		return err
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return err
	}

	if err := export.WriteBookingsXLSX(w, joinBookings(bookings, products, users), from, to); err != nil {
		return domain.Internal("could not export bookings", err)
	}
	s.logger.Info().Int("bookings", len(bookings)).Msg("Bookings exported")
	return nil
}

// Snapshot returns the whole document as indented JSON.
func (s *AdminService) Snapshot(ctx context.Context) ([]byte, error) {
	done, err := s.enter(ctx, "admin.snapshot")
	if err != nil {
		return nil, err
	}
	defer done()

	return s.store.Export(ctx)
}

// Ping reports whether the store backend is reachable.
func (s *AdminService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ResetDatabase replaces all data with the seed dataset.
func (s *AdminService) ResetDatabase(ctx context.Context) error {
	done, err := s.enter(ctx, "admin.reset_database")
	if err != nil {
		return err
	}
	defer done()

	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	s.logger.Warn().Msg("Database reset to seed data")
	return nil
}

func monthlySeries(now time.Time) []models.MonthlyStat {
	series := make([]models.MonthlyStat, 0, MonthsInDashboard)
	for i := MonthsInDashboard - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		series = append(series, models.MonthlyStat{Month: models.MonthKey(month)})
	}
	return series
}
