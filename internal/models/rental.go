package models

import (
	"math"
	"time"
)

var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusPending, StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusConfirmed, StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
// Completed and cancelled bookings are final.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s BookingStatus) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CountsTowardRevenue reports whether a booking in status s is billed.
func CountsTowardRevenue(s BookingStatus) bool {
	return s == StatusConfirmed || s == StatusCompleted
}

// DaysBetween returns ceil(|end-start| / 24h). A same-day rental is 0 days.
func DaysBetween(start, end Date) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	diff := end.Sub(start.Time)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}

// InclusiveDaysBetween counts both the first and the last calendar day.
func InclusiveDaysBetween(start, end Date) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return DaysBetween(start, end) + 1
}

// BookingAmount is price times DaysBetween(start, end). The product's
// PriceType is not applied: an hourly or weekly price is still charged per
// day, the way stored booking totals and revenue stats have always been
// computed.
func BookingAmount(price float64, start, end Date) float64 {
	return price * float64(DaysBetween(start, end))
}

// MonthKey formats t as "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
