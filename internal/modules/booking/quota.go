package booking

import (
	"context"
	"time"

	"courtbooking/internal/domain"
)

type quotaReader interface {
	FindActiveForUserOnDay(ctx context.Context, userID int64, day time.Time) (*domain.Booking, error)
}

// QuotaEnforcer applies the one-active-match-per-day rule. Its reads must run
// in the same transaction as the write that depends on them.
type QuotaEnforcer struct {
	bookings quotaReader
}

func NewQuotaEnforcer(bookings quotaReader) *QuotaEnforcer {
	return &QuotaEnforcer{bookings: bookings}
}

// ActiveBookingOn returns the pending or confirmed booking in which the user
// plays on the calendar day of date, or nil.
func (q *QuotaEnforcer) ActiveBookingOn(ctx context.Context, userID int64, date time.Time) (*domain.Booking, error) {
	return q.bookings.FindActiveForUserOnDay(ctx, userID, domain.Day(date))
}

// Check returns a quota ConflictError naming the first of userIDs that already
// plays on day.
func (q *QuotaEnforcer) Check(ctx context.Context, day time.Time, userIDs []int64) error {
	for _, id := range userIDs {
		existing, err := q.ActiveBookingOn(ctx, id, day)
		if err != nil {
			return err
		}
		if existing != nil {
			return &domain.ConflictError{
				Kind:      domain.ConflictQuota,
				Date:      domain.Day(day),
				UserID:    id,
				BookingID: existing.ID,
			}
		}
	}
	return nil
}
