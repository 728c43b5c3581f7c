package booking

import (
	"context"
	"time"

	"courtbooking/internal/domain"
)

// BookingRepository defines the storage operations the booking flows need.
// Calls made with a transaction context join that transaction.
type BookingRepository interface {
	CreateMany(ctx context.Context, bookings []*domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	FindActiveForUserOnDay(ctx context.Context, userID int64, day time.Time) (*domain.Booking, error)
	ListOccupyingCourtOnDay(ctx context.Context, courtID int64, day time.Time) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	Cancel(ctx context.Context, id, cancelledBy int64, reason string, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, b *domain.Booking, userID int64, status domain.PaymentStatus) error
	ListForUser(ctx context.Context, userID int64) ([]domain.Booking, error)
}

type CourtRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Court, error)
	ListActive(ctx context.Context) ([]domain.Court, error)
}

type UserRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
}

// Transactor runs fn as one unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
