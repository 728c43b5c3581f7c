package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateMany inserts every booking with its roster. Callers run it inside a
// transaction so that a failed row leaves none behind.
func (r *BookingRepository) CreateMany(ctx context.Context, bookings []*domain.Booking) error {
	db := conn(ctx, r.db)
	for _, b := range bookings {
		if err := db.Create(b).Error; err != nil {
			return fmt.Errorf("insert booking for %s: %w", b.Date.Format(domain.DateLayout), err)
		}
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := conn(ctx, r.db).Preload("TeamMembers").First(&b, id).Error
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &b, nil
}

// GetByIDForUpdate locks the booking row for the rest of the transaction.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("TeamMembers").
		First(&b, id).Error
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &b, nil
}

// FindActiveForUserOnDay returns the pending or confirmed booking in which the
// user plays on day, as owner or team member, or nil when there is none.
func (r *BookingRepository) FindActiveForUserOnDay(ctx context.Context, userID int64, day time.Time) (*domain.Booking, error) {
	db := conn(ctx, r.db)
	memberOf := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.TeamMember{}).
		Select("booking_id").
		Where("user_id = ?", userID)

	var found []domain.Booking
	err := db.Model(&domain.Booking{}).
		Where("booking_date >= ? AND booking_date < ?", day, day.AddDate(0, 0, 1)).
		Where("status IN ?", domain.ActiveBookingStatuses).
		Where("(owner_id = ? OR id IN (?))", userID, memberOf).
		Order("id").
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("quota lookup for user %d: %w", userID, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// ListOccupyingCourtOnDay returns every non-cancelled booking for the court on day.
func (r *BookingRepository) ListOccupyingCourtOnDay(ctx context.Context, courtID int64, day time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := conn(ctx, r.db).
		Where("court_id = ?", courtID).
		Where("booking_date >= ? AND booking_date < ?", day, day.AddDate(0, 0, 1)).
		Where("status <> ?", domain.BookingCancelled).
		Order("start_time").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings for court %d: %w", courtID, err)
	}
	return out, nil
}

func (r *BookingRepository) AddTeamMember(ctx context.Context, bookingID, userID int64, joinedAt time.Time) error {
	db := conn(ctx, r.db)
	m := domain.TeamMember{
		BookingID:     bookingID,
		UserID:        userID,
		PaymentStatus: domain.PaymentUnpaid,
		JoinedAt:      joinedAt,
	}
	if err := db.Create(&m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return domain.NewValidationError("user_id", "user %d is already on the roster", userID)
		}
		return err
	}
	return db.Model(&domain.Booking{}).
		Where("id = ?", bookingID).
		Update("total_players", gorm.Expr("total_players + 1")).Error
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	res := conn(ctx, r.db).Model(&domain.Booking{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "booking", ID: id}
	}
	return nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id, cancelledBy int64, reason string, at time.Time) error {
	res := conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ? AND status IN ?", id, domain.ActiveBookingStatuses).
		Updates(map[string]any{
			"status":              domain.BookingCancelled,
			"cancelled_at":        at,
			"cancelled_by":        cancelledBy,
			"cancellation_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewValidationError("status", "booking %d is no longer active", id)
	}
	return nil
}

// UpdatePaymentStatus sets the owner's share on the booking row, or the team
// member's share on the roster row.
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, b *domain.Booking, userID int64, status domain.PaymentStatus) error {
	db := conn(ctx, r.db)
	if b.OwnerID == userID {
		return db.Model(&domain.Booking{}).Where("id = ?", b.ID).Update("payment_status", status).Error
	}
	res := db.Model(&domain.TeamMember{}).
		Where("booking_id = ? AND user_id = ?", b.ID, userID).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "team member", ID: userID}
	}
	return nil
}

func (r *BookingRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	db := conn(ctx, r.db)
	memberOf := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.TeamMember{}).
		Select("booking_id").
		Where("user_id = ?", userID)

	var out []domain.Booking
	err := db.Preload("TeamMembers").
		Where("(owner_id = ? OR id IN (?))", userID, memberOf).
		Order("booking_date DESC, start_time").
		Find(&out).Error
	return out, err
}

func notFound(err error, resource string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return err
}
