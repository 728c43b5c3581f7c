package repository

import (
	"context"
	"time"

	"courtbooking/internal/domain"

	"gorm.io/gorm"
)

type JoinRequestRepository struct {
	db *gorm.DB
}

func NewJoinRequestRepository(db *gorm.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

// FindPending returns the requester's open request for the booking, or nil.
func (r *JoinRequestRepository) FindPending(ctx context.Context, bookingID, requesterID int64) (*domain.JoinRequest, error) {
	var found []domain.JoinRequest
	err := conn(ctx, r.db).
		Where("booking_id = ? AND requester_id = ? AND status = ?", bookingID, requesterID, domain.JoinRequestPending).
		Limit(1).
		Find(&found).Error
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (r *JoinRequestRepository) Create(ctx context.Context, jr *domain.JoinRequest) error {
	if err := conn(ctx, r.db).Create(jr).Error; err != nil {
		if isUniqueConstraintError(err) {
			return domain.NewValidationError("booking_id", "a join request for booking %d is already pending", jr.BookingID)
		}
		return err
	}
	return nil
}

func (r *JoinRequestRepository) GetByID(ctx context.Context, id int64) (*domain.JoinRequest, error) {
	var jr domain.JoinRequest
	if err := conn(ctx, r.db).First(&jr, id).Error; err != nil {
		return nil, notFound(err, "join request", id)
	}
	return &jr, nil
}

// Resolve moves a pending request to a terminal status. A request that is no
// longer pending is rejected so each request is resolved once.
func (r *JoinRequestRepository) Resolve(ctx context.Context, id int64, status domain.JoinRequestStatus, at time.Time) error {
	res := conn(ctx, r.db).Model(&domain.JoinRequest{}).
		Where("id = ? AND status = ?", id, domain.JoinRequestPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewValidationError("status", "join request %d has already been resolved", id)
	}
	return nil
}

func (r *JoinRequestRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.JoinRequest, error) {
	var out []domain.JoinRequest
	err := conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("created_at, id").Find(&out).Error
	return out, err
}
