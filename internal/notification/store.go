package notification

import (
	"context"

	"courtbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists in-app notifications.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save inserts n unless the same event was already stored for the user. The
// boolean reports whether a new row was written.
func (s *Store) Save(ctx context.Context, n *domain.Notification) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, int64, error) {
	var out []domain.Notification
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}

	var unread int64
	err := s.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error
	if err != nil {
		return nil, 0, err
	}
	return out, unread, nil
}

func (s *Store) MarkRead(ctx context.Context, id, userID int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "notification", ID: id}
	}
	return nil
}
