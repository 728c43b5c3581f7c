package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courtbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return conn(ctx, r.db).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// GetByIDForUpdate locks the user row for the rest of the transaction.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// FindByIDs loads the users with the given ids. Missing ids are simply absent
// from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.User
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// ListActiveWithExpiry returns active members whose expiry date is set.
func (r *UserRepository) ListActiveWithExpiry(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := conn(ctx, r.db).
		Where("membership_status = ? AND membership_expiry IS NOT NULL", domain.MembershipActive).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list active memberships: %w", err)
	}
	return out, nil
}

// ApplyMembershipTransition writes next only if the stored state still matches
// prev. It reports false when another writer changed the row first.
func (r *UserRepository) ApplyMembershipTransition(ctx context.Context, userID int64, prev, next domain.Membership) (bool, error) {
	q := conn(ctx, r.db).Model(&domain.User{}).
		Where("id = ? AND membership_status = ?", userID, prev.Status)
	if prev.LastWarningDay == nil {
		q = q.Where("last_warning_day IS NULL")
	} else {
		q = q.Where("last_warning_day = ?", *prev.LastWarningDay)
	}

	res := q.Updates(map[string]any{
		"membership_status": next.Status,
		"last_warning_day":  next.LastWarningDay,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExtendMembership starts a new membership period ending at expiry. All warning
// thresholds are re-armed.
func (r *UserRepository) ExtendMembership(ctx context.Context, userID int64, expiry time.Time) error {
	res := conn(ctx, r.db).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"membership_status": domain.MembershipActive,
			"membership_expiry": expiry,
			"last_warning_day":  gorm.Expr("NULL"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}

func (r *UserRepository) SetPushToken(ctx context.Context, userID int64, token string) error {
	res := conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", userID).Update("push_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}

// PushTargets maps user id to push token for the users that registered one.
func (r *UserRepository) PushTargets(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	err := conn(ctx, r.db).
		Select("id", "push_token").
		Where("id IN ? AND push_token <> ''", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u.PushToken
	}
	return out, nil
}

func (r *UserRepository) AdminIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := conn(ctx, r.db).Model(&domain.User{}).
		Where("role = ?", domain.RoleAdmin).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
