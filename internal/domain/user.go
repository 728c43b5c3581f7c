package domain

import "time"

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

type User struct {
	ID        int64    `json:"id" gorm:"primaryKey"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role" gorm:"size:16;not null"`
	PushToken string   `json:"-" gorm:"size:255"`

	MembershipStatus MembershipStatus `json:"membership_status" gorm:"size:16;not null;index"`
	MembershipExpiry *time.Time       `json:"membership_expiry,omitempty"`
	// LastWarningDay is the last expiry threshold notified in the current period.
	LastWarningDay *int `json:"last_warning_day,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Membership() Membership {
	return Membership{
		Status:         u.MembershipStatus,
		ExpiryDate:     u.MembershipExpiry,
		LastWarningDay: u.LastWarningDay,
	}
}

// Actor is the authenticated caller as supplied by the auth layer.
type Actor struct {
	UserID int64
	Role   UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
