package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// ActiveBookingStatuses are the statuses that count against the daily quota.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// MaxPlayers is the roster cap: the owner plus up to five team members.
const MaxPlayers = 6

type Booking struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	SeriesID string `json:"series_id" gorm:"size:36;index"`
	CourtID  int64  `json:"court_id" gorm:"not null;index:idx_bookings_court_date"`
	// Date is the calendar day at UTC midnight.
	Date      time.Time     `json:"date" gorm:"column:booking_date;not null;index:idx_bookings_court_date;index"`
	StartTime string        `json:"start_time" gorm:"size:5;not null"`
	EndTime   string        `json:"end_time" gorm:"size:5;not null"`
	OwnerID   int64         `json:"owner_id" gorm:"not null;index"`
	IsPublic  bool          `json:"is_public"`
	Status    BookingStatus `json:"status" gorm:"size:16;not null;index"`

	TotalPlayers  int           `json:"total_players" gorm:"not null"`
	TotalAmount   float64       `json:"total_amount" gorm:"not null"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"size:16;not null"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TeamMembers []TeamMember `json:"team_members" gorm:"foreignKey:BookingID"`
	Court       *Court       `json:"court,omitempty" gorm:"foreignKey:CourtID"`
}

func (b *Booking) PlayerCount() int {
	return 1 + len(b.TeamMembers)
}

// HasPlayer reports whether userID is the owner or a listed team member.
func (b *Booking) HasPlayer(userID int64) bool {
	if b.OwnerID == userID {
		return true
	}
	for _, m := range b.TeamMembers {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (b *Booking) PlayerIDs() []int64 {
	ids := make([]int64, 0, b.PlayerCount())
	ids = append(ids, b.OwnerID)
	for _, m := range b.TeamMembers {
		ids = append(ids, m.UserID)
	}
	return ids
}

type TeamMember struct {
	ID            int64         `json:"id" gorm:"primaryKey"`
	BookingID     int64         `json:"booking_id" gorm:"not null;uniqueIndex:idx_team_members_booking_user"`
	UserID        int64         `json:"user_id" gorm:"not null;uniqueIndex:idx_team_members_booking_user;index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"size:16;not null"`
	JoinedAt      time.Time     `json:"joined_at"`
}
