package domain

import "time"

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestDeclined JoinRequestStatus = "declined"
)

type JoinRequest struct {
	ID          int64             `json:"id" gorm:"primaryKey"`
	BookingID   int64             `json:"booking_id" gorm:"not null;index:idx_join_requests_booking_requester"`
	RequesterID int64             `json:"requester_id" gorm:"not null;index:idx_join_requests_booking_requester"`
	Status      JoinRequestStatus `json:"status" gorm:"size:16;not null;index"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
}
