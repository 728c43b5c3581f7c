package domain

import "time"

type NotificationType string

const (
	NotifBookingCreated      NotificationType = "booking.created"
	NotifBookingCancelled    NotificationType = "booking.cancelled"
	NotifJoinRequestCreated  NotificationType = "joinrequest.created"
	NotifJoinRequestAccepted NotificationType = "joinrequest.accepted"
	NotifJoinRequestDeclined NotificationType = "joinrequest.declined"
	NotifMembershipWarning   NotificationType = "membership.warning"
	NotifMembershipExpired   NotificationType = "membership.expired"
)

// Notification is the in-app copy of a delivered event. One row per event and
// recipient, so replays of the same event are absorbed by the unique index.
type Notification struct {
	ID        int64             `json:"id" gorm:"primaryKey"`
	EventID   string            `json:"event_id" gorm:"size:36;not null;uniqueIndex:idx_notifications_event_user"`
	UserID    int64             `json:"user_id" gorm:"not null;uniqueIndex:idx_notifications_event_user;index"`
	Type      NotificationType  `json:"type" gorm:"size:32;not null"`
	Title     string            `json:"title" gorm:"not null"`
	Body      string            `json:"body" gorm:"type:text"`
	Data      map[string]string `json:"data,omitempty" gorm:"serializer:json"`
	IsRead    bool              `json:"is_read" gorm:"not null"`
	CreatedAt time.Time         `json:"created_at"`
}
