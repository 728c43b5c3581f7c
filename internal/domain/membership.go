package domain

import "time"

// Membership is the expiry-relevant slice of a user's stored state.
type Membership struct {
	Status         MembershipStatus
	ExpiryDate     *time.Time
	LastWarningDay *int
}

func (m Membership) Equal(o Membership) bool {
	if m.Status != o.Status {
		return false
	}
	if (m.ExpiryDate == nil) != (o.ExpiryDate == nil) {
		return false
	}
	if m.ExpiryDate != nil && !m.ExpiryDate.Equal(*o.ExpiryDate) {
		return false
	}
	if (m.LastWarningDay == nil) != (o.LastWarningDay == nil) {
		return false
	}
	return m.LastWarningDay == nil || *m.LastWarningDay == *o.LastWarningDay
}
