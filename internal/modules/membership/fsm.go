package membership

import (
	"fmt"
	"math"
	"slices"
	"time"

	"courtbooking/internal/domain"
)

// Thresholds are the days-left values that trigger a reminder.
var Thresholds = []int{5, 3, 1, 0}

type Notice struct {
	Type     domain.NotificationType
	DaysLeft int
}

// DaysLeft counts whole calendar days from today to expiry.
func DaysLeft(today, expiry time.Time) int {
	return int(math.Round(domain.Day(expiry).Sub(domain.Day(today)).Hours() / 24))
}

// ComputeExpiryAction is the per-period state machine. Each threshold is armed
// until it fires; leaving a threshold day re-arms the lower ones; a lapsed
// membership becomes inactive. It returns the state to store and the notice to
// send, if any. An unchanged state with a nil notice means there is nothing to do.
func ComputeExpiryAction(today time.Time, m domain.Membership) (domain.Membership, *Notice) {
	if m.Status != domain.MembershipActive || m.ExpiryDate == nil {
		return m, nil
	}
	days := DaysLeft(today, *m.ExpiryDate)
	next := m

	switch {
	case days < 0:
		next.Status = domain.MembershipInactive
		next.LastWarningDay = nil
		return next, &Notice{Type: domain.NotifMembershipExpired, DaysLeft: days}

	case slices.Contains(Thresholds, days):
		if m.LastWarningDay != nil && *m.LastWarningDay == days {
			return m, nil
		}
		d := days
		next.LastWarningDay = &d
		return next, &Notice{Type: domain.NotifMembershipWarning, DaysLeft: days}

	case m.LastWarningDay != nil && *m.LastWarningDay != days:
		next.LastWarningDay = nil
		return next, nil
	}
	return m, nil
}

func (n *Notice) text() (title, body string) {
	switch {
	case n.Type == domain.NotifMembershipExpired:
		return "Membership expired", "Your membership has expired. Renew it to keep booking courts."
	case n.DaysLeft == 0:
		return "Membership expires today", "Your membership expires today. Renew it to keep booking courts."
	case n.DaysLeft == 1:
		return "Membership expires tomorrow", "Your membership expires in 1 day."
	}
	return "Membership expiring soon", fmt.Sprintf("Your membership expires in %d days.", n.DaysLeft)
}
