package membership

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"courtbooking/internal/domain"
	"courtbooking/internal/notification"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("courtbooking/membership")

// maxExtensionDays bounds a single extension to ten years.
const maxExtensionDays = 3660

// Transactor runs fn as one unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error)
	ListActiveWithExpiry(ctx context.Context) ([]domain.User, error)
	ApplyMembershipTransition(ctx context.Context, userID int64, prev, next domain.Membership) (bool, error)
	ExtendMembership(ctx context.Context, userID int64, expiry time.Time) error
	SetPushToken(ctx context.Context, userID int64, token string) error
}

type Service struct {
	tx     Transactor
	users  UserRepository
	events notification.Publisher
	loc    *time.Location
	now    func() time.Time
}

func NewService(tx Transactor, users UserRepository, events notification.Publisher, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if events == nil {
		events = notification.Nop{}
	}
	return &Service{tx: tx, users: users, events: events, loc: loc, now: time.Now}
}

// Today is the current calendar day in the membership time zone.
func (s *Service) Today() time.Time {
	return domain.DayIn(s.now(), s.loc)
}

type RunReport struct {
	Date    string `json:"date"`
	Scanned int    `json:"scanned"`
	Warned  int    `json:"warned"`
	Expired int    `json:"expired"`
	Rearmed int    `json:"rearmed"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// RunExpiryScan applies ComputeExpiryAction to every active member as of today.
// Users are processed independently: a failed write is counted and the scan
// moves on. The state is written before the notice is published and only if
// the locked row still matches what was read, so a repeated or concurrent run
// on the same day sends nothing twice and a renewal made mid-scan is kept.
func (s *Service) RunExpiryScan(ctx context.Context, today time.Time) (RunReport, error) {
	ctx, span := tracer.Start(ctx, "membership.expiry_scan")
	defer span.End()

	today = domain.Day(today)
	report := RunReport{Date: today.Format(domain.DateLayout)}
	span.SetAttributes(attribute.String("membership.run_date", report.Date))

	users, err := s.users.ListActiveWithExpiry(ctx)
	if err != nil {
		return report, err
	}

	for _, u := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Scanned++

		prev := u.Membership()
		next, notice := ComputeExpiryAction(today, prev)
		if next.Equal(prev) && notice == nil {
			continue
		}

		applied, err := s.applyTransition(ctx, u.ID, prev, next)
		if err != nil {
			report.Failed++
			log.Printf("membership_expiry user_id=%d error=%q", u.ID, err.Error())
			continue
		}
		if !applied {
			report.Skipped++
			continue
		}

		if notice == nil {
			report.Rearmed++
			continue
		}
		if notice.Type == domain.NotifMembershipExpired {
			report.Expired++
		} else {
			report.Warned++
		}
		title, body := notice.text()
		s.events.Publish(ctx, notification.NewEvent(
			notice.Type,
			title,
			body,
			map[string]string{
				"days_left":   strconv.Itoa(notice.DaysLeft),
				"expiry_date": prev.ExpiryDate.Format(domain.DateLayout),
			},
			u.ID,
		))
	}

	span.SetAttributes(
		attribute.Int("membership.scanned", report.Scanned),
		attribute.Int("membership.notified", report.Warned+report.Expired),
		attribute.Int("membership.failed", report.Failed),
	)
	log.Printf("membership_expiry run date=%s scanned=%d warned=%d expired=%d rearmed=%d skipped=%d failed=%d",
		report.Date, report.Scanned, report.Warned, report.Expired, report.Rearmed, report.Skipped, report.Failed)
	return report, nil
}

// applyTransition writes next under a row lock, and only when the stored
// membership (expiry included) is still prev.
func (s *Service) applyTransition(ctx context.Context, userID int64, prev, next domain.Membership) (bool, error) {
	var applied bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if !cur.Membership().Equal(prev) {
			return nil
		}
		applied, err = s.users.ApplyMembershipTransition(ctx, userID, prev, next)
		return err
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Extend starts a new membership period of days, counted from the later of
// today and the current expiry. Every reminder threshold is re-armed.
func (s *Service) Extend(ctx context.Context, userID int64, days int, actor domain.Actor) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, &domain.AuthorizationError{UserID: actor.UserID, Action: "extend memberships"}
	}
	if days <= 0 || days > maxExtensionDays {
		return nil, domain.NewValidationError("days", "days must be between 1 and %d", maxExtensionDays)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		base := s.Today()
		if u.MembershipExpiry != nil {
			if current := domain.Day(*u.MembershipExpiry); current.After(base) {
				base = current
			}
		}
		return s.users.ExtendMembership(ctx, userID, base.AddDate(0, 0, days))
	})
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *Service) RegisterPushToken(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > 255 {
		return domain.NewValidationError("token", "a push token of at most 255 characters is required")
	}
	return s.users.SetPushToken(ctx, userID, token)
}
