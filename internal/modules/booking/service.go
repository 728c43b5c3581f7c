package booking

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"courtbooking/internal/domain"
	"courtbooking/internal/notification"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("courtbooking/booking")

type Config struct {
	// MaxPlayers caps the roster including the owner.
	MaxPlayers     int
	MaxBookingDays int
}

type Service struct {
	tx       Transactor
	bookings BookingRepository
	courts   CourtRepository
	users    UserRepository
	quota    *QuotaEnforcer
	slots    *SlotCalculator
	events   notification.Publisher
	now      func() time.Time

	maxPlayers int
	maxDays    int
}

type Option func(*Service)

// WithClock replaces the wall clock used to reject past dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	tx Transactor,
	bookings BookingRepository,
	courts CourtRepository,
	users UserRepository,
	events notification.Publisher,
	cfg Config,
	opts ...Option,
) *Service {
	s := &Service{
		tx:         tx,
		bookings:   bookings,
		courts:     courts,
		users:      users,
		quota:      NewQuotaEnforcer(bookings),
		slots:      NewSlotCalculator(bookings),
		events:     events,
		now:        time.Now,
		maxPlayers: cfg.MaxPlayers,
		maxDays:    cfg.MaxBookingDays,
	}
	if s.maxPlayers <= 0 || s.maxPlayers > domain.MaxPlayers {
		s.maxPlayers = domain.MaxPlayers
	}
	if s.maxDays <= 0 {
		s.maxDays = 14
	}
	if s.events == nil {
		s.events = notification.Nop{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Quota exposes the enforcer so other flows can run it in their own transaction.
func (s *Service) Quota() *QuotaEnforcer {
	return s.quota
}

type CreateBookingInput struct {
	OwnerID       int64
	CourtID       int64
	Dates         []string
	StartTime     string
	EndTime       string
	TeamMemberIDs []int64
	IsPublic      bool
}

type CreateBookingResult struct {
	SeriesID        string           `json:"series_id"`
	Bookings        []domain.Booking `json:"bookings"`
	AggregateAmount float64          `json:"aggregate_amount"`
}

// CreateBooking admits one booking per requested date with a shared roster.
// Either every date passes the quota and slot checks and all rows are written,
// or nothing is written and the first failing date is reported.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.owner_id", in.OwnerID),
		attribute.Int64("booking.court_id", in.CourtID),
		attribute.Int("booking.dates", len(in.Dates)),
	)

	days, window, err := s.validateCreate(in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	players := append([]int64{in.OwnerID}, in.TeamMemberIDs...)
	seriesID := uuid.NewString()
	var rows []*domain.Booking

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		court, err := s.courts.GetByID(ctx, in.CourtID)
		if err != nil {
			return err
		}
		if !court.IsActive {
			return &domain.NotFoundError{Resource: "court", ID: in.CourtID}
		}
		hours, err := court.Hours()
		if err != nil {
			return fmt.Errorf("court %d hours: %w", court.ID, err)
		}
		if !hours.Contains(window) {
			return domain.NewValidationError("start_time", "%s is outside opening hours %s", window, hours)
		}

		if err := s.requireUsers(ctx, in.TeamMemberIDs); err != nil {
			return err
		}

		for _, day := range days {
			if err := s.quota.Check(ctx, day, players); err != nil {
				return err
			}
			if err := s.slots.Conflict(ctx, court.ID, day, window); err != nil {
				return err
			}
		}

		joined := s.now().UTC()
		rows = make([]*domain.Booking, 0, len(days))
		for _, day := range days {
			rows = append(rows, newBooking(seriesID, court, day, window, in, joined))
		}
		return s.bookings.CreateMany(ctx, rows)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &CreateBookingResult{SeriesID: seriesID, Bookings: make([]domain.Booking, 0, len(rows))}
	for _, b := range rows {
		res.Bookings = append(res.Bookings, *b)
		res.AggregateAmount += b.TotalAmount
	}

	s.events.Publish(ctx, notification.NewAdminEvent(
		domain.NotifBookingCreated,
		"New booking",
		fmt.Sprintf("Court %d booked for %d day(s) at %s", in.CourtID, len(rows), window),
		map[string]string{
			"series_id": seriesID,
			"court_id":  strconv.FormatInt(in.CourtID, 10),
			"owner_id":  strconv.FormatInt(in.OwnerID, 10),
			"dates":     joinDays(days),
		},
	))
	return res, nil
}

func (s *Service) validateCreate(in CreateBookingInput) ([]time.Time, domain.Window, error) {
	window, err := domain.ParseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return nil, domain.Window{}, domain.NewValidationError("start_time", "%s", err.Error())
	}

	if len(in.Dates) == 0 {
		return nil, window, domain.NewValidationError("dates", "at least one date is required")
	}
	today := domain.Day(s.now())
	seen := make(map[time.Time]struct{}, len(in.Dates))
	days := make([]time.Time, 0, len(in.Dates))
	for _, raw := range in.Dates {
		day, err := domain.ParseDay(raw)
		if err != nil {
			return nil, window, domain.NewValidationError("dates", "%s", err.Error())
		}
		if day.Before(today) {
			return nil, window, domain.NewValidationError("dates", "%s is in the past", raw)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) > s.maxDays {
		return nil, window, domain.NewValidationError("dates", "at most %d dates per request", s.maxDays)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if 1+len(in.TeamMemberIDs) > s.maxPlayers {
		return nil, window, domain.NewValidationError("team_member_ids", "a booking holds at most %d players", s.maxPlayers)
	}
	members := make(map[int64]struct{}, len(in.TeamMemberIDs))
	for _, id := range in.TeamMemberIDs {
		if id == in.OwnerID {
			return nil, window, domain.NewValidationError("team_member_ids", "the owner is already on the roster")
		}
		if _, dup := members[id]; dup {
			return nil, window, domain.NewValidationError("team_member_ids", "user %d is listed twice", id)
		}
		members[id] = struct{}{}
	}
	return days, window, nil
}

func (s *Service) requireUsers(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[int64]struct{}, len(found))
	for _, u := range found {
		known[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return &domain.NotFoundError{Resource: "user", ID: id}
		}
	}
	return nil
}

func newBooking(seriesID string, court *domain.Court, day time.Time, w domain.Window, in CreateBookingInput, joined time.Time) *domain.Booking {
	members := make([]domain.TeamMember, 0, len(in.TeamMemberIDs))
	for _, id := range in.TeamMemberIDs {
		members = append(members, domain.TeamMember{
			UserID:        id,
			PaymentStatus: domain.PaymentUnpaid,
			JoinedAt:      joined,
		})
	}
	return &domain.Booking{
		SeriesID:      seriesID,
		CourtID:       court.ID,
		Date:          day,
		StartTime:     domain.FormatClock(w.Start),
		EndTime:       domain.FormatClock(w.End),
		OwnerID:       in.OwnerID,
		IsPublic:      in.IsPublic,
		Status:        domain.BookingPending,
		TotalPlayers:  1 + len(members),
		TotalAmount:   court.PricePerHour,
		PaymentStatus: domain.PaymentUnpaid,
		TeamMembers:   members,
	}
}

func joinDays(days []time.Time) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = d.Format(domain.DateLayout)
	}
	return strings.Join(parts, ",")
}

// Cancel is allowed for the owner or an admin while the booking is active.
func (s *Service) Cancel(ctx context.Context, bookingID int64, actor domain.Actor, reason string) (*domain.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "a cancellation reason is required")
	}

	var players []int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.OwnerID != actor.UserID && !actor.IsAdmin() {
			return &domain.AuthorizationError{UserID: actor.UserID, Action: "cancel this booking"}
		}
		if !b.Status.IsActive() {
			return domain.NewValidationError("status", "a %s booking cannot be cancelled", b.Status)
		}
		players = b.PlayerIDs()
		return s.bookings.Cancel(ctx, b.ID, actor.UserID, reason, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, notification.NewEvent(
		domain.NotifBookingCancelled,
		"Booking cancelled",
		fmt.Sprintf("Your match on %s at %s-%s was cancelled: %s", b.Date.Format(domain.DateLayout), b.StartTime, b.EndTime, reason),
		map[string]string{"booking_id": strconv.FormatInt(b.ID, 10)},
		players...,
	))
	return b, nil
}

// Confirm moves a pending booking to confirmed. Admin only.
func (s *Service) Confirm(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, &domain.AuthorizationError{UserID: actor.UserID, Action: "confirm bookings"}
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingPending {
			return domain.NewValidationError("status", "only pending bookings can be confirmed, this one is %s", b.Status)
		}
		return s.bookings.UpdateStatus(ctx, b.ID, domain.BookingConfirmed)
	})
	if err != nil {
		return nil, err
	}
	return s.bookings.GetByID(ctx, bookingID)
}

// UpdatePaymentStatus records the payment state of one roster entry. Only the
// owner or an admin may change it.
func (s *Service) UpdatePaymentStatus(ctx context.Context, bookingID, memberID int64, actor domain.Actor, status domain.PaymentStatus) (*domain.Booking, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("payment_status", "unknown payment status %q", status)
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.OwnerID != actor.UserID && !actor.IsAdmin() {
			return &domain.AuthorizationError{UserID: actor.UserID, Action: "update payments on this booking"}
		}
		if !b.HasPlayer(memberID) {
			return &domain.NotFoundError{Resource: "team member", ID: memberID}
		}
		return s.bookings.UpdatePaymentStatus(ctx, b, memberID, status)
	})
	if err != nil {
		return nil, err
	}
	return s.bookings.GetByID(ctx, bookingID)
}

// Get returns a booking visible to the actor: public ones, ones they play in,
// or any booking for an admin.
func (s *Service) Get(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsPublic && !b.HasPlayer(actor.UserID) && !actor.IsAdmin() {
		return nil, &domain.AuthorizationError{UserID: actor.UserID, Action: "view this booking"}
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListForUser(ctx, userID)
}

func (s *Service) ListCourts(ctx context.Context) ([]domain.Court, error) {
	return s.courts.ListActive(ctx)
}

func (s *Service) Availability(ctx context.Context, courtID int64, date string) (*Availability, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return nil, domain.NewValidationError("date", "%s", err.Error())
	}
	court, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		return nil, err
	}
	return s.slots.Availability(ctx, court, day)
}
