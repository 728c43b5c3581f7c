package joinrequest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"courtbooking/internal/domain"
	"courtbooking/internal/notification"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("courtbooking/joinrequest")

type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	AddTeamMember(ctx context.Context, bookingID, userID int64, joinedAt time.Time) error
}

type Repository interface {
	FindPending(ctx context.Context, bookingID, requesterID int64) (*domain.JoinRequest, error)
	Create(ctx context.Context, jr *domain.JoinRequest) error
	GetByID(ctx context.Context, id int64) (*domain.JoinRequest, error)
	Resolve(ctx context.Context, id int64, status domain.JoinRequestStatus, at time.Time) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.JoinRequest, error)
}

// QuotaChecker reports a ConflictError for the first user already playing on day.
type QuotaChecker interface {
	Check(ctx context.Context, day time.Time, userIDs []int64) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Decision string

const (
	Accept  Decision = "accept"
	Decline Decision = "decline"
)

type Service struct {
	tx         Transactor
	bookings   BookingRepository
	requests   Repository
	quota      QuotaChecker
	events     notification.Publisher
	now        func() time.Time
	maxPlayers int
}

func NewService(tx Transactor, bookings BookingRepository, requests Repository, quota QuotaChecker, events notification.Publisher, maxPlayers int) *Service {
	if maxPlayers <= 0 || maxPlayers > domain.MaxPlayers {
		maxPlayers = domain.MaxPlayers
	}
	if events == nil {
		events = notification.Nop{}
	}
	return &Service{
		tx:         tx,
		bookings:   bookings,
		requests:   requests,
		quota:      quota,
		events:     events,
		now:        time.Now,
		maxPlayers: maxPlayers,
	}
}

// RequestJoin files a request to join a public match. While a pending request
// exists it is returned as is, so repeated calls never create duplicates. The
// boolean reports whether a new request was created.
func (s *Service) RequestJoin(ctx context.Context, bookingID, userID int64) (*domain.JoinRequest, bool, error) {
	var (
		jr      *domain.JoinRequest
		created bool
		ownerID int64
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created = false
		b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.IsPublic {
			return domain.NewValidationError("booking_id", "booking %d is not open to join requests", bookingID)
		}
		if !b.Status.IsActive() {
			return domain.NewValidationError("booking_id", "booking %d is %s", bookingID, b.Status)
		}
		if b.HasPlayer(userID) {
			return domain.NewValidationError("booking_id", "user %d already plays in booking %d", userID, bookingID)
		}
		ownerID = b.OwnerID

		existing, err := s.requests.FindPending(ctx, bookingID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			jr = existing
			return nil
		}

		jr = &domain.JoinRequest{
			BookingID:   bookingID,
			RequesterID: userID,
			Status:      domain.JoinRequestPending,
		}
		created = true
		return s.requests.Create(ctx, jr)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.events.Publish(ctx, notification.NewEvent(
			domain.NotifJoinRequestCreated,
			"New join request",
			fmt.Sprintf("A player asked to join your match #%d", bookingID),
			map[string]string{
				"booking_id":      strconv.FormatInt(bookingID, 10),
				"join_request_id": strconv.FormatInt(jr.ID, 10),
				"requester_id":    strconv.FormatInt(userID, 10),
			},
			ownerID,
		))
	}
	return jr, created, nil
}

// ResolveJoinRequest lets the captain accept or decline a pending request.
// Accepting moves the requester onto the roster only if a place is free and
// the requester has no other match that day; otherwise nothing changes.
func (s *Service) ResolveJoinRequest(ctx context.Context, bookingID, requestID, captainID int64, decision Decision) (*domain.JoinRequest, error) {
	ctx, span := tracer.Start(ctx, "joinrequest.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.id", bookingID),
		attribute.Int64("join_request.id", requestID),
		attribute.String("join_request.decision", string(decision)),
	)

	if decision != Accept && decision != Decline {
		return nil, domain.NewValidationError("decision", "decision must be accept or decline")
	}

	var jr *domain.JoinRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.OwnerID != captainID {
			return &domain.AuthorizationError{UserID: captainID, Action: "resolve join requests for this booking"}
		}

		jr, err = s.requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if jr.BookingID != bookingID {
			return &domain.NotFoundError{Resource: "join request", ID: requestID}
		}
		if jr.Status != domain.JoinRequestPending {
			return domain.NewValidationError("status", "join request %d is already %s", requestID, jr.Status)
		}

		now := s.now().UTC()
		if decision == Decline {
			jr.Status = domain.JoinRequestDeclined
			jr.RespondedAt = &now
			return s.requests.Resolve(ctx, jr.ID, domain.JoinRequestDeclined, now)
		}

		if !b.Status.IsActive() {
			return domain.NewValidationError("status", "booking %d is %s", bookingID, b.Status)
		}
		if b.PlayerCount() >= s.maxPlayers {
			return domain.NewValidationError("team_member_ids", "booking %d is full (%d players)", bookingID, s.maxPlayers)
		}
		if err := s.quota.Check(ctx, b.Date, []int64{jr.RequesterID}); err != nil {
			return err
		}
		if err := s.bookings.AddTeamMember(ctx, bookingID, jr.RequesterID, now); err != nil {
			return err
		}
		jr.Status = domain.JoinRequestAccepted
		jr.RespondedAt = &now
		return s.requests.Resolve(ctx, jr.ID, domain.JoinRequestAccepted, now)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	typ, title := domain.NotifJoinRequestDeclined, "Join request declined"
	if jr.Status == domain.JoinRequestAccepted {
		typ, title = domain.NotifJoinRequestAccepted, "Join request accepted"
	}
	s.events.Publish(ctx, notification.NewEvent(
		typ,
		title,
		fmt.Sprintf("Your request to join match #%d was %s", bookingID, jr.Status),
		map[string]string{
			"booking_id":      strconv.FormatInt(bookingID, 10),
			"join_request_id": strconv.FormatInt(jr.ID, 10),
		},
		jr.RequesterID,
	))
	return jr, nil
}

// List returns every request on the booking. Only the captain or an admin may look.
func (s *Service) List(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.JoinRequest, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, &domain.AuthorizationError{UserID: actor.UserID, Action: "list join requests for this booking"}
	}
	return s.requests.ListByBooking(ctx, bookingID)
}
