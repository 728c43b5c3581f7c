package joinrequest

import (
	"context"
	"strings"
	"testing"
	"time"

	"courtbooking/internal/database"
	"courtbooking/internal/domain"
	"courtbooking/internal/modules/booking"
	"courtbooking/internal/notification"
	"courtbooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var june1 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	bookings *repository.BookingRepository
	events   *notification.Recorder
	court    *domain.Court
	users    []*domain.User
}

func newFixture(t *testing.T, maxPlayers int) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{db: db, events: &notification.Recorder{}}
	f.court = &domain.Court{Name: "Court 1", PricePerHour: 4000, OpenTime: "07:00", CloseTime: "23:00", IsActive: true}
	require.NoError(t, db.Create(f.court).Error)
	for i := 0; i < 8; i++ {
		u := &domain.User{Email: "p" + string(rune('a'+i)) + "@test.local", Role: domain.RolePlayer, MembershipStatus: domain.MembershipActive}
		require.NoError(t, db.Create(u).Error)
		f.users = append(f.users, u)
	}

	f.bookings = repository.NewBookingRepository(db)
	f.svc = NewService(
		repository.NewTransactor(db, 1),
		f.bookings,
		repository.NewJoinRequestRepository(db),
		booking.NewQuotaEnforcer(f.bookings),
		f.events,
		maxPlayers,
	)
	return f
}

// match inserts an active booking owned by users[owner] with the given team.
func (f *fixture) match(t *testing.T, public bool, day time.Time, start, end string, owner int, team ...int) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		CourtID:       f.court.ID,
		Date:          day,
		StartTime:     start,
		EndTime:       end,
		OwnerID:       f.users[owner].ID,
		IsPublic:      public,
		Status:        domain.BookingPending,
		TotalPlayers:  1 + len(team),
		TotalAmount:   4000,
		PaymentStatus: domain.PaymentUnpaid,
	}
	for _, i := range team {
		b.TeamMembers = append(b.TeamMembers, domain.TeamMember{UserID: f.users[i].ID, PaymentStatus: domain.PaymentUnpaid})
	}
	require.NoError(t, f.bookings.CreateMany(context.Background(), []*domain.Booking{b}))
	return b
}

func TestRequestJoin_Idempotent(t *testing.T) {
	f := newFixture(t, 6)
	b := f.match(t, true, june1, "10:00", "11:00", 0)
	ctx := context.Background()

	first, created, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.JoinRequestPending, first.Status)

	again, created, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	var n int64
	require.NoError(t, f.db.Model(&domain.JoinRequest{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	sent := f.events.OfType(domain.NotifJoinRequestCreated)
	require.Len(t, sent, 1)
	assert.Equal(t, []int64{f.users[0].ID}, sent[0].UserIDs)
}

func TestRequestJoin_Rejections(t *testing.T) {
	f := newFixture(t, 6)
	private := f.match(t, false, june1, "10:00", "11:00", 0)
	public := f.match(t, true, june1, "12:00", "13:00", 2, 3)
	ctx := context.Background()

	_, _, err := f.svc.RequestJoin(ctx, private.ID, f.users[1].ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.svc.RequestJoin(ctx, public.ID, f.users[3].ID)
	assert.ErrorIs(t, err, domain.ErrValidation, "team members cannot ask to join")

	_, _, err = f.svc.RequestJoin(ctx, 999, f.users[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.bookings.Cancel(ctx, public.ID, f.users[2].ID, "rain", time.Now()))
	_, _, err = f.svc.RequestJoin(ctx, public.ID, f.users[1].ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolve_AcceptAddsPlayer(t *testing.T) {
	f := newFixture(t, 6)
	b := f.match(t, true, june1, "10:00", "11:00", 0)
	ctx := context.Background()
	jr, _, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)

	got, err := f.svc.ResolveJoinRequest(ctx, b.ID, jr.ID, f.users[0].ID, Accept)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestAccepted, got.Status)
	assert.NotNil(t, got.RespondedAt)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPlayer(f.users[1].ID))
	assert.Equal(t, 2, stored.TotalPlayers)

	accepted := f.events.OfType(domain.NotifJoinRequestAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, []int64{f.users[1].ID}, accepted[0].UserIDs)

	_, err = f.svc.ResolveJoinRequest(ctx, b.ID, jr.ID, f.users[0].ID, Decline)
	assert.ErrorIs(t, err, domain.ErrValidation, "a request resolves once")
}

func TestResolve_OnlyCaptain(t *testing.T) {
	f := newFixture(t, 6)
	b := f.match(t, true, june1, "10:00", "11:00", 0, 2)
	ctx := context.Background()
	jr, _, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)

	_, err = f.svc.ResolveJoinRequest(ctx, b.ID, jr.ID, f.users[2].ID, Accept)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	pending, err := repository.NewJoinRequestRepository(f.db).GetByID(ctx, jr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestPending, pending.Status)
}

func TestResolve_FullBooking(t *testing.T) {
	f := newFixture(t, 3)
	b := f.match(t, true, june1, "10:00", "11:00", 0, 2, 3)
	ctx := context.Background()
	jr, _, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)

	_, err = f.svc.ResolveJoinRequest(ctx, b.ID, jr.ID, f.users[0].ID, Accept)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "team_member_ids", verr.Field)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.PlayerCount())
}

func TestResolve_QuotaConflict(t *testing.T) {
	f := newFixture(t, 6)
	target := f.match(t, true, june1, "10:00", "11:00", 0)
	elsewhere := f.match(t, false, june1, "18:00", "19:00", 4, 1)
	ctx := context.Background()
	jr, _, err := f.svc.RequestJoin(ctx, target.ID, f.users[1].ID)
	require.NoError(t, err)

	_, err = f.svc.ResolveJoinRequest(ctx, target.ID, jr.ID, f.users[0].ID, Accept)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.ConflictQuota, conflict.Kind)
	assert.Equal(t, f.users[1].ID, conflict.UserID)
	assert.Equal(t, elsewhere.ID, conflict.BookingID)

	stored, err := f.bookings.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPlayer(f.users[1].ID))
	assert.Empty(t, f.events.OfType(domain.NotifJoinRequestAccepted))
}

func TestResolve_DeclineThenRequestAgain(t *testing.T) {
	f := newFixture(t, 6)
	b := f.match(t, true, june1, "10:00", "11:00", 0)
	ctx := context.Background()
	jr, _, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)

	got, err := f.svc.ResolveJoinRequest(ctx, b.ID, jr.ID, f.users[0].ID, Decline)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestDeclined, got.Status)
	assert.Len(t, f.events.OfType(domain.NotifJoinRequestDeclined), 1)

	next, created, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, jr.ID, next.ID)
}

func TestResolve_RequestFromAnotherBooking(t *testing.T) {
	f := newFixture(t, 6)
	a := f.match(t, true, june1, "10:00", "11:00", 0)
	b := f.match(t, true, june1, "12:00", "13:00", 2)
	ctx := context.Background()
	jr, _, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)

	_, err = f.svc.ResolveJoinRequest(ctx, a.ID, jr.ID, f.users[0].ID, Accept)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_UnknownDecision(t *testing.T) {
	f := newFixture(t, 6)
	_, err := f.svc.ResolveJoinRequest(context.Background(), 1, 1, 1, Decision("maybe"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestList_OwnerOrAdmin(t *testing.T) {
	f := newFixture(t, 6)
	b := f.match(t, true, june1, "10:00", "11:00", 0)
	ctx := context.Background()
	_, _, err := f.svc.RequestJoin(ctx, b.ID, f.users[1].ID)
	require.NoError(t, err)

	items, err := f.svc.List(ctx, b.ID, domain.Actor{UserID: f.users[0].ID, Role: domain.RolePlayer})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = f.svc.List(ctx, b.ID, domain.Actor{UserID: 77, Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.List(ctx, b.ID, domain.Actor{UserID: f.users[1].ID, Role: domain.RolePlayer})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
