package membership

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"courtbooking/internal/database"
	"courtbooking/internal/domain"
	"courtbooking/internal/notification"
	"courtbooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	svc    *Service
	tx     *repository.Transactor
	users  *repository.UserRepository
	events *notification.Recorder
}

func newFixture(t *testing.T) *fixture {
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

	f := &fixture{db: db, users: repository.NewUserRepository(db), events: &notification.Recorder{}}
	f.tx = repository.NewTransactor(db, 1)
	f.svc = NewService(f.tx, f.users, f.events, time.UTC)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) member(t *testing.T, email string, expiry string, status domain.MembershipStatus) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: domain.RolePlayer, MembershipStatus: status}
	if expiry != "" {
		d := day(expiry)
		u.MembershipExpiry = &d
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) reload(t *testing.T, id int64) *domain.User {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestRunExpiryScan_WarnsOncePerThreshold(t *testing.T) {
	f := newFixture(t)
	u := f.member(t, "m@test.local", "2024-06-10", domain.MembershipActive)
	ctx := context.Background()

	report, err := f.svc.RunExpiryScan(ctx, day("2024-06-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Warned)
	assert.Equal(t, intp(5), f.reload(t, u.ID).LastWarningDay)

	// a second run the same day sends nothing
	report, err = f.svc.RunExpiryScan(ctx, day("2024-06-05"))
	require.NoError(t, err)
	assert.Zero(t, report.Warned)

	report, err = f.svc.RunExpiryScan(ctx, day("2024-06-06"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rearmed)
	assert.Nil(t, f.reload(t, u.ID).LastWarningDay)

	_, err = f.svc.RunExpiryScan(ctx, day("2024-06-07"))
	require.NoError(t, err)

	warnings := f.events.OfType(domain.NotifMembershipWarning)
	require.Len(t, warnings, 2)
	assert.Equal(t, "5", warnings[0].Data["days_left"])
	assert.Equal(t, "3", warnings[1].Data["days_left"])
	assert.Equal(t, []int64{u.ID}, warnings[1].UserIDs)
	assert.Equal(t, "2024-06-10", warnings[1].Data["expiry_date"])
}

func TestRunExpiryScan_ExpiresOnce(t *testing.T) {
	f := newFixture(t)
	lapsed := f.member(t, "lapsed@test.local", "2024-06-04", domain.MembershipActive)
	fine := f.member(t, "fine@test.local", "2024-09-01", domain.MembershipActive)
	f.member(t, "gone@test.local", "2024-05-01", domain.MembershipInactive)
	f.member(t, "open@test.local", "", domain.MembershipActive)
	ctx := context.Background()

	report, err := f.svc.RunExpiryScan(ctx, day("2024-06-05"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, domain.MembershipInactive, f.reload(t, lapsed.ID).MembershipStatus)
	assert.Equal(t, domain.MembershipActive, f.reload(t, fine.ID).MembershipStatus)

	report, err = f.svc.RunExpiryScan(ctx, day("2024-06-05"))
	require.NoError(t, err)
	assert.Zero(t, report.Expired)
	assert.Len(t, f.events.OfType(domain.NotifMembershipExpired), 1)
}

func TestRunExpiryScan_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.member(t, "m@test.local", "2024-06-10", domain.MembershipActive)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.RunExpiryScan(ctx, day("2024-06-05"))
	assert.Error(t, err)
	assert.Empty(t, f.events.Events())
}

// renewingUsers renews a member right after the scan has read the active list.
type renewingUsers struct {
	*repository.UserRepository
	renew func(ctx context.Context)
}

func (r *renewingUsers) ListActiveWithExpiry(ctx context.Context) ([]domain.User, error) {
	users, err := r.UserRepository.ListActiveWithExpiry(ctx)
	if err == nil && r.renew != nil {
		r.renew(ctx)
	}
	return users, err
}

func TestRunExpiryScan_RenewalDuringScanWins(t *testing.T) {
	f := newFixture(t)
	admin := domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	lapsed := f.member(t, "lapsed@test.local", "2024-06-04", domain.MembershipActive)
	warned := f.member(t, "warned@test.local", "2024-06-10", domain.MembershipActive)

	users := &renewingUsers{UserRepository: f.users}
	users.renew = func(ctx context.Context) {
		_, err := f.svc.Extend(ctx, lapsed.ID, 30, admin)
		require.NoError(t, err)
		_, err = f.svc.Extend(ctx, warned.ID, 30, admin)
		require.NoError(t, err)
	}
	svc := NewService(f.tx, users, f.events, time.UTC)

	report, err := svc.RunExpiryScan(context.Background(), day("2024-06-05"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Expired)
	assert.Zero(t, report.Warned)
	assert.Empty(t, f.events.Events())

	got := f.reload(t, lapsed.ID)
	assert.Equal(t, domain.MembershipActive, got.MembershipStatus)
	assert.Equal(t, "2024-07-05", got.MembershipExpiry.Format(domain.DateLayout))
	assert.Nil(t, got.LastWarningDay)

	got = f.reload(t, warned.ID)
	assert.Equal(t, "2024-07-10", got.MembershipExpiry.Format(domain.DateLayout))
	assert.Nil(t, got.LastWarningDay)
}

func TestExtend_ConcurrentExtensionsAccumulate(t *testing.T) {
	f := newFixture(t)
	admin := domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	u := f.member(t, "m@test.local", "2024-06-10", domain.MembershipActive)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Extend(context.Background(), u.ID, 30, admin)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, "2024-08-09", f.reload(t, u.ID).MembershipExpiry.Format(domain.DateLayout))
}

func TestExtend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := domain.Actor{UserID: 1, Role: domain.RoleAdmin}

	u := f.member(t, "m@test.local", "2024-06-10", domain.MembershipActive)
	require.NoError(t, f.db.Model(u).Update("last_warning_day", 5).Error)

	got, err := f.svc.Extend(ctx, u.ID, 30, admin)
	require.NoError(t, err)
	require.NotNil(t, got.MembershipExpiry)
	assert.Equal(t, "2024-07-10", got.MembershipExpiry.Format(domain.DateLayout))
	assert.Nil(t, got.LastWarningDay)

	// a lapsed membership restarts from today
	old := f.member(t, "old@test.local", "2024-01-01", domain.MembershipInactive)
	got, err = f.svc.Extend(ctx, old.ID, 10, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipActive, got.MembershipStatus)
	assert.Equal(t, "2024-06-15", got.MembershipExpiry.Format(domain.DateLayout))

	_, err = f.svc.Extend(ctx, u.ID, 30, domain.Actor{UserID: u.ID, Role: domain.RolePlayer})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Extend(ctx, u.ID, 0, admin)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.Extend(ctx, 999, 10, admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterPushToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.member(t, "m@test.local", "", domain.MembershipActive)

	require.NoError(t, f.svc.RegisterPushToken(ctx, u.ID, " ExponentPushToken[x] "))
	targets, err := f.users.PushTargets(ctx, []int64{u.ID})
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[x]", targets[u.ID])

	assert.ErrorIs(t, f.svc.RegisterPushToken(ctx, u.ID, "   "), domain.ErrValidation)
}
