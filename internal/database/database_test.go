package database

import (
	"testing"

	"courtbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	db, err := Connect("file:database_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range []any{
		&domain.Court{},
		&domain.User{},
		&domain.Booking{},
		&domain.TeamMember{},
		&domain.JoinRequest{},
		&domain.Notification{},
	} {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasIndex(&domain.TeamMember{}, "idx_team_members_booking_user"))
	assert.True(t, db.Migrator().HasIndex(&domain.Notification{}, "idx_notifications_event_user"))
}

func TestMigrate_OnePendingJoinRequest(t *testing.T) {
	db, err := Connect("file:database_test_join?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	// a second migration is a no-op
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&domain.JoinRequest{BookingID: 1, RequesterID: 2, Status: domain.JoinRequestDeclined}).Error)
	require.NoError(t, db.Create(&domain.JoinRequest{BookingID: 1, RequesterID: 2, Status: domain.JoinRequestPending}).Error)
	assert.Error(t, db.Create(&domain.JoinRequest{BookingID: 1, RequesterID: 2, Status: domain.JoinRequestPending}).Error)
	require.NoError(t, db.Create(&domain.JoinRequest{BookingID: 1, RequesterID: 3, Status: domain.JoinRequestPending}).Error)
}
