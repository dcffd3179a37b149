package auth_test

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCanModify(t *testing.T) {
	organizer := auth.Session{Email: "org@test.com", Level: schema.Organizer}
	otherOrganizer := auth.Session{Email: "other@test.com", Level: schema.Organizer}
	facilitator := auth.Session{Email: "org@test.com", Level: schema.Facilitator}

	assert.True(t, auth.CanModify("org@test.com", organizer))
	assert.False(t, auth.CanModify("org@test.com", otherOrganizer))
	assert.False(t, auth.CanModify("org@test.com", facilitator))
	assert.False(t, auth.CanModify("org@test.com", auth.Session{Email: "org@test.com"}))
}

func TestCanView(t *testing.T) {
	event := schema.Event{Id: uuid.New(), CreatedBy: "org@test.com"}

	organizer := auth.Session{Email: "org@test.com", Level: schema.Organizer}
	otherOrganizer := auth.Session{Email: "other@test.com", Level: schema.Organizer}
	facilitator := auth.Session{Email: "fac@test.com", Level: schema.Facilitator}

	assert.True(t, auth.CanView(event, nil, organizer))
	assert.False(t, auth.CanView(event, []uuid.UUID{event.Id}, otherOrganizer))

	assert.False(t, auth.CanView(event, nil, facilitator))
	assert.False(t, auth.CanView(event, []uuid.UUID{uuid.New()}, facilitator))
	assert.True(t, auth.CanView(event, []uuid.UUID{uuid.New(), event.Id}, facilitator))

	assert.False(t, auth.CanView(event, []uuid.UUID{event.Id}, auth.Session{Email: "x@test.com", Level: "PLAYER"}))
}

func TestIsEventAuthorized(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "hunt.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(schema.AllModels()...))

	event := schema.Event{Id: uuid.New(), CreatedBy: "org@test.com"}
	granted := auth.Session{Email: "fac@test.com", Level: schema.Facilitator}
	ungranted := auth.Session{Email: "other_fac@test.com", Level: schema.Facilitator}

	require.NoError(t, db.Create(&schema.EventPermission{
		Id: uuid.New(), EventId: event.Id, Email: granted.Email, CreatedBy: event.CreatedBy, CreatedAt: time.Now().UTC(),
	}).Error)

	ok, err := auth.IsEventAuthorized(event, auth.Session{Email: "org@test.com", Level: schema.Organizer}, db)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.IsEventAuthorized(event, auth.Session{Email: "other@test.com", Level: schema.Organizer}, db)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.IsEventAuthorized(event, granted, db)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.IsEventAuthorized(event, ungranted, db)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.IsEventAuthorized(schema.Event{Id: uuid.New(), CreatedBy: "org@test.com"}, granted, db)
	require.NoError(t, err)
	assert.False(t, ok)
}
