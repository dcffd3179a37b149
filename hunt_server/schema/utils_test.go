package schema_test

import (
	"ar_hunt/hunt_server/schema"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(schema.AllModels()...))
	return db
}

func TestAttemptUniqueIndex(t *testing.T) {
	db := openTestDb(t)

	eventId, assetId := uuid.New(), uuid.New()
	first := schema.Attempt{Id: uuid.New(), EventId: eventId, Username: "alice", AssetId: assetId, Points: 10}
	require.NoError(t, db.Create(&first).Error)

	dup := schema.Attempt{Id: uuid.New(), EventId: eventId, Username: "alice", AssetId: assetId, Points: 10}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, schema.IsDuplicateKey(err))

	other := schema.Attempt{Id: uuid.New(), EventId: eventId, Username: "bob", AssetId: assetId, Points: 10}
	assert.NoError(t, db.Create(&other).Error)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, schema.IsDuplicateKey(nil))
	assert.False(t, schema.IsDuplicateKey(errors.New("connection refused")))
	assert.True(t, schema.IsDuplicateKey(gorm.ErrDuplicatedKey))
}

func TestGetEventNotFound(t *testing.T) {
	db := openTestDb(t)

	_, err := schema.GetEvent(uuid.New(), db)
	assert.ErrorIs(t, err, schema.ErrEventNotFound)

	_, err = schema.GetEventByCode("missing", db)
	assert.ErrorIs(t, err, schema.ErrEventNotFound)
}

func TestListAssetsByEventIds(t *testing.T) {
	db := openTestDb(t)

	e1, e2, e3 := uuid.New(), uuid.New(), uuid.New()
	for i, eventId := range []uuid.UUID{e1, e1, e2, e3} {
		asset := schema.Asset{Id: uuid.New(), EventId: eventId, Name: "asset", CreatedBy: "org@test.com", Latitude: float64(i)}
		require.NoError(t, db.Create(&asset).Error)
	}

	assets, err := schema.ListAssetsByEventIds([]uuid.UUID{e1, e2}, db)
	require.NoError(t, err)
	assert.Len(t, assets, 3)
	for _, asset := range assets {
		assert.NotEqual(t, e3, asset.EventId)
	}

	assets, err = schema.ListAssetsByEventIds(nil, db)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestPermissionLookups(t *testing.T) {
	db := openTestDb(t)

	eventId := uuid.New()
	perm := schema.EventPermission{Id: uuid.New(), EventId: eventId, Email: "fac@test.com", CreatedBy: "org@test.com"}
	require.NoError(t, db.Create(&perm).Error)

	dup := schema.EventPermission{Id: uuid.New(), EventId: eventId, Email: "fac@test.com", CreatedBy: "org@test.com"}
	assert.True(t, schema.IsDuplicateKey(db.Create(&dup).Error))

	ok, err := schema.HasEventPermission(eventId, "fac@test.com", db)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = schema.HasEventPermission(eventId, "other@test.com", db)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := schema.ListPermittedEventIds("fac@test.com", db)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{eventId}, ids)
}
