package versions

import (
	"ar_hunt/hunt_server/schema"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db
}

func TestMigrateCleanDatabase(t *testing.T) {
	db := openDb(t)
	require.NoError(t, Migrate(db))

	for _, model := range schema.AllModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasIndex(&schema.Attempt{}, "idx_attempt_unique"))

	require.NoError(t, Migrate(db))
}

func TestMigrationRemovesDuplicateAttempts(t *testing.T) {
	db := openDb(t)
	require.NoError(t, newMigrator(db, false).MigrateTo("1"))

	eventId, assetId, otherAsset := uuid.New(), uuid.New(), uuid.New()
	start := time.Now().Add(-time.Hour)
	attempts := []attemptV1{
		{Id: uuid.New(), EventId: eventId, Username: "p1", AssetId: assetId, Points: 10, CreatedAt: start},
		{Id: uuid.New(), EventId: eventId, Username: "p1", AssetId: assetId, Points: 10, CreatedAt: start.Add(time.Second)},
		{Id: uuid.New(), EventId: eventId, Username: "p1", AssetId: otherAsset, Points: 5, CreatedAt: start.Add(2 * time.Second)},
	}
	require.NoError(t, db.Create(&attempts).Error)
	require.NoError(t, db.Create(&leaderboardV1{EventId: eventId, Username: "p1", TotalPoints: 25}).Error)

	require.NoError(t, Migrate(db))

	var remaining []schema.Attempt
	require.NoError(t, db.Order("created_at asc").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, attempts[0].Id, remaining[0].Id)
	assert.Equal(t, attempts[2].Id, remaining[1].Id)

	var row schema.Leaderboard
	require.NoError(t, db.First(&row, "event_id = ? AND username = ?", eventId, "p1").Error)
	assert.Equal(t, 15, row.TotalPoints)

	dup := schema.Attempt{Id: uuid.New(), EventId: eventId, Username: "p1", AssetId: assetId, Points: 10}
	assert.True(t, schema.IsDuplicateKey(db.Create(&dup).Error))
}
