package services

import (
	"ar_hunt/hunt_server/schema"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
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
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "hunt.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(schema.AllModels()...))
	return db
}

func newAttempt(eventId uuid.UUID, username string, assetId uuid.UUID, points int) schema.Attempt {
	return schema.Attempt{Id: uuid.New(), EventId: eventId, Username: username, AssetId: assetId, Points: points, CreatedAt: time.Now().UTC()}
}

func TestAddPointsAccumulates(t *testing.T) {
	db := openDb(t)
	event := uuid.New()

	require.NoError(t, AddPoints(db, event, "p1", 10))
	require.NoError(t, AddPoints(db, event, "p1", 5))
	require.NoError(t, AddPoints(db, event, "p2", 3))

	rows, err := listLeaderboard(db, event)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0].Username)
	assert.Equal(t, 15, rows[0].TotalPoints)
	assert.Equal(t, 3, rows[1].TotalPoints)
}

func TestCreateAttemptRejectsDuplicate(t *testing.T) {
	db := openDb(t)
	event, asset := uuid.New(), uuid.New()

	require.NoError(t, CreateAttempt(db, newAttempt(event, "p1", asset, 10)))

	attempted, err := DoesUserAttempt(db, event, "p1", asset)
	require.NoError(t, err)
	assert.True(t, attempted)

	err = CreateAttempt(db, newAttempt(event, "p1", asset, 10))
	assert.True(t, errors.Is(err, ErrAlreadyAttempted))
	assert.Equal(t, http.StatusOK, GetResponseCode(err))

	// Same player on another asset is a separate attempt.
	require.NoError(t, CreateAttempt(db, newAttempt(event, "p1", uuid.New(), 10)))

	var logs int64
	require.NoError(t, db.Model(&schema.Log{}).Where("actor = ?", schema.UnityActor).Count(&logs).Error)
	assert.Equal(t, int64(2), logs)
}

func TestScoringRollsBackTogether(t *testing.T) {
	db := openDb(t)
	event, asset := uuid.New(), uuid.New()

	err := db.Transaction(func(txn *gorm.DB) error {
		if err := CreateAttempt(txn, newAttempt(event, "p1", asset, 10)); err != nil {
			return err
		}
		if err := AddPoints(txn, event, "p1", 10); err != nil {
			return err
		}
		return errors.New("leaderboard update failed")
	})
	require.Error(t, err)

	var attempts, rows int64
	require.NoError(t, db.Model(&schema.Attempt{}).Count(&attempts).Error)
	require.NoError(t, db.Model(&schema.Leaderboard{}).Count(&rows).Error)
	assert.Zero(t, attempts)
	assert.Zero(t, rows)

	// A duplicate inside the workflow leaves the existing total untouched.
	require.NoError(t, CreateAttempt(db, newAttempt(event, "p1", asset, 10)))
	require.NoError(t, AddPoints(db, event, "p1", 10))

	err = db.Transaction(func(txn *gorm.DB) error {
		if err := CreateAttempt(txn, newAttempt(event, "p1", asset, 10)); err != nil {
			return err
		}
		return AddPoints(txn, event, "p1", 10)
	})
	assert.True(t, errors.Is(err, ErrAlreadyAttempted))

	leaderboard, err := listLeaderboard(db, event)
	require.NoError(t, err)
	require.Len(t, leaderboard, 1)
	assert.Equal(t, 10, leaderboard[0].TotalPoints)
}

func TestNewQuizContent(t *testing.T) {
	content, err := newQuizContent(" Which? ", []string{"a", " b ", "", "d"}, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, "Which?", content.question)
	assert.Equal(t, [4]string{"a", "b", "", "d"}, content.options)

	_, err = newQuizContent("Which?", []string{"a", "b", "", "d"}, 3, 5)
	assert.Error(t, err)

	_, err = newQuizContent("", []string{"a", "b"}, 1, 5)
	assert.True(t, errors.Is(err, ErrMissingInformation))
}

func TestRandomEventCode(t *testing.T) {
	code, err := randomEventCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, strings.ContainsRune(eventCodeAlphabet, c))
	}

	db := openDb(t)
	code, err = newEventCode(db)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestNumberField(t *testing.T) {
	for _, tc := range []struct {
		value json.Number
		want  int
		ok    bool
	}{
		{"10", 10, true},
		{"10.0", 10, true},
		{"1e1", 10, true},
		{"-3", -3, true},
		{"10.5", 0, false},
		{"", 0, false},
		{"1e300", 0, false},
	} {
		got, ok := numberField(tc.value)
		assert.Equal(t, tc.ok, ok, "value %q", tc.value)
		assert.Equal(t, tc.want, got, "value %q", tc.value)
	}
}
