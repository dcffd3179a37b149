package services

import (
	"ar_hunt/hunt_server/config"
	"ar_hunt/hunt_server/schema"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() *config.Seed {
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	return &config.Seed{
		Organizer: "organizer@mail.com",
		Events: []config.SeedEvent{
			{
				Name:      "Quad Hunt",
				EventCode: "quad",
				Start:     start,
				End:       start.Add(6 * time.Hour),
				Visible:   true,
				Assets: []config.SeedAsset{
					{
						Name:      "Fountain",
						Latitude:  40.1,
						Longitude: -88.2,
						Visible:   true,
						Quizzes: []config.SeedQuiz{
							{Question: "Color?", Options: []string{"red", "blue"}, Answer: 2, Points: 10, Visible: true},
						},
					},
				},
			},
		},
	}
}

func TestApplySeed(t *testing.T) {
	db := openDb(t)

	organizer := schema.User{Id: uuid.New(), Username: "organizer", Email: "organizer@mail.com", Level: schema.Organizer}
	require.NoError(t, db.Create(&organizer).Error)

	require.NoError(t, ApplySeed(db, testSeed()))
	// Applying the same seed again skips events whose code exists.
	require.NoError(t, ApplySeed(db, testSeed()))

	event, err := schema.GetEventByCode("QUAD", db)
	require.NoError(t, err)
	assert.Equal(t, "organizer@mail.com", event.CreatedBy)

	var assets, quizzes, events int64
	require.NoError(t, db.Model(&schema.Event{}).Count(&events).Error)
	require.NoError(t, db.Model(&schema.Asset{}).Where("event_id = ?", event.Id).Count(&assets).Error)
	require.NoError(t, db.Model(&schema.Quiz{}).Where("event_id = ?", event.Id).Count(&quizzes).Error)
	assert.Equal(t, int64(1), events)
	assert.Equal(t, int64(1), assets)
	assert.Equal(t, int64(1), quizzes)
}

func TestApplySeedRejectsInvalidQuiz(t *testing.T) {
	db := openDb(t)

	organizer := schema.User{Id: uuid.New(), Username: "organizer", Email: "organizer@mail.com", Level: schema.Organizer}
	require.NoError(t, db.Create(&organizer).Error)

	seed := testSeed()
	seed.Events[0].Assets[0].Quizzes[0].Answer = 3
	assert.Error(t, ApplySeed(db, seed))

	var events int64
	require.NoError(t, db.Model(&schema.Event{}).Count(&events).Error)
	assert.Zero(t, events, "a failed seed is rolled back")

	seed = testSeed()
	seed.Organizer = "missing@mail.com"
	assert.Error(t, ApplySeed(db, seed))
}
