package config_test

import (
	"ar_hunt/hunt_server/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const campusSeed = `
organizer: organizer@test.com
events:
  - name: Campus Hunt
    description: landmarks around the quad
    event_code: CAMPUS
    start: 2024-09-01T09:00:00Z
    end: 2024-09-01T17:00:00Z
    visible: true
    assets:
      - name: Clock Tower
        description: the old clock tower
        latitude: 40.1
        longitude: -88.2
        visible: true
        quizzes:
          - question: When was it built?
            options: ["1890", "1910", "1925", "1950"]
            answer: 2
            points: 10
            visible: true
`

func writeSeed(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadSeed(t *testing.T) {
	seed, err := config.LoadSeed(writeSeed(t, campusSeed))
	require.NoError(t, err)

	assert.Equal(t, "organizer@test.com", seed.Organizer)
	require.Len(t, seed.Events, 1)

	event := seed.Events[0]
	assert.Equal(t, "CAMPUS", event.EventCode)
	assert.True(t, event.End.After(event.Start))
	require.Len(t, event.Assets, 1)
	require.Len(t, event.Assets[0].Quizzes, 1)

	quiz := event.Assets[0].Quizzes[0]
	assert.Equal(t, []string{"1890", "1910", "1925", "1950"}, quiz.Options)
	assert.Equal(t, 2, quiz.Answer)
}

func TestLoadSeedInvalid(t *testing.T) {
	_, err := config.LoadSeed(writeSeed(t, "events: []\n"))
	assert.ErrorContains(t, err, "organizer")

	_, err = config.LoadSeed(writeSeed(t, `
organizer: organizer@test.com
events:
  - name: Backwards
    start: 2024-09-02T00:00:00Z
    end: 2024-09-01T00:00:00Z
`))
	assert.ErrorContains(t, err, "ends before it starts")

	_, err = config.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
