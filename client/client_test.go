package client

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/services"
	"ar_hunt/hunt_server/storage"
	"bytes"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	organizerEmail    = "organizer@mail.com"
	organizerPassword = "organizer_password"
	unitySecret       = "client-test-secret"
)

func startServer(t *testing.T) string {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "hunt.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(schema.AllModels()...))

	auditLog := auth.NewAuditLogger(new(bytes.Buffer))
	sessions, err := auth.NewBasicSessionProvider(db, auditLog, auth.BasicProviderArgs{
		Secret:            []byte("client-test-jwt"),
		OrganizerUsername: "organizer",
		OrganizerEmail:    organizerEmail,
		OrganizerPassword: organizerPassword,
	})
	require.NoError(t, err)

	platform := services.NewHuntPlatform(db, storage.NewSharedDisk(t.TempDir()), sessions, auditLog, services.Variables{
		UnitySecret: unitySecret,
	})

	r := chi.NewRouter()
	r.Mount("/api", platform.Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return server.URL
}

func TestHuntClients(t *testing.T) {
	url := startServer(t)

	organizer := New(url)
	require.NoError(t, organizer.Login(organizerEmail, organizerPassword))
	assert.NotEmpty(t, organizer.UserId())

	event, err := organizer.CreateEvent(EventParams{
		Name:      "Quad Hunt",
		StartDate: 1700000000,
		EndDate:   4100000000,
		Visible:   true,
		EventCode: "quad1",
	})
	require.NoError(t, err)
	assert.Equal(t, "QUAD1", event.EventCode)

	imagePath := filepath.Join(t.TempDir(), "fountain.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("jpeg-bytes"), 0644))

	asset, err := organizer.CreateAsset(AssetParams{
		EventId:     event.Id,
		Name:        "Fountain",
		Description: "on the quad",
		Latitude:    40.1,
		Longitude:   -88.2,
		Visible:     true,
		ImagePath:   imagePath,
	})
	require.NoError(t, err)

	quiz, err := organizer.CreateQuiz(QuizParams{
		EventId:  event.Id,
		AssetId:  asset.Id,
		Question: "What color is the fountain?",
		Options:  []string{"red", "green", "blue"},
		Answer:   3,
		Points:   15,
		Visible:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "blue", quiz.Option3)

	unity := NewUnityClient(url, unitySecret)

	joined, err := unity.JoinEvent("QUAD1")
	require.NoError(t, err)
	require.Len(t, joined.Assets, 1)
	require.Len(t, joined.Quizzes, 1)

	image := new(bytes.Buffer)
	require.NoError(t, unity.AssetImage(asset.Id, image))
	assert.Equal(t, "jpeg-bytes", image.String())

	attempted, err := unity.Attempted(event.Id, "player1", asset.Id)
	require.NoError(t, err)
	assert.False(t, attempted)

	require.NoError(t, unity.SubmitPoints(event.Id, "player1", asset.Id, quiz.Points))

	err = unity.SubmitPoints(event.Id, "player1", asset.Id, quiz.Points)
	assert.True(t, errors.Is(err, ErrAlreadyAttempted))

	attempted, err = unity.Attempted(event.Id, "player1", asset.Id)
	require.NoError(t, err)
	assert.True(t, attempted)

	rows, err := unity.Leaderboard(event.Id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].TotalPoints)

	logs, err := organizer.Logs(event.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)

	require.NoError(t, organizer.DeleteEvent(event.Id))

	_, err = unity.JoinEvent("QUAD1")
	var resErr *ResponseError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "No event found", resErr.Message)

	err = unity.AssetImage(asset.Id, new(bytes.Buffer))
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "No asset found", resErr.Message)

	badUnity := NewUnityClient(url, "wrong")
	err = badUnity.SubmitPoints(event.Id, "player1", asset.Id, 1)
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, 401, resErr.StatusCode)
}
