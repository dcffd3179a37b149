package tests

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/services"
	"ar_hunt/hunt_server/storage"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	platform services.HuntPlatform
	api      chi.Router
	db       *gorm.DB
	storage  storage.Storage
	sessions auth.SessionProvider
	auditLog auth.AuditLogger
}

const (
	organizerUsername = "organizer123"
	organizerEmail    = "organizer123@mail.com"
	organizerPassword = "organizer_password123"

	unitySecret = "unity-shared-secret"
)

func openTestDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(schema.AllModels()...)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func newTestStorage(t *testing.T) storage.Storage {
	storagePath := filepath.Join(t.TempDir(), "/storage")
	err := os.MkdirAll(storagePath, 0777)
	if err != nil {
		t.Fatalf("error creating storage directory: %v", err)
	}
	return storage.NewSharedDisk(storagePath)
}

func testVariables() services.Variables {
	return services.Variables{
		UnitySecret:   unitySecret,
		MaxImageBytes: 1 << 20,
	}
}

func newTestEnv(t *testing.T, db *gorm.DB, sessions auth.SessionProvider, auditLog auth.AuditLogger) *testEnv {
	store := newTestStorage(t)

	platform := services.NewHuntPlatform(db, store, sessions, auditLog, testVariables())

	api := chi.NewRouter()
	api.Mount("/api", platform.Routes())

	return &testEnv{platform: platform, api: api, db: db, storage: store, sessions: sessions, auditLog: auditLog}
}

func setupTestEnv(t *testing.T) *testEnv {
	db := openTestDb(t)
	auditLog := auth.NewAuditLogger(new(bytes.Buffer))

	sessions, err := auth.NewBasicSessionProvider(
		db,
		auditLog,
		auth.BasicProviderArgs{
			Secret:            []byte("290zcv02ai249"),
			OrganizerUsername: organizerUsername,
			OrganizerEmail:    organizerEmail,
			OrganizerPassword: organizerPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	return newTestEnv(t, db, sessions, auditLog)
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) organizerClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: organizerEmail, Password: organizerPassword})
	return c, err
}

// newFacilitator signs up a facilitator and returns a logged in client.
func (t *testEnv) newFacilitator(username string) (client, error) {
	c := t.newClient()
	login, err := c.signup(username, username+"@mail.com", username+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

// newOrganizer has the initial organizer create another organizer account.
func (t *testEnv) newOrganizer(username string) (client, error) {
	admin, err := t.organizerClient()
	if err != nil {
		return client{}, err
	}

	login, err := admin.createUser(username, schema.Organizer)
	if err != nil {
		return client{}, err
	}

	c := t.newClient()
	if err := c.login(login); err != nil {
		return client{}, err
	}
	return c, nil
}

func (t *testEnv) unityClient() client {
	return client{api: t.api, authToken: unitySecret}
}

// rateLimitedUnityClient talks to a second router over the same database whose
// unity endpoints allow limit requests per minute.
func (t *testEnv) rateLimitedUnityClient(limit int) client {
	variables := testVariables()
	variables.UnityRateLimit = limit

	platform := services.NewHuntPlatform(t.db, t.storage, t.sessions, t.auditLog, variables)
	api := chi.NewRouter()
	api.Mount("/api", platform.Routes())

	return client{api: api, authToken: unitySecret}
}

func (t *testEnv) count(model interface{}, query string, args ...interface{}) int64 {
	var n int64
	if err := t.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		panic(err)
	}
	return n
}
