package main

import (
	"ar_hunt/cmd/migration/versions"
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/config"
	"ar_hunt/hunt_server/services"
	"ar_hunt/hunt_server/storage"
	"ar_hunt/utils/logging"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	slogmulti "github.com/samber/slog-multi"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type huntServerEnv struct {
	ShareDir    string `env:"SHARE_DIR,required"`
	JwtSecret   string `env:"JWT_SECRET,required"`
	UnitySecret string `env:"UNITY_AUTHORIZATION_SECRET,required"`

	DatabaseUri string `env:"DATABASE_URI"`
	SqlitePath  string `env:"SQLITE_PATH"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	OrganizerUsername string `env:"ORGANIZER_USERNAME"`
	OrganizerEmail    string `env:"ORGANIZER_EMAIL"`
	OrganizerPassword string `env:"ORGANIZER_PASSWORD"`

	DevSession      bool   `env:"DEV_SESSION"`
	DevSessionEmail string `env:"DEV_SESSION_EMAIL" envDefault:"testing@test.com"`
	DevSessionLevel string `env:"DEV_SESSION_LEVEL" envDefault:"ORGANIZER"`

	UnityRateLimit int   `env:"UNITY_RATE_LIMIT" envDefault:"120"`
	MaxImageBytes  int64 `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
}

func loadEnvFile(envFile string) error {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading .env file '%v': %w", envFile, err)
	}
	return nil
}

/**
 * ==========================================================================
 * ==== All variables that are used by the hunt server must be loaded    ====
 * ==== here. This is to make the data flow clear so that a user can see ====
 * ==== what variables are exposed, and how the values are propagated    ====
 * ==== through the system.                                              ====
 * ==========================================================================
 */
func loadEnv() (*huntServerEnv, error) {
	cfg := &huntServerEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseUri != "" && cfg.SqlitePath != "" {
		return nil, errors.New("must specify at most one of DATABASE_URI or SQLITE_PATH")
	}
	if cfg.DatabaseUri == "" && cfg.SqlitePath == "" {
		cfg.SqlitePath = filepath.Join(cfg.ShareDir, "hunt.db")
	}

	if !cfg.DevSession && cfg.OrganizerEmail != "" && (cfg.OrganizerUsername == "" || cfg.OrganizerPassword == "") {
		return nil, errors.New("ORGANIZER_USERNAME and ORGANIZER_PASSWORD must be specified with ORGANIZER_EMAIL")
	}

	return cfg, nil
}

func (env *huntServerEnv) postgresDsn() (string, error) {
	parts, err := url.Parse(env.DatabaseUri)
	if err != nil {
		return "", fmt.Errorf("error parsing db uri: %w", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port()), nil
}

func initLogging(logFile *os.File) {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))

	jsonHandler := slog.NewJSONHandler(logFile, logging.GetVictoriaLogsOptions(true))
	textHandler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(slogmulti.Fanout(jsonHandler, textHandler)))

	slog.Info("logging initialized", "code", logging.SYSTEM, "log_file", logFile.Name())
}

func initDb(env *huntServerEnv) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if env.DatabaseUri != "" {
		dsn, err := env.postgresDsn()
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(env.SqlitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	if err := versions.Migrate(db); err != nil {
		return nil, fmt.Errorf("error migrating db schema: %w", err)
	}

	return db, nil
}

// The reason we have a separate runApp function is because the defer calls don't
// run if we exit with log.Fatalf, so instead we return an err here and fail outside
func runApp() error {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	seedFile := flag.String("seed", "", "Optional yaml file of events to create on startup.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	if *envFile != "" {
		if err := loadEnvFile(*envFile); err != nil {
			return err
		}
	}

	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	err = os.MkdirAll(filepath.Join(env.ShareDir, "logs/"), 0777)
	if err != nil {
		return fmt.Errorf("error creating log dir: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(env.ShareDir, "logs/hunt_server.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer logFile.Close()

	auditLogFile, err := os.OpenFile(filepath.Join(env.ShareDir, "logs/audit.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		return fmt.Errorf("error opening audit log file: %w", err)
	}
	defer auditLogFile.Close()

	initLogging(logFile)

	db, err := initDb(env)
	if err != nil {
		return err
	}

	auditLog := auth.NewAuditLogger(auditLogFile)

	var sessions auth.SessionProvider
	if env.DevSession {
		slog.Warn("using development session, every request is authenticated as a fixed user", "code", logging.SYSTEM, "email", env.DevSessionEmail, "level", env.DevSessionLevel)
		sessions, err = auth.NewMockSessionProvider(db, auditLog, env.DevSessionEmail, env.DevSessionLevel)
		if err != nil {
			return fmt.Errorf("error creating dev session provider: %w", err)
		}
	} else {
		sessions, err = auth.NewBasicSessionProvider(db, auditLog, auth.BasicProviderArgs{
			Secret:            []byte(env.JwtSecret),
			OrganizerUsername: env.OrganizerUsername,
			OrganizerEmail:    env.OrganizerEmail,
			OrganizerPassword: env.OrganizerPassword,
		})
		if err != nil {
			return fmt.Errorf("error creating session provider: %w", err)
		}
	}

	if *seedFile != "" {
		seed, err := config.LoadSeed(*seedFile)
		if err != nil {
			return err
		}
		if err := services.ApplySeed(db, seed); err != nil {
			return fmt.Errorf("error applying seed: %w", err)
		}
	}

	sharedStorage := storage.NewSharedDisk(filepath.Join(env.ShareDir, "data"))

	platform := services.NewHuntPlatform(db, sharedStorage, sessions, auditLog, services.Variables{
		UnitySecret:    env.UnitySecret,
		UnityRateLimit: env.UnityRateLimit,
		MaxImageBytes:  env.MaxImageBytes,
	})

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   env.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api", platform.Routes())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: r,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutdown signal received", "code", logging.SYSTEM)
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("HTTP server Shutdown", "err", err)
		}
		close(idleConnsClosed)
	}()

	slog.Info("starting server", "code", logging.SYSTEM, "port", *port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve returned error: %w", err)
	}

	<-idleConnsClosed
	slog.Info("server stopped", "code", logging.SYSTEM)
	return nil
}

func main() {
	if err := runApp(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}
