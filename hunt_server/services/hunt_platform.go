package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/storage"
	"ar_hunt/utils"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type HuntPlatform struct {
	user        UserService
	event       EventService
	asset       AssetService
	quiz        QuizService
	attempt     AttemptService
	leaderboard LeaderboardService
	permission  PermissionService
	log         LogService
	unity       UnityService
}

func NewHuntPlatform(
	db *gorm.DB, storage storage.Storage, sessions auth.SessionProvider, auditLog auth.AuditLogger, variables Variables,
) HuntPlatform {
	variables = variables.withDefaults()

	return HuntPlatform{
		user:        UserService{db: db, sessions: sessions},
		event:       EventService{db: db, storage: storage, sessions: sessions},
		asset:       AssetService{db: db, storage: storage, sessions: sessions, variables: variables},
		quiz:        QuizService{db: db, sessions: sessions},
		attempt:     AttemptService{db: db, sessions: sessions},
		leaderboard: LeaderboardService{db: db, sessions: sessions},
		permission:  PermissionService{db: db, sessions: sessions},
		log:         LogService{db: db, sessions: sessions},
		unity: UnityService{
			db:        db,
			storage:   storage,
			auditLog:  auditLog,
			variables: variables,
		},
	}
}

func (h *HuntPlatform) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", h.user.Routes())
	r.Mount("/event", h.event.Routes())
	r.Mount("/asset", h.asset.Routes())
	r.Mount("/quiz", h.quiz.Routes())
	r.Mount("/attempt", h.attempt.Routes())
	r.Mount("/leaderboard", h.leaderboard.Routes())
	r.Mount("/permission", h.permission.Routes())
	r.Mount("/log", h.log.Routes())
	r.Mount("/unity", h.unity.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w, "ok")
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
