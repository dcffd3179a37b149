package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type LogService struct {
	db       *gorm.DB
	sessions auth.SessionProvider
}

func (s *LogService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)
	r.Use(auth.OrganizerOnly)

	r.Post("/fetch", s.Fetch)

	return r
}

func (s *LogService) Fetch(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params eventIdRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil {
		writeError(w, CodedError(errors.New("No event ID provided"), http.StatusOK))
		return
	}

	if _, err := loadModifiableEvent(s.db, eventId, session); err != nil {
		writeError(w, err)
		return
	}

	logs := make([]schema.Log, 0)
	result := s.db.Where("event_id = ?", eventId).Order("timestamp asc").Find(&logs)
	if result.Error != nil {
		slog.Error("sql error listing logs", "event_id", eventId, "error", result.Error)
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, logs)
}
