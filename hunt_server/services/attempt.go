package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils"
	"ar_hunt/utils/logging"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAlreadyAttempted = errors.New("User already attempted this quiz")

func DoesUserAttempt(db *gorm.DB, eventId uuid.UUID, username string, assetId uuid.UUID) (bool, error) {
	var count int64
	result := db.Model(&schema.Attempt{}).
		Where("event_id = ? AND username = ? AND asset_id = ?", eventId, username, assetId).
		Count(&count)
	if result.Error != nil {
		slog.Error("sql error checking for existing attempt", "event_id", eventId, "username", username, "asset_id", assetId, "error", result.Error)
		return false, schema.ErrDbAccessFailed
	}
	return count > 0, nil
}

// CreateAttempt inserts the attempt and logs it on behalf of the AR client. A
// second attempt for the same event, player, and asset fails with
// ErrAlreadyAttempted.
func CreateAttempt(txn *gorm.DB, attempt schema.Attempt) error {
	result := txn.Create(&attempt)
	if result.Error != nil {
		if schema.IsDuplicateKey(result.Error) {
			return CodedError(ErrAlreadyAttempted, http.StatusOK)
		}
		slog.Error("sql error creating attempt", "error", result.Error)
		return dbError()
	}

	return appendLog(txn, schema.UnityActor, attempt.EventId, attempt.Id.String(), fmt.Sprintf("Create Attempt %v", attempt.Id))
}

type AttemptService struct {
	db       *gorm.DB
	sessions auth.SessionProvider
}

func (s *AttemptService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)
	r.Use(auth.LevelOnly(schema.Organizer, schema.Facilitator))

	r.Post("/fetch", s.Fetch)
	r.Post("/fetchByUser", s.FetchByUser)
	r.With(auth.OrganizerOnly).Post("/delete", s.Delete)

	return r
}

func (s *AttemptService) Fetch(w http.ResponseWriter, r *http.Request) {
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

	if _, err := loadViewableEvent(s.db, eventId, session); err != nil {
		writeError(w, err)
		return
	}

	attempts := make([]schema.Attempt, 0)
	result := s.db.Where("event_id = ?", eventId).Order("created_at asc").Find(&attempts)
	if result.Error != nil {
		slog.Error("sql error listing attempts", "event_id", eventId, "error", result.Error)
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, attempts)
}

type userAttemptsRequest struct {
	EventId  string `json:"eventID"`
	Username string `json:"username"`
}

func (s *AttemptService) FetchByUser(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params userAttemptsRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil || !utils.CheckerString(params.Username) {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}

	if _, err := loadViewableEvent(s.db, eventId, session); err != nil {
		writeError(w, err)
		return
	}

	attempts := make([]schema.Attempt, 0)
	result := s.db.Where("event_id = ? AND username = ?", eventId, strings.TrimSpace(params.Username)).Order("created_at asc").Find(&attempts)
	if result.Error != nil {
		slog.Error("sql error listing attempts for user", "event_id", eventId, "error", result.Error)
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, attempts)
}

func (s *AttemptService) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params idRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	attemptId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	del := deletion{actor: session.Email}
	err = s.db.Transaction(func(txn *gorm.DB) error {
		attempt, err := schema.GetAttempt(attemptId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrAttemptNotFound) {
				return CodedError(ErrNoAttemptFound, http.StatusOK)
			}
			return dbError()
		}
		if _, err := loadModifiableEvent(txn, attempt.EventId, session); err != nil {
			return err
		}
		return del.attemptsWhere(txn, attempt.EventId, "id = ?", attempt.Id)
	})

	if err != nil {
		writeError(w, err)
		return
	}

	del.committed(nil)

	slog.Info("deleted attempt", "code", logging.ATTEMPT_OP, "attempt_id", attemptId, "actor", session.Email)

	utils.WriteSuccess(w, fmt.Sprintf("Successfully deleted attempt %v", attemptId))
}
