package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/storage"
	"ar_hunt/utils"
	"ar_hunt/utils/logging"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// UnityService serves the AR client. Requests carry the shared secret instead
// of a user session.
type UnityService struct {
	db        *gorm.DB
	storage   storage.Storage
	auditLog  auth.AuditLogger
	variables Variables
}

func (s *UnityService) Routes() chi.Router {
	r := chi.NewRouter()

	if s.variables.UnityRateLimit > 0 {
		r.Use(httprate.Limit(
			s.variables.UnityRateLimit,
			time.Minute,
			httprate.WithKeyByIP(),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				utils.WriteError(w, http.StatusTooManyRequests, "Too many requests")
			}),
		))
	}
	r.MethodNotAllowed(auth.PostOnly)

	r.Group(func(r chi.Router) {
		r.Use(auth.UnitySecretOnly(s.variables.UnitySecret))
		r.Use(s.auditLog.Middleware)

		r.Post("/points", s.Points)
		r.Post("/leaderboard", s.Leaderboard)
		r.Post("/event", s.Event)
		r.Post("/attempted", s.Attempted)
		r.Get("/image/{asset_id}", s.Image)
	})

	return r
}

type pointsRequest struct {
	EventId  string      `json:"eventID"`
	Username string      `json:"username"`
	Points   json.Number `json:"points"`
	AssetId  string      `json:"assetID"`
}

func rejectAttempt(w http.ResponseWriter, reason string, err error) {
	attemptsRejected.WithLabelValues(reason).Inc()
	writeError(w, err)
}

func (s *UnityService) Points(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(unityRequestDuration.WithLabelValues("points"))
	defer timer.ObserveDuration()

	var params pointsRequest
	if !utils.ParseRequestBody(w, r, &params) {
		attemptsRejected.WithLabelValues("malformed").Inc()
		return
	}

	username := strings.TrimSpace(params.Username)
	points, ok := numberField(params.Points)
	if !utils.CheckerString(params.EventId, params.AssetId, username) || !ok || points <= 0 {
		rejectAttempt(w, "missing_information", CodedError(errors.New("Missing information"), http.StatusOK))
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil {
		rejectAttempt(w, "unknown_event", CodedError(ErrNoEventFound, http.StatusOK))
		return
	}
	assetId, err := parseId(params.AssetId)
	if err != nil {
		rejectAttempt(w, "unknown_asset", CodedError(ErrNoAssetFound, http.StatusOK))
		return
	}

	slog.Info("attempted quiz", "code", logging.UNITY_SCORING, "event_id", eventId, "asset_id", assetId, "username", username)

	// Every submission is logged, including the ones rejected below.
	if err := appendLog(s.db, username, eventId, assetId.String(), fmt.Sprintf("Attempted Quiz from %v", assetId)); err != nil {
		rejectAttempt(w, "error", err)
		return
	}

	attempted, err := DoesUserAttempt(s.db, eventId, username, assetId)
	if err != nil {
		rejectAttempt(w, "error", dbError())
		return
	}
	if attempted {
		rejectAttempt(w, "already_attempted", CodedError(ErrAlreadyAttempted, http.StatusOK))
		return
	}

	attempt := schema.Attempt{
		Id:        uuid.New(),
		EventId:   eventId,
		Username:  username,
		AssetId:   assetId,
		Points:    points,
		CreatedAt: time.Now().UTC(),
	}

	// The attempt is inserted before the leaderboard is touched so that the
	// unique index rejects a concurrent duplicate before any points move.
	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := loadEvent(txn, eventId); err != nil {
			return err
		}
		asset, err := loadAsset(txn, assetId)
		if err != nil {
			return err
		}
		if asset.EventId != eventId {
			return CodedError(errors.New("Asset does not belong to event"), http.StatusOK)
		}

		if err := CreateAttempt(txn, attempt); err != nil {
			return err
		}

		return AddPoints(txn, eventId, username, points)
	})

	if err != nil {
		reason := "error"
		if errors.Is(err, ErrAlreadyAttempted) {
			reason = "already_attempted"
		}
		slog.Info("rejected quiz attempt", "code", logging.UNITY_SCORING, "event_id", eventId, "asset_id", assetId, "username", username, "error", err)
		rejectAttempt(w, reason, err)
		return
	}

	attemptsRecorded.Inc()
	pointsAwarded.Add(float64(points))

	utils.WriteResult(w, http.StatusAccepted, utils.Result{Status: true, Msg: "Successfully updated points"})
}

func (s *UnityService) Leaderboard(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(unityRequestDuration.WithLabelValues("leaderboard"))
	defer timer.ObserveDuration()

	var params eventIdRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil {
		writeError(w, CodedError(errors.New("No event ID provided"), http.StatusOK))
		return
	}

	if _, err := loadEvent(s.db, eventId); err != nil {
		writeError(w, err)
		return
	}

	rows, err := listLeaderboard(s.db, eventId)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Debug("served leaderboard", "code", logging.UNITY_LEADERBOARD, "event_id", eventId, "rows", len(rows))

	utils.WriteJsonResponse(w, rows)
}

type eventCodeRequest struct {
	EventCode string `json:"eventCode"`
}

type unityEventResponse struct {
	Event   schema.Event   `json:"event"`
	Assets  []schema.Asset `json:"assets"`
	Quizzes []schema.Quiz  `json:"quizzes"`
}

// Event resolves an event code to the visible content of a running event.
func (s *UnityService) Event(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(unityRequestDuration.WithLabelValues("event"))
	defer timer.ObserveDuration()

	var params eventCodeRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(params.EventCode))
	if code == "" {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}

	event, err := schema.GetEventByCode(code, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrEventNotFound) {
			writeError(w, CodedError(ErrNoEventFound, http.StatusOK))
			return
		}
		writeError(w, dbError())
		return
	}

	if !event.Visible {
		writeError(w, CodedError(ErrNoEventFound, http.StatusOK))
		return
	}
	now := time.Now().Unix()
	if now < event.StartDate || now > event.EndDate {
		writeError(w, CodedError(errors.New("Event is not running"), http.StatusOK))
		return
	}

	res := unityEventResponse{Event: event, Assets: make([]schema.Asset, 0), Quizzes: make([]schema.Quiz, 0)}

	result := s.db.Where("event_id = ? AND visible = ?", event.Id, true).Order("created_at asc").Find(&res.Assets)
	if result.Error != nil {
		slog.Error("sql error listing visible assets", "event_id", event.Id, "error", result.Error)
		writeError(w, dbError())
		return
	}

	if len(res.Assets) > 0 {
		assetIds := make([]uuid.UUID, 0, len(res.Assets))
		for _, asset := range res.Assets {
			assetIds = append(assetIds, asset.Id)
		}

		result = s.db.Where("asset_id IN ? AND visible = ?", assetIds, true).Order("created_at asc").Find(&res.Quizzes)
		if result.Error != nil {
			slog.Error("sql error listing visible quizzes", "event_id", event.Id, "error", result.Error)
			writeError(w, dbError())
			return
		}
	}

	utils.WriteJsonResponse(w, res)
}

func (s *UnityService) Image(w http.ResponseWriter, r *http.Request) {
	assetId, err := utils.URLParamUUID(r, "asset_id")
	if err != nil {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}

	asset, err := loadAsset(s.db, assetId)
	if err != nil {
		writeError(w, err)
		return
	}
	if !asset.Visible {
		writeError(w, CodedError(ErrNoAssetFound, http.StatusOK))
		return
	}

	serveImage(w, s.storage, asset)
}

type attemptedRequest struct {
	EventId  string `json:"eventID"`
	Username string `json:"username"`
	AssetId  string `json:"assetID"`
}

type attemptedResponse struct {
	Attempted bool `json:"attempted"`
}

// Attempted lets the AR client hide quizzes the player already answered.
func (s *UnityService) Attempted(w http.ResponseWriter, r *http.Request) {
	var params attemptedRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil {
		writeError(w, err)
		return
	}
	assetId, err := parseId(params.AssetId)
	if err != nil {
		writeError(w, err)
		return
	}
	if !utils.CheckerString(params.Username) {
		writeError(w, CodedError(errors.New("Missing information"), http.StatusOK))
		return
	}

	attempted, err := DoesUserAttempt(s.db, eventId, strings.TrimSpace(params.Username), assetId)
	if err != nil {
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, attemptedResponse{Attempted: attempted})
}
