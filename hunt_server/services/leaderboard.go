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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddPoints increments the player's total for the event, creating the row on
// the first award.
func AddPoints(txn *gorm.DB, eventId uuid.UUID, username string, points int) error {
	row := schema.Leaderboard{EventId: eventId, Username: username, TotalPoints: points}

	result := txn.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}, {Name: "username"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points": gorm.Expr("leaderboards.total_points + ?", points),
		}),
	}).Create(&row)
	if result.Error != nil {
		slog.Error("sql error updating leaderboard", "event_id", eventId, "username", username, "error", result.Error)
		return dbError()
	}
	return nil
}

func listLeaderboard(db *gorm.DB, eventId uuid.UUID) ([]schema.Leaderboard, error) {
	rows := make([]schema.Leaderboard, 0)
	result := db.Where("event_id = ?", eventId).Order("total_points desc").Order("username asc").Find(&rows)
	if result.Error != nil {
		slog.Error("sql error listing leaderboard", "event_id", eventId, "error", result.Error)
		return nil, dbError()
	}
	return rows, nil
}

type LeaderboardService struct {
	db       *gorm.DB
	sessions auth.SessionProvider
}

func (s *LeaderboardService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)
	r.Use(auth.LevelOnly(schema.Organizer, schema.Facilitator))

	r.Post("/fetch", s.Fetch)
	r.With(auth.OrganizerOnly).Post("/delete", s.Delete)

	return r
}

func (s *LeaderboardService) Fetch(w http.ResponseWriter, r *http.Request) {
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

	rows, err := listLeaderboard(s.db, eventId)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, rows)
}

func (s *LeaderboardService) Delete(w http.ResponseWriter, r *http.Request) {
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

	var removed int64
	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := loadModifiableEvent(txn, eventId, session); err != nil {
			return err
		}

		result := txn.Where("event_id = ?", eventId).Delete(&schema.Leaderboard{})
		if result.Error != nil {
			slog.Error("sql error deleting leaderboard", "event_id", eventId, "error", result.Error)
			return dbError()
		}
		removed = result.RowsAffected

		return appendLog(txn, session.Email, eventId, eventId.String(), fmt.Sprintf("Delete Leaderboard %v", eventId))
	})

	if err != nil {
		writeError(w, err)
		return
	}

	cascadeDeletes.WithLabelValues("leaderboard").Add(float64(removed))
	slog.Info("reset leaderboard", "code", logging.ATTEMPT_OP, "event_id", eventId, "rows", removed, "actor", session.Email)

	utils.WriteSuccess(w, fmt.Sprintf("Successfully deleted leaderboard for event %v", eventId))
}
