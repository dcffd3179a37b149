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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PermissionService struct {
	db       *gorm.DB
	sessions auth.SessionProvider
}

func (s *PermissionService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)
	r.Use(auth.OrganizerOnly)

	r.Post("/create", s.Create)
	r.Post("/delete", s.Delete)
	r.Post("/fetch", s.Fetch)

	return r
}

type createPermissionRequest struct {
	EventId string `json:"eventID"`
	Email   string `json:"email"`
}

func (s *PermissionService) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params createPermissionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.EventId)
	if err != nil || !utils.CheckerString(params.Email) {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}
	email := strings.TrimSpace(params.Email)

	perm := schema.EventPermission{
		Id:        uuid.New(),
		EventId:   eventId,
		Email:     email,
		CreatedBy: session.Email,
		CreatedAt: time.Now().UTC(),
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := loadModifiableEvent(txn, eventId, session); err != nil {
			return err
		}

		user, err := schema.GetUserByEmail(email, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(errors.New("No facilitator found with this email"), http.StatusOK)
			}
			return dbError()
		}
		if user.Level != schema.Facilitator {
			return CodedError(errors.New("Permissions can only be granted to facilitators"), http.StatusOK)
		}

		result := txn.Create(&perm)
		if result.Error != nil {
			if schema.IsDuplicateKey(result.Error) {
				return CodedError(errors.New("Permission already granted"), http.StatusOK)
			}
			slog.Error("sql error creating event permission", "error", result.Error)
			return dbError()
		}

		return appendLog(txn, session.Email, eventId, perm.Id.String(), fmt.Sprintf("Create Permission %v", perm.Id))
	})

	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("granted event permission", "code", logging.PERMISSION_OP, "event_id", eventId, "email", email)

	utils.WriteJsonResponse(w, perm)
}

func (s *PermissionService) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params idRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	permId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		perm, err := schema.GetEventPermission(permId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrPermissionNotFound) {
				return CodedError(errors.New("No permission found"), http.StatusOK)
			}
			return dbError()
		}

		if _, err := loadModifiableEvent(txn, perm.EventId, session); err != nil {
			return err
		}

		if err := appendLog(txn, session.Email, perm.EventId, perm.Id.String(), fmt.Sprintf("Delete Permission %v", perm.Id)); err != nil {
			return err
		}

		result := txn.Delete(&schema.EventPermission{Id: perm.Id})
		if result.Error != nil {
			slog.Error("sql error deleting event permission", "permission_id", perm.Id, "error", result.Error)
			return dbError()
		}
		return nil
	})

	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccess(w, fmt.Sprintf("Successfully deleted permission %v", permId))
}

func (s *PermissionService) Fetch(w http.ResponseWriter, r *http.Request) {
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

	perms := make([]schema.EventPermission, 0)
	result := s.db.Where("event_id = ?", eventId).Order("created_at asc").Find(&perms)
	if result.Error != nil {
		slog.Error("sql error listing event permissions", "event_id", eventId, "error", result.Error)
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, perms)
}
