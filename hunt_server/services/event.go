package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/storage"
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

type EventService struct {
	db       *gorm.DB
	storage  storage.Storage
	sessions auth.SessionProvider
}

func (s *EventService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)

	r.Group(func(r chi.Router) {
		r.Use(auth.OrganizerOnly)

		r.Post("/create", s.Create)
		r.Post("/edit", s.Edit)
		r.Post("/delete", s.Delete)
	})

	r.Get("/fetch", s.Fetch)
	r.Post("/get", s.Get)

	return r
}

type eventRequest struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   int64  `json:"startDate"`
	EndDate     int64  `json:"endDate"`
	IsPublic    bool   `json:"isPublic"`
	Visible     bool   `json:"visible"`
	EventCode   string `json:"eventCode"`
}

func (params *eventRequest) validate() error {
	if !utils.CheckerString(params.Name) || params.StartDate == 0 || params.EndDate == 0 {
		return CodedError(ErrMissingInformation, http.StatusOK)
	}
	if params.EndDate < params.StartDate {
		return CodedError(errors.New("Event cannot end before it starts"), http.StatusOK)
	}
	params.EventCode = strings.ToUpper(strings.TrimSpace(params.EventCode))
	if len(params.EventCode) > 20 {
		return CodedError(errors.New("Event code must be at most 20 characters"), http.StatusOK)
	}
	return nil
}

func checkEventCodeAvailable(txn *gorm.DB, code string, eventId uuid.UUID) error {
	existing, err := schema.GetEventByCode(code, txn)
	if err != nil {
		if errors.Is(err, schema.ErrEventNotFound) {
			return nil
		}
		return dbError()
	}
	if existing.Id != eventId {
		return CodedError(fmt.Errorf("Event code %v is already in use", code), http.StatusOK)
	}
	return nil
}

func (s *EventService) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params eventRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := params.validate(); err != nil {
		writeError(w, err)
		return
	}

	event := schema.Event{
		Id:          uuid.New(),
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		IsPublic:    params.IsPublic,
		Visible:     params.Visible,
		EventCode:   params.EventCode,
		CreatedBy:   session.Email,
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		if event.EventCode == "" {
			code, err := newEventCode(txn)
			if err != nil {
				slog.Error("error generating event code", "error", err)
				return CodedError(errors.New("Unable to generate event code"), http.StatusOK)
			}
			event.EventCode = code
		} else if err := checkEventCodeAvailable(txn, event.EventCode, event.Id); err != nil {
			return err
		}

		result := txn.Create(&event)
		if result.Error != nil {
			if schema.IsDuplicateKey(result.Error) {
				return CodedError(fmt.Errorf("Event code %v is already in use", event.EventCode), http.StatusOK)
			}
			slog.Error("sql error creating event", "error", result.Error)
			return dbError()
		}

		return appendLog(txn, session.Email, event.Id, event.Id.String(), fmt.Sprintf("Create Event %v", event.Id))
	})

	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("created event", "code", logging.EVENT_OP, "event_id", event.Id, "created_by", session.Email)

	utils.WriteJsonResponse(w, event)
}

func (s *EventService) Edit(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params eventRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := params.validate(); err != nil {
		writeError(w, err)
		return
	}

	var event schema.Event
	err = s.db.Transaction(func(txn *gorm.DB) error {
		event, err = loadModifiableEvent(txn, eventId, session)
		if err != nil {
			return err
		}

		if params.EventCode != "" && params.EventCode != event.EventCode {
			if err := checkEventCodeAvailable(txn, params.EventCode, event.Id); err != nil {
				return err
			}
			event.EventCode = params.EventCode
		}

		event.Name = strings.TrimSpace(params.Name)
		event.Description = params.Description
		event.StartDate = params.StartDate
		event.EndDate = params.EndDate
		event.IsPublic = params.IsPublic
		event.Visible = params.Visible

		if err := appendLog(txn, session.Email, event.Id, event.Id.String(), fmt.Sprintf("Edit Event %v", event.Id)); err != nil {
			return err
		}

		result := txn.Save(&event)
		if result.Error != nil {
			if schema.IsDuplicateKey(result.Error) {
				return CodedError(fmt.Errorf("Event code %v is already in use", event.EventCode), http.StatusOK)
			}
			slog.Error("sql error updating event", "event_id", event.Id, "error", result.Error)
			return dbError()
		}
		return nil
	})

	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, event)
}

type idRequest struct {
	Id string `json:"id"`
}

func (s *EventService) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params idRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	eventId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	del := deletion{actor: session.Email}
	err = s.db.Transaction(func(txn *gorm.DB) error {
		event, err := loadEvent(txn, eventId)
		if err != nil {
			return err
		}
		if !auth.CanModify(event.CreatedBy, session) {
			return CodedError(errors.New("Only the creator can delete the event"), http.StatusForbidden)
		}
		return del.event(txn, event)
	})

	if err != nil {
		slog.Error("error deleting event", "code", logging.EVENT_OP, "event_id", eventId, "error", err)
		writeError(w, err)
		return
	}

	del.committed(s.storage)

	slog.Info("deleted event", "code", logging.EVENT_OP, "event_id", eventId, "assets", del.assets, "quizzes", del.quizzes, "attempts", del.attempts)

	utils.WriteSuccess(w, fmt.Sprintf("Successfully deleted event %v", eventId))
}

type eventInfo struct {
	schema.Event
	IsCreator bool `json:"isCreator"`
	Started   bool `json:"started"`
	Ended     bool `json:"ended"`
}

func newEventInfo(event schema.Event, session auth.Session, now time.Time) eventInfo {
	return eventInfo{
		Event:     event,
		IsCreator: event.CreatedBy == session.Email,
		Started:   now.Unix() >= event.StartDate,
		Ended:     now.Unix() > event.EndDate,
	}
}

func (s *EventService) Fetch(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	eventIds, err := auth.ViewableEventIds(session, s.db)
	if err != nil {
		writeError(w, dbError())
		return
	}

	events := make([]schema.Event, 0)
	if len(eventIds) > 0 {
		result := s.db.Where("id IN ?", eventIds).Order("start_date asc").Find(&events)
		if result.Error != nil {
			slog.Error("sql error listing events", "error", result.Error)
			writeError(w, dbError())
			return
		}
	}

	now := time.Now()
	infos := make([]eventInfo, 0, len(events))
	for _, event := range events {
		infos = append(infos, newEventInfo(event, session, now))
	}

	utils.WriteJsonResponse(w, infos)
}

type eventIdRequest struct {
	EventId string `json:"eventID"`
}

func (s *EventService) Get(w http.ResponseWriter, r *http.Request) {
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

	event, err := loadViewableEvent(s.db, eventId, session)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, newEventInfo(event, session, time.Now()))
}
