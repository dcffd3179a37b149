package auth

import (
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CanModify reports whether the session may change an entity created by
// createdBy. Only the creating organizer may.
func CanModify(createdBy string, session Session) bool {
	return session.IsOrganizer() && createdBy == session.Email
}

// CanView reports whether the session may read the given event. Organizers see
// the events they created, facilitators the events they were granted.
func CanView(event schema.Event, permittedEventIds []uuid.UUID, session Session) bool {
	switch session.Level {
	case schema.Organizer:
		return event.CreatedBy == session.Email
	case schema.Facilitator:
		return slices.Contains(permittedEventIds, event.Id)
	default:
		return false
	}
}

func IsEventAuthorized(event schema.Event, session Session, db *gorm.DB) (bool, error) {
	var permitted []uuid.UUID
	if session.IsFacilitator() {
		ok, err := schema.HasEventPermission(event.Id, session.Email, db)
		if err != nil {
			return false, err
		}
		if ok {
			permitted = []uuid.UUID{event.Id}
		}
	}
	return CanView(event, permitted, session), nil
}

// ViewableEventIds lists the events the session may read.
func ViewableEventIds(session Session, db *gorm.DB) ([]uuid.UUID, error) {
	switch session.Level {
	case schema.Organizer:
		return schema.ListCreatedEventIds(session.Email, db)
	case schema.Facilitator:
		return schema.ListPermittedEventIds(session.Email, db)
	default:
		return []uuid.UUID{}, nil
	}
}

func LevelOnly(levels ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := SessionFromContext(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, please log in")
				return
			}

			if !slices.Contains(levels, session.Level) {
				utils.WriteError(w, http.StatusForbidden, "Unauthorized request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func OrganizerOnly(next http.Handler) http.Handler {
	return LevelOnly(schema.Organizer)(next)
}
