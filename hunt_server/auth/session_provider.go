package auth

import (
	"ar_hunt/hunt_server/schema"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFoundWithEmail = errors.New("no user found for given email")
	ErrInvalidCredentials    = errors.New("invalid login credentials")
	ErrGeneratingJwt         = errors.New("error generating jwt")
	ErrEmailAlreadyInUse     = errors.New("email is already in use")
	ErrUsernameAlreadyInUse  = errors.New("username is already in use")
	ErrSignupNotSupported    = errors.New("signup is not supported by this session provider")
)

type LoginResult struct {
	UserId      uuid.UUID
	AccessToken string
}

// Session is the identity attached to an authenticated dashboard request.
type Session struct {
	UserId   uuid.UUID
	Username string
	Email    string
	Level    string
}

func (s Session) IsOrganizer() bool {
	return s.Level == schema.Organizer
}

func (s Session) IsFacilitator() bool {
	return s.Level == schema.Facilitator
}

type SessionProvider interface {
	AuthMiddleware() chi.Middlewares

	AllowDirectSignup() bool

	LoginWithEmail(email, password string) (LoginResult, error)

	CreateUser(username, email, password, level string) (uuid.UUID, error)
}

func addInitialOrganizerToDb(db *gorm.DB, userId uuid.UUID, username, email string, password []byte) error {
	user := schema.User{
		Id:       userId,
		Username: username,
		Email:    email,
		Level:    schema.Organizer,
	}
	if password != nil {
		user.Password = password
	}

	err := db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.User
		result := txn.Limit(1).Find(&existingUser, "id = ? or username = ? or email = ?", userId, username, email)
		if result.Error != nil {
			slog.Error("sql error checking if organizer has already been added", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected == 0 {
			result := txn.Create(&user)
			if result.Error != nil {
				slog.Error("sql error creating initial organizer", "error", result.Error)
				return schema.ErrDbAccessFailed
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error adding initial organizer to db: %w", err)
	}

	return nil
}

type requestContextKey string

const (
	sessionRequestContextKey requestContextKey = "session"
)

func withSession(r *http.Request, session Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionRequestContextKey, session))
}

func SessionFromContext(r *http.Request) (Session, error) {
	sessionUntyped := r.Context().Value(sessionRequestContextKey)
	if sessionUntyped == nil {
		return Session{}, fmt.Errorf("session not found in request context")
	}
	session, ok := sessionUntyped.(Session)
	if !ok {
		return Session{}, fmt.Errorf("invalid value for session field")
	}
	return session, nil
}
