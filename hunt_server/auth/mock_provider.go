package auth

import (
	"ar_hunt/hunt_server/schema"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockSessionProvider attaches a fixed session to every request. It is only
// selected when the server is started with DEV_SESSION enabled.
type MockSessionProvider struct {
	session  Session
	auditLog AuditLogger
}

func NewMockSessionProvider(db *gorm.DB, auditLog AuditLogger, email, level string) (SessionProvider, error) {
	if err := schema.CheckValidLevel(level); err != nil {
		return nil, err
	}

	user, err := schema.GetUserByEmail(email, db)
	if err != nil {
		if !errors.Is(err, schema.ErrUserNotFound) {
			return nil, fmt.Errorf("error loading dev session user: %w", err)
		}
		user = schema.User{Id: uuid.New(), Username: "dev-" + level, Email: email, Level: level}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("error creating dev session user: %w", err)
		}
	}

	return &MockSessionProvider{
		session:  Session{UserId: user.Id, Username: user.Username, Email: email, Level: level},
		auditLog: auditLog,
	}, nil
}

func (auth *MockSessionProvider) addSessionToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withSession(r, auth.session))
	})
}

func (auth *MockSessionProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.addSessionToContext, auth.auditLog.Middleware}
}

func (auth *MockSessionProvider) AllowDirectSignup() bool {
	return false
}

func (auth *MockSessionProvider) LoginWithEmail(email, password string) (LoginResult, error) {
	if email != auth.session.Email {
		return LoginResult{}, ErrUserNotFoundWithEmail
	}
	return LoginResult{UserId: auth.session.UserId, AccessToken: "dev-session"}, nil
}

func (auth *MockSessionProvider) CreateUser(username, email, password, level string) (uuid.UUID, error) {
	return uuid.UUID{}, ErrSignupNotSupported
}
