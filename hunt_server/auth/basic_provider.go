package auth

import (
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type BasicSessionProvider struct {
	jwtManager *JwtManager
	db         *gorm.DB
	auditLog   AuditLogger
}

type BasicProviderArgs struct {
	Secret            []byte
	OrganizerUsername string
	OrganizerEmail    string
	OrganizerPassword string
}

func NewBasicSessionProvider(db *gorm.DB, auditLog AuditLogger, args BasicProviderArgs) (SessionProvider, error) {
	if args.OrganizerEmail != "" {
		hashedPwd, err := bcrypt.GenerateFromPassword([]byte(args.OrganizerPassword), 10)
		if err != nil {
			return nil, fmt.Errorf("error encrypting organizer password: %w", err)
		}

		err = addInitialOrganizerToDb(db, uuid.New(), args.OrganizerUsername, args.OrganizerEmail, hashedPwd)
		if err != nil {
			return nil, fmt.Errorf("error adding inital organizer to db: %w", err)
		}
	}

	return &BasicSessionProvider{
		jwtManager: NewJwtManager(args.Secret),
		db:         db,
		auditLog:   auditLog,
	}, nil
}

func (auth *BasicSessionProvider) addSessionToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			userId, err := ValueFromContext(r, userIdKey)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, invalid session")
				return
			}

			userUUID, err := uuid.Parse(userId)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, invalid session")
				return
			}

			user, err := schema.GetUser(userUUID, auth.db)
			if err != nil {
				if errors.Is(err, schema.ErrUserNotFound) {
					utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, user no longer exists")
					return
				}
				utils.WriteError(w, http.StatusInternalServerError, "Unable to load session")
				return
			}

			session := Session{UserId: user.Id, Username: user.Username, Email: user.Email, Level: user.Level}
			next.ServeHTTP(w, withSession(r, session))
		}

		return http.HandlerFunc(handler)
	}
}

func (auth *BasicSessionProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier(), auth.jwtManager.Authenticator(), auth.addSessionToContext(), auth.auditLog.Middleware}
}

func (auth *BasicSessionProvider) AllowDirectSignup() bool {
	return true
}

func (auth *BasicSessionProvider) LoginWithEmail(email, password string) (LoginResult, error) {
	user, err := schema.GetUserByEmail(email, auth.db)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			return LoginResult{}, ErrUserNotFoundWithEmail
		}
		return LoginResult{}, err
	}

	err = bcrypt.CompareHashAndPassword(user.Password, []byte(password))
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := auth.jwtManager.CreateUserJwt(user.Id)
	if err != nil {
		return LoginResult{}, ErrGeneratingJwt
	}

	return LoginResult{UserId: user.Id, AccessToken: token}, nil
}

func (auth *BasicSessionProvider) CreateUser(username, email, password, level string) (uuid.UUID, error) {
	if err := schema.CheckValidLevel(level); err != nil {
		return uuid.UUID{}, err
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("error encrypting password: %w", err)
	}

	newUser := schema.User{Id: uuid.New(), Username: username, Email: email, Password: hashedPwd, Level: level}

	err = auth.db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.User
		result := txn.Limit(1).Find(&existingUser, "username = ? or email = ?", username, email)
		if result.Error != nil {
			slog.Error("sql error checking for existing username/email", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected != 0 {
			if existingUser.Username == username {
				return ErrUsernameAlreadyInUse
			} else {
				return ErrEmailAlreadyInUse
			}
		}

		result = txn.Create(&newUser)
		if result.Error != nil {
			slog.Error("sql error creating new user entry", "error", result.Error)
			return schema.ErrDbAccessFailed
		}

		return nil
	})

	if err != nil {
		return uuid.UUID{}, fmt.Errorf("error creating new user: %w", err)
	}

	return newUser.Id, nil
}
