package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	sessions auth.SessionProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.sessions.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.AuthMiddleware()...)

		r.Get("/info", s.Info)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.AuthMiddleware()...)
		r.Use(auth.OrganizerOnly)

		r.Post("/create", s.CreateUser)
		r.Get("/list", s.List)
	})

	return r
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserRequest struct {
	signupRequest
	Level string `json:"level"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *UserService) createUser(w http.ResponseWriter, params signupRequest, level string) {
	if !utils.CheckerString(params.Username, params.Email, params.Password) {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}

	userId, err := s.sessions.CreateUser(params.Username, params.Email, params.Password, level)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			utils.WriteError(w, http.StatusOK, "Email is already in use")
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			utils.WriteError(w, http.StatusOK, "Username is already in use")
		case errors.Is(err, auth.ErrSignupNotSupported):
			utils.WriteError(w, http.StatusForbidden, "Signup is not supported")
		default:
			slog.Error("error creating user", "error", err)
			utils.WriteError(w, http.StatusOK, "Unable to create user")
		}
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

// Signup registers a facilitator. Organizers are added by other organizers.
func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	s.createUser(w, params, schema.Facilitator)
}

func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params createUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Level == "" {
		params.Level = schema.Facilitator
	}
	if err := schema.CheckValidLevel(params.Level); err != nil {
		utils.WriteError(w, http.StatusOK, "Invalid user level")
		return
	}

	s.createUser(w, params.signupRequest, params.Level)
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return
	}

	login, err := s.sessions.LoginWithEmail(email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail), errors.Is(err, auth.ErrInvalidCredentials):
			utils.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			slog.Error("login failed", "error", err)
			utils.WriteError(w, http.StatusOK, "Login failed")
		}
		return
	}

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type userInfo struct {
	Id       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Level    string    `json:"level"`
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	utils.WriteJsonResponse(w, userInfo{Id: session.UserId, Username: session.Username, Email: session.Email, Level: session.Level})
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	var users []schema.User
	result := s.db.Order("username asc").Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		writeError(w, dbError())
		return
	}

	infos := make([]userInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, userInfo{Id: user.Id, Username: user.Username, Email: user.Email, Level: user.Level})
	}

	utils.WriteJsonResponse(w, infos)
}
