package schema

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrPermissionNotFound = errors.New("event permission not found")
	ErrDbAccessFailed     = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user by email", "email", email, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetEvent(eventId uuid.UUID, db *gorm.DB) (Event, error) {
	var event Event

	result := db.First(&event, "id = ?", eventId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return event, ErrEventNotFound
		}
		slog.Error("sql error in get event", "event_id", eventId, "error", result.Error)
		return event, ErrDbAccessFailed
	}

	return event, nil
}

func GetEventByCode(code string, db *gorm.DB) (Event, error) {
	var event Event

	result := db.First(&event, "event_code = ?", code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return event, ErrEventNotFound
		}
		slog.Error("sql error in get event by code", "event_code", code, "error", result.Error)
		return event, ErrDbAccessFailed
	}

	return event, nil
}

func GetAsset(assetId uuid.UUID, db *gorm.DB) (Asset, error) {
	var asset Asset

	result := db.First(&asset, "id = ?", assetId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return asset, ErrAssetNotFound
		}
		slog.Error("sql error in get asset", "asset_id", assetId, "error", result.Error)
		return asset, ErrDbAccessFailed
	}

	return asset, nil
}

func GetQuiz(quizId uuid.UUID, db *gorm.DB) (Quiz, error) {
	var quiz Quiz

	result := db.First(&quiz, "id = ?", quizId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return quiz, ErrQuizNotFound
		}
		slog.Error("sql error in get quiz", "quiz_id", quizId, "error", result.Error)
		return quiz, ErrDbAccessFailed
	}

	return quiz, nil
}

func GetAttempt(attemptId uuid.UUID, db *gorm.DB) (Attempt, error) {
	var attempt Attempt

	result := db.First(&attempt, "id = ?", attemptId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return attempt, ErrAttemptNotFound
		}
		slog.Error("sql error in get attempt", "attempt_id", attemptId, "error", result.Error)
		return attempt, ErrDbAccessFailed
	}

	return attempt, nil
}

func GetEventPermission(permissionId uuid.UUID, db *gorm.DB) (EventPermission, error) {
	var perm EventPermission

	result := db.First(&perm, "id = ?", permissionId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return perm, ErrPermissionNotFound
		}
		slog.Error("sql error in get event permission", "permission_id", permissionId, "error", result.Error)
		return perm, ErrDbAccessFailed
	}

	return perm, nil
}

func HasEventPermission(eventId uuid.UUID, email string, db *gorm.DB) (bool, error) {
	var count int64
	result := db.Model(&EventPermission{}).Where("event_id = ? AND email = ?", eventId, email).Count(&count)
	if result.Error != nil {
		slog.Error("sql error checking event permission", "event_id", eventId, "email", email, "error", result.Error)
		return false, ErrDbAccessFailed
	}
	return count > 0, nil
}

func ListPermittedEventIds(email string, db *gorm.DB) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	result := db.Model(&EventPermission{}).Distinct("event_id").Where("email = ?", email).Pluck("event_id", &ids)
	if result.Error != nil {
		slog.Error("sql error listing permitted events", "email", email, "error", result.Error)
		return nil, ErrDbAccessFailed
	}
	return ids, nil
}

func ListCreatedEventIds(email string, db *gorm.DB) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	result := db.Model(&Event{}).Where("created_by = ?", email).Pluck("id", &ids)
	if result.Error != nil {
		slog.Error("sql error listing created events", "email", email, "error", result.Error)
		return nil, ErrDbAccessFailed
	}
	return ids, nil
}

func ListAssetsByEventIds(eventIds []uuid.UUID, db *gorm.DB) ([]Asset, error) {
	assets := make([]Asset, 0)
	if len(eventIds) == 0 {
		return assets, nil
	}

	result := db.Where("event_id IN ?", eventIds).Order("created_at asc").Find(&assets)
	if result.Error != nil {
		slog.Error("sql error listing assets for events", "error", result.Error)
		return nil, ErrDbAccessFailed
	}
	return assets, nil
}

func AppendLog(db *gorm.DB, actor string, eventId uuid.UUID, entityId string, message string) error {
	entry := Log{
		Id:        uuid.New(),
		Actor:     actor,
		EventId:   eventId,
		EntityId:  entityId,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	result := db.Create(&entry)
	if result.Error != nil {
		slog.Error("sql error appending log entry", "actor", actor, "message", message, "error", result.Error)
		return ErrDbAccessFailed
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique constraint violation. Gorm
// translates this for the configured dialect when TranslateError is set, the
// remaining checks cover connections opened without it.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
