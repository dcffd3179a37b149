package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/storage"
	"ar_hunt/utils"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMissingInformation = errors.New("Information incomplete!")
	ErrNoEventFound       = errors.New("No event found")
	ErrNoAssetFound       = errors.New("No asset found")
	ErrNoQuizFound        = errors.New("No quiz found")
	ErrNoAttemptFound     = errors.New("No attempt found")
	ErrNotCreator         = errors.New("Only the creator can modify this event")
	ErrNotAuthorized      = errors.New("Not authorized to view this event")
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

// GetResponseCode maps an error to the status it is reported with. Validation,
// business rule, and storage failures are all reported as 200 with status
// false, only authentication and authorization failures change the code.
func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := GetResponseCode(err)
	var cerr *codedError
	if errors.As(err, &cerr) {
		utils.WriteError(w, code, cerr.err.Error())
		return
	}
	utils.WriteError(w, code, "Internal server error")
}

func dbError() error {
	return CodedError(schema.ErrDbAccessFailed, http.StatusOK)
}

func requestSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, err := auth.SessionFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, please log in")
		return auth.Session{}, false
	}
	return session, true
}

func parseId(value string) (uuid.UUID, error) {
	id, ok := utils.ParseID(value)
	if !ok {
		return uuid.Nil, CodedError(ErrMissingInformation, http.StatusOK)
	}
	return id, nil
}

func loadEvent(txn *gorm.DB, eventId uuid.UUID) (schema.Event, error) {
	event, err := schema.GetEvent(eventId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrEventNotFound) {
			return event, CodedError(ErrNoEventFound, http.StatusOK)
		}
		return event, dbError()
	}
	return event, nil
}

func loadModifiableEvent(txn *gorm.DB, eventId uuid.UUID, session auth.Session) (schema.Event, error) {
	event, err := loadEvent(txn, eventId)
	if err != nil {
		return event, err
	}
	if !auth.CanModify(event.CreatedBy, session) {
		return event, CodedError(ErrNotCreator, http.StatusForbidden)
	}
	return event, nil
}

func loadViewableEvent(txn *gorm.DB, eventId uuid.UUID, session auth.Session) (schema.Event, error) {
	event, err := loadEvent(txn, eventId)
	if err != nil {
		return event, err
	}
	ok, err := auth.IsEventAuthorized(event, session, txn)
	if err != nil {
		return event, dbError()
	}
	if !ok {
		return event, CodedError(ErrNotAuthorized, http.StatusForbidden)
	}
	return event, nil
}

func loadAsset(txn *gorm.DB, assetId uuid.UUID) (schema.Asset, error) {
	asset, err := schema.GetAsset(assetId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrAssetNotFound) {
			return asset, CodedError(ErrNoAssetFound, http.StatusOK)
		}
		return asset, dbError()
	}
	return asset, nil
}

func loadQuiz(txn *gorm.DB, quizId uuid.UUID) (schema.Quiz, error) {
	quiz, err := schema.GetQuiz(quizId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrQuizNotFound) {
			return quiz, CodedError(ErrNoQuizFound, http.StatusOK)
		}
		return quiz, dbError()
	}
	return quiz, nil
}

func appendLog(txn *gorm.DB, actor string, eventId uuid.UUID, entityId string, message string) error {
	if err := schema.AppendLog(txn, actor, eventId, entityId, message); err != nil {
		return dbError()
	}
	return nil
}

const eventCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomEventCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(eventCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("error generating event code: %w", err)
		}
		code[i] = eventCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func newEventCode(txn *gorm.DB) (string, error) {
	for i := 0; i < 10; i++ {
		code, err := randomEventCode(6)
		if err != nil {
			return "", err
		}
		_, err = schema.GetEventByCode(code, txn)
		if errors.Is(err, schema.ErrEventNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("unable to find unused event code")
}

func checkDiskUsage(storage storage.Storage) error {
	stats, err := storage.Usage()
	if err != nil {
		slog.Error("unable to get disk usage from storage", "error", err)
		return CodedError(errors.New("Unable to check available storage"), http.StatusOK)
	}
	oneMib := uint64(1024 * 1024)
	// Either 10% of the disk or 5Gb must be free, whichever is smaller.
	threshold := min(stats.TotalBytes/10, 5*1024*oneMib)
	if stats.FreeBytes < threshold {
		used := (stats.TotalBytes - stats.FreeBytes) / oneMib
		total := stats.TotalBytes / oneMib
		return CodedError(fmt.Errorf("Insufficient storage for new images, usage: %d/%d Mib", used, total), http.StatusInsufficientStorage)
	}
	return nil
}

func checkSufficientStorage(storage storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			if err := checkDiskUsage(storage); err != nil {
				slog.Error(err.Error())
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(handler)
	}
}
