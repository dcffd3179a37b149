package services

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/storage"
	"ar_hunt/utils"
	"ar_hunt/utils/logging"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetService struct {
	db        *gorm.DB
	storage   storage.Storage
	sessions  auth.SessionProvider
	variables Variables
}

func (s *AssetService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.sessions.AuthMiddleware()...)

	r.Group(func(r chi.Router) {
		r.Use(auth.OrganizerOnly)

		r.With(checkSufficientStorage(s.storage)).Post("/create", s.Create)
		r.Post("/edit", s.Edit)
		r.Post("/delete", s.Delete)
	})

	r.Get("/fetch", s.FetchAllByUser)
	r.Post("/fetchByEvent", s.FetchByEvent)
	r.Get("/image/{asset_id}", s.Image)

	return r
}

func assetImagePath(eventId, assetId uuid.UUID, filename string) string {
	name := filepath.Base(filepath.Clean("/" + filename))
	return filepath.Join("assets", fmt.Sprintf("%v_%v_%v", eventId, assetId, name))
}

func validateCoordinates(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return CodedError(errors.New("Invalid coordinates"), http.StatusOK)
	}
	return nil
}

func parseCoordinate(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, CodedError(ErrMissingInformation, http.StatusOK)
	}
	return f, nil
}

func (s *AssetService) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.variables.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		slog.Error("error parsing asset form", "error", err)
		writeError(w, CodedError(errors.New("Image too large or form malformed"), http.StatusOK))
		return
	}

	name, description := r.FormValue("name"), r.FormValue("description")
	if !utils.CheckerString(name, description, r.FormValue("latitude"), r.FormValue("longitude")) {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}

	eventId, err := parseId(r.FormValue("eventID"))
	if err != nil {
		writeError(w, err)
		return
	}

	latitude, err := parseCoordinate(r.FormValue("latitude"))
	if err != nil {
		writeError(w, err)
		return
	}
	longitude, err := parseCoordinate(r.FormValue("longitude"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := validateCoordinates(latitude, longitude); err != nil {
		writeError(w, err)
		return
	}

	if _, err := loadModifiableEvent(s.db, eventId, session); err != nil {
		writeError(w, err)
		return
	}

	asset := schema.Asset{
		Id:          uuid.New(),
		EventId:     eventId,
		Name:        strings.TrimSpace(name),
		Description: description,
		Latitude:    latitude,
		Longitude:   longitude,
		Visible:     r.FormValue("visible") == "true",
		CreatedBy:   session.Email,
	}

	file, header, err := r.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		slog.Error("error reading asset image", "error", err)
		writeError(w, CodedError(errors.New("Unable to read image"), http.StatusOK))
		return
	}
	if err == nil {
		defer file.Close()

		if header.Size > s.variables.MaxImageBytes {
			writeError(w, CodedError(fmt.Errorf("Image must be at most %d bytes", s.variables.MaxImageBytes), http.StatusOK))
			return
		}

		path := assetImagePath(eventId, asset.Id, header.Filename)
		if err := s.storage.Write(path, file); err != nil {
			slog.Error("error saving asset image", "code", logging.STORAGE, "path", path, "error", err)
			writeError(w, CodedError(errors.New("Unable to save image"), http.StatusOK))
			return
		}
		asset.ImagePath = path
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Create(&asset)
		if result.Error != nil {
			slog.Error("sql error creating asset", "error", result.Error)
			return dbError()
		}

		return appendLog(txn, session.Email, eventId, asset.Id.String(), fmt.Sprintf("Create Asset %v", asset.Id))
	})

	if err != nil {
		if asset.ImagePath != "" {
			if err := s.storage.Delete(asset.ImagePath); err != nil {
				slog.Warn("unable to remove image for failed asset", "path", asset.ImagePath, "error", err)
			}
		}
		writeError(w, err)
		return
	}

	slog.Info("created asset", "code", logging.ASSET_OP, "asset_id", asset.Id, "event_id", eventId)

	utils.WriteJsonResponse(w, asset)
}

type editAssetRequest struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Visible     bool    `json:"visible"`
}

func (s *AssetService) Edit(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params editAssetRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	assetId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !utils.CheckerString(params.Name, params.Description) {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}
	if err := validateCoordinates(params.Latitude, params.Longitude); err != nil {
		writeError(w, err)
		return
	}

	asset, err := loadAsset(s.db, assetId)
	if err != nil {
		writeError(w, err)
		return
	}
	if !auth.CanModify(asset.CreatedBy, session) {
		writeError(w, CodedError(errors.New("Only the creator can edit this asset"), http.StatusForbidden))
		return
	}

	// The log entry is written before the update and is kept even if the update fails.
	if err := appendLog(s.db, session.Email, asset.EventId, asset.Id.String(), fmt.Sprintf("Edit Asset %v", asset.Id)); err != nil {
		writeError(w, err)
		return
	}

	asset.Name = strings.TrimSpace(params.Name)
	asset.Description = params.Description
	asset.Latitude = params.Latitude
	asset.Longitude = params.Longitude
	asset.Visible = params.Visible

	result := s.db.Save(&asset)
	if result.Error != nil {
		slog.Error("sql error updating asset", "asset_id", asset.Id, "error", result.Error)
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, asset)
}

func (s *AssetService) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var params idRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	assetId, err := parseId(params.Id)
	if err != nil {
		writeError(w, err)
		return
	}

	del := deletion{actor: session.Email}
	err = s.db.Transaction(func(txn *gorm.DB) error {
		asset, err := loadAsset(txn, assetId)
		if err != nil {
			return err
		}
		if !auth.CanModify(asset.CreatedBy, session) {
			return CodedError(errors.New("Only the creator can delete this asset"), http.StatusForbidden)
		}
		return del.asset(txn, asset)
	})

	if err != nil {
		slog.Error("error deleting asset", "code", logging.ASSET_OP, "asset_id", assetId, "error", err)
		writeError(w, err)
		return
	}

	del.committed(s.storage)

	utils.WriteSuccess(w, fmt.Sprintf("Successfully deleted asset %v", assetId))
}

// FetchAllByUser lists the assets an organizer created, or for a facilitator
// the assets of every event they were granted.
func (s *AssetService) FetchAllByUser(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	var assets []schema.Asset
	if session.IsOrganizer() {
		assets = make([]schema.Asset, 0)
		result := s.db.Where("created_by = ?", session.Email).Order("created_at asc").Find(&assets)
		if result.Error != nil {
			slog.Error("sql error listing assets for organizer", "error", result.Error)
			writeError(w, dbError())
			return
		}
	} else {
		eventIds, err := schema.ListPermittedEventIds(session.Email, s.db)
		if err != nil {
			writeError(w, dbError())
			return
		}
		assets, err = schema.ListAssetsByEventIds(eventIds, s.db)
		if err != nil {
			writeError(w, dbError())
			return
		}
	}

	utils.WriteJsonResponse(w, assets)
}

func (s *AssetService) FetchByEvent(w http.ResponseWriter, r *http.Request) {
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

	assets, err := schema.ListAssetsByEventIds([]uuid.UUID{eventId}, s.db)
	if err != nil {
		writeError(w, dbError())
		return
	}

	utils.WriteJsonResponse(w, assets)
}

func (s *AssetService) Image(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	assetId, err := utils.URLParamUUID(r, "asset_id")
	if err != nil {
		writeError(w, CodedError(ErrMissingInformation, http.StatusOK))
		return
	}

	asset, err := loadAsset(s.db, assetId)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := loadViewableEvent(s.db, asset.EventId, session); err != nil {
		writeError(w, err)
		return
	}

	serveImage(w, s.storage, asset)
}

func serveImage(w http.ResponseWriter, store storage.Storage, asset schema.Asset) {
	if asset.ImagePath == "" {
		writeError(w, CodedError(errors.New("Asset has no image"), http.StatusOK))
		return
	}

	file, err := store.Read(asset.ImagePath)
	if err != nil {
		slog.Error("error reading asset image", "code", logging.STORAGE, "asset_id", asset.Id, "error", err)
		writeError(w, CodedError(errors.New("Unable to read image"), http.StatusOK))
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(asset.ImagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, file); err != nil {
		slog.Error("error streaming asset image", "asset_id", asset.Id, "error", err)
	}
}
