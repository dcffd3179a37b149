package client

import (
	"ar_hunt/hunt_server/schema"
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/google/uuid"
)

// PlatformClient talks to the organizer and facilitator API.
type PlatformClient struct {
	BaseClient
	userId string
}

func New(baseUrl string) *PlatformClient {
	return &PlatformClient{BaseClient: NewBaseClient(baseUrl, "")}
}

func (c *PlatformClient) UserId() string {
	return c.userId
}

func (c *PlatformClient) Signup(username, email, password string) error {
	body := map[string]string{
		"email": email, "username": username, "password": password,
	}

	return c.Post("/api/user/signup").Json(body).Do(nil)
}

func (c *PlatformClient) CreateUser(username, email, password, level string) error {
	body := map[string]string{
		"email": email, "username": username, "password": password, "level": level,
	}

	return c.Post("/api/user/create").Json(body).Do(nil)
}

func (c *PlatformClient) Login(email, password string) error {
	var data map[string]string
	err := c.Get("/api/user/login").Login(email, password).Do(&data)
	if err != nil {
		return err
	}

	c.authToken = data["access_token"]
	c.userId = data["user_id"]

	return nil
}

type EventParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   int64  `json:"startDate"`
	EndDate     int64  `json:"endDate"`
	IsPublic    bool   `json:"isPublic"`
	Visible     bool   `json:"visible"`
	// Generated by the server when empty.
	EventCode string `json:"eventCode,omitempty"`
}

type EventInfo struct {
	schema.Event
	IsCreator bool `json:"isCreator"`
	Started   bool `json:"started"`
	Ended     bool `json:"ended"`
}

func (c *PlatformClient) CreateEvent(params EventParams) (schema.Event, error) {
	var event schema.Event
	err := c.Post("/api/event/create").Json(params).Do(&event)
	if err != nil {
		return schema.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (c *PlatformClient) EditEvent(eventId uuid.UUID, params EventParams) (schema.Event, error) {
	body := struct {
		Id string `json:"id"`
		EventParams
	}{Id: eventId.String(), EventParams: params}

	var event schema.Event
	err := c.Post("/api/event/edit").Json(body).Do(&event)
	if err != nil {
		return schema.Event{}, fmt.Errorf("failed to edit event: %w", err)
	}
	return event, nil
}

func (c *PlatformClient) DeleteEvent(eventId uuid.UUID) error {
	return c.Post("/api/event/delete").Json(map[string]string{"id": eventId.String()}).Do(nil)
}

func (c *PlatformClient) ListEvents() ([]EventInfo, error) {
	var events []EventInfo
	err := c.Get("/api/event/fetch").Do(&events)
	return events, err
}

func (c *PlatformClient) GetEvent(eventId uuid.UUID) (EventInfo, error) {
	var event EventInfo
	err := c.Post("/api/event/get").Json(map[string]string{"eventID": eventId.String()}).Do(&event)
	return event, err
}

type AssetParams struct {
	EventId     uuid.UUID
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	Visible     bool
	// Local path of the image to upload, optional.
	ImagePath string
}

func (c *PlatformClient) CreateAsset(params AssetParams) (schema.Asset, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"eventID":     params.EventId.String(),
		"name":        params.Name,
		"description": params.Description,
		"latitude":    strconv.FormatFloat(params.Latitude, 'f', -1, 64),
		"longitude":   strconv.FormatFloat(params.Longitude, 'f', -1, 64),
		"visible":     strconv.FormatBool(params.Visible),
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return schema.Asset{}, fmt.Errorf("error writing field %v: %w", k, err)
		}
	}

	if params.ImagePath != "" {
		if err := addFileToMultipart(writer, "image", params.ImagePath); err != nil {
			return schema.Asset{}, err
		}
	}

	if err := writer.Close(); err != nil {
		return schema.Asset{}, fmt.Errorf("error closing multipart writer: %w", err)
	}

	var asset schema.Asset
	err := c.Post("/api/asset/create").Header("Content-Type", writer.FormDataContentType()).Body(body).Do(&asset)
	if err != nil {
		return schema.Asset{}, fmt.Errorf("failed to create asset: %w", err)
	}
	return asset, nil
}

func (c *PlatformClient) DeleteAsset(assetId uuid.UUID) error {
	return c.Post("/api/asset/delete").Json(map[string]string{"id": assetId.String()}).Do(nil)
}

func (c *PlatformClient) ListAssets() ([]schema.Asset, error) {
	var assets []schema.Asset
	err := c.Get("/api/asset/fetch").Do(&assets)
	return assets, err
}

func (c *PlatformClient) AssetImage(assetId uuid.UUID, w io.Writer) error {
	return c.Get(fmt.Sprintf("/api/asset/image/%v", assetId)).Download(w)
}

type QuizParams struct {
	EventId  uuid.UUID
	AssetId  uuid.UUID
	Question string
	Options  []string
	// 1-based index into Options.
	Answer  int
	Points  int
	Visible bool
}

func (c *PlatformClient) CreateQuiz(params QuizParams) (schema.Quiz, error) {
	if len(params.Options) > 4 {
		return schema.Quiz{}, fmt.Errorf("a quiz can have at most 4 options, got %d", len(params.Options))
	}

	body := map[string]interface{}{
		"eventID":  params.EventId.String(),
		"assetID":  params.AssetId.String(),
		"question": params.Question,
		"answer":   params.Answer,
		"points":   params.Points,
		"visible":  params.Visible,
	}
	for i, option := range params.Options {
		body[fmt.Sprintf("option%d", i+1)] = option
	}

	var quiz schema.Quiz
	err := c.Post("/api/quiz/create").Json(body).Do(&quiz)
	if err != nil {
		return schema.Quiz{}, fmt.Errorf("failed to create quiz: %w", err)
	}
	return quiz, nil
}

func (c *PlatformClient) DeleteQuiz(quizId uuid.UUID) error {
	return c.Post("/api/quiz/delete").Json(map[string]string{"id": quizId.String()}).Do(nil)
}

func (c *PlatformClient) GrantPermission(eventId uuid.UUID, email string) (schema.EventPermission, error) {
	var perm schema.EventPermission
	err := c.Post("/api/permission/create").Json(map[string]string{"eventID": eventId.String(), "email": email}).Do(&perm)
	return perm, err
}

func (c *PlatformClient) RevokePermission(permissionId uuid.UUID) error {
	return c.Post("/api/permission/delete").Json(map[string]string{"id": permissionId.String()}).Do(nil)
}

func (c *PlatformClient) Leaderboard(eventId uuid.UUID) ([]schema.Leaderboard, error) {
	var rows []schema.Leaderboard
	err := c.Post("/api/leaderboard/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&rows)
	return rows, err
}

func (c *PlatformClient) ResetLeaderboard(eventId uuid.UUID) error {
	return c.Post("/api/leaderboard/delete").Json(map[string]string{"eventID": eventId.String()}).Do(nil)
}

func (c *PlatformClient) Attempts(eventId uuid.UUID) ([]schema.Attempt, error) {
	var attempts []schema.Attempt
	err := c.Post("/api/attempt/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&attempts)
	return attempts, err
}

func (c *PlatformClient) Logs(eventId uuid.UUID) ([]schema.Log, error) {
	var logs []schema.Log
	err := c.Post("/api/log/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&logs)
	return logs, err
}
