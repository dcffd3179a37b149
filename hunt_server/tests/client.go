package tests

import (
	"ar_hunt/hunt_server/schema"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

type envelope struct {
	Status bool            `json:"status"`
	Error  string          `json:"error"`
	Msg    json.RawMessage `json:"msg"`
}

// requestError is returned for any response that is not a successful envelope.
type requestError struct {
	Code    int
	Message string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("request returned status %d: %v", e.Code, e.Message)
}

func (e *requestError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrForbidden:
		return e.Code == http.StatusForbidden
	case ErrRejected:
		return e.Code == http.StatusOK
	}
	return false
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrRejected is a request handled with status false.
	ErrRejected = errors.New("rejected")
)

func errorMessage(err error) string {
	var rerr *requestError
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	return ""
}

func (r *httpTestRequest) Raw() *http.Response {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			panic(fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err))
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	for k, v := range r.headers {
		req.Header.Add(k, v)
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	return w.Result()
}

// response msg will be parsed into result, passing nil indicates that no result is needed.
func (r *httpTestRequest) Do(result interface{}) error {
	res := r.Raw()
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("error parsing %v response from endpoint %v (status %d): %w", r.method, r.endpoint, res.StatusCode, err)
	}

	if (res.StatusCode != http.StatusOK && res.StatusCode != http.StatusAccepted) || !env.Status {
		return &requestError{Code: res.StatusCode, Message: env.Error}
	}

	if result != nil {
		if err := json.Unmarshal(env.Msg, result); err != nil {
			return fmt.Errorf("error parsing %v response msg from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(username, email, password string) (loginInfo, error) {
	body := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}
	err := c.Post("/api/user/signup").Json(body).Do(nil)
	return loginInfo{Email: email, Password: password}, err
}

func (c *client) createUser(username, level string) (loginInfo, error) {
	login := loginInfo{Email: username + "@mail.com", Password: username + "_password"}
	body := map[string]string{
		"email":    login.Email,
		"username": username,
		"password": login.Password,
		"level":    level,
	}
	err := c.Post("/api/user/create").Json(body).Do(nil)
	return login, err
}

func (c *client) login(login loginInfo) error {
	var data map[string]string
	err := c.Get("/api/user/login").Login(login.Email, login.Password).Do(&data)
	if err != nil {
		return err
	}
	c.authToken = data["access_token"]
	c.userId = data["user_id"]
	return nil
}

type userInfo struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Level    string `json:"level"`
}

func (c *client) userInfo() (userInfo, error) {
	var res userInfo
	err := c.Get("/api/user/info").Do(&res)
	return res, err
}

type eventInfo struct {
	schema.Event
	IsCreator bool `json:"isCreator"`
}

func newEventParams(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"description": "a hunt around campus",
		"startDate":   1700000000,
		"endDate":     4100000000,
		"visible":     true,
	}
}

func (c *client) createEvent(name string) (schema.Event, error) {
	var event schema.Event
	err := c.Post("/api/event/create").Json(newEventParams(name)).Do(&event)
	return event, err
}

func (c *client) editEvent(params map[string]interface{}) (schema.Event, error) {
	var event schema.Event
	err := c.Post("/api/event/edit").Json(params).Do(&event)
	return event, err
}

func (c *client) deleteEvent(id uuid.UUID) error {
	return c.Post("/api/event/delete").Json(map[string]string{"id": id.String()}).Do(nil)
}

func (c *client) listEvents() ([]eventInfo, error) {
	var events []eventInfo
	err := c.Get("/api/event/fetch").Do(&events)
	return events, err
}

func (c *client) getEvent(id uuid.UUID) (eventInfo, error) {
	var event eventInfo
	err := c.Post("/api/event/get").Json(map[string]string{"eventID": id.String()}).Do(&event)
	return event, err
}

func assetForm(fields map[string]string, imageName string, image []byte) (io.Reader, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			panic(err)
		}
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", imageName)
		if err != nil {
			panic(err)
		}
		if _, err := part.Write(image); err != nil {
			panic(err)
		}
	}
	if err := writer.Close(); err != nil {
		panic(err)
	}
	return body, writer.FormDataContentType()
}

func defaultAssetFields(eventId uuid.UUID, name string) map[string]string {
	return map[string]string{
		"name":        name,
		"description": "a landmark",
		"eventID":     eventId.String(),
		"latitude":    "40.1106",
		"longitude":   "-88.2073",
		"visible":     "true",
	}
}

func (c *client) createAssetWithFields(fields map[string]string, image []byte) (schema.Asset, error) {
	body, contentType := assetForm(fields, "landmark.png", image)
	var asset schema.Asset
	err := c.Post("/api/asset/create").Header("Content-Type", contentType).Body(body).Do(&asset)
	return asset, err
}

func (c *client) createAsset(eventId uuid.UUID, name string) (schema.Asset, error) {
	return c.createAssetWithFields(defaultAssetFields(eventId, name), []byte("fake-png-bytes"))
}

func (c *client) editAsset(params map[string]interface{}) (schema.Asset, error) {
	var asset schema.Asset
	err := c.Post("/api/asset/edit").Json(params).Do(&asset)
	return asset, err
}

func (c *client) deleteAsset(id uuid.UUID) error {
	return c.Post("/api/asset/delete").Json(map[string]string{"id": id.String()}).Do(nil)
}

func (c *client) listAssets() ([]schema.Asset, error) {
	var assets []schema.Asset
	err := c.Get("/api/asset/fetch").Do(&assets)
	return assets, err
}

func (c *client) assetsByEvent(eventId uuid.UUID) ([]schema.Asset, error) {
	var assets []schema.Asset
	err := c.Post("/api/asset/fetchByEvent").Json(map[string]string{"eventID": eventId.String()}).Do(&assets)
	return assets, err
}

func (c *client) createQuiz(eventId, assetId uuid.UUID, options string, answer, points int) (schema.Quiz, error) {
	params := map[string]interface{}{
		"eventID":  eventId.String(),
		"assetID":  assetId.String(),
		"question": "Which option is correct?",
		"options":  options,
		"answer":   answer,
		"points":   points,
		"visible":  true,
	}
	var quiz schema.Quiz
	err := c.Post("/api/quiz/create").Json(params).Do(&quiz)
	return quiz, err
}

func (c *client) deleteQuiz(id uuid.UUID) error {
	return c.Post("/api/quiz/delete").Json(map[string]string{"id": id.String()}).Do(nil)
}

type quizInfo struct {
	schema.Quiz
	EventName string `json:"eventName"`
	IsVisible string `json:"isVisible"`
}

func (c *client) listQuizzes() ([]quizInfo, error) {
	var quizzes []quizInfo
	err := c.Get("/api/quiz/fetch").Do(&quizzes)
	return quizzes, err
}

func (c *client) grantPermission(eventId uuid.UUID, email string) (schema.EventPermission, error) {
	var perm schema.EventPermission
	err := c.Post("/api/permission/create").Json(map[string]string{"eventID": eventId.String(), "email": email}).Do(&perm)
	return perm, err
}

func (c *client) revokePermission(id uuid.UUID) error {
	return c.Post("/api/permission/delete").Json(map[string]string{"id": id.String()}).Do(nil)
}

func (c *client) listPermissions(eventId uuid.UUID) ([]schema.EventPermission, error) {
	var perms []schema.EventPermission
	err := c.Post("/api/permission/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&perms)
	return perms, err
}

func (c *client) leaderboard(eventId uuid.UUID) ([]schema.Leaderboard, error) {
	var rows []schema.Leaderboard
	err := c.Post("/api/leaderboard/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&rows)
	return rows, err
}

func (c *client) deleteLeaderboard(eventId uuid.UUID) error {
	return c.Post("/api/leaderboard/delete").Json(map[string]string{"eventID": eventId.String()}).Do(nil)
}

func (c *client) attempts(eventId uuid.UUID) ([]schema.Attempt, error) {
	var attempts []schema.Attempt
	err := c.Post("/api/attempt/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&attempts)
	return attempts, err
}

func (c *client) deleteAttempt(id uuid.UUID) error {
	return c.Post("/api/attempt/delete").Json(map[string]string{"id": id.String()}).Do(nil)
}

func (c *client) logs(eventId uuid.UUID) ([]schema.Log, error) {
	var logs []schema.Log
	err := c.Post("/api/log/fetch").Json(map[string]string{"eventID": eventId.String()}).Do(&logs)
	return logs, err
}

func (c *client) submitPoints(eventId uuid.UUID, username string, assetId uuid.UUID, points interface{}) error {
	body := map[string]interface{}{
		"eventID":  eventId.String(),
		"username": username,
		"assetID":  assetId.String(),
		"points":   points,
	}
	return c.Post("/api/unity/points").Json(body).Do(nil)
}

func (c *client) unityLeaderboard(eventId uuid.UUID) ([]schema.Leaderboard, error) {
	var rows []schema.Leaderboard
	err := c.Post("/api/unity/leaderboard").Json(map[string]string{"eventID": eventId.String()}).Do(&rows)
	return rows, err
}

type unityEvent struct {
	Event   schema.Event   `json:"event"`
	Assets  []schema.Asset `json:"assets"`
	Quizzes []schema.Quiz  `json:"quizzes"`
}

func (c *client) unityEvent(code string) (unityEvent, error) {
	var res unityEvent
	err := c.Post("/api/unity/event").Json(map[string]string{"eventCode": code}).Do(&res)
	return res, err
}
