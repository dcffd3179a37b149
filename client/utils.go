package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type loginInfo struct {
	email, password string
}

type httpRequest struct {
	client   *http.Client
	method   string
	baseUrl  string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpRequest(client *http.Client, method, baseUrl, endpoint string) *httpRequest {
	return &httpRequest{
		client:   client,
		method:   method,
		baseUrl:  baseUrl,
		endpoint: endpoint,
	}
}

func (r *httpRequest) Header(key, value string) *httpRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpRequest) Login(email, password string) *httpRequest {
	r.login = &loginInfo{email: email, password: password}
	return r
}

func (r *httpRequest) Auth(token string) *httpRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpRequest) Json(data interface{}) *httpRequest {
	r.json = data
	return r
}

func (r *httpRequest) Body(body io.Reader) *httpRequest {
	r.body = body
	return r
}

// ResponseError is returned when the server answers with a non success status
// or an envelope whose status is false.
type ResponseError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v request to endpoint %v returned status %d: %v", e.Method, e.Endpoint, e.StatusCode, e.Message)
}

var ErrAlreadyAttempted = errors.New("User already attempted this quiz")

func (e *ResponseError) Is(target error) bool {
	return target == ErrAlreadyAttempted && e.Message == ErrAlreadyAttempted.Error()
}

func (r *httpRequest) Process(resultHandler func(*http.Response) error) error {
	fullEndpoint, err := url.JoinPath(r.baseUrl, r.endpoint)
	if err != nil {
		return fmt.Errorf("error formatting url for endpoint %v: %w", r.endpoint, err)
	}

	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
		r.Header("Content-Type", "application/json")
	}

	req, err := http.NewRequest(r.method, fullEndpoint, r.body)
	if err != nil {
		return fmt.Errorf("error creating %v request for endpoint %v: %w", r.method, r.endpoint, err)
	}

	for k, v := range r.headers {
		req.Header.Add(k, v)
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.email, r.login.password)
	}

	start := time.Now()

	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending %v request to endpoint %v: %w", r.method, r.endpoint, err)
	}
	defer res.Body.Close()

	slog.Debug("hunt client", "method", r.method, "endpoint", r.endpoint, "status", res.StatusCode, "duration", time.Since(start).String())

	if resultHandler != nil {
		return resultHandler(res)
	}
	return nil
}

type envelope struct {
	Status bool            `json:"status"`
	Error  string          `json:"error"`
	Msg    json.RawMessage `json:"msg"`
}

// Do decodes the response envelope and parses msg into result, passing nil
// indicates that no result is needed.
func (r *httpRequest) Do(result interface{}) error {
	return r.Process(func(res *http.Response) error {
		status := res.StatusCode
		content, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("error reading %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}

		var env envelope
		if err := json.Unmarshal(content, &env); err != nil {
			return &ResponseError{Method: r.method, Endpoint: r.endpoint, StatusCode: status, Message: string(content)}
		}

		if (status != http.StatusOK && status != http.StatusAccepted) || !env.Status {
			return &ResponseError{Method: r.method, Endpoint: r.endpoint, StatusCode: status, Message: env.Error}
		}

		if result != nil && len(env.Msg) > 0 {
			if err := json.Unmarshal(env.Msg, result); err != nil {
				return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
			}
		}
		return nil
	})
}

// Download streams a raw response body, such as an asset image, into w.
func (r *httpRequest) Download(w io.Writer) error {
	return r.Process(func(res *http.Response) error {
		if res.StatusCode != http.StatusOK || strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
			content, _ := io.ReadAll(res.Body)
			var env envelope
			if err := json.Unmarshal(content, &env); err == nil && env.Error != "" {
				return &ResponseError{Method: r.method, Endpoint: r.endpoint, StatusCode: res.StatusCode, Message: env.Error}
			}
			return &ResponseError{Method: r.method, Endpoint: r.endpoint, StatusCode: res.StatusCode, Message: string(content)}
		}
		if _, err := io.Copy(w, res.Body); err != nil {
			return fmt.Errorf("error downloading from endpoint %v: %w", r.endpoint, err)
		}
		return nil
	})
}

type BaseClient struct {
	baseUrl    string
	authToken  string
	httpClient *http.Client
}

func NewBaseClient(baseUrl string, authToken string) BaseClient {
	return BaseClient{baseUrl: baseUrl, authToken: authToken, httpClient: &http.Client{Timeout: time.Minute}}
}

func (c *BaseClient) addAuthHeaders(r *httpRequest) *httpRequest {
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *BaseClient) Get(endpoint string) *httpRequest {
	r := newHttpRequest(c.httpClient, "GET", c.baseUrl, endpoint)
	return c.addAuthHeaders(r)
}

func (c *BaseClient) Post(endpoint string) *httpRequest {
	r := newHttpRequest(c.httpClient, "POST", c.baseUrl, endpoint)
	return c.addAuthHeaders(r)
}

func addFileToMultipart(writer *multipart.Writer, field, path string) error {
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("error creating request part: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open file %v: %w", path, err)
	}
	defer file.Close()

	_, err = io.Copy(part, file)
	if err != nil {
		return fmt.Errorf("error writing to mulitpart request: %w", err)
	}

	return nil
}
