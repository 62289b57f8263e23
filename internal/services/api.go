// API service for making raw HTTP requests to the progress server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/vidtrack/internal/shared"
	"golang.org/x/oauth2"
)

// UserHeader carries the caller's user id on every request.
const UserHeader = shared.UserHeader

const defaultBaseURL = "http://127.0.0.1:3000"

// APIService provides methods for making raw JSON requests to the progress server.
type APIService struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the progress server.
func NewAPIService(baseURL, userID string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		userID:     userID,
		httpClient: client,
	}
}

// NewHTTPClient builds the client used for sync calls.
//
// A non-empty token is sent as a bearer credential through [oauth2.StaticTokenSource].
func NewHTTPClient(ctx context.Context, token string, timeout time.Duration) *http.Client {
	client := &http.Client{}
	if token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	}
	client.Timeout = timeout
	return client
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *APIResponse) Decode(v any) error {
	if !r.IsJSON {
		return fmt.Errorf("%w: response is not JSON (status %d)", shared.ErrAPIRequest, r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// PostJSON marshals v and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, v any) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode body: %v", shared.ErrAPIRequest, err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}

	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.userID != "" {
		req.Header.Set(UserHeader, a.userID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
		IsJSON:     json.Valid(raw),
	}, nil
}
