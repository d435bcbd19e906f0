package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Client talks to the timing endpoints of a running API server on behalf of one operator
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

var _ ports.TimingClient = (*Client)(nil)

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login signs in with a badge and keeps the issued token for later calls
func (c *Client) Login(ctx context.Context, badgeID string) (models.Identity, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"badge_id": badgeID})
	if err != nil {
		return models.Identity{}, err
	}
	c.token = gjson.GetBytes(body, "token").String()
	if c.token == "" {
		return models.Identity{}, fmt.Errorf("login response carried no token")
	}

	user := gjson.GetBytes(body, "user")
	who := models.Identity{
		Role: models.Role(user.Get("role").String()),
		Name: user.Get("name").String(),
	}
	who.UserID, _ = uuid.Parse(user.Get("id").String())
	who.CompanyID, _ = uuid.Parse(user.Get("company_id").String())
	log.Printf("[APIClient] Signed in as %s (%s)", who.Name, who.Role)
	return who, nil
}

// Logout revokes the current token
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	c.token = ""
	return err
}

func (c *Client) ListOperations(ctx context.Context, processID uuid.UUID) ([]models.Operation, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/operator/processes/"+processID.String(), nil)
	if err != nil {
		return nil, err
	}
	var detail models.ProcessDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode process: %w", err)
	}
	return detail.Operations, nil
}

func (c *Client) CreateSession(ctx context.Context, processID uuid.UUID) (uuid.UUID, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/time-study/sessions", map[string]interface{}{"process_id": processID})
	if err != nil {
		return uuid.Nil, err
	}
	return idField(body, "session_id")
}

func (c *Client) StartOperation(ctx context.Context, sessionID, operationID uuid.UUID, at time.Time) (uuid.UUID, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/time-study/operations/start", map[string]interface{}{
		"session_id":   sessionID,
		"operation_id": operationID,
		"start_time":   at.UTC(),
	})
	if err != nil {
		return uuid.Nil, err
	}
	return idField(body, "timing_id")
}

func (c *Client) EndOperation(ctx context.Context, sessionID, operationID uuid.UUID, at time.Time, totalSeconds float64) (uuid.UUID, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/time-study/operations/end", map[string]interface{}{
		"session_id":         sessionID,
		"operation_id":       operationID,
		"end_time":           at.UTC(),
		"total_time_seconds": totalSeconds,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return idField(body, "timing_id")
}

// do sends a JSON request and returns the response body. Error responses are turned
// back into application errors carrying the server's code and message.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, responseError(resp.StatusCode, body)
	}
	return body, nil
}

func responseError(status int, body []byte) error {
	code := gjson.GetBytes(body, "code").String()
	message := gjson.GetBytes(body, "error").String()
	if code == "" {
		code = errors.CodeInternalError
	}
	if message == "" {
		message = fmt.Sprintf("API returned status %d", status)
	}
	return errors.New(code, message)
}

func idField(body []byte, field string) (uuid.UUID, error) {
	result := gjson.GetBytes(body, field)
	if !result.Exists() {
		return uuid.Nil, fmt.Errorf("response is missing %s", field)
	}
	id, err := uuid.Parse(result.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", field, result.String(), err)
	}
	return id, nil
}
