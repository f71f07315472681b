// Package restclient talks to the GearGuard REST API on behalf of the
// terminal board. It implements board.Persister.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/request"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Token returns the bearer token in use.
func (c *Client) Token() string {
	return c.token
}

// Login exchanges credentials for tokens and keeps the access token.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.AuthTokens, error) {
	var tokens auth.AuthTokens
	body := auth.LoginDTO{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &tokens); err != nil {
		return nil, err
	}
	c.token = tokens.AccessToken
	c.logger.Info("board client logged in", "email", email)
	return &tokens, nil
}

func (c *Client) List(ctx context.Context) ([]request.Request, error) {
	var out struct {
		Requests []request.Request `json:"requests"`
		Total    int               `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/requests", nil, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

func (c *Client) Create(ctx context.Context, dto request.CreateRequestDTO) (*request.Request, error) {
	payload := map[string]interface{}{
		"subject":        dto.Subject,
		"type":           dto.Type,
		"status":         dto.Status,
		"equipment_id":   dto.EquipmentID.Int64(),
		"scheduled_date": dto.ScheduledDate,
	}
	if dto.Description != nil {
		payload["description"] = *dto.Description
	}
	if dto.DurationHours != nil {
		payload["duration_hours"] = *dto.DurationHours
	}
	if dto.MaintenanceTeamID.Valid {
		payload["maintenance_team_id"] = dto.MaintenanceTeamID.Value
	}
	if dto.AssignedTechnicianID.Valid {
		payload["assigned_technician_id"] = dto.AssignedTechnicianID.Value
	}

	var out request.Request
	if err := c.do(ctx, http.MethodPost, "/requests", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus sends only the status key; a null technician would clear the
// assignment.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status request.Status) (*request.Request, error) {
	var out request.Request
	path := "/requests/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"status": string(status)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/requests/"+strconv.FormatInt(id, 10), nil, nil)
}

// ViewVersions reads the current board and calendar versions.
func (c *Client) ViewVersions(ctx context.Context) (map[string]int64, error) {
	var out struct {
		Versions map[string]int64 `json:"versions"`
	}
	if err := c.do(ctx, http.MethodGet, "/views/versions", nil, &out); err != nil {
		return nil, err
	}
	return out.Versions, nil
}

// WebSocketURL is the push endpoint for this server, token included.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("board client request failed", "method", method, "path", path, "error", err)
		return internal.NewPersistenceError("request to "+path+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return internal.NewPersistenceError("failed to decode response", err)
	}
	return nil
}

// decodeError turns the server's error envelope back into an AppError.
func decodeError(resp *http.Response) error {
	var envelope struct {
		Error *internal.AppError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == nil {
		return internal.NewPersistenceError(fmt.Sprintf("server returned status %d", resp.StatusCode), err)
	}
	appErr := envelope.Error
	appErr.StatusCode = resp.StatusCode
	return appErr
}
