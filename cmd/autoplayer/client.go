package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/service"
)

// Client talks to the REST API for a single session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

func (c *Client) sessionPath(parts ...string) string {
	return "/api/sessions/" + c.sessionID + strings.Join(append([]string{""}, parts...), "/")
}

// CreateSession starts a game with the autoplayer in seat 0 against a CPU
func (c *Client) CreateSession(ctx context.Context, configName, name string) (*service.SessionInfo, error) {
	req := service.CreateSessionRequest{
		ConfigName: configName,
		Players: []engine.PlayerSpec{
			{Name: name, Token: "@", Controller: engine.ControllerHuman},
			{Name: "CPU", Token: "#", Controller: engine.ControllerCPU},
		},
	}
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume attaches to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(), nil, &info); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	return &info, nil
}

// Reset restarts the game with the same players
func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

// TakeTurn plays the active player's turn. A nil buy leaves the decision to the seat's controller.
func (c *Client) TakeTurn(ctx context.Context, buy *bool) (*service.TurnResult, error) {
	var result service.TurnResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("turn"), map[string]*bool{"buy": buy}, &result); err != nil {
		return nil, fmt.Errorf("take turn: %w", err)
	}
	return &result, nil
}

// Improve adds a house to one of the player's properties
func (c *Client) Improve(ctx context.Context, player int, code string) (*service.PropertyActionResult, error) {
	var result service.PropertyActionResult
	body := map[string]int{"player": player}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("properties", code, "improve"), body, &result); err != nil {
		return nil, fmt.Errorf("improve %s: %w", code, err)
	}
	return &result, nil
}

// Unmortgage pays off a mortgaged property
func (c *Client) Unmortgage(ctx context.Context, player int, code string) (*service.PropertyActionResult, error) {
	var result service.PropertyActionResult
	body := map[string]int{"player": player}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("properties", code, "unmortgage"), body, &result); err != nil {
		return nil, fmt.Errorf("unmortgage %s: %w", code, err)
	}
	return &result, nil
}

// PayBail releases the player from jail
func (c *Client) PayBail(ctx context.Context, player int) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodPost, c.sessionPath("bail"), map[string]int{"player": player}, &state); err != nil {
		return nil, fmt.Errorf("pay bail: %w", err)
	}
	return &state, nil
}

// Report fetches standings and property returns
func (c *Client) Report(ctx context.Context) (*engine.Report, error) {
	var report engine.Report
	if err := c.do(ctx, http.MethodGet, c.sessionPath("report"), nil, &report); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return &report, nil
}
