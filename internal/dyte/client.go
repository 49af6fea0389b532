// Package dyte is a thin client for the Dyte v2 REST API: meetings, participants and participant tokens.
package dyte

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Config: учётные данные организации Dyte и базовый URL API.
type Config struct {
	BaseURL string
	OrgID   string
	APIKey  string
	Timeout time.Duration
}

// Client issues authenticated requests against the provider. Safe for concurrent use.
type Client struct {
	baseURL    string
	orgID      string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient возвращает клиент с общим http.Client для всех вызовов.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		orgID:   cfg.OrgID,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With(zap.String("client", "dyte")),
	}
}

// CreateMeetingRequest is the body of POST /meetings.
type CreateMeetingRequest struct {
	Title           string `json:"title"`
	PreferredRegion string `json:"preferred_region,omitempty"`
	RecordOnStart   bool   `json:"record_on_start"`
}

type Meeting struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AddParticipantRequest is the body of POST /meetings/{id}/participants.
type AddParticipantRequest struct {
	Name                string `json:"name"`
	PresetName          string `json:"preset_name"`
	CustomParticipantID string `json:"custom_participant_id"`
}

// Participant carries the provider id and a join token for the participant's client.
type Participant struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type tokenData struct {
	Token string `json:"token"`
}

// envelope is the provider's response wrapper; only data is used.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// CreateMeeting provisions a new meeting room.
func (c *Client) CreateMeeting(ctx context.Context, in CreateMeetingRequest) (*Meeting, error) {
	const op = "create meeting"
	var m Meeting
	if err := c.do(ctx, op, "/meetings", in, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, &ProviderError{Op: op, StatusCode: http.StatusOK, Err: errMissing("meeting id")}
	}
	return &m, nil
}

// AddParticipant registers a participant in meetingID. CustomParticipantID is forwarded as-is;
// the provider, not this client, decides what to do with repeats.
func (c *Client) AddParticipant(ctx context.Context, meetingID string, in AddParticipantRequest) (*Participant, error) {
	const op = "add participant"
	var p Participant
	path := "/meetings/" + url.PathEscape(meetingID) + "/participants"
	if err := c.do(ctx, op, path, in, &p); err != nil {
		return nil, err
	}
	if p.ID == "" || p.Token == "" {
		return nil, &ProviderError{Op: op, StatusCode: http.StatusOK, Err: errMissing("participant id or token")}
	}
	return &p, nil
}

// RefreshParticipantToken reissues a join token for an already registered participant.
func (c *Client) RefreshParticipantToken(ctx context.Context, meetingID, participantID string) (string, error) {
	const op = "refresh participant token"
	var t tokenData
	path := "/meetings/" + url.PathEscape(meetingID) + "/participants/" + url.PathEscape(participantID) + "/token"
	if err := c.do(ctx, op, path, struct{}{}, &t); err != nil {
		return "", err
	}
	if t.Token == "" {
		return "", &ProviderError{Op: op, StatusCode: http.StatusOK, Err: errMissing("token")}
	}
	return t.Token, nil
}

// do POSTs body as JSON to path and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, op, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &ProviderError{Op: op, Err: fmt.Errorf("marshal: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &ProviderError{Op: op, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.orgID, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("dyte: request failed", zap.String("op", op), zap.Error(err))
		return &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.log.Debug("dyte: response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("dyte: non-success status", zap.String("op", op), zap.Int("status", resp.StatusCode))
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(raw), Err: errMissing("data")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
