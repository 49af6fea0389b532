package dyte

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type recordedRequest struct {
	method string
	path   string
	user   string
	pass   string
	body   map[string]interface{}
}

// newTestServer answers every request with status and body and records what it received.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]interface{}
		_ = json.Unmarshal(raw, &decoded)
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, user: user, pass: pass, body: decoded})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL, OrgID: "org-1", APIKey: "key-1", Timeout: 2 * time.Second}, nil)
}

func TestCreateMeeting(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusCreated, `{"success":true,"data":{"id":"m-123","title":"Live shopping: Shoes"}}`)
	c := newTestClient(srv.URL)

	m, err := c.CreateMeeting(context.Background(), CreateMeetingRequest{
		Title:           "Live shopping: Shoes",
		PreferredRegion: "ap-south-1",
		RecordOnStart:   false,
	})
	if err != nil {
		t.Fatalf("CreateMeeting: %v", err)
	}
	if m.ID != "m-123" {
		t.Errorf("ID = %q, want %q", m.ID, "m-123")
	}

	if len(*reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(*reqs))
	}
	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/meetings" {
		t.Errorf("request = %s %s, want POST /meetings", got.method, got.path)
	}
	if got.user != "org-1" || got.pass != "key-1" {
		t.Errorf("basic auth = %q:%q, want org-1:key-1", got.user, got.pass)
	}
	if got.body["preferred_region"] != "ap-south-1" {
		t.Errorf("preferred_region = %v", got.body["preferred_region"])
	}
	if got.body["record_on_start"] != false {
		t.Errorf("record_on_start = %v, want false", got.body["record_on_start"])
	}
}

func TestAddParticipant(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusCreated, `{"success":true,"data":{"id":"p-1","token":"tok-1","name":"Alice"}}`)
	c := newTestClient(srv.URL)

	p, err := c.AddParticipant(context.Background(), "m-123", AddParticipantRequest{
		Name:                "Alice",
		PresetName:          "group_call_participant",
		CustomParticipantID: "alice@x.com",
	})
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if p.ID != "p-1" || p.Token != "tok-1" {
		t.Errorf("participant = %+v", p)
	}
	got := (*reqs)[0]
	if got.path != "/meetings/m-123/participants" {
		t.Errorf("path = %q", got.path)
	}
	if got.body["custom_participant_id"] != "alice@x.com" {
		t.Errorf("custom_participant_id = %v", got.body["custom_participant_id"])
	}
	if got.body["preset_name"] != "group_call_participant" {
		t.Errorf("preset_name = %v", got.body["preset_name"])
	}
}

func TestRefreshParticipantToken(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `{"success":true,"data":{"token":"fresh"}}`)
	c := newTestClient(srv.URL)

	tok, err := c.RefreshParticipantToken(context.Background(), "m-123", "p-1")
	if err != nil {
		t.Fatalf("RefreshParticipantToken: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("token = %q, want %q", tok, "fresh")
	}
	if got := (*reqs)[0].path; got != "/meetings/m-123/participants/p-1/token" {
		t.Errorf("path = %q", got)
	}
}

func TestNonSuccessStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"success":false,"error":{"message":"bad credentials"}}`)
	c := newTestClient(srv.URL)

	_, err := c.CreateMeeting(context.Background(), CreateMeetingRequest{Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not *ProviderError", err)
	}
	if pe.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", pe.StatusCode)
	}
	if !strings.Contains(pe.Body, "bad credentials") {
		t.Errorf("Body = %q, want provider body", pe.Body)
	}
	if !IsProviderError(err) {
		t.Error("IsProviderError = false")
	}
}

func TestMissingData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no data field", body: `{"success":true}`},
		{name: "null data", body: `{"success":true,"data":null}`},
		{name: "empty token", body: `{"success":true,"data":{"token":""}}`},
		{name: "not json", body: `<html>oops</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, tt.body)
			c := newTestClient(srv.URL)
			if _, err := c.RefreshParticipantToken(context.Background(), "m", "p"); !IsProviderError(err) {
				t.Fatalf("err = %v, want *ProviderError", err)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(url)
	_, err := c.AddParticipant(context.Background(), "m", AddParticipantRequest{Name: "a"})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if pe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport error", pe.StatusCode)
	}
}

func TestProviderError_Error(t *testing.T) {
	err := &ProviderError{Op: "create meeting", StatusCode: 500, Body: strings.Repeat("x", 600)}
	msg := err.Error()
	if !strings.HasPrefix(msg, "dyte: create meeting: status 500: ") {
		t.Errorf("Error() = %q", msg)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Error("long body should be truncated")
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "ok", n: 5, want: "ok"},
		{name: "ascii", in: "abcdef", n: 3, want: "abc..."},
		{name: "cut inside cyrillic", in: "ошибка", n: 3, want: "о..."},
		{name: "cut on boundary", in: "ошибка", n: 4, want: "ош..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}
