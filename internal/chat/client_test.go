package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("https://slack.example.com/api/", "xoxb-token")

	if client.BaseURL != "https://slack.example.com/api" {
		t.Errorf("expected trailing slash to be trimmed, got %s", client.BaseURL)
	}
	if client.HTTPClient == nil {
		t.Fatal("expected HTTP client to be set")
	}
	if client.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("expected timeout %v, got %v", defaultTimeout, client.HTTPClient.Timeout)
	}
}

func TestClient_PushMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq postMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-token")
	resp := Response{
		Text:   "Focus session complete.",
		Blocks: []Block{Button("End focus", "focus_end", "")},
	}
	if err := client.PushMessage(context.Background(), "U123", resp); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/chat.postMessage" {
		t.Errorf("expected path /chat.postMessage, got %s", gotPath)
	}
	if gotAuth != "Bearer xoxb-token" {
		t.Errorf("expected bearer auth, got %s", gotAuth)
	}
	if gotReq.Channel != "U123" {
		t.Errorf("expected channel U123, got %s", gotReq.Channel)
	}
	if gotReq.Text != "Focus session complete." {
		t.Errorf("unexpected text: %s", gotReq.Text)
	}
	if len(gotReq.Blocks) != 1 || gotReq.Blocks[0].ActionID != "focus_end" {
		t.Errorf("unexpected blocks: %+v", gotReq.Blocks)
	}
}

func TestClient_PushMessage_MissingUser(t *testing.T) {
	client := NewClient("https://slack.example.com/api", "xoxb-token")

	err := client.PushMessage(context.Background(), "", Response{Text: "hi"})
	if err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestClient_PushMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-token")
	err := client.PushMessage(context.Background(), "U123", Response{Text: "hi"})
	if err == nil {
		t.Fatal("expected error for ok=false response")
	}
}

func TestClient_PushMessage_Non200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"error":"rate_limited"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-token")
	err := client.PushMessage(context.Background(), "U123", Response{Text: "hi"})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestClient_SetStatus(t *testing.T) {
	var gotPath string
	var gotReq profileSetRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	expires := time.Date(2025, 6, 2, 9, 25, 0, 0, time.UTC)
	client := NewClient(server.URL, "xoxb-token")
	err := client.SetStatus(context.Background(), "U123", "In focus mode", ":dart:", expires)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/users.profile.set" {
		t.Errorf("expected path /users.profile.set, got %s", gotPath)
	}
	if gotReq.User != "U123" {
		t.Errorf("expected user U123, got %s", gotReq.User)
	}
	if gotReq.Profile.StatusText != "In focus mode" {
		t.Errorf("unexpected status text: %s", gotReq.Profile.StatusText)
	}
	if gotReq.Profile.StatusEmoji != ":dart:" {
		t.Errorf("unexpected status emoji: %s", gotReq.Profile.StatusEmoji)
	}
	if gotReq.Profile.StatusExpiration != expires.Unix() {
		t.Errorf("expected expiration %d, got %d", expires.Unix(), gotReq.Profile.StatusExpiration)
	}
}

func TestClient_SetStatus_NoExpiry(t *testing.T) {
	var gotReq profileSetRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-token")
	err := client.SetStatus(context.Background(), "U123", "Away", "", time.Time{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotReq.Profile.StatusExpiration != 0 {
		t.Errorf("expected zero expiration, got %d", gotReq.Profile.StatusExpiration)
	}
}

func TestClient_ClearStatus(t *testing.T) {
	var gotReq profileSetRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-token")
	if err := client.ClearStatus(context.Background(), "U123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotReq.User != "U123" {
		t.Errorf("expected user U123, got %s", gotReq.User)
	}
	if gotReq.Profile.StatusText != "" || gotReq.Profile.StatusEmoji != "" || gotReq.Profile.StatusExpiration != 0 {
		t.Errorf("expected empty profile, got %+v", gotReq.Profile)
	}
}

func TestClient_MissingBaseURL(t *testing.T) {
	client := &Client{BotToken: "xoxb-token", HTTPClient: http.DefaultClient}

	err := client.PushMessage(context.Background(), "U123", Response{Text: "hi"})
	if err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
