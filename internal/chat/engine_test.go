package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harborai/harbor/internal/chat"
	"github.com/harborai/harbor/internal/models"
)

func TestEngineClientReply(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/replies" {
			t.Errorf("got %s %s, want POST /v1/replies", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req chat.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SessionID != "telegram:42" || req.Body != "hello" {
			t.Errorf("request = %+v", req)
		}
		if req.Model.Provider != "anthropic" || req.Model.Model != "claude-opus-4-5" {
			t.Errorf("model = %+v", req.Model)
		}
		json.NewEncoder(w).Encode(chat.Response{
			Replies: []chat.Reply{{Text: "hi there"}},
		})
	}))
	defer srv.Close()

	client := chat.NewEngineClient(nil, srv.URL, 5*time.Second)
	resp, err := client.Reply(context.Background(), chat.Request{
		Surface:   "telegram",
		SessionID: "telegram:42",
		Body:      "hello",
		Model:     models.Ref{Provider: "anthropic", Model: "claude-opus-4-5"},
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if len(resp.Replies) != 1 || resp.Replies[0].Text != "hi there" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestEngineClientReply_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := chat.NewEngineClient(nil, srv.URL, 5*time.Second)
	_, err := client.Reply(context.Background(), chat.Request{Body: "hello"})
	if err == nil {
		t.Fatal("Reply: err = nil, want error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "engine overloaded") {
		t.Fatalf("err = %v", err)
	}
}

func TestEngineClientReply_NoBaseURL(t *testing.T) {
	t.Parallel()
	client := chat.NewEngineClient(nil, "", time.Second)
	if _, err := client.Reply(context.Background(), chat.Request{}); err == nil {
		t.Fatal("Reply with empty base url: err = nil, want error")
	}
}

func TestEngineClientReply_TrailingSlash(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/replies" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(chat.Response{})
	}))
	defer srv.Close()

	client := chat.NewEngineClient(nil, srv.URL+"/", time.Second)
	if _, err := client.Reply(context.Background(), chat.Request{Body: "x"}); err != nil {
		t.Fatalf("Reply: %v", err)
	}
}
