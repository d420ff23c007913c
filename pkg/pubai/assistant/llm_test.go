package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestLLM returns a client pointed at a test server.
func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.API.BaseURL = server.URL
	cfg.API.APIKey = "test-key"
	return NewLLMClient(cfg, nil)
}

func TestLLMAskSuccess(t *testing.T) {
	var gotReq chatRequest
	c := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "  the answer  "},
		})
	})

	answer, err := c.Ask(context.Background(), "what changed?", "mizis")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "the answer" {
		t.Errorf("answer = %q, want trimmed text", answer)
	}

	// Two-message exchange: system persona + user turn with name and
	// question verbatim.
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("first message role = %q", gotReq.Messages[0].Role)
	}
	user := gotReq.Messages[1]
	if user.Role != "user" || !strings.Contains(user.Content, "mizis") || !strings.Contains(user.Content, "what changed?") {
		t.Errorf("user turn = %+v", user)
	}
	if gotReq.Stream {
		t.Error("stream must be false")
	}
	if gotReq.Options.NumPredict != 800 || gotReq.Options.Temperature != 0.7 {
		t.Errorf("options = %+v", gotReq.Options)
	}
}

func TestLLMAskEmptyPayloadFallback(t *testing.T) {
	c := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "   "},
		})
	})

	answer, err := c.Ask(context.Background(), "q", "u")
	if err != nil {
		t.Fatal(err)
	}
	if answer != emptyResponseFallback {
		t.Errorf("answer = %q, want fallback", answer)
	}
}

func TestLLMAskErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, ErrKindAuth},
		{"forbidden", http.StatusForbidden, ErrKindAuth},
		{"model missing", http.StatusNotFound, ErrKindNotFound},
		{"server error", http.StatusInternalServerError, ErrKindOther},
		{"rate limited upstream", http.StatusTooManyRequests, ErrKindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := c.Ask(context.Background(), "q", "u")
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("error = %v, want *UpstreamError", err)
			}
			if ue.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", ue.Kind, tt.wantKind)
			}
		})
	}
}

func TestLLMAskBodyError(t *testing.T) {
	c := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "model is loading"})
	})

	_, err := c.Ask(context.Background(), "q", "u")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if ue.Kind != ErrKindOther || !strings.Contains(ue.Message, "model is loading") {
		t.Errorf("got %+v", ue)
	}
}
