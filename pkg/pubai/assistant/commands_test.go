package assistant

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/channels"
)

// newTestAssistant wires an Assistant to a fake model server and a
// temp-file store. Channels stay unregistered; commands are driven
// directly through HandleCommand.
func newTestAssistant(t *testing.T, answer string) *Assistant {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": answer},
		})
	}))
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "state.json")
	cfg.API.BaseURL = server.URL
	cfg.API.APIKey = "test-key"
	cfg.Access = AccessConfig{
		AdminRoleID: "role-admin",
		BuyerRoleID: "role-buyer",
		UnlockWord:  "mizisthegoat",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger)
}

func buyerMsg(content string) *channels.IncomingMessage {
	return &channels.IncomingMessage{
		ID:       "m1",
		Channel:  "discord",
		From:     "u1",
		FromName: "mizis",
		ChatID:   "c1",
		Roles:    []string{"role-buyer"},
		Content:  content,
	}
}

func adminMsg(content string, mentions ...string) *channels.IncomingMessage {
	msg := buyerMsg(content)
	msg.Roles = []string{"role-admin"}
	msg.Mentions = mentions
	return msg
}

func TestCommandsIgnoreOrdinaryChat(t *testing.T) {
	a := newTestAssistant(t, "hi")

	for _, content := range []string{"hello there", "!unknown", "ai question", ""} {
		if r := a.HandleCommand(context.Background(), buyerMsg(content)); r.Handled {
			t.Errorf("%q should not be handled", content)
		}
	}
}

func TestAskDeniedForNonBuyer(t *testing.T) {
	a := newTestAssistant(t, "hi")

	msg := buyerMsg("!ai hello")
	msg.Roles = nil

	r := a.HandleCommand(context.Background(), msg)
	if !r.Handled || len(r.Replies) != 1 {
		t.Fatalf("result = %+v", r)
	}
	if !strings.Contains(r.Replies[0].Title, "Access Denied") {
		t.Errorf("reply = %+v, want denial", r.Replies[0])
	}
}

func TestAskTriggerCaseInsensitive(t *testing.T) {
	a := newTestAssistant(t, "answer")

	r := a.HandleCommand(context.Background(), buyerMsg("!AI what changed?"))
	if !r.Handled || len(r.Replies) == 0 {
		t.Fatalf("mixed-case trigger not handled: %+v", r)
	}
	if r.Replies[0].Content != "answer" {
		t.Errorf("reply content = %q", r.Replies[0].Content)
	}
}

func TestAskEmptyQuestionShowsUsage(t *testing.T) {
	a := newTestAssistant(t, "hi")

	r := a.HandleCommand(context.Background(), buyerMsg("!ai"))
	if len(r.Replies) != 1 || !strings.Contains(r.Replies[0].Content, "Usage:") {
		t.Errorf("replies = %+v", r.Replies)
	}
}

func TestAskUnlockWord(t *testing.T) {
	a := newTestAssistant(t, "hi")

	r := a.HandleCommand(context.Background(), buyerMsg("!ai mizisthegoat"))
	if len(r.Replies) != 1 || !strings.Contains(r.Replies[0].Title, "Access Elevated") {
		t.Fatalf("replies = %+v", r.Replies)
	}
	if !a.quota.IsUnlocked("u1") {
		t.Error("unlock word must grant permanent unlimited quota")
	}
}

func TestAskRestrictedTopicConsumesQuota(t *testing.T) {
	a := newTestAssistant(t, "hi")

	r := a.HandleCommand(context.Background(), buyerMsg("!ai how does the scanner work?"))
	if len(r.Replies) != 1 {
		t.Fatalf("replies = %+v", r.Replies)
	}

	refusal := r.Replies[0].Content
	found := false
	for _, want := range defaultRefusals {
		if refusal == want {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("refusal %q not in the fixed set", refusal)
	}

	// A blocked question still costs a turn.
	if d := a.quota.Check("u1"); d.Remaining != a.quota.Limit()-1 {
		t.Errorf("remaining = %d, want %d", d.Remaining, a.quota.Limit()-1)
	}
}

func TestAskSuccessWithUsageField(t *testing.T) {
	a := newTestAssistant(t, "short answer")

	r := a.HandleCommand(context.Background(), buyerMsg("!ai fix my GUI"))
	if len(r.Replies) != 1 {
		t.Fatalf("replies = %+v", r.Replies)
	}

	reply := r.Replies[0]
	if reply.Content != "short answer" {
		t.Errorf("content = %q", reply.Content)
	}
	if len(reply.Fields) != 1 || reply.Fields[0].Name != "Messages Used" || reply.Fields[0].Value != "1/3" {
		t.Errorf("fields = %+v", reply.Fields)
	}
}

func TestAskLongAnswerIsChunked(t *testing.T) {
	long := strings.Repeat("a", answerChunkSize+50)
	a := newTestAssistant(t, long)

	r := a.HandleCommand(context.Background(), buyerMsg("!ai tell me everything about the GUI"))
	if len(r.Replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(r.Replies))
	}

	first, second := r.Replies[0], r.Replies[1]
	if !strings.Contains(first.Title, "Response") {
		t.Errorf("first title = %q", first.Title)
	}
	if !strings.Contains(second.Title, "Continued") {
		t.Errorf("continuation title = %q", second.Title)
	}
	if len(second.Fields) != 0 {
		t.Error("usage field belongs on the first segment only")
	}
	if first.Content+second.Content != long {
		t.Error("chunked reply does not concatenate back to the answer")
	}
}

func TestAskRateLimited(t *testing.T) {
	a := newTestAssistant(t, "hi")

	for i := 0; i < a.quota.Limit(); i++ {
		a.quota.Consume("u1")
	}

	r := a.HandleCommand(context.Background(), buyerMsg("!ai one more"))
	if len(r.Replies) != 1 || !strings.Contains(r.Replies[0].Title, "Rate Limited") {
		t.Fatalf("replies = %+v", r.Replies)
	}
	if !strings.Contains(r.Replies[0].Content, "minutes") {
		t.Errorf("rate-limit reply must report the wait: %q", r.Replies[0].Content)
	}
}

func TestAskUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"auth", http.StatusUnauthorized, "Invalid API key"},
		{"model missing", http.StatusNotFound, "not found"},
		{"other", http.StatusInternalServerError, "Error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)

			a := newTestAssistant(t, "unused")
			a.llm.baseURL = server.URL

			r := a.HandleCommand(context.Background(), buyerMsg("!ai hello"))
			if len(r.Replies) != 1 || !strings.Contains(r.Replies[0].Title, "AI Error") {
				t.Fatalf("replies = %+v", r.Replies)
			}
			if !strings.Contains(r.Replies[0].Content, tt.want) {
				t.Errorf("content = %q, want substring %q", r.Replies[0].Content, tt.want)
			}
		})
	}
}

func TestAdminCommandsRequireAdminRole(t *testing.T) {
	a := newTestAssistant(t, "hi")

	for _, content := range []string{"!addbuyer", "!removebuyer", "!resetlimit", "!listbuyers"} {
		r := a.HandleCommand(context.Background(), buyerMsg(content))
		if !r.Handled || len(r.Replies) != 1 {
			t.Fatalf("%q: result = %+v", content, r)
		}
		if !strings.Contains(r.Replies[0].Content, "Admin role required") {
			t.Errorf("%q: reply = %q", content, r.Replies[0].Content)
		}
	}
}

func TestAddRemoveBuyerFlow(t *testing.T) {
	a := newTestAssistant(t, "hi")

	// Grant via mention.
	r := a.HandleCommand(context.Background(), adminMsg("!addbuyer", "u9"))
	if !strings.Contains(r.Replies[0].Title, "Buyer Added") {
		t.Fatalf("replies = %+v", r.Replies)
	}
	if !a.access.IsBuyer("u9", nil) {
		t.Error("granted identity must be a buyer")
	}

	// Missing mention shows usage.
	r = a.HandleCommand(context.Background(), adminMsg("!addbuyer"))
	if !strings.Contains(r.Replies[0].Content, "Usage:") {
		t.Errorf("reply = %+v", r.Replies[0])
	}

	// Revoke clears buyer and unlock.
	a.quota.Unlock("u9")
	r = a.HandleCommand(context.Background(), adminMsg("!removebuyer", "u9"))
	if !strings.Contains(r.Replies[0].Title, "Buyer Removed") {
		t.Fatalf("replies = %+v", r.Replies)
	}
	if a.access.IsBuyer("u9", nil) || a.quota.IsUnlocked("u9") {
		t.Error("revoke must clear both buyer and unlocked status")
	}
}

func TestResetLimitCommand(t *testing.T) {
	a := newTestAssistant(t, "hi")

	for i := 0; i < a.quota.Limit(); i++ {
		a.quota.Consume("u9")
	}

	r := a.HandleCommand(context.Background(), adminMsg("!resetlimit", "u9"))
	if len(r.Replies) != 1 || !strings.Contains(r.Replies[0].Content, "reset") {
		t.Fatalf("replies = %+v", r.Replies)
	}
	if d := a.quota.Check("u9"); !d.Allowed {
		t.Error("quota must be full after reset")
	}
}

func TestListBuyersCommand(t *testing.T) {
	a := newTestAssistant(t, "hi")
	a.access.GrantBuyer("u9")
	a.quota.Unlock("u7")

	r := a.HandleCommand(context.Background(), adminMsg("!listbuyers"))
	reply := r.Replies[0]
	if !strings.Contains(reply.Content, "<@u9>") {
		t.Errorf("buyers list = %q", reply.Content)
	}
	if len(reply.Fields) != 1 || !strings.Contains(reply.Fields[0].Value, "<@u7>") {
		t.Errorf("unlimited list = %+v", reply.Fields)
	}
}

func TestStatusCommand(t *testing.T) {
	a := newTestAssistant(t, "hi")

	// Buyers only.
	msg := buyerMsg("!status")
	msg.Roles = nil
	r := a.HandleCommand(context.Background(), msg)
	if !strings.Contains(r.Replies[0].Content, "Buyers only") {
		t.Errorf("reply = %+v", r.Replies[0])
	}

	// Remaining quota for a buyer.
	a.quota.Consume("u1")
	r = a.HandleCommand(context.Background(), buyerMsg("!status"))
	if !fieldsContain(r.Replies[0].Fields, "2 msgs left") {
		t.Errorf("fields = %+v", r.Replies[0].Fields)
	}

	// Unlimited tier.
	a.quota.Unlock("u1")
	r = a.HandleCommand(context.Background(), buyerMsg("!status"))
	if !fieldsContain(r.Replies[0].Fields, "∞ Unlimited") {
		t.Errorf("fields = %+v", r.Replies[0].Fields)
	}
}

func TestHelpCommand(t *testing.T) {
	a := newTestAssistant(t, "hi")

	r := a.HandleCommand(context.Background(), buyerMsg("!help"))
	if !r.Handled || len(r.Replies) != 1 {
		t.Fatalf("result = %+v", r)
	}
	if len(r.Replies[0].Fields) == 0 {
		t.Error("help must list the commands")
	}
}

func fieldsContain(fields []channels.Field, substr string) bool {
	for _, f := range fields {
		if strings.Contains(f.Value, substr) {
			return true
		}
	}
	return false
}
