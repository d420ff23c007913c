// Package assistant – commands.go implements the chat command router.
//
// Commands are prefixed with "!" and matched case-insensitively:
//
//	!ai <question>      - Ask the assistant. Buyers only.
//	!status             - Your access tier and remaining quota. Buyers only.
//	!addbuyer @user     - Grant access. Admin role required.
//	!removebuyer @user  - Remove access (also clears permanent unlock). Admin.
//	!resetlimit @user   - Reset the rolling quota. Admin role required.
//	!listbuyers         - List buyers and unlimited users. Admin role required.
//	!help               - Show available commands.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/channels"
)

// Footers shown under formatted replies.
const (
	footerBrand = "Pub++ by DQ"
	footerAI    = "Pub++ AI"
	footerAdmin = "Pub++ Admin"
)

// answerChunkSize bounds each outbound answer segment. Discord embed
// descriptions cap at 4096; 4000 leaves headroom.
const answerChunkSize = 4000

// CommandResult contains the result of a command execution.
type CommandResult struct {
	// Replies are sent back in order, each as its own message.
	Replies []*channels.OutgoingMessage

	// Handled is true if the message matched a known command.
	Handled bool
}

// reply appends an outgoing message to the result.
func (r *CommandResult) reply(msg *channels.OutgoingMessage) {
	r.Replies = append(r.Replies, msg)
}

// HandleCommand parses and executes a chat command.
// Returns Handled=false for anything that is not a command, so ordinary
// conversation is silently ignored.
func (a *Assistant) HandleCommand(ctx context.Context, msg *channels.IncomingMessage) CommandResult {
	content := strings.TrimSpace(msg.Content)
	lower := strings.ToLower(content)
	trigger := strings.ToLower(a.config.Trigger)

	var result CommandResult

	switch {
	case lower == trigger || strings.HasPrefix(lower, trigger+" "):
		question := strings.TrimSpace(content[len(trigger):])
		a.handleAsk(ctx, msg, question, &result)

	case strings.HasPrefix(lower, "!addbuyer"):
		a.handleAddBuyer(msg, &result)

	case strings.HasPrefix(lower, "!removebuyer"):
		a.handleRemoveBuyer(msg, &result)

	case strings.HasPrefix(lower, "!resetlimit"):
		a.handleResetLimit(msg, &result)

	case lower == "!listbuyers":
		a.handleListBuyers(msg, &result)

	case lower == "!status", lower == "!pubstatus":
		a.handleStatus(msg, &result)

	case lower == "!help", lower == "!pubhelp":
		a.handleHelp(&result)

	default:
		return CommandResult{Handled: false}
	}

	result.Handled = true
	return result
}

// ---------- !ai ----------

// handleAsk runs the full gated pipeline for one question:
// buyer check → unlock word → quota check → topic filter → consume →
// model call → chunked reply.
func (a *Assistant) handleAsk(ctx context.Context, msg *channels.IncomingMessage, question string, result *CommandResult) {
	logger := a.logger.With(
		"request_id", uuid.NewString(),
		"user", msg.From,
		"channel", msg.Channel,
	)

	if !a.access.IsBuyer(msg.From, msg.Roles) {
		logger.Info("ask denied, not a buyer")
		result.reply(&channels.OutgoingMessage{
			Title:   "❌ Access Denied",
			Content: fmt.Sprintf("%s is only available to buyers.", a.config.Name),
			Color:   colorError,
			Footer:  footerBrand,
		})
		return
	}

	if question == "" {
		result.reply(&channels.OutgoingMessage{
			Title: "◈ " + a.config.Name,
			Content: fmt.Sprintf("Usage: `%s <your question>`\nI know the full GUI. Ask about changes or errors.",
				a.config.Trigger),
			Color:  colorInfo,
			Footer: fmt.Sprintf("%s — %s", footerAI, a.config.Model),
		})
		return
	}

	// Unlock word: matched silently, grants permanent unlimited quota.
	if a.config.Access.UnlockWord != "" &&
		strings.Contains(strings.ToLower(question), strings.ToLower(a.config.Access.UnlockWord)) {
		a.quota.Unlock(msg.From)
		result.reply(&channels.OutgoingMessage{
			Title:   "◈ Access Elevated",
			Content: "Unlimited AI access granted indefinitely.",
			Color:   colorInfo,
			Footer:  footerAI,
		})
		return
	}

	decision := a.quota.Check(msg.From)
	if !decision.Allowed {
		waitMin := int(decision.RetryAfter.Minutes())
		logger.Info("ask rate limited", "retry_after_min", waitMin)
		result.reply(&channels.OutgoingMessage{
			Title: "⏱ Rate Limited",
			Content: fmt.Sprintf("All %d messages used.\n**%d minutes** until reset.",
				a.quota.Limit(), waitMin),
			Color:  colorWarning,
			Footer: fmt.Sprintf("%d messages per %s", a.quota.Limit(), formatWindow(a.quota.Window())),
		})
		return
	}

	// Restricted topics still cost a turn, so probing the filter drains
	// the same quota as a real question.
	if a.filter.Classify(question) == Restricted {
		a.quota.Consume(msg.From)
		logger.Info("ask blocked by topic filter")
		result.reply(&channels.OutgoingMessage{
			Title:   "◈ " + a.config.Name,
			Content: a.filter.Refusal(),
			Color:   colorError,
			Footer:  footerAI,
		})
		return
	}

	a.sendTyping(msg)
	a.quota.Consume(msg.From)

	usageText := "∞"
	if !decision.Unlimited {
		usageText = fmt.Sprintf("%d/%d", a.quota.Limit()-decision.Remaining+1, a.quota.Limit())
	}

	answer, err := a.llm.Ask(ctx, question, msg.FromName)
	if err != nil {
		logger.Error("model call failed", "error", err)
		result.reply(&channels.OutgoingMessage{
			Title:   "⚠ AI Error",
			Content: a.upstreamErrorMessage(err),
			Color:   colorError,
			Footer:  footerAI,
		})
		return
	}

	footer := fmt.Sprintf("%s (%s) • %s", footerAI, a.config.Model, msg.FromName)
	for i, chunk := range Chunk(answer, answerChunkSize) {
		out := &channels.OutgoingMessage{
			Content:     chunk,
			Color:       colorInfo,
			Footer:      footer,
			Timestamped: true,
		}
		if i == 0 {
			out.Title = fmt.Sprintf("◈ %s Response", a.config.Name)
			out.Fields = []channels.Field{
				{Name: "Messages Used", Value: usageText, Inline: true},
			}
		} else {
			out.Title = "◈ Continued..."
		}
		result.reply(out)
	}

	logger.Info("ask answered", "answer_len", len(answer), "usage", usageText)
}

// upstreamErrorMessage maps a gateway failure to a user-facing remediation.
func (a *Assistant) upstreamErrorMessage(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		switch ue.Kind {
		case ErrKindAuth:
			return "Invalid API key. Regenerate it at ollama.com/settings and update your .env."
		case ErrKindNotFound:
			return fmt.Sprintf("Model `%s` not found. Make sure it's pushed to your account.", a.config.Model)
		}
	}
	return fmt.Sprintf("Error: %v", err)
}

// ---------- Admin commands ----------

func (a *Assistant) handleAddBuyer(msg *channels.IncomingMessage, result *CommandResult) {
	if !a.requireAdmin(msg, result) {
		return
	}
	target, ok := firstMention(msg)
	if !ok {
		result.reply(&channels.OutgoingMessage{Content: "Usage: `!addbuyer @user`"})
		return
	}

	a.access.GrantBuyer(target)
	result.reply(&channels.OutgoingMessage{
		Title:   "✅ Buyer Added",
		Content: fmt.Sprintf("%s now has %s access.", mentionName(msg, target), a.config.Name),
		Color:   colorSuccess,
		Footer:  footerAdmin,
	})
}

func (a *Assistant) handleRemoveBuyer(msg *channels.IncomingMessage, result *CommandResult) {
	if !a.requireAdmin(msg, result) {
		return
	}
	target, ok := firstMention(msg)
	if !ok {
		result.reply(&channels.OutgoingMessage{Content: "Usage: `!removebuyer @user`"})
		return
	}

	a.access.RevokeBuyer(target)
	result.reply(&channels.OutgoingMessage{
		Title:   "✅ Buyer Removed",
		Content: fmt.Sprintf("%s removed from access.", mentionName(msg, target)),
		Color:   colorError,
		Footer:  footerAdmin,
	})
}

func (a *Assistant) handleResetLimit(msg *channels.IncomingMessage, result *CommandResult) {
	if !a.requireAdmin(msg, result) {
		return
	}
	target, ok := firstMention(msg)
	if !ok {
		result.reply(&channels.OutgoingMessage{Content: "Usage: `!resetlimit @user`"})
		return
	}

	a.quota.Reset(target)
	result.reply(&channels.OutgoingMessage{
		Content: fmt.Sprintf("✅ Rate limit reset for %s.", mentionName(msg, target)),
	})
}

func (a *Assistant) handleListBuyers(msg *channels.IncomingMessage, result *CommandResult) {
	if !a.requireAdmin(msg, result) {
		return
	}

	buyers, unlocked := a.access.ListBuyers()
	result.reply(&channels.OutgoingMessage{
		Title:   "◈ Buyers",
		Content: formatUserList(buyers),
		Color:   colorInfo,
		Footer:  footerAdmin,
		Fields: []channels.Field{
			{Name: "Unlimited Users", Value: formatUserList(unlocked)},
		},
	})
}

// ---------- Status & help ----------

func (a *Assistant) handleStatus(msg *channels.IncomingMessage, result *CommandResult) {
	if !a.access.IsBuyer(msg.From, msg.Roles) {
		result.reply(&channels.OutgoingMessage{Content: "❌ Buyers only."})
		return
	}

	decision := a.quota.Check(msg.From)
	accessText := "Rate limited"
	switch {
	case decision.Unlimited:
		accessText = "∞ Unlimited"
	case decision.Allowed:
		accessText = fmt.Sprintf("%d msgs left", decision.Remaining)
	}

	result.reply(&channels.OutgoingMessage{
		Title:       "◈ Pub++ System Status",
		Color:       colorInfo,
		Footer:      footerBrand,
		Timestamped: true,
		Fields: []channels.Field{
			{Name: "AI Model", Value: "🟢 " + a.config.Model, Inline: true},
			{Name: "Your AI Access", Value: accessText, Inline: true},
		},
	})
}

func (a *Assistant) handleHelp(result *CommandResult) {
	result.reply(&channels.OutgoingMessage{
		Title:  "◈ Pub++ Bot Commands",
		Color:  colorInfo,
		Footer: footerBrand,
		Fields: []channels.Field{
			{Name: a.config.Trigger + " <question>", Value: "Ask the AI about GUI changes or errors. Buyers only."},
			{Name: "!status", Value: "System status + your rate limit."},
			{Name: "!addbuyer @user", Value: "Grant access. **Admin role required.**"},
			{Name: "!removebuyer @user", Value: "Remove access. **Admin role required.**"},
			{Name: "!resetlimit @user", Value: fmt.Sprintf("Reset the %s cooldown. **Admin role required.**", formatWindow(a.quota.Window()))},
			{Name: "!listbuyers", Value: "List all buyers. **Admin role required.**"},
			{Name: "Rate Limit", Value: fmt.Sprintf("%d messages per %s.", a.quota.Limit(), formatWindow(a.quota.Window()))},
			{Name: "AI Model", Value: fmt.Sprintf("`%s` — hosted model.", a.config.Model)},
		},
	})
}

// ---------- Helpers ----------

// requireAdmin replies with a denial and returns false when the sender
// lacks the admin role.
func (a *Assistant) requireAdmin(msg *channels.IncomingMessage, result *CommandResult) bool {
	if a.access.IsAdmin(msg.From, msg.Roles) {
		return true
	}
	result.reply(&channels.OutgoingMessage{Content: "❌ Admin role required."})
	return false
}

// firstMention returns the first mentioned identity in the message.
func firstMention(msg *channels.IncomingMessage) (string, bool) {
	if len(msg.Mentions) == 0 {
		return "", false
	}
	return msg.Mentions[0], true
}

// mentionName resolves a display name for a mentioned identity.
func mentionName(msg *channels.IncomingMessage, id string) string {
	if name, ok := msg.MentionNames[id]; ok && name != "" {
		return name
	}
	return id
}

// formatWindow renders a window duration in plain words.
func formatWindow(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}

// formatUserList renders identities as platform mentions, one per line.
func formatUserList(ids []string) string {
	if len(ids) == 0 {
		return "None."
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = "<@" + id + ">"
	}
	return strings.Join(lines, "\n")
}
