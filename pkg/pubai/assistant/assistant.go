// Package assistant implements the main orchestrator for Pub-AI.
// Coordinates channels, access control, quota, the topic filter, and the
// hosted-model gateway to answer buyer questions.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/channels"
)

// Embed accent colors.
const (
	colorInfo    = 0x2288ff
	colorError   = 0xff4444
	colorWarning = 0xff8800
	colorSuccess = 0x00ff88
)

// Assistant is the main orchestrator.
// Message flow: receive → command parse → access check → quota check →
// topic filter → model call → chunk → reply.
type Assistant struct {
	config *Config

	// channelMgr manages communication channels.
	channelMgr *channels.Manager

	// store owns the persisted state document.
	store *Store

	// access decides who may use the assistant.
	access *AccessPolicy

	// quota enforces the rolling-window request limit.
	quota *QuotaTracker

	// filter classifies restricted topics.
	filter *TopicFilter

	// llm talks to the hosted model.
	llm *LLMClient

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Assistant with all dependencies.
func New(cfg *Config, logger *slog.Logger) *Assistant {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := NewStore(cfg.Storage.Path, logger)

	return &Assistant{
		config:     cfg,
		channelMgr: channels.NewManager(logger.With("component", "channels")),
		store:      store,
		access:     NewAccessPolicy(cfg.Access, store, logger),
		quota:      NewQuotaTracker(cfg.Quota, store, logger),
		filter:     NewTopicFilter(cfg.Filter),
		llm:        NewLLMClient(cfg, logger),
		logger:     logger,
	}
}

// Start connects channels and begins processing messages.
func (a *Assistant) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.logger.Info("starting Pub-AI",
		"name", a.config.Name,
		"model", a.config.Model,
		"trigger", a.config.Trigger,
		"quota_limit", a.quota.Limit(),
	)

	if err := a.channelMgr.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start channels: %w", err)
	}

	go a.messageLoop()

	a.logger.Info("Pub-AI started successfully")
	return nil
}

// Stop gracefully shuts down all subsystems.
func (a *Assistant) Stop() {
	a.logger.Info("stopping Pub-AI...")

	if a.cancel != nil {
		a.cancel()
	}
	a.channelMgr.Stop()

	a.logger.Info("Pub-AI stopped")
}

// ChannelManager returns the channel manager for external registration.
func (a *Assistant) ChannelManager() *channels.Manager {
	return a.channelMgr
}

// AccessPolicy returns the access policy.
func (a *Assistant) AccessPolicy() *AccessPolicy {
	return a.access
}

// QuotaTracker returns the quota tracker.
func (a *Assistant) QuotaTracker() *QuotaTracker {
	return a.quota
}

// messageLoop is the main loop that processes messages from all channels.
// Each message is handled in its own goroutine so a slow model call never
// blocks other users.
func (a *Assistant) messageLoop() {
	for {
		select {
		case msg, ok := <-a.channelMgr.Messages():
			if !ok {
				return
			}
			go a.handleMessage(msg)

		case <-a.ctx.Done():
			return
		}
	}
}

// handleMessage routes one incoming message through the command router.
func (a *Assistant) handleMessage(msg *channels.IncomingMessage) {
	result := a.HandleCommand(a.ctx, msg)
	if !result.Handled {
		return
	}

	for _, reply := range result.Replies {
		a.sendReply(msg, reply)
	}
}

// sendReply sends a response to the original message's chat.
func (a *Assistant) sendReply(original *channels.IncomingMessage, reply *channels.OutgoingMessage) {
	if reply.ReplyTo == "" {
		reply.ReplyTo = original.ID
	}

	if err := a.channelMgr.Send(a.ctx, original.Channel, original.ChatID, reply); err != nil {
		a.logger.Error("failed to send reply",
			"channel", original.Channel,
			"chat_id", original.ChatID,
			"error", err,
		)
	}
}

// sendTyping emits a typing indicator if the source channel supports it.
func (a *Assistant) sendTyping(msg *channels.IncomingMessage) {
	ch, ok := a.channelMgr.Channel(msg.Channel)
	if !ok {
		return
	}
	if pc, ok := ch.(channels.PresenceChannel); ok {
		if err := pc.SendTyping(a.ctx, msg.ChatID); err != nil {
			a.logger.Debug("typing indicator failed", "error", err)
		}
	}
}
