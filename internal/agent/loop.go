// Package agent wires the bot pipeline: command routing, the membership
// gate, memory intents, the group reply policy, and reply generation.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cortexhub/mnemo/internal/channel"
	"github.com/cortexhub/mnemo/internal/gate"
	"github.com/cortexhub/mnemo/internal/intent"
	"github.com/cortexhub/mnemo/internal/memory"
	"github.com/cortexhub/mnemo/internal/metrics"
	"github.com/cortexhub/mnemo/internal/policy"
	"github.com/cortexhub/mnemo/internal/reply"
)

// Options carries the identity knobs the pipeline needs.
type Options struct {
	// BotUsername routes /command@BotName forms; commands addressed to a
	// different bot are dropped.
	BotUsername string
	// WakeWord wakes the bot in mention-mode groups.
	WakeWord string
	// OwnerID restricts /mode when set; empty disables the restriction.
	OwnerID string
}

// Loop is the explicit pipeline state: every collaborator the bot needs to
// answer one message, no package-level mutable state anywhere.
type Loop struct {
	store      memory.Store
	gate       *gate.Gate
	classifier *intent.Classifier
	generator  reply.Generator
	opts       Options
	logger     *slog.Logger
}

// New builds the pipeline.
func New(store memory.Store, g *gate.Gate, classifier *intent.Classifier, generator reply.Generator, opts Options, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		store:      store,
		gate:       g,
		classifier: classifier,
		generator:  generator,
		opts:       opts,
		logger:     logger,
	}
}

// Process handles one inbound message end to end: at most one storage
// write and at most one generation per message, and any failure is
// terminal for that message. Replies go back through sender into the chat
// the message came from.
func (l *Loop) Process(ctx context.Context, msg *channel.Message, sender channel.Sender) {
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	metrics.UpdatesTotal.WithLabelValues(msg.Channel).Inc()

	if cmd, ok := l.parseCommand(text); ok {
		if cmd.mine {
			l.handleCommand(ctx, msg, sender, cmd)
		}
		return
	}

	if !l.passGate(ctx, msg, sender) {
		return
	}

	if in := l.classifier.Classify(text); in != nil {
		l.handleIntent(ctx, msg, sender, in)
		return
	}

	if msg.Kind == channel.KindGroup && !l.groupWants(ctx, msg, text) {
		metrics.SuppressedTotal.Inc()
		return
	}

	l.generateReply(ctx, msg, sender, text)
}

// passGate checks membership and sends the denial notice on refusal.
func (l *Loop) passGate(ctx context.Context, msg *channel.Message, sender channel.Sender) bool {
	if l.gate.Allowed(ctx, msg.UserID) {
		return true
	}
	metrics.GateDenialsTotal.Inc()
	l.send(msg, sender, gate.DenialMessage, channel.FormatHTML)
	return false
}

// handleIntent executes a classified remember or forget operation.
func (l *Loop) handleIntent(ctx context.Context, msg *channel.Message, sender channel.Sender, in *intent.Intent) {
	switch in.Kind {
	case intent.KindRemember:
		if err := l.store.SetMemory(ctx, msg.UserID, in.Key, in.Value); err != nil {
			l.logger.Error("memory save failed", "user_id", msg.UserID, "key", in.Key, "error", err)
			return
		}
		metrics.MemoryOperations.WithLabelValues("set").Inc()
		l.send(msg, sender, fmt.Sprintf("Saved 😈 I’ll remember: %s = %s", in.Key, in.Value), channel.FormatPlain)

	case intent.KindForget:
		found, err := l.store.DeleteMemory(ctx, msg.UserID, in.Key)
		if err != nil {
			l.logger.Error("memory delete failed", "user_id", msg.UserID, "key", in.Key, "error", err)
			return
		}
		metrics.MemoryOperations.WithLabelValues("delete").Inc()
		if found {
			l.send(msg, sender, "Deleted ✅", channel.FormatPlain)
		} else {
			l.send(msg, sender, "I didn’t have that saved 😼", channel.FormatPlain)
		}
	}
}

// groupWants applies the chat's reply policy to a group message.
func (l *Loop) groupWants(ctx context.Context, msg *channel.Message, text string) bool {
	raw, err := l.store.GroupMode(ctx, msg.ChatID)
	if err != nil {
		l.logger.Warn("group mode lookup failed, using default", "chat_id", msg.ChatID, "error", err)
		raw = memory.DefaultGroupMode
	}

	mode, err := policy.ParseMode(raw)
	if err != nil {
		mode = policy.ModeMention
	}

	return policy.ShouldReply(mode, text, l.opts.WakeWord, msg.Mentioned, msg.ReplyToBot)
}

// generateReply produces and sends the chat answer. Generation failures
// are logged and counted; the user gets nothing rather than an error dump.
func (l *Loop) generateReply(ctx context.Context, msg *channel.Message, sender channel.Sender, text string) {
	memories, err := l.store.Memories(ctx, msg.UserID)
	if err != nil {
		l.logger.Error("memory load failed", "user_id", msg.UserID, "error", err)
		memories = nil
	}

	start := time.Now()
	out, err := l.generator.Generate(ctx, text, memories)
	metrics.ReplyLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationFailures.Inc()
		l.logger.Error("reply generation failed", "channel", msg.Channel, "error", err)
		return
	}

	l.send(msg, sender, out, channel.FormatPlain)
}

// send delivers one outbound reply into the originating chat.
func (l *Loop) send(msg *channel.Message, sender channel.Sender, content string, format channel.Format) {
	if sender == nil {
		return
	}

	resp := &channel.Response{Content: content, Format: format, ReplyTo: msg.ID}
	if err := sender.SendMessage(msg.ChatID, resp); err != nil {
		l.logger.Error("send failed", "channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
		return
	}
	metrics.RepliesTotal.WithLabelValues(msg.Channel).Inc()
}
