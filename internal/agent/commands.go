package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cortexhub/mnemo/internal/channel"
	"github.com/cortexhub/mnemo/internal/metrics"
	"github.com/cortexhub/mnemo/internal/policy"
)

const (
	welcomeMessage = "🎉WELCOME OUR BOT\nType anything & I’ll reply 😈"
	noDataMessage  = "I have no memory saved for you yet. Use /remember key=value 😈"
	modeUsage      = "Usage: /mode mention  OR  /mode always"
	rememberUsage  = "Usage: /remember key=value"
	forgetUsage    = "Usage: /forget key"
)

// commandRe matches a leading /name, an optional @BotName suffix, and the
// argument tail (which may span lines).
var commandRe = regexp.MustCompile(`(?s)^/(\w+)(?:@(\w+))?(?:\s+(.*))?$`)

type command struct {
	name string
	args string
	// mine is false when the command is addressed to a different bot, as
	// happens in groups shared with other bots.
	mine bool
}

// parseCommand recognizes a command-shaped message. Text starting with "/"
// that does not form a command (for example "/ hello") is plain chat.
func (l *Loop) parseCommand(text string) (*command, bool) {
	m := commandRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	cmd := &command{
		name: strings.ToLower(m[1]),
		args: strings.TrimSpace(m[3]),
		mine: true,
	}
	if m[2] != "" {
		cmd.mine = strings.EqualFold(m[2], l.opts.BotUsername)
	}
	return cmd, true
}

// handleCommand routes a recognized command. Gate rules differ per
// command: /help and /mode answer everyone, the rest require membership.
// Unknown commands are some other bot's business and get no reply.
func (l *Loop) handleCommand(ctx context.Context, msg *channel.Message, sender channel.Sender, cmd *command) {
	switch cmd.name {
	case "start":
		if !l.passGate(ctx, msg, sender) {
			return
		}
		l.send(msg, sender, welcomeMessage, channel.FormatPlain)

	case "help":
		l.send(msg, sender, l.helpMessage(), channel.FormatPlain)

	case "mydata":
		if !l.passGate(ctx, msg, sender) {
			return
		}
		l.handleMyData(ctx, msg, sender)

	case "mode":
		l.handleMode(ctx, msg, sender, cmd.args)

	case "remember", "forget":
		if !l.passGate(ctx, msg, sender) {
			return
		}
		// Re-run the bare command form through the classifier so
		// /remember@BotName still parses.
		if in := l.classifier.Classify("/" + cmd.name + " " + cmd.args); in != nil {
			l.handleIntent(ctx, msg, sender, in)
			return
		}
		if cmd.name == "remember" {
			l.send(msg, sender, rememberUsage, channel.FormatPlain)
		} else {
			l.send(msg, sender, forgetUsage, channel.FormatPlain)
		}
	}
}

func (l *Loop) helpMessage() string {
	return fmt.Sprintf("Commands:\n"+
		"/start - start\n"+
		"/help - help\n"+
		"/remember key=value - save memory\n"+
		"/mydata - view your saved memory\n"+
		"/forget key - delete one memory\n\n"+
		"Group mode:\n"+
		"/mode mention  (default: reply only if you say '%s' or reply to me)\n"+
		"/mode always   (I reply to everyone)\n", l.opts.WakeWord)
}

func (l *Loop) handleMyData(ctx context.Context, msg *channel.Message, sender channel.Sender) {
	entries, err := l.store.Memories(ctx, msg.UserID)
	if err != nil {
		l.logger.Error("memory load failed", "user_id", msg.UserID, "error", err)
		return
	}

	if len(entries) == 0 {
		l.send(msg, sender, noDataMessage, channel.FormatPlain)
		return
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("- %s = %s", e.Key, e.Value)
	}
	l.send(msg, sender, "Here’s what I remember:\n"+strings.Join(lines, "\n"), channel.FormatPlain)
}

// handleMode changes a group's reply mode. Group-only; owner-only when an
// owner is configured. Invalid input leaves the stored mode untouched.
func (l *Loop) handleMode(ctx context.Context, msg *channel.Message, sender channel.Sender, args string) {
	if msg.Kind != channel.KindGroup {
		l.send(msg, sender, "This command is for groups only.", channel.FormatPlain)
		return
	}

	if l.opts.OwnerID != "" && msg.UserID != l.opts.OwnerID {
		l.send(msg, sender, "Only owner can change group mode 😈", channel.FormatPlain)
		return
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		l.send(msg, sender, modeUsage, channel.FormatPlain)
		return
	}

	mode, err := policy.ParseMode(fields[0])
	if err != nil {
		l.send(msg, sender, modeUsage, channel.FormatPlain)
		return
	}

	if err := l.store.SetGroupMode(ctx, msg.ChatID, string(mode)); err != nil {
		l.logger.Error("group mode save failed", "chat_id", msg.ChatID, "error", err)
		return
	}
	metrics.MemoryOperations.WithLabelValues("mode").Inc()
	l.send(msg, sender, fmt.Sprintf("Group mode set to: %s ✅", mode), channel.FormatPlain)
}
