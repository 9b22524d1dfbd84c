// Package policy decides whether the bot speaks up in a group chat.
package policy

import (
	"fmt"
	"strings"
)

// Mode controls when the bot replies in a group.
type Mode string

const (
	// ModeMention replies only when the bot is addressed.
	ModeMention Mode = "mention"
	// ModeAlways replies to every message.
	ModeAlways Mode = "always"
)

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMention:
		return ModeMention, nil
	case ModeAlways:
		return ModeAlways, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ShouldReply reports whether a group message warrants a reply under the
// given mode. The wake word is matched as a case-insensitive substring.
// mentioned and replyToBot are platform signals: an explicit @-mention of
// the bot, or a reply to one of the bot's own messages.
func ShouldReply(mode Mode, text, wakeWord string, mentioned, replyToBot bool) bool {
	if mode == ModeAlways {
		return true
	}
	if mentioned || replyToBot {
		return true
	}
	if wakeWord == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(wakeWord))
}
