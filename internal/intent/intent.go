// Package intent provides rule-based extraction of memory commands from
// chat text.
package intent

import (
	"regexp"
	"strings"
)

// Kind labels what a matched intent asks the bot to do.
type Kind string

const (
	KindRemember Kind = "remember"
	KindForget   Kind = "forget"
)

// Intent is one extracted memory operation. Key is lowercased, Value is
// trimmed; Value is empty for forget intents.
type Intent struct {
	Kind  Kind
	Key   string
	Value string
}

// Pattern is one rule in the matcher list. The regexp's first capture group
// is the key; for remember rules the second group is the value.
type Pattern struct {
	ID       string
	Kind     Kind
	Regex    *regexp.Regexp
	HasValue bool
}

// Classifier matches message text against an ordered pattern list. The
// first matching pattern wins, so explicit command forms sit ahead of the
// looser natural-language forms, and remember rules ahead of forget rules.
type Classifier struct {
	patterns []Pattern
}

// New returns a classifier with the default pattern set.
func New() *Classifier {
	return &Classifier{patterns: defaultPatterns()}
}

func defaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:       "remember_command",
			Kind:     KindRemember,
			Regex:    regexp.MustCompile(`(?i)^/remember\s+([A-Za-z0-9_-]{1,32})\s*=\s*(.{1,200})$`),
			HasValue: true,
		},
		{
			ID:       "remember_my",
			Kind:     KindRemember,
			Regex:    regexp.MustCompile(`(?i)\bremember\b\s+(?:that\s+)?my\s+([A-Za-z0-9_-]{1,32})\s+(?:is|=)\s+(.{1,200})`),
			HasValue: true,
		},
		{
			ID:       "remember_pair",
			Kind:     KindRemember,
			Regex:    regexp.MustCompile(`(?i)\bremember\b\s+([A-Za-z0-9_-]{1,32})\s*[:=]\s*(.{1,200})`),
			HasValue: true,
		},
		{
			ID:    "forget_command",
			Kind:  KindForget,
			Regex: regexp.MustCompile(`(?i)^/forget\s+([A-Za-z0-9_-]{1,32})$`),
		},
		{
			ID:    "forget_my",
			Kind:  KindForget,
			Regex: regexp.MustCompile(`(?i)\bforget\b\s+my\s+([A-Za-z0-9_-]{1,32})\b`),
		},
	}
}

// Classify returns the first matching memory intent, or nil when the text
// carries none and should be treated as plain chat.
func (c *Classifier) Classify(text string) *Intent {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	for _, p := range c.patterns {
		m := p.Regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		in := &Intent{Kind: p.Kind, Key: strings.ToLower(m[1])}
		if p.HasValue {
			in.Value = strings.TrimSpace(m[2])
		}
		return in
	}
	return nil
}
