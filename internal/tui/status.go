package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cortexhub/mnemo/internal/memory"
)

type Status struct {
	info  Info
	stats memory.Stats
}

func NewStatus(info Info) *Status {
	return &Status{info: info}
}

func (s *Status) Init() tea.Cmd {
	return nil
}

func (s *Status) SetStats(stats memory.Stats) {
	s.stats = stats
}

func (s *Status) View(width, height int) string {
	gate := "off"
	if s.info.GateOn {
		gate = "on"
	}
	content := fmt.Sprintf(
		"Bot: %s\nWake word: %s\nGenerator: %s\nGate: %s\nDB: %s\n\nMemories: %d\nGroup modes: %d",
		s.info.BotName,
		s.info.WakeWord,
		s.info.Generator,
		gate,
		s.info.DBPath,
		s.stats.Memories,
		s.stats.GroupModes,
	)
	return StatusPanelStyle.Width(width).Height(height).Render(content)
}
