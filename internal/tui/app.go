package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cortexhub/mnemo/internal/agent"
	"github.com/cortexhub/mnemo/internal/channel"
	"github.com/cortexhub/mnemo/internal/memory"
)

type Panel int

const (
	StatusPanel Panel = iota
	ActivityPanel
)

// Info carries the static facts shown in the status panel.
type Info struct {
	BotName   string
	WakeWord  string
	Generator string
	GateOn    bool
	DBPath    string
}

// App is the local console: a chat pane wired straight into the agent loop,
// bypassing the network channels.
type App struct {
	width, height int
	currentPanel  Panel
	chat          *Chat
	status        *Status
	activity      *Activity
	input         *Input
	keys          KeyMap

	loop    *agent.Loop
	store   memory.Store
	info    Info
	msgSeq  int
	waiting bool
}

type repliesMsg []string

type statsMsg memory.Stats

// collectSender gathers loop output for the current exchange.
type collectSender struct {
	replies []string
}

func (c *collectSender) SendMessage(chatID string, resp *channel.Response) error {
	c.replies = append(c.replies, resp.Content)
	return nil
}

func NewApp(info Info, loop *agent.Loop, store memory.Store) *App {
	return &App{
		currentPanel: StatusPanel,
		chat:         NewChat(info.BotName),
		status:       NewStatus(info),
		activity:     NewActivity(),
		input:        NewInput(info.BotName),
		keys:         DefaultKeyMap,
		loop:         loop,
		store:        store,
		info:         info,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.chat.Init(), a.status.Init(), a.activity.Init(), a.input.Init(), a.refreshStats())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Tab):
			a.currentPanel = (a.currentPanel + 1) % 2
		case msg.String() == "enter":
			if text := a.input.Value(); text != "" && !a.waiting {
				a.chat.AddMessage("you", text)
				a.input.Reset()
				a.waiting = true
				return a, a.exchange(text)
			}
		}
	case repliesMsg:
		a.waiting = false
		if len(msg) == 0 {
			a.activity.AddEvent("info", "no reply")
		}
		for _, r := range msg {
			a.chat.AddMessage(a.info.BotName, r)
		}
		cmds = append(cmds, a.refreshStats())
	case statsMsg:
		a.status.SetStats(memory.Stats(msg))
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	a.activity, cmd = a.activity.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// exchange runs one message through the loop off the UI goroutine.
func (a *App) exchange(text string) tea.Cmd {
	a.msgSeq++
	msg := &channel.Message{
		ID:        strconv.Itoa(a.msgSeq),
		Channel:   "console",
		ChatID:    "console",
		UserID:    "console",
		Username:  "console",
		Text:      text,
		Kind:      channel.KindDirect,
		Timestamp: time.Now().Unix(),
	}
	loop := a.loop
	return func() tea.Msg {
		sender := &collectSender{}
		loop.Process(context.Background(), msg, sender)
		return repliesMsg(sender.replies)
	}
}

func (a *App) refreshStats() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		stats, err := store.Stats(ctx)
		if err != nil {
			return statsMsg{}
		}
		return statsMsg(stats)
	}
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	statusBar := a.statusBarView()
	inputBar := a.input.View()

	contentHeight := a.height - lipgloss.Height(statusBar) - lipgloss.Height(inputBar)

	leftWidth := int(float64(a.width) * 0.7)
	rightWidth := a.width - leftWidth

	chatView := a.chat.View(leftWidth, contentHeight)
	var rightView string
	switch a.currentPanel {
	case ActivityPanel:
		rightView = a.activity.View(rightWidth, contentHeight)
	default:
		rightView = a.status.View(rightWidth, contentHeight)
	}

	layout := lipgloss.JoinHorizontal(lipgloss.Top, chatView, rightView)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, layout, inputBar)
}

func (a *App) statusBarView() string {
	state := "ready"
	if a.waiting {
		state = "thinking…"
	}
	return StatusBarStyle.Width(a.width).Render(
		fmt.Sprintf("%s console | %s | tab: panels, ctrl+c: quit", a.info.BotName, state))
}

// Run starts the console program and blocks until quit.
func Run(app *App) error {
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
