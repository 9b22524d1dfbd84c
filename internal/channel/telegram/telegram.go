package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cortexhub/mnemo/internal/channel"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Options selects the update transport. Polling pulls updates over
// getUpdates; otherwise updates arrive through WebhookHandler, and a
// non-empty WebhookURL makes the adapter register itself with Telegram.
type Options struct {
	Token       string
	Polling     bool
	WebhookURL  string
	WebhookPath string
	Secret      string
}

type TelegramAdapter struct {
	opts     Options
	bot      *tgbotapi.BotAPI
	selfID   int64
	username string
	incoming chan *channel.Message
	logger   *slog.Logger
}

func NewTelegramAdapter(opts Options, logger *slog.Logger) *TelegramAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WebhookPath == "" {
		opts.WebhookPath = "/webhook"
	}
	return &TelegramAdapter{
		opts:     opts,
		incoming: make(chan *channel.Message, 100),
		logger:   logger,
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) IsEnabled() bool {
	return t.opts.Token != ""
}

// Username reports the bot's own @name, known after Start.
func (t *TelegramAdapter) Username() string {
	return t.username
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.opts.Token)
	if err != nil {
		return fmt.Errorf("telegram login failed: %w", err)
	}
	t.bot = bot
	t.selfID = bot.Self.ID
	t.username = bot.Self.UserName
	t.logger.Info("telegram connected", "username", t.username)

	if !t.opts.Polling {
		if t.opts.WebhookURL != "" {
			return t.registerWebhook()
		}
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for update := range updates {
			t.enqueue(&update)
		}
	}()
	return nil
}

// registerWebhook points Telegram at WebhookURL+WebhookPath. setWebhook is
// called raw because WebhookConfig carries no secret_token field.
func (t *TelegramAdapter) registerWebhook() error {
	link := strings.TrimRight(t.opts.WebhookURL, "/") + t.opts.WebhookPath
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", link)
	params.AddNonEmpty("secret_token", t.opts.Secret)
	if _, err := t.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	t.logger.Info("webhook registered", "url", link)
	return nil
}

func (t *TelegramAdapter) Stop() error {
	if t.bot != nil && t.opts.Polling {
		t.bot.StopReceivingUpdates()
	}
	close(t.incoming)
	return nil
}

func (t *TelegramAdapter) Incoming() <-chan *channel.Message {
	return t.incoming
}

// WebhookHandler accepts update POSTs from Telegram. Requests lacking the
// configured secret token are rejected before the body is read.
func (t *TelegramAdapter) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if t.opts.Secret != "" && r.Header.Get(secretTokenHeader) != t.opts.Secret {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		t.enqueue(&update)
		w.WriteHeader(http.StatusOK)
	})
}

func (t *TelegramAdapter) enqueue(update *tgbotapi.Update) {
	msg := t.convert(update)
	if msg == nil {
		return
	}
	t.incoming <- msg
}

// convert maps a Telegram update onto the channel message shape. Updates
// without text (stickers, joins, edits) are dropped.
func (t *TelegramAdapter) convert(update *tgbotapi.Update) *channel.Message {
	m := update.Message
	if m == nil || m.Chat == nil {
		return nil
	}
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if text == "" {
		return nil
	}

	kind := channel.KindDirect
	if m.Chat.IsGroup() || m.Chat.IsSuperGroup() {
		kind = channel.KindGroup
	}

	userID := m.Chat.ID
	username := ""
	if m.From != nil {
		userID = m.From.ID
		username = m.From.UserName
	}

	mentioned := t.username != "" &&
		strings.Contains(strings.ToLower(text), "@"+strings.ToLower(t.username))
	replyToBot := m.ReplyToMessage != nil && m.ReplyToMessage.From != nil &&
		m.ReplyToMessage.From.ID == t.selfID

	return &channel.Message{
		ID:         strconv.Itoa(m.MessageID),
		Channel:    "telegram",
		ChatID:     strconv.FormatInt(m.Chat.ID, 10),
		UserID:     strconv.FormatInt(userID, 10),
		Username:   username,
		Text:       text,
		Kind:       kind,
		Mentioned:  mentioned,
		ReplyToBot: replyToBot,
		Metadata:   map[string]string{"chat_type": m.Chat.Type},
		Timestamp:  int64(m.Date),
	}
}

func (t *TelegramAdapter) SendMessage(chatID string, resp *channel.Response) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id %q: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(id, resp.Content)
	if resp.Format == channel.FormatHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if resp.ReplyTo != "" {
		if replyID, err := strconv.Atoi(resp.ReplyTo); err == nil {
			msg.ReplyToMessageID = replyID
		}
	}
	_, err = t.bot.Send(msg)
	return err
}

// CheckMembership looks up the user's standing in the required channel,
// addressed either as @name or as a -100 style chat id.
func (t *TelegramAdapter) CheckMembership(ctx context.Context, channelRef, userID string) (string, error) {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("bad user id %q: %w", userID, err)
	}
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: uid},
	}
	if strings.HasPrefix(channelRef, "@") {
		cfg.SuperGroupUsername = channelRef
	} else {
		chatID, err := strconv.ParseInt(channelRef, 10, 64)
		if err != nil {
			return "", fmt.Errorf("bad channel ref %q: %w", channelRef, err)
		}
		cfg.ChatID = chatID
	}
	member, err := t.bot.GetChatMember(cfg)
	if err != nil {
		return "", err
	}
	return member.Status, nil
}
