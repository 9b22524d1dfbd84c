package discord

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cortexhub/mnemo/internal/channel"
)

type DiscordAdapter struct {
	token    string
	session  *discordgo.Session
	selfID   string
	incoming chan *channel.Message
	logger   *slog.Logger
}

func NewDiscordAdapter(token string, logger *slog.Logger) *DiscordAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordAdapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
		logger:   logger,
	}
}

func (d *DiscordAdapter) Name() string {
	return "discord"
}

func (d *DiscordAdapter) IsEnabled() bool {
	return d.token != ""
}

func (d *DiscordAdapter) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return err
	}
	d.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if msg := d.convert(m); msg != nil {
			d.incoming <- msg
		}
	})
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	if err := session.Open(); err != nil {
		return err
	}
	if session.State != nil && session.State.User != nil {
		d.selfID = session.State.User.ID
	}
	d.logger.Info("discord connected")

	go func() {
		<-ctx.Done()
		session.Close()
	}()
	return nil
}

func (d *DiscordAdapter) Stop() error {
	if d.session != nil {
		d.session.Close()
	}
	close(d.incoming)
	return nil
}

// convert maps a Discord message onto the channel message shape. Guild
// messages become group kind so the reply policy applies; DMs stay direct.
func (d *DiscordAdapter) convert(m *discordgo.MessageCreate) *channel.Message {
	if m.Content == "" {
		return nil
	}

	kind := channel.KindDirect
	if m.GuildID != "" {
		kind = channel.KindGroup
	}

	replyToBot := m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil &&
		d.selfID != "" && m.ReferencedMessage.Author.ID == d.selfID

	return &channel.Message{
		ID:         m.ID,
		Channel:    "discord",
		ChatID:     m.ChannelID,
		UserID:     m.Author.ID,
		Username:   m.Author.Username,
		Text:       m.Content,
		Kind:       kind,
		Mentioned:  d.isMentioned(m.Mentions),
		ReplyToBot: replyToBot,
		Metadata:   map[string]string{"guild_id": m.GuildID},
		Timestamp:  m.Timestamp.Unix(),
	}
}

func (d *DiscordAdapter) SendMessage(chatID string, resp *channel.Response) error {
	content := resp.Content
	if resp.Format == channel.FormatHTML {
		content = htmlToMarkdown(content)
	}
	send := &discordgo.MessageSend{Content: content}
	if resp.ReplyTo != "" {
		send.Reference = &discordgo.MessageReference{MessageID: resp.ReplyTo, ChannelID: chatID}
	}
	_, err := d.session.ChannelMessageSendComplex(chatID, send)
	return err
}

func (d *DiscordAdapter) Incoming() <-chan *channel.Message {
	return d.incoming
}

func (d *DiscordAdapter) isMentioned(mentions []*discordgo.User) bool {
	for _, mention := range mentions {
		if d.selfID != "" && mention.ID == d.selfID {
			return true
		}
	}
	return false
}

var htmlReplacer = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<i>", "*", "</i>", "*",
	"<code>", "`", "</code>", "`",
)

// htmlToMarkdown rewrites the small HTML vocabulary used for Telegram
// replies into Discord markdown.
func htmlToMarkdown(s string) string {
	return htmlReplacer.Replace(s)
}
