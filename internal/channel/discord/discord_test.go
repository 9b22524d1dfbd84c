package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexhub/mnemo/internal/channel"
)

func newTestAdapter() *DiscordAdapter {
	a := NewDiscordAdapter("token", nil)
	a.selfID = "bot-1"
	return a
}

func TestName(t *testing.T) {
	adapter := newTestAdapter()
	assert.Equal(t, "discord", adapter.Name())
	assert.True(t, adapter.IsEnabled())
	assert.False(t, NewDiscordAdapter("", nil).IsEnabled())
}

func messageCreate(content, guildID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m-1",
		ChannelID: "c-1",
		GuildID:   guildID,
		Content:   content,
		Author:    &discordgo.User{ID: "u-1", Username: "pain"},
		Timestamp: time.Unix(1700000000, 0),
	}}
}

func TestConvert(t *testing.T) {
	adapter := newTestAdapter()

	t.Run("dm is direct", func(t *testing.T) {
		msg := adapter.convert(messageCreate("hello", ""))
		require.NotNil(t, msg)
		assert.Equal(t, channel.KindDirect, msg.Kind)
		assert.Equal(t, "c-1", msg.ChatID)
		assert.Equal(t, "u-1", msg.UserID)
		assert.Equal(t, "hello", msg.Text)
	})

	t.Run("guild message is group", func(t *testing.T) {
		msg := adapter.convert(messageCreate("hello", "g-1"))
		require.NotNil(t, msg)
		assert.Equal(t, channel.KindGroup, msg.Kind)
		assert.Equal(t, "g-1", msg.Metadata["guild_id"])
	})

	t.Run("mention flag", func(t *testing.T) {
		m := messageCreate("hey bot", "g-1")
		m.Mentions = []*discordgo.User{{ID: "bot-1"}}
		msg := adapter.convert(m)
		require.NotNil(t, msg)
		assert.True(t, msg.Mentioned)
	})

	t.Run("reply to the bot", func(t *testing.T) {
		m := messageCreate("and you?", "g-1")
		m.ReferencedMessage = &discordgo.Message{Author: &discordgo.User{ID: "bot-1"}}
		msg := adapter.convert(m)
		require.NotNil(t, msg)
		assert.True(t, msg.ReplyToBot)
	})

	t.Run("empty content dropped", func(t *testing.T) {
		assert.Nil(t, adapter.convert(messageCreate("", "g-1")))
	})
}

func TestHTMLToMarkdown(t *testing.T) {
	in := "🚨 <b>MUST JOIN OUR CHANNEL</b>\nJoin first, then message me again."
	assert.Equal(t, "🚨 **MUST JOIN OUR CHANNEL**\nJoin first, then message me again.", htmlToMarkdown(in))
}
