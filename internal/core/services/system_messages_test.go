package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"transcript-formatter/internal/domain"
)

func TestWelcomeMessage(t *testing.T) {
	testCases := []struct {
		name string
		id   string
		want string
	}{
		{"нулевой идентификатор", "0", "<@42> just slid into the server."},
		{"первый шаблон", "81384788765712384", "<@42> joined the party."},
		{"последний шаблон", "175928847299117063", "Good to see you, <@42>."},
		{"большой идентификатор", "1234567890123456789", "<@42> is here."},
		{"нечисловой идентификатор", "abc", "<@42> just slid into the server."},
		{"пустой идентификатор", "", "<@42> just slid into the server."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WelcomeMessage(tc.id, "42"))
		})
	}
}

func TestSynthesizeSystemText(t *testing.T) {
	testCases := []struct {
		name    string
		msgType domain.MessageType
		content string
		want    string
	}{
		{"добавление участника", domain.MessageTypeRecipientAdd, "", "<@7> added someone."},
		{"удаление участника", domain.MessageTypeRecipientRemove, "", "<@7> removed someone."},
		{"звонок", domain.MessageTypeCall, "", "<@7> started a call."},
		{"смена названия", domain.MessageTypeChannelNameChange, "support", "<@7> changed the channel name: support"},
		{"смена иконки", domain.MessageTypeChannelIconChange, "", "<@7> changed the channel icon."},
		{"закрепление", domain.MessageTypeChannelPinnedMsg, "", "<@7> pinned a message to this channel."},
		{"вступление", domain.MessageTypeGuildMemberJoin, "", "<@7> just slid into the server."},
		{"буст", domain.MessageTypeGuildBoost, "", "<@7> just boosted the server!"},
		{"буст несколько раз", domain.MessageTypeGuildBoost, "3", "<@7> just boosted the server 3 times!"},
		{"уровень 1", domain.MessageTypeGuildBoostTier1, "", "<@7> just boosted the server! This server has achieved **Level 1!**"},
		{"уровень 2 несколько раз", domain.MessageTypeGuildBoostTier2, "2", "<@7> just boosted the server 2 times! This server has achieved **Level 2!**"},
		{"уровень 3", domain.MessageTypeGuildBoostTier3, "", "<@7> just boosted the server! This server has achieved **Level 3!**"},
		{"подписка на канал", domain.MessageTypeChannelFollowAdd, "news", "<@7> has added news to this channel"},
		{
			"исключение из каталога", domain.MessageTypeDiscoveryDisqualify, "",
			"This server has been removed from Server Discovery because it no longer passes all the requirements. Check Server Settings for more details.",
		},
		{
			"возврат в каталог", domain.MessageTypeDiscoveryRequalify, "",
			"This server is eligible for Server Discovery again and has been automatically relisted!",
		},
		{"неизвестный тип", domain.MessageType(13), "как есть", "как есть"},
		{"обычное сообщение", domain.MessageTypeDefault, "hello", "hello"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &domain.Message{ID: "0", Author: "7", Type: tc.msgType, Content: tc.content}
			SynthesizeSystemText(msg)
			assert.Equal(t, tc.want, msg.Content)
			assert.Equal(t, msg.IsSystem(), msg.Synthesized())
		})
	}

	t.Run("повторный вызов не меняет текст", func(t *testing.T) {
		msg := &domain.Message{Author: "7", Type: domain.MessageTypeChannelNameChange, Content: "support"}

		SynthesizeSystemText(msg)
		SynthesizeSystemText(msg)

		assert.Equal(t, "<@7> changed the channel name: support", msg.Content)
	})
}
