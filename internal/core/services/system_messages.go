package services

import (
	"fmt"
	"strconv"
	"strings"

	"transcript-formatter/internal/domain"
)

// discordEpoch: начало отсчета snowflake-идентификаторов в миллисекундах.
const discordEpoch = 1420070400000

// welcomeTemplates: варианты приветствия нового участника. %user% заменяется на автора.
var welcomeTemplates = []string{
	"<@%user%> joined the party.",
	"<@%user%> is here.",
	"Welcome, <@%user%>. We hope you brought pizza.",
	"A wild <@%user%> appeared.",
	"<@%user%> just landed.",
	"<@%user%> just slid into the server.",
	"<@%user%> just showed up!",
	"Welcome <@%user%>. Say hi!",
	"<@%user%> hopped into the server.",
	"Everyone welcome <@%user%>!",
	"Glad you're here, <@%user%>.",
	"Good to see you, <@%user%>.",
	"Yay you made it, <@%user%>!",
}

// SynthesizeSystemText заменяет текст системного сообщения каноническим описанием события.
// Повторный вызов для того же сообщения ничего не меняет.
func SynthesizeSystemText(msg *domain.Message) {
	if !msg.IsSystem() || msg.Synthesized() {
		return
	}
	msg.MarkSynthesized()

	if text, ok := systemText(msg); ok {
		msg.Content = text
	}
}

// systemText возвращает текст для системного типа. Для неизвестных типов ok == false.
func systemText(msg *domain.Message) (string, bool) {
	mention := fmt.Sprintf("<@%s>", msg.Author)

	switch msg.Type {
	case domain.MessageTypeRecipientAdd:
		return mention + " added someone.", true
	case domain.MessageTypeRecipientRemove:
		return mention + " removed someone.", true
	case domain.MessageTypeCall:
		return mention + " started a call.", true
	case domain.MessageTypeChannelNameChange:
		return mention + " changed the channel name: " + msg.Content, true
	case domain.MessageTypeChannelIconChange:
		return mention + " changed the channel icon.", true
	case domain.MessageTypeChannelPinnedMsg:
		return mention + " pinned a message to this channel.", true
	case domain.MessageTypeGuildMemberJoin:
		return WelcomeMessage(msg.ID, msg.Author), true
	case domain.MessageTypeGuildBoost:
		if msg.Content != "" {
			return fmt.Sprintf("%s just boosted the server %s times!", mention, msg.Content), true
		}
		return mention + " just boosted the server!", true
	case domain.MessageTypeGuildBoostTier1, domain.MessageTypeGuildBoostTier2, domain.MessageTypeGuildBoostTier3:
		level := int(msg.Type - domain.MessageTypeGuildBoost)
		if msg.Content != "" {
			return fmt.Sprintf("%s just boosted the server %s times! This server has achieved **Level %d!**", mention, msg.Content, level), true
		}
		return fmt.Sprintf("%s just boosted the server! This server has achieved **Level %d!**", mention, level), true
	case domain.MessageTypeChannelFollowAdd:
		return fmt.Sprintf("%s has added %s to this channel", mention, msg.Content), true
	case domain.MessageTypeDiscoveryDisqualify:
		return "This server has been removed from Server Discovery because it no longer passes all the requirements. Check Server Settings for more details.", true
	case domain.MessageTypeDiscoveryRequalify:
		return "This server is eligible for Server Discovery again and has been automatically relisted!", true
	default:
		return "", false
	}
}

// WelcomeMessage детерминированно выбирает приветствие по времени создания,
// закодированному в snowflake-идентификаторе сообщения.
// Нечисловой идентификатор считается нулевым.
func WelcomeMessage(messageID, author string) string {
	id, err := strconv.ParseUint(messageID, 10, 64)
	if err != nil {
		id = 0
	}

	created := (id >> 22) + discordEpoch
	template := welcomeTemplates[created%uint64(len(welcomeTemplates))]
	return strings.ReplaceAll(template, "%user%", author)
}
