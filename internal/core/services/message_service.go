package services

import (
	"context"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"transcript-formatter/internal/domain"
)

// DefaultGroupWindow: максимальный разрыв между сообщениями одного автора в одном блоке.
const DefaultGroupWindow = 420000 * time.Millisecond

// inviteRegexp ищет ссылки-приглашения вида discord.gg/<код>.
var inviteRegexp = regexp.MustCompile(`(?: |^)(?:https?://)?discord\.gg/([a-zA-Z0-9-]+)`)

// extractInvites возвращает коды всех приглашений в тексте. Результат не nil.
func extractInvites(content string) []string {
	invites := []string{}
	for _, match := range inviteRegexp.FindAllStringSubmatch(content, -1) {
		invites = append(invites, match[1])
	}
	return invites
}

// ExtractInvites заполняет Invites у сообщений с текстом. Каждое сообщение
// обрабатывается в отдельной горутине: извлечение затрагивает только свое сообщение.
// Сообщения с уже сгенерированным системным текстом не пересчитываются.
func ExtractInvites(ctx context.Context, doc *domain.Document) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, msg := range doc.Messages {
		if msg.Content == "" || msg.Synthesized() {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg.Invites = extractInvites(msg.Content)
			return nil
		})
	}
	return g.Wait()
}

// GroupMessages синтезирует системные тексты и собирает последовательные
// сообщения в визуальные блоки.
func GroupMessages(doc *domain.Document, window time.Duration) {
	windowMillis := window.Milliseconds()
	groups := [][]*domain.Message{}

	for _, msg := range doc.Messages {
		SynthesizeSystemText(msg)

		var last *domain.Message
		if n := len(groups); n > 0 {
			group := groups[n-1]
			last = group[len(group)-1]
		}

		if startsGroup(last, msg, windowMillis) {
			groups = append(groups, []*domain.Message{})
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], msg)
	}

	doc.GroupedMessages = groups
}

// startsGroup сообщает, должно ли сообщение начать новый блок.
// Подряд идущие системные сообщения остаются в одном блоке.
func startsGroup(last, msg *domain.Message, windowMillis int64) bool {
	switch {
	case last == nil, msg.Deleted, last.Deleted:
		return true
	case last.IsSystem() && msg.IsSystem():
		return false
	case last.IsSystem() != msg.IsSystem():
		return true
	default:
		return msg.Author != last.Author || msg.Time-last.Time > windowMillis
	}
}
