package log

import (
	"context"
	"log/slog"
	"regexp"
)

// TokenMaskerHandler - обертка для slog.Handler, которая маскирует токены в логах
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает новый обработчик с маскировкой токенов
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{
		handler: handler,
	}
}

const tokenMask = "***masked-token***"

var (
	// webhookRegex находит секретную часть ссылки на вебхук: /api/webhooks/<id>/<token>
	webhookRegex = regexp.MustCompile(`(discord(?:app)?\.com/api/webhooks/\d+/)[A-Za-z0-9_-]+`)
	// botTokenRegex находит токены ботов: <base64 id>.<timestamp>.<hmac>
	botTokenRegex = regexp.MustCompile(`\b[MN][A-Za-z0-9_-]{23,27}\.[A-Za-z0-9_-]{6}\.[A-Za-z0-9_-]{27,38}\b`)
)

// maskTokens заменяет найденные токены на маску
func maskTokens(text string) string {
	text = webhookRegex.ReplaceAllString(text, "${1}"+tokenMask)
	return botTokenRegex.ReplaceAllString(text, tokenMask)
}

// Enabled реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Новая запись без атрибутов: Clone() скопировал бы их вместе с токенами.
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{
			Key:   a.Key,
			Value: maskAttributeValue(a.Value),
		})
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = slog.Attr{
			Key:   attr.Key,
			Value: maskAttributeValue(attr.Value),
		}
	}
	return &TokenMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		// Это основной фикс: мы проверяем, не является ли значение ошибкой.
		// Если да, то преобразуем ошибку в строку и маскируем ее.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = slog.Attr{
				Key:   attr.Key,
				Value: maskAttributeValue(attr.Value),
			}
		}
		return slog.GroupValue(maskedGroup...)
	default:
		// Для других типов возвращаем оригинальное значение
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой токенов
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}
