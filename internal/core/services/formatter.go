package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/xerrors"

	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/pkg/geometry"
	"transcript-formatter/internal/ports"
)

var (
	// ErrStructural: документ не содержит обязательных корневых контейнеров.
	ErrStructural = errors.New("document structure is invalid")
	// ErrStrictValidation: в строгом режиме найдено хотя бы одно нарушение.
	ErrStrictValidation = errors.New("document failed strict validation")
)

// FormatterOption: функциональная опция для настройки Formatter.
type FormatterOption func(*Formatter)

// WithStrict включает строгий режим валидации.
func WithStrict(strict bool) FormatterOption {
	return func(f *Formatter) {
		f.strict = strict
	}
}

// WithLogger устанавливает логгер, через который сообщается о нарушениях.
func WithLogger(l *slog.Logger) FormatterOption {
	return func(f *Formatter) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMediaBounds задает рамку, в которую вписываются изображения и видео.
func WithMediaBounds(b geometry.Bounds) FormatterOption {
	return func(f *Formatter) {
		if b.Width > 0 && b.Height > 0 {
			f.bounds = b
		}
	}
}

// WithGroupWindow задает максимальный разрыв между сообщениями одного блока.
func WithGroupWindow(d time.Duration) FormatterOption {
	return func(f *Formatter) {
		if d > 0 {
			f.groupWindow = d
		}
	}
}

// Formatter превращает "сырой" экспорт переписки в документ, готовый к отображению.
// Этапы выполняются в фиксированном порядке: проверка, вложения, объединение
// карточек, разметка карточек, сообщения.
type Formatter struct {
	strict      bool
	bounds      geometry.Bounds
	groupWindow time.Duration
	log         *slog.Logger
}

var _ ports.TranscriptFormatter = (*Formatter)(nil)

// NewFormatter создает Formatter с настройками по умолчанию, которые могут быть
// переопределены опциями.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		bounds:      geometry.DefaultBounds,
		groupWindow: DefaultGroupWindow,
		log:         slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Format проверяет и аннотирует документ. При ошибке частичный результат не возвращается.
// Документ изменяется на месте, поэтому один и тот же документ нельзя
// форматировать одновременно из нескольких горутин.
func (f *Formatter) Format(ctx context.Context, raw domain.RawDocument) (*domain.FormatResult, error) {
	validation := NewValidator(f.strict, f.log).Validate(raw)
	if validation.Fatal {
		return nil, ErrStructural
	}
	if !validation.Valid {
		return nil, xerrors.Errorf("%d warning(s): %w", len(validation.Warnings), ErrStrictValidation)
	}

	doc, err := raw.Decode()
	if err != nil {
		return nil, xerrors.Errorf("failed to decode validated document: %w", err)
	}

	if err := f.Annotate(ctx, doc); err != nil {
		return nil, err
	}

	warnings := validation.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}

	f.log.Debug("Документ отформатирован",
		"ticket", doc.TicketName(),
		"messages", len(doc.Messages),
		"groups", len(doc.GroupedMessages),
		"warnings", len(warnings),
	)

	return &domain.FormatResult{Document: doc, Warnings: warnings}, nil
}

// Annotate выполняет этапы аннотирования над уже разобранным документом.
// Повторный вызов для того же документа не меняет результат.
func (f *Formatter) Annotate(ctx context.Context, doc *domain.Document) error {
	AnnotateAttachments(doc, f.bounds)
	MergeEmbeds(doc)
	AnnotateEmbeds(doc, f.bounds)

	if err := ExtractInvites(ctx, doc); err != nil {
		return xerrors.Errorf("failed to extract invites: %w", err)
	}
	GroupMessages(doc, f.groupWindow)
	return nil
}
