package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"transcript-formatter/internal/adapters/source"
	"transcript-formatter/internal/cache"
	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/pkg/config"
	"transcript-formatter/internal/ports"
)

// FormatTranscriptUseCase инкапсулирует бизнес-логику форматирования файла транскрипта.
type FormatTranscriptUseCase struct {
	cfg        *config.Config
	parser     ports.Parser
	formatter  ports.TranscriptFormatter
	cacheStore *cache.CacheStore
}

// NewFormatTranscriptUseCase создает новый экземпляр FormatTranscriptUseCase.
func NewFormatTranscriptUseCase(
	cfg *config.Config,
	parser ports.Parser,
	formatter ports.TranscriptFormatter,
	cacheStore *cache.CacheStore,
) *FormatTranscriptUseCase {
	return &FormatTranscriptUseCase{
		cfg:        cfg,
		parser:     parser,
		formatter:  formatter,
		cacheStore: cacheStore,
	}
}

// FormatTranscript читает, разбирает и форматирует файл транскрипта.
// Результат кешируется по хешу содержимого файла.
func (uc *FormatTranscriptUseCase) FormatTranscript(ctx context.Context, filePath string) (*domain.FormatResult, error) {
	data, err := source.NewCliSource(filePath).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные из %s: %w", filePath, err)
	}

	fileHash, err := cache.CalculateHash(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("не удалось вычислить хеш файла %s: %w", filePath, err)
	}

	if cachedItem, found := uc.cacheStore.Get(fileHash); found {
		slog.Info("Попадание в кеш для файла", "hash", fileHash)
		return cachedItem.Result, nil
	}

	slog.Info("Обработка файла", "path", filePath, "hash", fileHash)

	raw, err := uc.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать данные из %s: %w", filePath, err)
	}

	result, err := uc.formatter.Format(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("не удалось отформатировать транскрипт: %w", err)
	}

	ttl := uc.cfg.Processing.CacheTTL
	uc.cacheStore.Put(fileHash, result, ttl)
	slog.Info("Результат кеширован", "hash", fileHash, "ttl", ttl.String())

	slog.Info("Форматирование успешно завершено",
		"ticket", result.Document.TicketName(),
		"messages", len(result.Document.Messages),
		"warnings", len(result.Warnings),
	)
	return result, nil
}
