package ports

import (
	"context"

	"transcript-formatter/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных транскрипта.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для разбора данных транскрипта.
type Parser interface {
	// Parse преобразует сырые данные в JSON-дерево, пригодное для валидации.
	Parse(data []byte) (domain.RawDocument, error)
}

// TranscriptFormatter определяет интерфейс конвейера форматирования.
type TranscriptFormatter interface {
	// Format проверяет документ и возвращает его аннотированную версию.
	Format(ctx context.Context, raw domain.RawDocument) (*domain.FormatResult, error)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает отформатированный документ и выводит его.
	Export(result *domain.FormatResult) error
}
