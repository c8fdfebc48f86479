package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/ports"
)

// ConsoleExporter реализует интерфейс Exporter для вывода отформатированного
// документа в виде JSON.
type ConsoleExporter struct {
	out    io.Writer
	pretty bool
}

// NewConsoleExporter создает экспортер в stdout. Вывод форматируется с
// отступами, если pretty == true или stdout подключен к терминалу.
func NewConsoleExporter(pretty bool) ports.Exporter {
	return NewWriterExporter(os.Stdout, pretty)
}

// NewWriterExporter создает экспортер в произвольный io.Writer.
func NewWriterExporter(out io.Writer, pretty bool) *ConsoleExporter {
	return &ConsoleExporter{
		out:    out,
		pretty: pretty || isTerminal(out),
	}
}

// Export выводит аннотированный документ.
func (e *ConsoleExporter) Export(result *domain.FormatResult) error {
	if result == nil || result.Document == nil {
		return fmt.Errorf("нечего экспортировать: пустой результат")
	}

	enc := json.NewEncoder(e.out)
	enc.SetEscapeHTML(false)
	if e.pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(result.Document); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// isTerminal сообщает, является ли writer терминалом.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
