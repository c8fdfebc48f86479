package source

import (
	"fmt"
	"io"
	"os"

	"transcript-formatter/internal/ports"
)

// StdinPath: путь, при котором данные читаются из стандартного ввода.
const StdinPath = "-"

// CliSource реализует интерфейс DataSource для чтения транскрипта из файла,
// указанного в командной строке, или из стандартного ввода.
type CliSource struct {
	filePath string
	stdin    io.Reader
}

// NewCliSource создает новый экземпляр CliSource.
func NewCliSource(filePath string) ports.DataSource {
	return &CliSource{filePath: filePath, stdin: os.Stdin}
}

// NewReaderSource создает CliSource, который читает StdinPath из указанного io.Reader.
func NewReaderSource(r io.Reader) ports.DataSource {
	return &CliSource{filePath: StdinPath, stdin: r}
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
func (s *CliSource) Fetch() ([]byte, error) {
	switch s.filePath {
	case "":
		return nil, fmt.Errorf("не указан путь к файлу")
	case StdinPath:
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	return data, nil
}
