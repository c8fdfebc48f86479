package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/ports"
)

// JsonParser реализует интерфейс Parser для разбора JSON данных.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// Parse преобразует срез байт с JSON в дерево документа.
// Числа сохраняются как json.Number без потери точности.
func (p *JsonParser) Parse(data []byte) (domain.RawDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to unmarshal json: unexpected data after document")
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to unmarshal json: document must be an object")
	}
	return domain.RawDocument(obj), nil
}
