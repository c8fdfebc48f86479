package parser

import (
	"encoding/json"
	"testing"
)

func TestJsonParser(t *testing.T) {
	t.Run("NewJsonParser создает корректный экземпляр", func(t *testing.T) {
		parser := NewJsonParser()
		if parser == nil {
			t.Error("Ожидался экземпляр JsonParser, получен nil")
		}
	})

	t.Run("Разбор корректного JSON", func(t *testing.T) {
		parser := &JsonParser{}
		testData := `{
			"entities": {"users": {}, "channels": {}, "roles": {}},
			"ticket": {"name": "ticket-0042"},
			"messages": [
				{
					"id": "81384788765712384",
					"author": "80351110224678912",
					"time": 1598000000000,
					"content": "Hello, World!"
				}
			]
		}`

		raw, err := parser.Parse([]byte(testData))
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		ticket, ok := raw["ticket"].(map[string]any)
		if !ok || ticket["name"] != "ticket-0042" {
			t.Errorf("Ожидался тикет 'ticket-0042', получено %v", raw["ticket"])
		}

		messages, ok := raw["messages"].([]any)
		if !ok || len(messages) != 1 {
			t.Fatalf("Ожидалось 1 сообщение, получено %v", raw["messages"])
		}
	})

	t.Run("Числа сохраняются без потери точности", func(t *testing.T) {
		parser := &JsonParser{}
		raw, err := parser.Parse([]byte(`{"messages": [{"time": 1598000000123}]}`))
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		msg := raw["messages"].([]any)[0].(map[string]any)
		number, ok := msg["time"].(json.Number)
		if !ok {
			t.Fatalf("Ожидался json.Number, получено %T", msg["time"])
		}
		if number.String() != "1598000000123" {
			t.Errorf("Ожидалось 1598000000123, получено %s", number)
		}
	})

	t.Run("Разбор некорректного JSON возвращает ошибку", func(t *testing.T) {
		parser := &JsonParser{}
		invalidData := `{"ticket": {"name": "x"}, "invalid_json":}`

		raw, err := parser.Parse([]byte(invalidData))
		if err == nil {
			t.Error("Ожидалась ошибка для некорректного JSON, получено nil")
		}

		if raw != nil {
			t.Error("Ожидался nil документ для некорректного JSON, получен документ")
		}
	})

	t.Run("Разбор пустого JSON возвращает ошибку", func(t *testing.T) {
		parser := &JsonParser{}

		raw, err := parser.Parse([]byte(``))
		if err == nil {
			t.Error("Ожидалась ошибка для пустого JSON, получено nil")
		}

		if raw != nil {
			t.Error("Ожидался nil документ для пустого JSON, получен документ")
		}
	})

	t.Run("Корень документа должен быть объектом", func(t *testing.T) {
		parser := &JsonParser{}

		for _, data := range []string{`[]`, `"text"`, `42`, `null`} {
			if _, err := parser.Parse([]byte(data)); err == nil {
				t.Errorf("Ожидалась ошибка для %s, получено nil", data)
			}
		}
	})

	t.Run("Данные после документа возвращают ошибку", func(t *testing.T) {
		parser := &JsonParser{}

		if _, err := parser.Parse([]byte(`{"ticket": {}} {"ticket": {}}`)); err == nil {
			t.Error("Ожидалась ошибка для лишних данных, получено nil")
		}
	})
}
