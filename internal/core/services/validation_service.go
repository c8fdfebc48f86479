package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"transcript-formatter/internal/domain"
)

// ValidationResult: накопленный результат проверки документа.
type ValidationResult struct {
	// Valid: можно ли форматировать документ дальше.
	Valid bool
	// Fatal: документ отклонен из-за нарушения корневой структуры.
	Fatal bool
	// Warnings: все найденные нефатальные нарушения.
	Warnings []domain.Warning
}

// Validator проверяет форму "сырого" документа перед форматированием.
// В обычном режиме нарушения только логируются, а ошибочные поля удаляются,
// чтобы документ можно было разобрать. В строгом режиме любое нарушение
// делает документ непригодным.
// Validator не хранит состояние между вызовами и безопасен для одновременного использования.
type Validator struct {
	strict bool
	log    *slog.Logger
}

// NewValidator создает новый Validator.
func NewValidator(strict bool, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{strict: strict, log: log}
}

// Validate проверяет документ и исправляет его на месте.
func (v *Validator) Validate(raw domain.RawDocument) ValidationResult {
	run := &validationRun{log: v.log}

	if reason, ok := run.structure(raw); !ok {
		v.log.Warn("Документ отклонен: нарушена корневая структура", "reason", reason)
		return ValidationResult{Fatal: true, Warnings: run.warnings}
	}

	entities := raw["entities"].(map[string]any)
	run.users(entities["users"].(map[string]any))
	run.channels(entities["channels"].(map[string]any))
	run.roles(entities["roles"].(map[string]any))
	raw["messages"] = run.messages(raw["messages"].([]any))

	valid := true
	if v.strict && len(run.warnings) > 0 {
		v.log.Warn("Строгий режим: документ отклонен", "warnings", len(run.warnings))
		valid = false
	}

	return ValidationResult{Valid: valid, Warnings: run.warnings}
}

// validationRun накапливает предупреждения одного прохода.
type validationRun struct {
	log      *slog.Logger
	warnings []domain.Warning
}

// report фиксирует нарушение по указанному пути.
func (r *validationRun) report(path, reason string) {
	r.log.Warn("Нарушение формы документа", "path", path, "reason", reason)
	r.warnings = append(r.warnings, domain.Warning{Path: path, Reason: reason})
}

// structure проверяет корневые контейнеры. Любое нарушение здесь фатально.
func (r *validationRun) structure(raw domain.RawDocument) (string, bool) {
	if raw == nil {
		return "document is empty", false
	}
	entities, ok := raw["entities"].(map[string]any)
	if !ok {
		return "entities must be an object", false
	}
	if _, ok := raw["messages"].([]any); !ok {
		return "messages must be an array", false
	}
	ticket, ok := raw["ticket"].(map[string]any)
	if !ok {
		return "ticket must be an object", false
	}
	r.requireString(ticket, "name", "ticket")

	for _, key := range []string{"users", "channels", "roles"} {
		if _, ok := entities[key].(map[string]any); !ok {
			return fmt.Sprintf("entities.%s must be an object", key), false
		}
	}
	return "", true
}

func (r *validationRun) users(users map[string]any) {
	for _, id := range sortedKeys(users) {
		path := "entities.users." + id
		user, ok := r.entry(users, id, path)
		if !ok {
			continue
		}
		r.requireString(user, "avatar", path)
		r.requireString(user, "username", path)
		r.requireString(user, "discriminator", path)
		r.optionalString(user, "badge", path)
	}
}

func (r *validationRun) channels(channels map[string]any) {
	for _, id := range sortedKeys(channels) {
		path := "entities.channels." + id
		if channel, ok := r.entry(channels, id, path); ok {
			r.requireString(channel, "name", path)
		}
	}
}

func (r *validationRun) roles(roles map[string]any) {
	for _, id := range sortedKeys(roles) {
		path := "entities.roles." + id
		role, ok := r.entry(roles, id, path)
		if !ok {
			continue
		}
		r.requireString(role, "name", path)
		r.optionalNumber(role, "color", path)
	}
}

// entry возвращает объект справочника; необъектные записи удаляются.
func (r *validationRun) entry(collection map[string]any, id, path string) (map[string]any, bool) {
	obj, ok := collection[id].(map[string]any)
	if !ok {
		r.report(path, "must be an object")
		delete(collection, id)
	}
	return obj, ok
}

func (r *validationRun) messages(messages []any) []any {
	kept := messages[:0]
	for i, item := range messages {
		path := fmt.Sprintf("messages[%d]", i)
		msg, ok := item.(map[string]any)
		if !ok {
			r.report(path, "must be an object")
			continue
		}
		r.message(msg, path)
		kept = append(kept, msg)
	}
	return kept
}

func (r *validationRun) message(msg map[string]any, path string) {
	r.requireString(msg, "id", path)
	r.requireString(msg, "author", path)
	r.requireNumber(msg, "time", path)
	r.optionalBool(msg, "deleted", path)
	r.optionalBool(msg, "synthesized", path)
	r.optionalString(msg, "content", path)

	if present(msg, "type") {
		n, ok := integer(msg["type"])
		if !ok || n < 0 || n > int64(domain.MaxMessageType) {
			r.report(path+".type", fmt.Sprintf("must be an integer in [0, %d]", domain.MaxMessageType))
			delete(msg, "type")
		}
	}

	embeds := r.optionalArray(msg, "embeds", path)
	attachments := r.optionalArray(msg, "attachments", path)

	if msgType, _ := integer(msg["type"]); msgType == 0 {
		content, _ := msg["content"].(string)
		if content == "" && len(embeds) == 0 && len(attachments) == 0 {
			r.report(path, "normal message must have content, embeds or attachments")
		}
	}

	if embeds != nil {
		msg["embeds"] = r.objects(embeds, path+".embeds", r.embed)
	}
	if attachments != nil {
		msg["attachments"] = r.objects(attachments, path+".attachments", r.attachment)
	}
}

// objects проверяет каждый элемент массива объектов; остальные элементы удаляются.
func (r *validationRun) objects(items []any, path string, check func(map[string]any, string)) []any {
	kept := items[:0]
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			r.report(itemPath, "must be an object")
			continue
		}
		check(obj, itemPath)
		kept = append(kept, obj)
	}
	return kept
}

func (r *validationRun) embed(embed map[string]any, path string) {
	for _, key := range []string{"type", "title", "timestamp", "description", "url"} {
		r.optionalString(embed, key, path)
	}
	r.optionalNumber(embed, "color", path)

	if provider := r.optionalObject(embed, "provider", path); provider != nil {
		r.optionalString(provider, "name", path+".provider")
		r.optionalString(provider, "url", path+".provider")
	}

	if author := r.optionalObject(embed, "author", path); author != nil {
		for _, key := range []string{"name", "url", "icon_url", "icon_proxy_url"} {
			r.optionalString(author, key, path+".author")
		}
	}

	if fields := r.optionalArray(embed, "fields", path); fields != nil {
		embed["fields"] = r.objects(fields, path+".fields", func(field map[string]any, fieldPath string) {
			r.requireString(field, "name", fieldPath)
			r.requireString(field, "value", fieldPath)
			r.optionalBool(field, "inline", fieldPath)
		})
	}

	for _, key := range []string{"thumbnail", "image", "video"} {
		media := r.optionalObject(embed, key, path)
		if media == nil {
			continue
		}
		mediaPath := path + "." + key
		r.optionalString(media, "url", mediaPath)
		r.optionalString(media, "proxy_url", mediaPath)
		r.optionalNumber(media, "width", mediaPath)
		r.optionalNumber(media, "height", mediaPath)
	}

	if footer := r.optionalObject(embed, "footer", path); footer != nil {
		for _, key := range []string{"text", "icon_url", "icon_proxy_url"} {
			r.optionalString(footer, key, path+".footer")
		}
	}
}

func (r *validationRun) attachment(attachment map[string]any, path string) {
	r.requireString(attachment, "filename", path)
	r.requireNumber(attachment, "size", path)
	r.requireString(attachment, "url", path)
	r.requireString(attachment, "proxy_url", path)
	r.optionalNumber(attachment, "width", path)
	r.optionalNumber(attachment, "height", path)
}

func (r *validationRun) requireString(obj map[string]any, key, path string) {
	if _, ok := obj[key].(string); !ok {
		r.drop(obj, key, path, "must be a string")
	}
}

func (r *validationRun) optionalString(obj map[string]any, key, path string) {
	if present(obj, key) {
		r.requireString(obj, key, path)
	}
}

func (r *validationRun) optionalBool(obj map[string]any, key, path string) {
	if !present(obj, key) {
		return
	}
	if _, ok := obj[key].(bool); !ok {
		r.drop(obj, key, path, "must be a boolean")
	}
}

// requireNumber принимает любое JSON-число и приводит его к ближайшему целому,
// чтобы поле разбиралось в целочисленный тип модели.
func (r *validationRun) requireNumber(obj map[string]any, key, path string) {
	if _, ok := integer(obj[key]); ok {
		return
	}
	value, ok := number(obj[key])
	if !ok {
		r.drop(obj, key, path, "must be a number")
		return
	}
	obj[key] = json.Number(strconv.FormatInt(int64(math.Round(value)), 10))
}

func (r *validationRun) optionalNumber(obj map[string]any, key, path string) {
	if present(obj, key) {
		r.requireNumber(obj, key, path)
	}
}

func (r *validationRun) optionalObject(obj map[string]any, key, path string) map[string]any {
	if !present(obj, key) {
		return nil
	}
	value, ok := obj[key].(map[string]any)
	if !ok {
		r.drop(obj, key, path, "must be an object")
	}
	return value
}

func (r *validationRun) optionalArray(obj map[string]any, key, path string) []any {
	if !present(obj, key) {
		return nil
	}
	value, ok := obj[key].([]any)
	if !ok {
		r.drop(obj, key, path, "must be an array")
	}
	return value
}

// drop сообщает о нарушении и удаляет поле, чтобы документ можно было разобрать.
func (r *validationRun) drop(obj map[string]any, key, path, reason string) {
	r.report(path+"."+key, reason)
	delete(obj, key)
}

// present сообщает, задано ли поле (null считается отсутствием значения).
func present(obj map[string]any, key string) bool {
	value, ok := obj[key]
	return ok && value != nil
}

// number извлекает конечное число из значения JSON-дерева, представимое в int64.
func number(value any) (float64, bool) {
	var f float64
	switch n := value.(type) {
	case json.Number:
		v, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = v
	case float64:
		f = n
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.Abs(math.Round(f)) >= math.MaxInt64 {
		return 0, false
	}
	return f, true
}

// maxSafeInteger: наибольшее целое, точно представимое в float64.
const maxSafeInteger = 1<<53 - 1

// integer извлекает целое число из значения JSON-дерева.
func integer(value any) (int64, bool) {
	switch n := value.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > maxSafeInteger {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// sortedKeys возвращает ключи в детерминированном порядке, чтобы
// предупреждения не зависели от порядка обхода map.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
