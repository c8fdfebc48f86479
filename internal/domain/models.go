package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawDocument: "сырое" JSON-дерево транскрипта до типизированного разбора.
// Числа хранятся как json.Number, чтобы валидатор мог проверить их точно.
type RawDocument map[string]any

// Decode преобразует проверенное дерево в типизированный Document.
func (r RawDocument) Decode() (*Document, error) {
	data, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Document представляет корневую структуру экспорта транскрипта.
type Document struct {
	Entities Entities       `json:"entities"`
	Ticket   map[string]any `json:"ticket"`
	Messages []*Message     `json:"messages"`

	// GroupedMessages заполняется группировщиком: последовательные сообщения,
	// которые отображаются одним визуальным блоком.
	GroupedMessages [][]*Message `json:"grouppedMessages"`
}

// TicketName возвращает имя тикета или пустую строку.
func (d *Document) TicketName() string {
	name, _ := d.Ticket["name"].(string)
	return name
}

// Entities содержит справочники, на которые ссылаются сообщения.
type Entities struct {
	Users    map[string]User    `json:"users"`
	Channels map[string]Channel `json:"channels"`
	Roles    map[string]Role    `json:"roles"`
}

// User представляет участника переписки.
type User struct {
	Avatar        string `json:"avatar"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Badge         string `json:"badge,omitempty"`
}

// Channel представляет канал, на который ссылается сообщение.
type Channel struct {
	Name string `json:"name"`
}

// Role представляет роль сервера.
type Role struct {
	Name  string `json:"name"`
	Color *int64 `json:"color,omitempty"`
}

// MessageType: тип сообщения. 0: обычное сообщение, остальные: системные события.
type MessageType int

const (
	MessageTypeDefault             MessageType = 0
	MessageTypeRecipientAdd        MessageType = 1
	MessageTypeRecipientRemove     MessageType = 2
	MessageTypeCall                MessageType = 3
	MessageTypeChannelNameChange   MessageType = 4
	MessageTypeChannelIconChange   MessageType = 5
	MessageTypeChannelPinnedMsg    MessageType = 6
	MessageTypeGuildMemberJoin     MessageType = 7
	MessageTypeGuildBoost          MessageType = 8
	MessageTypeGuildBoostTier1     MessageType = 9
	MessageTypeGuildBoostTier2     MessageType = 10
	MessageTypeGuildBoostTier3     MessageType = 11
	MessageTypeChannelFollowAdd    MessageType = 12
	MessageTypeDiscoveryDisqualify MessageType = 14
	MessageTypeDiscoveryRequalify  MessageType = 15

	// MaxMessageType: наибольший допустимый тип сообщения.
	MaxMessageType MessageType = 15
)

// Message представляет одно сообщение транскрипта.
type Message struct {
	ID          string        `json:"id"`
	Author      string        `json:"author"`
	Time        int64         `json:"time"`
	Type        MessageType   `json:"type,omitempty"`
	Deleted     bool          `json:"deleted,omitempty"`
	Content     string        `json:"content,omitempty"`
	Embeds      []*Embed      `json:"embeds,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`

	// Invites: коды приглашений, найденные в тексте сообщения.
	Invites []string `json:"invites,omitzero"`

	// SystemTextSynthesized отмечает, что текст системного сообщения уже сгенерирован.
	// Отметка сериализуется, чтобы повторное форматирование результата не меняло текст.
	SystemTextSynthesized bool `json:"synthesized,omitempty"`
}

// IsSystem сообщает, является ли сообщение системным событием.
func (m *Message) IsSystem() bool {
	return m.Type != MessageTypeDefault
}

// Synthesized сообщает, был ли уже сгенерирован текст системного сообщения.
func (m *Message) Synthesized() bool {
	return m.SystemTextSynthesized
}

// MarkSynthesized отмечает сообщение как обработанное генератором системного текста.
func (m *Message) MarkSynthesized() {
	m.SystemTextSynthesized = true
}

// Embed представляет вложенную карточку сообщения.
type Embed struct {
	Type        string         `json:"type,omitempty"`
	Title       string         `json:"title,omitempty"`
	Color       *int64         `json:"color,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Provider    *EmbedProvider `json:"provider,omitempty"`
	Author      *EmbedAuthor   `json:"author,omitempty"`
	Description string         `json:"description,omitempty"`
	Fields      []*EmbedField  `json:"fields,omitempty"`
	Thumbnail   *EmbedMedia    `json:"thumbnail,omitempty"`
	Image       *EmbedMedia    `json:"image,omitempty"`
	Video       *EmbedMedia    `json:"video,omitempty"`
	URL         string         `json:"url,omitempty"`
	Footer      *EmbedFooter   `json:"footer,omitempty"`

	// Поля ниже вычисляются конвейером.
	Images           []*EmbedMedia   `json:"images,omitempty"`
	GroupedImages    [][]*EmbedMedia `json:"grouppedImages,omitzero"`
	GroupedFields    [][]*EmbedField `json:"grouppedFields,omitzero"`
	DisplayMaxWidth  string          `json:"displayMaxWidth,omitempty"`
	DisplayMaxHeight string          `json:"displayMaxHeight,omitempty"`
}

// EmbedProvider: источник карточки (например, сайт).
type EmbedProvider struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// EmbedAuthor: автор карточки.
type EmbedAuthor struct {
	Name         string `json:"name,omitempty"`
	URL          string `json:"url,omitempty"`
	IconURL      string `json:"icon_url,omitempty"`
	IconProxyURL string `json:"icon_proxy_url,omitempty"`
}

// EmbedField: поле карточки.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedMedia описывает миниатюру, изображение или видео карточки.
type EmbedMedia struct {
	URL      string `json:"url,omitempty"`
	ProxyURL string `json:"proxy_url,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`

	DisplayMaxWidth  string `json:"displayMaxWidth,omitempty"`
	DisplayMaxHeight string `json:"displayMaxHeight,omitempty"`
}

// HasDimensions сообщает, известны ли оба размера медиа.
func (m *EmbedMedia) HasDimensions() bool {
	return m != nil && m.Width > 0 && m.Height > 0
}

// EmbedFooter: подвал карточки.
type EmbedFooter struct {
	Text         string `json:"text,omitempty"`
	IconURL      string `json:"icon_url,omitempty"`
	IconProxyURL string `json:"icon_proxy_url,omitempty"`
}

// Attachment представляет файл, прикрепленный к сообщению.
type Attachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
	ProxyURL string `json:"proxy_url"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`

	DisplayMaxWidth  string `json:"displayMaxWidth,omitempty"`
	DisplayMaxHeight string `json:"displayMaxHeight,omitempty"`
	FormattedBytes   string `json:"formattedBytes"`
	IconHash         string `json:"iconHash"`
}

// Warning: нефатальное нарушение формы документа, найденное валидатором.
type Warning struct {
	// Path: JSON-путь к нарушению, например "messages[3].embeds[0].url".
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// FormatResult: результат работы конвейера: аннотированный документ и
// предупреждения валидатора.
type FormatResult struct {
	Document *Document `json:"document"`
	Warnings []Warning `json:"warnings"`
}
