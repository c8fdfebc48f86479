package services

import (
	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/pkg/geometry"
)

const (
	// embedBaseWidth: ширина карточки без медиа.
	embedBaseWidth = "520px"
	// embedMediaMargin: отступ, добавляемый к ширине медиа в карточке.
	embedMediaMargin = 32
	// lastImageRowSize: сколько последних изображений выводится во второй строке.
	lastImageRowSize = 2
)

// MergeEmbeds объединяет карточки сообщения с одинаковым url в одну
// карточку с несколькими изображениями.
func MergeEmbeds(doc *domain.Document) {
	for _, msg := range doc.Messages {
		if msg.Embeds != nil {
			msg.Embeds = mergeEmbeds(msg.Embeds)
		}
	}
}

func mergeEmbeds(embeds []*domain.Embed) []*domain.Embed {
	merged := make([]*domain.Embed, 0, len(embeds))
	for _, embed := range embeds {
		if embed.URL != "" && embed.Image != nil {
			if match := findByURL(merged, embed.URL); match != nil {
				if match.Images == nil {
					match.Images = []*domain.EmbedMedia{}
					if match.Image != nil {
						match.Images = append(match.Images, match.Image)
					}
				}
				match.Images = append(match.Images, embed.Image)
				continue
			}
		}
		merged = append(merged, embed)
	}
	return merged
}

func findByURL(embeds []*domain.Embed, url string) *domain.Embed {
	for _, embed := range embeds {
		if embed.URL == url {
			return embed
		}
	}
	return nil
}

// AnnotateEmbeds раскладывает изображения и поля карточек по строкам и
// вычисляет размеры отображения.
func AnnotateEmbeds(doc *domain.Document, bounds geometry.Bounds) {
	for _, msg := range doc.Messages {
		for _, embed := range msg.Embeds {
			if embed.Images != nil {
				embed.GroupedImages = groupImages(embed.Images)
			}
			if embed.Fields != nil {
				embed.GroupedFields = groupFields(embed.Fields, embed.Thumbnail != nil)
			}
			sizeEmbed(embed, bounds)
		}
	}
}

// groupImages делит изображения на две строки: последние два во второй строке,
// остальные в первой.
func groupImages(images []*domain.EmbedMedia) [][]*domain.EmbedMedia {
	split := max(0, len(images)-lastImageRowSize)
	return [][]*domain.EmbedMedia{
		append([]*domain.EmbedMedia{}, images[:split]...),
		append([]*domain.EmbedMedia{}, images[split:]...),
	}
}

// groupFields жадно собирает inline-поля в строки. Строка вмещает два поля,
// если у карточки есть миниатюра, иначе три.
func groupFields(fields []*domain.EmbedField, hasThumbnail bool) [][]*domain.EmbedField {
	limit := 3
	if hasThumbnail {
		limit = 2
	}

	rows := [][]*domain.EmbedField{}
	for _, field := range fields {
		var last *domain.EmbedField
		if n := len(rows); n > 0 && len(rows[n-1]) > 0 {
			row := rows[n-1]
			last = row[len(row)-1]
		}

		if last == nil || !last.Inline || !field.Inline || len(rows[len(rows)-1]) == limit {
			rows = append(rows, []*domain.EmbedField{})
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], field)
	}
	return rows
}

func sizeEmbed(embed *domain.Embed, bounds geometry.Bounds) {
	embed.DisplayMaxWidth = embedBaseWidth

	media := embed.Image
	if media == nil {
		media = embed.Video
	}
	if media.HasDimensions() {
		w, h := bounds.Fit(media.Width, media.Height)
		embed.DisplayMaxWidth = geometry.Pixels(w + embedMediaMargin)
		embed.DisplayMaxHeight = geometry.Pixels(h)
	}

	sizeMedia(embed.Image, bounds)
	if embed.Type == "image" {
		sizeMedia(embed.Thumbnail, bounds)
	}
	sizeMedia(embed.Video, bounds)
}

func sizeMedia(media *domain.EmbedMedia, bounds geometry.Bounds) {
	if !media.HasDimensions() {
		return
	}
	w, h := bounds.Fit(media.Width, media.Height)
	media.DisplayMaxWidth = geometry.Pixels(w)
	media.DisplayMaxHeight = geometry.Pixels(h)
}
