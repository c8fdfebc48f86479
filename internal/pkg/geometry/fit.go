// Package geometry содержит вычисления размеров для отображения медиа.
package geometry

import (
	"fmt"
	"math"
)

// Fit пропорционально уменьшает прямоугольник width×height так, чтобы он
// поместился в maxWidth×maxHeight. Увеличение не выполняется.
// Для непозитивных размеров возвращает исходные значения.
func Fit(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return width, height
	}

	ratio := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	if ratio >= 1 {
		return width, height
	}

	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))
	return min(w, maxWidth), min(h, maxHeight)
}

// Pixels форматирует размер в CSS-пикселях, например "400px".
func Pixels(n int) string {
	return fmt.Sprintf("%dpx", n)
}

// Bounds: ограничивающий прямоугольник для медиа.
type Bounds struct {
	Width  int
	Height int
}

// DefaultBounds: рамка 400×300, в которую вписываются изображения и видео.
var DefaultBounds = Bounds{Width: 400, Height: 300}

// Fit вписывает width×height в рамку.
func (b Bounds) Fit(width, height int) (int, int) {
	return Fit(width, height, b.Width, b.Height)
}
