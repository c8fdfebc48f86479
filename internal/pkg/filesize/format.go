// Package filesize форматирует размеры файлов для отображения.
package filesize

import (
	"math"

	"github.com/dustin/go-humanize"
)

const base = 1024

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// Format возвращает человекочитаемый размер с двоичным шагом 1024,
// например "1.5 KB". Значение округляется до двух знаков, незначащие нули
// отбрасываются. Для нуля и отрицательных размеров возвращает "0 B".
func Format(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	i := unitIndex(float64(bytes))
	value := float64(bytes) / math.Pow(base, float64(i))
	value = math.Round(value*100) / 100

	return humanize.FtoaWithDigits(value, 2) + " " + units[i]
}

// unitIndex вычисляет floor(log1024(bytes)) с поправкой на погрешность
// логарифма на точных степенях 1024.
func unitIndex(bytes float64) int {
	i := int(math.Floor(math.Log(bytes) / math.Log(base)))
	if i > 0 && math.Pow(base, float64(i)) > bytes {
		i--
	}
	if i+1 < len(units) && math.Pow(base, float64(i+1)) <= bytes {
		i++
	}
	return max(0, min(i, len(units)-1))
}
