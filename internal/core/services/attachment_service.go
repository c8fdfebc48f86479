package services

import (
	"regexp"

	"transcript-formatter/internal/domain"
	"transcript-formatter/internal/pkg/filesize"
	"transcript-formatter/internal/pkg/geometry"
)

// Идентификаторы иконок файлов. Это фиксированные значения клиента, а не хеши содержимого.
const (
	IconPDF         = "f167b4196f02faf2dc2e7eb266a24275"
	IconAfterEffect = "982bd8aedd89b0607f492d1175b3b3a5"
	IconSketch      = "f812168e543235a62b9f6deb2b094948"
	IconIllustrator = "03ad68e1f4d47f2671d629cfeac048ef"
	IconArchive     = "73d212e3701483c36a4660b28ac15b62"
	IconCode        = "481aa700fab464f2332ca9b5f4eb6ba4"
	IconDocument    = "85f7a4063578f6e0e2c73f60bca0fcce"
	IconWeb         = "a11e895b46cde503a094dd31641060a6"
	IconAudio       = "5b0da31dc2b00717c1e35fb1f84f9b9b"
	IconUnknown     = "985ea67d2edab4424c62009886f12e44"
)

// iconRule сопоставляет шаблон имени файла с иконкой.
type iconRule struct {
	pattern *regexp.Regexp
	icon    string
}

// iconRules проверяются по порядку, побеждает первое совпадение.
// Регистр учитывается.
var iconRules = []iconRule{
	{regexp.MustCompile(`\.pdf$`), IconPDF},
	{regexp.MustCompile(`\.ae`), IconAfterEffect},
	{regexp.MustCompile(`\.sketch$`), IconSketch},
	{regexp.MustCompile(`\.ai$`), IconIllustrator},
	{regexp.MustCompile(`\.(?:rar|zip|7z|tar|tar\.gz)$`), IconArchive},
	{regexp.MustCompile(`\.(?:c\+\+|cpp|cc|c|h|hpp|mm|m|json|js|rb|rake|py|asm|fs|pyc|dtd|cgi|bat|rss|java|graphml|idb|lua|o|gml|prl|sls|conf|cmake|make|sln|vbe|cxx|wbf|vbs|r|wml|php|bash|applescript|fcgi|yaml|ex|exs|sh|ml|actionscript)$`), IconCode},
	{regexp.MustCompile(`\.(?:txt|rtf|doc|docx|md|pages|ppt|pptx|pptm|key|log)$`), IconDocument},
	{regexp.MustCompile(`\.(?:xls|xlsx|numbers|csv)$`), IconDocument},
	{regexp.MustCompile(`\.(?:html|xhtml|htm|js|xml|xls|xsd|css|styl)$`), IconWeb},
	{regexp.MustCompile(`\.(?:mp3|ogg|wav|flac)$`), IconAudio},
}

// IconHash возвращает идентификатор иконки для имени файла.
func IconHash(filename string) string {
	for _, rule := range iconRules {
		if rule.pattern.MatchString(filename) {
			return rule.icon
		}
	}
	return IconUnknown
}

// AnnotateAttachments вычисляет размеры отображения, читаемый размер и иконку
// для каждого вложения документа.
func AnnotateAttachments(doc *domain.Document, bounds geometry.Bounds) {
	for _, msg := range doc.Messages {
		for _, attachment := range msg.Attachments {
			if attachment.Width > 0 && attachment.Height > 0 {
				w, h := bounds.Fit(attachment.Width, attachment.Height)
				attachment.DisplayMaxWidth = geometry.Pixels(w)
				attachment.DisplayMaxHeight = geometry.Pixels(h)
			}

			attachment.FormattedBytes = filesize.Format(attachment.Size)
			attachment.IconHash = IconHash(attachment.Filename)
		}
	}
}
