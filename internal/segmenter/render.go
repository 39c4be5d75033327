package segmenter

import (
	"html"
	"strings"

	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// Render serializes paragraphs as HTML paragraphs, one per line, with no
// surrounding whitespace
func Render(paragraphs []model.Paragraph) string {
	var b strings.Builder
	for i, p := range paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(p.Text))
		b.WriteString("</p>")
	}
	return strings.TrimSpace(b.String())
}

// PlainText joins paragraphs with blank lines
func PlainText(paragraphs []model.Paragraph) string {
	texts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		texts = append(texts, p.Text)
	}
	return strings.TrimSpace(strings.Join(texts, "\n\n"))
}
