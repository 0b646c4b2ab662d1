package app

import (
	"strings"

	"github.com/hylla/planboard/internal/domain"
)

const checkMark = " ✓"

// Outline renders the document as indented plain text, two spaces per level,
// with a check mark after completed items.
func (s *Service) Outline() string {
	doc := s.Document()
	var b strings.Builder
	doc.Walk(func(level domain.Level, item domain.Item, _ domain.Path) {
		b.WriteString(strings.Repeat("  ", int(level)-1))
		b.WriteString(item.Title)
		if item.Completed {
			b.WriteString(checkMark)
		}
		b.WriteByte('\n')
	})
	return b.String()
}

// OutlineMarkdown renders the document as markdown: a heading per goal and nested bullets below it.
func (s *Service) OutlineMarkdown() string {
	doc := s.Document()
	headers := doc.ColumnHeaders.WithDefaults()
	var b strings.Builder
	b.WriteString("# " + headers.Goals + "\n")
	doc.Walk(func(level domain.Level, item domain.Item, _ domain.Path) {
		title := escapeMarkdown(item.Title)
		if item.Completed {
			title = "~~" + title + "~~" + checkMark
		}
		if level == domain.LevelGoal {
			b.WriteString("\n## " + title + "\n\n")
			return
		}
		b.WriteString(strings.Repeat("  ", int(level)-2))
		b.WriteString("- " + title + "\n")
	})
	return b.String()
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "~", `\~`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
