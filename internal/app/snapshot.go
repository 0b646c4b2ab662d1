package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hylla/planboard/internal/domain"
)

// Format names an interchange encoding.
type Format string

// Format values.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name or file extension. Blank means JSON.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Export encodes the current document in the interchange format.
func (s *Service) Export(format Format) ([]byte, error) {
	doc := s.Document()
	switch format {
	case "", FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Import parses raw as a whole document and replaces the current one with it.
// A payload that fails to parse or validate leaves the current document untouched.
func (s *Service) Import(ctx context.Context, format Format, raw []byte) (domain.Counts, error) {
	var (
		doc domain.Document
		err error
	)
	switch format {
	case "", FormatJSON:
		doc, err = decodeDocument(raw)
	case FormatYAML:
		doc, err = decodeYAMLDocument(raw)
	default:
		return domain.Counts{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return domain.Counts{}, err
	}
	s.ReplaceDocument(ctx, doc)
	return doc.Count(), nil
}

// ExportFileName returns "<name>-<dd-Mon-yyyy>.<ext>" for today's date.
func (s *Service) ExportFileName(name string, format Format) string {
	name = sanitizeFileStem(name)
	if name == "" {
		name = sanitizeFileStem(s.cfg.ExportName)
	}
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("%s-%s.%s", name, s.clock().Format("02-Jan-2006"), ext)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFileStem(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".json")
	name = strings.TrimSuffix(name, ".yaml")
	return strings.Trim(unsafeFileChars.ReplaceAllString(name, "-"), "-")
}

// decodeDocument parses and validates a JSON document.
func decodeDocument(raw []byte) (domain.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, ErrEmptyPayload)
	}
	if err := documentShape.validate(raw); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	if err := validateDocument(&doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// decodeYAMLDocument parses and validates a YAML document.
func decodeYAMLDocument(raw []byte) (domain.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, ErrEmptyPayload)
	}
	var probe map[string]any
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	if _, ok := probe["goals"]; !ok {
		return domain.Document{}, fmt.Errorf("%w: missing required field %q", domain.ErrInvalidDocument, "goals")
	}
	var doc domain.Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	if err := validateDocument(&doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// validateDocument checks ids and titles and normalizes empty child lists and blank headers.
func validateDocument(doc *domain.Document) error {
	seen := map[string]string{}
	check := func(path, id, title string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %s.id is required", domain.ErrInvalidDocument, path)
		}
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("%w: %s.title is required", domain.ErrInvalidDocument, path)
		}
		if prev, exists := seen[id]; exists {
			return fmt.Errorf("%w: duplicate id %q at %s and %s", domain.ErrInvalidDocument, id, prev, path)
		}
		seen[id] = path
		return nil
	}

	doc.ColumnHeaders = doc.ColumnHeaders.WithDefaults()
	if doc.Goals == nil {
		doc.Goals = []domain.Goal{}
	}
	for gi := range doc.Goals {
		g := &doc.Goals[gi]
		gp := fmt.Sprintf("goals[%d]", gi)
		if err := check(gp, g.ID, g.Title); err != nil {
			return err
		}
		if g.Steps == nil {
			g.Steps = []domain.Step{}
		}
		for si := range g.Steps {
			st := &g.Steps[si]
			sp := fmt.Sprintf("%s.steps[%d]", gp, si)
			if err := check(sp, st.ID, st.Title); err != nil {
				return err
			}
			if st.Tasks == nil {
				st.Tasks = []domain.Task{}
			}
			for ti := range st.Tasks {
				t := &st.Tasks[ti]
				tp := fmt.Sprintf("%s.tasks[%d]", sp, ti)
				if err := check(tp, t.ID, t.Title); err != nil {
					return err
				}
				if t.Initiatives == nil {
					t.Initiatives = []domain.Initiative{}
				}
				for ii, in := range t.Initiatives {
					if err := check(fmt.Sprintf("%s.initiatives[%d]", tp, ii), in.ID, in.Title); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
