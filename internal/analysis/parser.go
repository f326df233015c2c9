package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

// ParseKind tags which fallback level produced a Parsed value.
type ParseKind string

const (
	ParseStructured ParseKind = "structured"
	ParseSectioned  ParseKind = "fallback_extraction"
	ParseRaw        ParseKind = "raw_text_only"
)

// Parsed is model output decoded as far as it would go. Exactly one of
// Object and Sections is set for the structured and sectioned kinds; Raw is
// always the original text.
type Parsed struct {
	Kind     ParseKind
	Object   map[string]any
	Sections map[string]string
	Raw      string
	// Err explains why a looser kind was chosen.
	Err error
}

// ParseResponse extracts the outermost JSON object from free-form model
// text. Text that has braces but does not decode to an object falls back to
// heading-delimited sections, which may be empty; text with no braces at all
// is kept raw.
func ParseResponse(text string) Parsed {
	p := Parsed{Raw: text}
	body := stripCodeFence(strings.TrimSpace(text))
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start == -1 || end <= start {
		p.Kind = ParseRaw
		return p
	}
	var obj map[string]any
	err := json.Unmarshal([]byte(body[start:end+1]), &obj)
	if err == nil && obj != nil {
		p.Kind = ParseStructured
		p.Object = obj
		return p
	}
	if err == nil {
		err = errors.New("json value is not an object")
	}
	p.Err = err
	p.Kind = ParseSectioned
	p.Sections = extractSections(text)
	return p
}

func stripCodeFence(s string) string {
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractSections treats lines with ** markers, a leading ## or a trailing
// colon as headings. Headings without body lines are dropped.
func extractSections(text string) map[string]string {
	sections := map[string]string{}
	var (
		current string
		body    []string
	)
	flush := func() {
		if current != "" && len(body) > 0 {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "**") || strings.HasSuffix(line, ":") || strings.HasPrefix(line, "##") {
			flush()
			r := strings.NewReplacer("**", "", ":", "", "##", "")
			current = strings.TrimSpace(r.Replace(line))
			body = nil
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()
	return sections
}
