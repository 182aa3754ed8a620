package pattern

import "strings"

// ExpandTemplate replaces each back-reference token in template, a '$'
// followed by one ASCII digit, with the text of the capture at that index.
// Tokens naming a capture the match does not have are kept verbatim.
// Substituted text is not scanned again.
func ExpandTemplate(template string, captures []Capture) string {
	if !strings.Contains(template, "$") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '$' && i+1 < len(template) && isDigit(template[i+1]) {
			idx := int(template[i+1] - '0')
			if idx < len(captures) {
				b.WriteString(captures[idx].Text)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SpliceFirst expands template against first's captures and replaces
// first's span in text with the result. Only that one occurrence changes.
func SpliceFirst(text string, first Match, template string) string {
	return Splice(text, first.Span, ExpandTemplate(template, first.Captures))
}

// Splice replaces span in text with replacement as is.
func Splice(text string, span Span, replacement string) string {
	return text[:span.Start] + replacement + text[span.End:]
}

// ReplaceFirst finds p in text and splices template over the first
// occurrence. It returns text unchanged and false when p does not occur.
func (p *Pattern) ReplaceFirst(text, template string) (string, bool, error) {
	ms, err := p.FindAll(text)
	if err != nil || len(ms) == 0 {
		return text, false, err
	}
	return SpliceFirst(text, ms[0], template), true, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
