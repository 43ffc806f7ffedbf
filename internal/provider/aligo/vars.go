package aligo

import "strings"

// Substitute replaces every #{key} with vars[key]. Placeholders without a
// matching variable stay as they are.
func Substitute(text string, vars map[string]string) string {
	if text == "" || len(vars) == 0 || !strings.Contains(text, "#{") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	rest := text
	for {
		start := strings.Index(rest, "#{")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		key := rest[start+2 : start+2+end]
		b.WriteString(rest[:start])
		v, ok := vars[key]
		if !ok {
			// a miss may still contain a nested placeholder
			b.WriteString("#{")
			rest = rest[start+2:]
			continue
		}
		b.WriteString(v)
		rest = rest[start+3+end:]
	}
	return b.String()
}
