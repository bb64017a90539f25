// internal/llmutil/parser.go
package llmutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	json "github.com/json-iterator/go"
)

const fence = "\x60\x60\x60"

var (
	// Regex definitions use \x60 for backticks because Go raw strings cannot contain them.

	// fencedBlockRegex captures the body of the first markdown code block,
	// whatever language tag it carries (json, JSON, javascript, none).
	fencedBlockRegex = regexp.MustCompile("(?s)\x60\x60\x60[a-zA-Z]*[ \\t]*\\r?\\n?(.*?)\x60\x60\x60")
	// languageTagRegex matches a stray opening fence with its language tag.
	languageTagRegex = regexp.MustCompile("\x60\x60\x60[a-zA-Z]*")
)

// StripCodeFences removes markdown code fences from a model reply. When the
// reply contains a complete fenced block its body is returned; otherwise any
// stray fence markers are dropped. Surrounding whitespace is trimmed.
func StripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	if !strings.Contains(response, fence) {
		return response
	}
	if m := fencedBlockRegex.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(languageTagRegex.ReplaceAllString(response, ""))
}

// ExtractJSONArray returns the JSON array embedded in a model reply. Fences
// are stripped first; if the remainder is wrapped in conversational text, the
// span between the first '[' and the last ']' is returned. When that span is
// not valid JSON (the prose itself holds brackets) the last balanced
// top-level array that is valid JSON wins. Replies that hold no array come
// back fence-stripped and otherwise untouched so the caller's decoder reports
// the error.
func ExtractJSONArray(response string) string {
	cleaned := StripCodeFences(response)
	if strings.HasPrefix(cleaned, "[") || cleaned == "null" {
		return cleaned
	}
	first := strings.Index(cleaned, "[")
	last := strings.LastIndex(cleaned, "]")
	if first == -1 || last <= first {
		return cleaned
	}
	wide := cleaned[first : last+1]
	if json.Valid([]byte(wide)) {
		return wide
	}
	spans := balancedArrays(cleaned)
	for i := len(spans) - 1; i >= 0; i-- {
		if json.Valid([]byte(spans[i])) {
			return spans[i]
		}
	}
	return wide
}

// balancedArrays lists every top-level bracketed span of s in order. Quotes
// only count inside a span, since prose is full of apostrophes.
func balancedArrays(s string) []string {
	var (
		spans    []string
		depth    int
		start    int
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[', '{':
			if depth == 0 {
				if c != '[' {
					continue
				}
				start = i
			}
			depth++
		case ']', '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, s[start:i+1])
			}
		}
	}
	return spans
}

// Truncate shortens s to at most maxLen bytes for logging, never splitting a rune.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
