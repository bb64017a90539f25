package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  [{"type":"click"}]  `, `[{"type":"click"}]`},
		{"json fence", "```json\n[{\"type\":\"click\"}]\n```", `[{"type":"click"}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"fence on one line", "```[1]```", `[1]`},
		{"upper tag", "```JSON\n[]\n```", `[]`},
		{"prose around block", "Here you go:\n```json\n[]\n```\nDone.", `[]`},
		{"unterminated fence", "```json\n[]", `[]`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[{"type":"move","x":1,"y":2}]`,
		ExtractJSONArray(`Sure, I'll do that: [{"type":"move","x":1,"y":2}] Let me know.`))
	assert.Equal(t, "[]", ExtractJSONArray("```json\n[]\n```"))
	assert.Equal(t, "null", ExtractJSONArray("null"))
	assert.Equal(t, `{"type":"click"}`, ExtractJSONArray(`{"type":"click"}`), "objects are left for the decoder to reject")
	assert.Equal(t, "no json here", ExtractJSONArray("no json here"))
	assert.Equal(t, "] then [", ExtractJSONArray("] then ["))
}

func TestExtractJSONArray_BracketsInProse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"numbered step", `Step [1]: [{"type":"click"}]`, `[{"type":"click"}]`},
		{"note after plan", `Plan: [{"type":"type","text":"a]b"}] (see [docs])`, `[{"type":"type","text":"a]b"}]`},
		{"apostrophe in prose", `I'll press [enter]: [{"type":"hotkey","keys":["enter"]}]`, `[{"type":"hotkey","keys":["enter"]}]`},
		{"nothing valid", `see [a] and [b]`, `[a] and [b]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONArray(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a...", Truncate("aé", 2))
}
