// Package action defines the plan a vision model returns and decodes it from
// the model's untrusted reply.
package action

import (
	json "github.com/json-iterator/go"
)

// Kind is the wire tag of an action.
type Kind string

const (
	KindMove       Kind = "move"
	KindClick      Kind = "click"
	KindClickDown  Kind = "click_down"
	KindClickUp    Kind = "click_up"
	KindScroll     Kind = "scroll"
	KindType       Kind = "type"
	KindHotkey     Kind = "hotkey"
	KindMultiClick Kind = "multi_click"
	KindKeyHold    Kind = "key_hold"
	KindSpeak      Kind = "speak"
)

// legacyKeyHold is the older wire name for key_hold that models trained on
// older tutorials still emit.
const legacyKeyHold = "key_down_for_seconds"

// Kinds lists every supported kind.
var Kinds = []Kind{
	KindMove, KindClick, KindClickDown, KindClickUp, KindScroll,
	KindType, KindHotkey, KindMultiClick, KindKeyHold, KindSpeak,
}

// Button is a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

const (
	defaultClickCount      = 1
	defaultMultiClickCount = 2
	defaultKeyHoldSeconds  = 1.0
	// maxClickCount bounds how many clicks a single element may request.
	maxClickCount = 100
)

// Action is one primitive input operation. Only the fields relevant to Kind
// are meaningful; the constructors below set exactly those.
type Action struct {
	Kind   Kind
	X, Y   float64
	Button Button
	Count  int
	// DY is the signed vertical wheel amount. Positive scrolls up.
	DY   int
	Text string
	Keys []string
	Key  string
	// Duration is the key hold time in seconds.
	Duration float64
}

// Plan is the ordered list of actions from a single model reply.
type Plan []Action

func Move(x, y float64) Action { return Action{Kind: KindMove, X: x, Y: y} }

func Click(b Button, count int) Action { return Action{Kind: KindClick, Button: b, Count: count} }

func ClickDown(b Button) Action { return Action{Kind: KindClickDown, Button: b} }

func ClickUp(b Button) Action { return Action{Kind: KindClickUp, Button: b} }

func Scroll(dy int) Action { return Action{Kind: KindScroll, DY: dy} }

func Type(text string) Action { return Action{Kind: KindType, Text: text} }

func Hotkey(keys ...string) Action { return Action{Kind: KindHotkey, Keys: keys} }

func MultiClick(x, y float64, count int) Action {
	return Action{Kind: KindMultiClick, X: x, Y: y, Count: count}
}

func KeyHold(key string, seconds float64) Action {
	return Action{Kind: KindKeyHold, Key: key, Duration: seconds}
}

func Speak(text string) Action { return Action{Kind: KindSpeak, Text: text} }

// wireAction is the JSON shape of every kind. Pointer fields distinguish an
// absent field from a zero value.
type wireAction struct {
	Type     string   `json:"type"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	DX       *float64 `json:"dx,omitempty"`
	DY       *float64 `json:"dy,omitempty"`
	Button   *string  `json:"button,omitempty"`
	Count    *float64 `json:"count,omitempty"`
	Text     *string  `json:"text,omitempty"`
	Keys     []string `json:"keys,omitempty"`
	Key      *string  `json:"key,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// MarshalJSON writes the canonical wire form, carrying only the fields of the kind.
func (a Action) MarshalJSON() ([]byte, error) {
	w := wireAction{Type: string(a.Kind)}
	button := string(a.Button)
	count := float64(a.Count)
	dy := float64(a.DY)

	switch a.Kind {
	case KindMove:
		w.X, w.Y = &a.X, &a.Y
	case KindClick:
		w.Button, w.Count = &button, &count
	case KindClickDown, KindClickUp:
		w.Button = &button
	case KindScroll:
		w.DY = &dy
	case KindType, KindSpeak:
		w.Text = &a.Text
	case KindHotkey:
		w.Keys = a.Keys
	case KindMultiClick:
		w.X, w.Y, w.Count = &a.X, &a.Y, &count
	case KindKeyHold:
		w.Key, w.Duration = &a.Key, &a.Duration
	}
	return json.Marshal(w)
}
