package action

import (
	"errors"
	"fmt"
	"math"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/aiport/internal/llmutil"
)

// DecodeError reports a reply whose top level is not a JSON array of actions.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("action plan is not a JSON array: %v (reply: %q)", e.Err, llmutil.Truncate(e.Raw, 200))
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Rejection describes one array element that was dropped from the plan.
type Rejection struct {
	Index  int
	Type   string
	Reason string
	Raw    string
}

func (r Rejection) String() string {
	if r.Type == "" {
		return fmt.Sprintf("element %d rejected: %s", r.Index, r.Reason)
	}
	return fmt.Sprintf("element %d (%s) rejected: %s", r.Index, r.Type, r.Reason)
}

// Parse decodes a model reply into a plan. Code fences and surrounding prose
// are stripped first. Elements that are malformed, of an unknown type, or
// missing a mandatory field are dropped and reported as rejections; the rest
// keep their order. A reply whose top level is not an array yields a
// *DecodeError. A top-level null is the empty plan.
//
// An empty plan with no rejections means the model sent "[]", which is the
// completion signal.
func Parse(raw string) (plan Plan, rejected []Rejection, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan, rejected = nil, nil
			err = &DecodeError{Raw: raw, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	body := llmutil.ExtractJSONArray(raw)
	if body == "" {
		return nil, nil, &DecodeError{Raw: raw, Err: errors.New("empty reply")}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elements); err != nil {
		return nil, nil, &DecodeError{Raw: raw, Err: err}
	}

	plan = make(Plan, 0, len(elements))
	for i, el := range elements {
		a, rej := decodeElement(el)
		if rej != nil {
			rej.Index = i
			rejected = append(rejected, *rej)
			continue
		}
		plan = append(plan, a)
	}
	return plan, rejected, nil
}

func decodeElement(el json.RawMessage) (Action, *Rejection) {
	reject := func(typ, format string, args ...interface{}) (Action, *Rejection) {
		return Action{}, &Rejection{Type: typ, Reason: fmt.Sprintf(format, args...), Raw: llmutil.Truncate(string(el), 200)}
	}

	var w wireAction
	if err := json.Unmarshal(el, &w); err != nil {
		return reject("", "malformed element: %v", err)
	}
	typ := strings.ToLower(strings.TrimSpace(w.Type))
	if typ == "" {
		return reject("", "missing type")
	}
	if typ == legacyKeyHold {
		typ = string(KindKeyHold)
	}

	kind := Kind(typ)
	switch kind {
	case KindMove:
		if w.X == nil || w.Y == nil {
			return reject(typ, "x and y are required")
		}
		if !finite(*w.X, *w.Y) {
			return reject(typ, "x and y must be finite")
		}
		return Move(*w.X, *w.Y), nil

	case KindClick:
		b, err := button(w.Button)
		if err != nil {
			return reject(typ, "%v", err)
		}
		n, err := count(w.Count, defaultClickCount)
		if err != nil {
			return reject(typ, "%v", err)
		}
		return Click(b, n), nil

	case KindClickDown, KindClickUp:
		b, err := button(w.Button)
		if err != nil {
			return reject(typ, "%v", err)
		}
		return Action{Kind: kind, Button: b}, nil

	case KindScroll:
		dy := 0.0
		if w.DY != nil {
			dy = *w.DY
		}
		if dy != math.Trunc(dy) || math.Abs(dy) > math.MaxInt32 {
			return reject(typ, "dy must be an integer")
		}
		return Scroll(int(dy)), nil

	case KindType:
		if w.Text == nil {
			return reject(typ, "text is required")
		}
		return Type(*w.Text), nil

	case KindSpeak:
		if w.Text == nil {
			return reject(typ, "text is required")
		}
		return Speak(*w.Text), nil

	case KindHotkey:
		if len(w.Keys) == 0 {
			return reject(typ, "keys must be a non-empty list")
		}
		for _, k := range w.Keys {
			if strings.TrimSpace(k) == "" {
				return reject(typ, "keys must not contain empty names")
			}
		}
		return Hotkey(w.Keys...), nil

	case KindMultiClick:
		if w.X == nil || w.Y == nil {
			return reject(typ, "x and y are required")
		}
		if !finite(*w.X, *w.Y) {
			return reject(typ, "x and y must be finite")
		}
		n, err := count(w.Count, defaultMultiClickCount)
		if err != nil {
			return reject(typ, "%v", err)
		}
		return MultiClick(*w.X, *w.Y, n), nil

	case KindKeyHold:
		if w.Key == nil || strings.TrimSpace(*w.Key) == "" {
			return reject(typ, "key is required")
		}
		d := defaultKeyHoldSeconds
		if w.Duration != nil {
			d = *w.Duration
		}
		if !finite(d) {
			return reject(typ, "duration must be finite")
		}
		return KeyHold(*w.Key, d), nil
	}

	return reject(typ, "unknown action type")
}

func button(raw *string) (Button, error) {
	if raw == nil {
		return ButtonLeft, nil
	}
	switch b := Button(strings.ToLower(strings.TrimSpace(*raw))); b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return b, nil
	case "":
		return ButtonLeft, nil
	default:
		return "", fmt.Errorf("unsupported button %q", *raw)
	}
}

func count(raw *float64, def int) (int, error) {
	if raw == nil {
		return def, nil
	}
	c := *raw
	if c != math.Trunc(c) || c < 0 || c > maxClickCount {
		return 0, fmt.Errorf("count must be an integer between 0 and %d", maxClickCount)
	}
	return int(c), nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
