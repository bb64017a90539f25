// Package desktop delivers input events to the host and reads the screen
// through robotgo.
package desktop

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/humanoid"
)

// backend is the slice of robotgo the robot uses.
type backend interface {
	Move(x, y int)
	Toggle(button string, up bool) error
	KeyToggle(key string, up bool) error
	TypeStr(text string)
	Scroll(dy int)
	Location() (int, int)
	ScreenSize() (int, int)
	Capture() (image.Image, error)
}

type robotgoBackend struct{}

func (robotgoBackend) Move(x, y int) { robotgo.Move(x, y) }

func (robotgoBackend) Toggle(button string, up bool) error {
	if up {
		return robotgo.Toggle(button, "up")
	}
	return robotgo.Toggle(button)
}

func (robotgoBackend) KeyToggle(key string, up bool) error {
	if up {
		return robotgo.KeyToggle(key, "up")
	}
	return robotgo.KeyToggle(key, "down")
}

func (robotgoBackend) TypeStr(text string)           { robotgo.TypeStr(text) }
func (robotgoBackend) Scroll(dy int)                 { robotgo.Scroll(0, dy) }
func (robotgoBackend) Location() (int, int)          { return robotgo.Location() }
func (robotgoBackend) ScreenSize() (int, int)        { return robotgo.GetScreenSize() }
func (robotgoBackend) Capture() (image.Image, error) { return robotgo.CaptureImg() }

// Robot implements humanoid.Executor and capture.Screen against the real desktop.
// Calls are serialized; the underlying libraries are not safe for concurrent use.
type Robot struct {
	mu      sync.Mutex
	backend backend
	logger  *zap.Logger
}

// NewRobot returns a robot that drives the host's display.
func NewRobot(logger *zap.Logger) *Robot {
	return newRobot(robotgoBackend{}, logger)
}

func newRobot(b backend, logger *zap.Logger) *Robot {
	return &Robot{backend: b, logger: logger.Named("desktop")}
}

// Available reports ErrInputUnavailable when no usable display is attached.
func (r *Robot) Available(ctx context.Context) error {
	_, _, err := r.ScreenSize(ctx)
	return err
}

func (r *Robot) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Robot) DispatchMouseEvent(ctx context.Context, data humanoid.MouseEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch data.Type {
	case humanoid.MouseMove:
		r.backend.Move(round(data.X), round(data.Y))
		return nil
	case humanoid.MousePress, humanoid.MouseRelease:
		button, err := buttonName(data.Button)
		if err != nil {
			return err
		}
		if err := r.backend.Toggle(button, data.Type == humanoid.MouseRelease); err != nil {
			return fmt.Errorf("desktop: %s %s: %w", data.Type, button, err)
		}
		return nil
	case humanoid.MouseWheel:
		r.backend.Scroll(round(data.DeltaY))
		return nil
	default:
		return fmt.Errorf("desktop: unsupported mouse event %q", data.Type)
	}
}

func (r *Robot) DispatchKeyEvent(ctx context.Context, data humanoid.KeyEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch data.Type {
	case humanoid.KeyChar:
		r.backend.TypeStr(data.Text)
		return nil
	case humanoid.KeyDown, humanoid.KeyUp:
		key := KeyName(data.Key)
		if key == "" {
			return fmt.Errorf("desktop: empty key name")
		}
		if err := r.backend.KeyToggle(key, data.Type == humanoid.KeyUp); err != nil {
			return fmt.Errorf("desktop: %s %q: %w", data.Type, key, err)
		}
		return nil
	default:
		return fmt.Errorf("desktop: unsupported key event %q", data.Type)
	}
}

func (r *Robot) ScreenSize(ctx context.Context) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, h := r.backend.ScreenSize()
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: screen size reported as %dx%d", humanoid.ErrInputUnavailable, w, h)
	}
	return w, h, nil
}

func (r *Robot) CursorPosition(ctx context.Context) (humanoid.Vector2D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, y := r.backend.Location()
	return humanoid.Vector2D{X: float64(x), Y: float64(y)}, nil
}

// Grab captures the primary screen.
func (r *Robot) Grab(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	img, err := r.backend.Capture()
	if err != nil {
		return nil, fmt.Errorf("desktop: capture: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: screen capture returned no pixels", humanoid.ErrInputUnavailable)
	}
	return img, nil
}

// Pointer reports the cursor position for the capture overlay.
func (r *Robot) Pointer(ctx context.Context) (image.Point, error) {
	pos, err := r.CursorPosition(ctx)
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(int(pos.X), int(pos.Y)), nil
}

func buttonName(b humanoid.MouseButton) (string, error) {
	switch b {
	case humanoid.ButtonLeft, humanoid.ButtonRight:
		return string(b), nil
	case humanoid.ButtonMiddle:
		// robotgo calls the middle button "center".
		return "center", nil
	default:
		return "", fmt.Errorf("desktop: unsupported mouse button %q", b)
	}
}

func round(v float64) int { return int(math.Round(v)) }

// keyAliases maps names models commonly emit onto robotgo's key names.
var keyAliases = map[string]string{
	"control":    "ctrl",
	"ctl":        "ctrl",
	"option":     "alt",
	"opt":        "alt",
	"win":        "cmd",
	"windows":    "cmd",
	"super":      "cmd",
	"meta":       "cmd",
	"command":    "cmd",
	"return":     "enter",
	"escape":     "esc",
	"del":        "delete",
	"bksp":       "backspace",
	"back":       "backspace",
	"pgup":       "pageup",
	"page_up":    "pageup",
	"pgdn":       "pagedown",
	"page_down":  "pagedown",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"spacebar":   "space",
	"ins":        "insert",
	"prtsc":      "printscreen",
	"caps":       "capslock",
	"caps_lock":  "capslock",
}

// KeyName normalizes a key name for robotgo. Single characters keep their
// case so shifted symbols survive.
func KeyName(key string) string {
	if key == " " {
		return "space"
	}
	k := strings.TrimSpace(key)
	if len([]rune(k)) == 1 {
		return k
	}
	k = strings.ToLower(k)
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}
