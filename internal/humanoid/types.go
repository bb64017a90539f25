// internal/humanoid/types.go
package humanoid

// MouseEventType defines the type of mouse event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton defines the mouse button.
type MouseButton string

const (
	ButtonNone   MouseButton = "none"
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// MouseEventData holds the data required to dispatch a mouse event.
type MouseEventData struct {
	Type MouseEventType
	X    float64
	Y    float64
	// Button that was pressed or released (relevant for Press/Release events).
	Button MouseButton
	// Number of consecutive clicks.
	ClickCount int
	// Buttons is a bitfield of the buttons held during the event (1: Left, 2: Right, 4: Middle).
	Buttons int64
	// DeltaY is the signed wheel amount for MouseWheel events. Positive scrolls up.
	DeltaY float64
}

// KeyEventType defines the type of keyboard event.
type KeyEventType string

const (
	KeyDown KeyEventType = "keyDown"
	KeyUp   KeyEventType = "keyUp"
	// KeyChar produces a single character of text without a named key.
	KeyChar KeyEventType = "char"
)

// KeyEventData holds the data required to dispatch a keyboard event.
type KeyEventData struct {
	Type KeyEventType
	// Key is the platform-neutral key name ("ctrl", "enter", "a") for KeyDown/KeyUp.
	Key string
	// Text is the character produced by a KeyChar event.
	Text string
}
