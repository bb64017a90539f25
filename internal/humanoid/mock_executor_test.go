package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// mockExecutor records every event and sleep instead of touching the desktop.
type mockExecutor struct {
	mu sync.Mutex

	mouseEvents    []MouseEventData
	keyEvents      []KeyEventData
	sleepDurations []time.Duration

	width, height int
	cursor        Vector2D
	cursorErr     error

	returnErr    error
	failOnCall   int // DispatchMouseEvent/DispatchKeyEvent call number that fails (1-based).
	cancelOnCall int // DispatchMouseEvent call number after which cancelFunc runs.
	cancelFunc   context.CancelFunc
	callCount    int
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{width: 1920, height: 1080}
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleepDurations = append(m.sleepDurations, d)
	return nil
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.returnErr != nil && m.failOnCall > 0 && m.callCount >= m.failOnCall {
		return m.returnErr
	}
	m.mouseEvents = append(m.mouseEvents, data)
	if m.cancelOnCall > 0 && len(m.mouseEvents) == m.cancelOnCall && m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}

func (m *mockExecutor) DispatchKeyEvent(ctx context.Context, data KeyEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.returnErr != nil && m.failOnCall > 0 && m.callCount == m.failOnCall {
		return m.returnErr
	}
	m.keyEvents = append(m.keyEvents, data)
	return nil
}

func (m *mockExecutor) ScreenSize(ctx context.Context) (int, int, error) {
	return m.width, m.height, nil
}

func (m *mockExecutor) CursorPosition(ctx context.Context) (Vector2D, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, m.cursorErr
}

func (m *mockExecutor) totalSleep() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, d := range m.sleepDurations {
		total += d
	}
	return total
}

// newTestHumanoid creates a Humanoid with a fixed seed so paths are reproducible.
func newTestHumanoid(executor Executor) *Humanoid {
	const seed = 12345
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Rng = rand.New(rand.NewSource(seed))
	return New(cfg, zap.NewNop(), executor)
}
