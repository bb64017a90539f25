// Filename: internal/humanoid/trajectory_test.go
package humanoid

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEaseInOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, computeEaseInOutCubic(0))
	assert.Equal(t, 1.0, computeEaseInOutCubic(1))
	assert.InDelta(t, 0.5, computeEaseInOutCubic(0.5), 1e-9)

	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := computeEaseInOutCubic(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev, "easing must be monotonic")
		prev = v
	}
}

func TestGenerateIdealPath(t *testing.T) {
	h := newTestHumanoid(newMockExecutor())
	start, end := Vector2D{X: 100, Y: 100}, Vector2D{X: 700, Y: 400}

	path := h.generateIdealPath(start, end, 50)
	require.Len(t, path, 50)
	assert.InDelta(t, start.X, path[0].X, 1e-9)
	assert.InDelta(t, start.Y, path[0].Y, 1e-9)
	assert.Equal(t, end, path[49])

	// The bow never strays further than the curvature allows.
	limit := start.Dist(end) * (h.cfg.Curvature + 0.01)
	for _, p := range path {
		assert.Less(t, distanceToSegment(p, start, end), limit)
	}

	t.Run("short hop collapses to the target", func(t *testing.T) {
		path := h.generateIdealPath(start, Vector2D{X: 100.5, Y: 100}, 50)
		assert.Equal(t, []Vector2D{{X: 100.5, Y: 100}}, path)
	})
}

func distanceToSegment(p, a, b Vector2D) float64 {
	ab := b.Sub(a)
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / (ab.X*ab.X + ab.Y*ab.Y)
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Mul(t)))
}

func TestMoveTo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		cursor    Vector2D
		target    Vector2D
		setupMock func(m *mockExecutor, cancel context.CancelFunc)
		validate  func(t *testing.T, m *mockExecutor, h *Humanoid, err error)
	}{
		{
			name:      "happy path lands exactly over the fixed duration",
			cursor:    Vector2D{X: 100, Y: 100},
			target:    Vector2D{X: 250, Y: 220},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				require.NoError(t, err)
				// 500ms at 100 events per second.
				require.Len(t, m.mouseEvents, 50)
				assert.Len(t, m.sleepDurations, 50)
				assert.Equal(t, 500*time.Millisecond, m.totalSleep())

				first := m.mouseEvents[0]
				assert.Equal(t, MouseMove, first.Type)
				assert.Equal(t, ButtonNone, first.Button)
				assert.InDelta(t, 100.0, first.X, 1e-6)
				assert.InDelta(t, 100.0, first.Y, 1e-6)

				last := m.mouseEvents[len(m.mouseEvents)-1]
				assert.Equal(t, 250.0, last.X)
				assert.Equal(t, 220.0, last.Y)
				assert.Equal(t, Vector2D{X: 250, Y: 220}, h.Position())
			},
		},
		{
			name:      "targets outside the screen are clamped",
			cursor:    Vector2D{X: 10, Y: 10},
			target:    Vector2D{X: 5000, Y: -20},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				require.NoError(t, err)
				last := m.mouseEvents[len(m.mouseEvents)-1]
				assert.Equal(t, 1919.0, last.X)
				assert.Equal(t, 0.0, last.Y)
				for _, ev := range m.mouseEvents {
					assert.True(t, ev.X >= 0 && ev.X <= 1919 && ev.Y >= 0 && ev.Y <= 1079, "event off screen: %+v", ev)
				}
			},
		},
		{
			name:      "non finite target sends nothing",
			target:    Vector2D{X: math.NaN(), Y: 5},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
				assert.Empty(t, m.mouseEvents)
			},
		},
		{
			name:   "context cancellation mid trajectory",
			cursor: Vector2D{X: 0, Y: 0},
			target: Vector2D{X: 500, Y: 500},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {
				m.cancelOnCall = 10
				m.cancelFunc = cancel
			},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				require.Error(t, err)
				assert.ErrorIs(t, err, context.Canceled)
				assert.Len(t, m.mouseEvents, 10)
			},
		},
		{
			name:   "dependency failure mid trajectory",
			cursor: Vector2D{X: 0, Y: 0},
			target: Vector2D{X: 500, Y: 500},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {
				m.returnErr = ErrInputUnavailable
				m.failOnCall = 5
			},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInputUnavailable)
				assert.Len(t, m.mouseEvents, 4)
			},
		},
		{
			name:      "zero distance move is a single event",
			cursor:    Vector2D{X: 300, Y: 300},
			target:    Vector2D{X: 300, Y: 300},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				require.NoError(t, err)
				assert.Len(t, m.mouseEvents, 1)
				assert.Empty(t, m.sleepDurations)
			},
		},
		{
			name:   "unknown cursor position falls back to tracked position",
			target: Vector2D{X: 40, Y: 40},
			setupMock: func(m *mockExecutor, cancel context.CancelFunc) {
				m.cursorErr = errors.New("no pointer")
			},
			validate: func(t *testing.T, m *mockExecutor, h *Humanoid, err error) {
				require.NoError(t, err)
				assert.InDelta(t, 0.0, m.mouseEvents[0].X, 1e-6)
				assert.Equal(t, 40.0, m.mouseEvents[len(m.mouseEvents)-1].X)
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mockExec := newMockExecutor()
			mockExec.cursor = tc.cursor
			h := newTestHumanoid(mockExec)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tc.setupMock(mockExec, cancel)

			err := h.MoveTo(ctx, tc.target)
			tc.validate(t, mockExec, h, err)
		})
	}
}

func TestMoveTo_HeldButtonIsReported(t *testing.T) {
	m := newMockExecutor()
	h := newTestHumanoid(m)
	ctx := context.Background()

	require.NoError(t, h.MouseDown(ctx, ButtonLeft))
	require.NoError(t, h.MoveTo(ctx, Vector2D{X: 100, Y: 100}))
	require.NoError(t, h.MouseUp(ctx, ButtonLeft))

	moves := m.mouseEvents[1 : len(m.mouseEvents)-1]
	require.NotEmpty(t, moves)
	for _, ev := range moves {
		assert.Equal(t, MouseMove, ev.Type)
		assert.Equal(t, int64(1), ev.Buttons)
	}
	assert.Equal(t, int64(0), m.mouseEvents[len(m.mouseEvents)-1].Buttons)
}
