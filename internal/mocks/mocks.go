// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/humanoid"
	"github.com/xkilldash9x/aiport/internal/llmclient"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Agent() config.AgentConfig {
	args := m.Called()
	return args.Get(0).(config.AgentConfig)
}

func (m *MockConfig) Providers() config.ProvidersConfig {
	args := m.Called()
	return args.Get(0).(config.ProvidersConfig)
}

func (m *MockConfig) Capture() config.CaptureConfig {
	args := m.Called()
	return args.Get(0).(config.CaptureConfig)
}

func (m *MockConfig) Executor() config.ExecutorConfig {
	args := m.Called()
	return args.Get(0).(config.ExecutorConfig)
}

func (m *MockConfig) Speech() config.SpeechConfig {
	args := m.Called()
	return args.Get(0).(config.SpeechConfig)
}

func (m *MockConfig) Usage() config.UsageConfig {
	args := m.Called()
	return args.Get(0).(config.UsageConfig)
}

// -- Controller Mock --

// MockController mocks humanoid.Controller.
type MockController struct {
	mock.Mock
}

var _ humanoid.Controller = (*MockController)(nil)

func (m *MockController) MoveTo(ctx context.Context, target humanoid.Vector2D) error {
	return m.Called(ctx, target).Error(0)
}

func (m *MockController) Click(ctx context.Context, button humanoid.MouseButton, count int) error {
	return m.Called(ctx, button, count).Error(0)
}

func (m *MockController) MultiClick(ctx context.Context, target humanoid.Vector2D, count int) error {
	return m.Called(ctx, target, count).Error(0)
}

func (m *MockController) MouseDown(ctx context.Context, button humanoid.MouseButton) error {
	return m.Called(ctx, button).Error(0)
}

func (m *MockController) MouseUp(ctx context.Context, button humanoid.MouseButton) error {
	return m.Called(ctx, button).Error(0)
}

func (m *MockController) Scroll(ctx context.Context, dy int) error {
	return m.Called(ctx, dy).Error(0)
}

func (m *MockController) Type(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

// Hotkey passes keys as a single slice argument so expectations can match it.
func (m *MockController) Hotkey(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockController) KeyHold(ctx context.Context, key string, seconds float64) error {
	return m.Called(ctx, key, seconds).Error(0)
}

func (m *MockController) Pause(ctx context.Context, d time.Duration) error {
	return m.Called(ctx, d).Error(0)
}

// -- Speaker Mock --

// MockSpeaker mocks speech.Speaker.
type MockSpeaker struct {
	mock.Mock
}

func (m *MockSpeaker) Speak(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

// -- Provider Mock --

// MockProvider mocks llmclient.Provider.
type MockProvider struct {
	mock.Mock
}

var _ llmclient.Provider = (*MockProvider)(nil)

func (m *MockProvider) Name() config.LLMProvider {
	args := m.Called()
	return args.Get(0).(config.LLMProvider)
}

func (m *MockProvider) Send(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	args := m.Called(ctx, req)
	var resp *llmclient.Response
	if r := args.Get(0); r != nil {
		resp = r.(*llmclient.Response)
	}
	return resp, args.Error(1)
}
