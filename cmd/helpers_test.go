// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/humanoid"
	"github.com/xkilldash9x/aiport/internal/llmclient"
)

// testEnv is an isolated config file plus the directory it lives in.
type testEnv struct {
	dir        string
	configPath string
}

// newTestEnv writes a config file into a temp dir. extra is appended YAML.
func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{dir: dir, configPath: filepath.Join(dir, "config.yaml")}
	base := "logger:\n  log_file: \"\"\nusage:\n  ledger_path: " + env.ledgerPath() + "\n"
	require.NoError(t, afero.WriteFile(afero.NewOsFs(), env.configPath, []byte(base+extra), 0o644))
	return env
}

func (e testEnv) ledgerPath() string { return filepath.Join(e.dir, "money_usage.json") }

// execute runs a fresh root command against the env's config, returning
// everything written to stdout and stderr.
func (e testEnv) execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// fakeInput records dispatched events in place of the desktop.
type fakeInput struct {
	mu     sync.Mutex
	mouse  []humanoid.MouseEventData
	keys   []humanoid.KeyEventData
	cursor humanoid.Vector2D
}

func (f *fakeInput) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func (f *fakeInput) DispatchMouseEvent(_ context.Context, data humanoid.MouseEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mouse = append(f.mouse, data)
	if data.Type == humanoid.MouseMove {
		f.cursor = humanoid.Vector2D{X: data.X, Y: data.Y}
	}
	return nil
}

func (f *fakeInput) DispatchKeyEvent(_ context.Context, data humanoid.KeyEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, data)
	return nil
}

func (f *fakeInput) ScreenSize(context.Context) (int, int, error) { return 1920, 1080, nil }

func (f *fakeInput) CursorPosition(context.Context) (humanoid.Vector2D, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, nil
}

func (f *fakeInput) mouseEvents() []humanoid.MouseEventData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]humanoid.MouseEventData(nil), f.mouse...)
}

// fakeScreen returns a small solid frame.
type fakeScreen struct{}

func (fakeScreen) Grab(context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.Black)
	return img, nil
}

func (fakeScreen) Pointer(context.Context) (image.Point, error) { return image.Pt(32, 18), nil }

// cannedProvider answers with the scripted replies, then "[]".
type cannedProvider struct {
	mu      sync.Mutex
	replies []string
	seen    []llmclient.Request
}

func (p *cannedProvider) Name() config.LLMProvider { return config.ProviderOllama }

func (p *cannedProvider) Send(_ context.Context, req llmclient.Request) (*llmclient.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, req)
	text := "[]"
	if len(p.replies) > 0 {
		text, p.replies = p.replies[0], p.replies[1:]
	}
	return &llmclient.Response{Text: text, Usage: llmclient.Usage{PromptTokens: 1000, CompletionTokens: 20}}, nil
}

// installFakes swaps the desktop and model factories for the duration of t.
func installFakes(t *testing.T, provider *cannedProvider) (*fakeInput, afero.Fs) {
	t.Helper()
	input := &fakeInput{}
	fs := afero.NewMemMapFs()
	origPlatform, origProvider := newPlatform, newProvider
	newPlatform = func(context.Context, *zap.Logger) (platform, error) {
		return platform{input: input, screen: fakeScreen{}, fs: fs}, nil
	}
	newProvider = func(config.LLMProvider, config.Interface, *zap.Logger) (llmclient.Provider, error) {
		return provider, nil
	}
	t.Cleanup(func() {
		newPlatform, newProvider = origPlatform, origProvider
	})
	return input, fs
}
