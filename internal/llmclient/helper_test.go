package llmclient

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/aiport/internal/config"
)

// pngStub is not a real image; adapters only forward the bytes.
var pngStub = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nstub"))

// setupTestLogger is a helper to create a zap logger for testing with an observer.
func setupTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	core, _ := observer.New(zap.DebugLevel)
	return zap.New(core)
}

func testRequest() Request {
	return Request{
		Instruction: "open the browser",
		Tutorial:    "reply with a JSON array",
		ImageBase64: pngStub,
		ImageMIME:   "image/png",
		Model:       "test-model",
		Credential:  "test-api-key",
	}
}

func providerConfig(endpoint string) config.ProviderConfig {
	return config.ProviderConfig{Endpoint: endpoint, Timeout: 5 * time.Second}
}

// recordedRequest captures what a fake vendor endpoint received.
type recordedRequest struct {
	Path    string
	Header  http.Header
	Payload map[string]any
}

// fakeVendor serves a fixed status and body and records each request.
type fakeVendor struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	delay    time.Duration
}

func newFakeVendor(t *testing.T, status int, body string) (*fakeVendor, *httptest.Server) {
	t.Helper()
	f := &fakeVendor{status: status, body: body}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeVendor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Path: r.URL.Path, Header: r.Header.Clone(), Payload: payload})
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func (f *fakeVendor) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("vendor received no request")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeVendor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
