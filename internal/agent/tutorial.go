package agent

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/network"
)

//go:embed tutorial.txt
var defaultTutorial string

// DefaultTutorial is the built-in protocol description sent with every request
// when no tutorial URL is configured.
func DefaultTutorial() string { return defaultTutorial }

// TutorialSource supplies the tutorial text once per run.
type TutorialSource interface {
	Load(ctx context.Context) (string, error)
}

// StaticTutorial always returns the same text.
type StaticTutorial string

func (s StaticTutorial) Load(context.Context) (string, error) { return string(s), nil }

// RemoteTutorial fetches the tutorial over HTTP, retrying transient failures
// with exponential backoff. An empty URL falls back to the built-in text.
type RemoteTutorial struct {
	URL             string
	Client          *http.Client
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	Logger          *zap.Logger
}

// maxTutorialBytes bounds the body read from the tutorial URL.
const maxTutorialBytes = 1 << 20

func (t *RemoteTutorial) Load(ctx context.Context) (string, error) {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if t.URL == "" {
		logger.Debug("No tutorial URL configured, using the built-in tutorial")
		return defaultTutorial, nil
	}
	client := t.Client
	if client == nil {
		client = network.NewClientWithTimeout(30*time.Second, logger)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = t.MaxElapsed
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = 30 * time.Second
	}
	if t.InitialInterval > 0 {
		b.InitialInterval = t.InitialInterval
	}

	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		resp, err := client.Do(req)
		if err != nil {
			logger.Warn("Network error fetching tutorial, retrying...", zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			logger.Warn("Tutorial server returned a transient error, retrying...", zap.Int("status", resp.StatusCode))
			return fmt.Errorf("tutorial fetch: HTTP %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("tutorial fetch: HTTP %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxTutorialBytes))
		if err != nil {
			return fmt.Errorf("failed to read tutorial body: %w", err)
		}
		if strings.TrimSpace(string(body)) == "" {
			return backoff.Permanent(fmt.Errorf("tutorial at %s is empty", t.URL))
		}
		text = string(body)
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTutorialUnavailable, err)
	}
	logger.Info("Tutorial loaded", zap.String("url", t.URL), zap.Int("bytes", len(text)))
	return text, nil
}
