// Package speech reads text aloud for the speak action.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/network"
)

const (
	// maxChunkRunes is the longest text the TTS endpoint accepts per request.
	maxChunkRunes   = 200
	fallbackLang    = "en"
	defaultEndpoint = "https://translate.google.com/translate_tts"
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64) aiport"
)

// Speaker turns text into audible speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Player plays an audio file to completion.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer runs an external program with the file path appended to Args.
type CommandPlayer struct {
	Args []string
}

func (p CommandPlayer) Play(ctx context.Context, path string) error {
	if len(p.Args) == 0 {
		return fmt.Errorf("speech: no player command configured")
	}
	args := append(append([]string(nil), p.Args[1:]...), path)
	cmd := exec.CommandContext(ctx, p.Args[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech: %s: %w (%s)", p.Args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// GoogleSpeaker synthesizes speech with the Google Translate TTS endpoint.
type GoogleSpeaker struct {
	endpoint   string
	httpClient *http.Client
	fs         afero.Fs
	dir        string
	player     Player
	logger     *zap.Logger
	now        func() time.Time
}

// New returns the configured speaker. When speech is disabled the returned
// speaker only logs the text.
func New(cfg config.SpeechConfig, fs afero.Fs, logger *zap.Logger) Speaker {
	logger = logger.Named("speech")
	if !cfg.Enabled {
		return &mute{logger: logger}
	}
	return NewGoogleSpeaker(cfg, fs, CommandPlayer{Args: cfg.Player}, logger)
}

func NewGoogleSpeaker(cfg config.SpeechConfig, fs afero.Fs, player Player, logger *zap.Logger) *GoogleSpeaker {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleSpeaker{
		endpoint:   endpoint,
		httpClient: network.NewClientWithTimeout(timeout, logger),
		fs:         fs,
		dir:        dir,
		player:     player,
		logger:     logger,
		now:        time.Now,
	}
}

// Speak detects the language of text, synthesizes it and plays it
// synchronously. Empty text is a no-op.
func (s *GoogleSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lang := DetectLanguage(text)
	s.logger.Info("Speaking", zap.String("lang", lang), zap.Int("runes", utf8.RuneCountInString(text)))

	var audio bytes.Buffer
	for _, chunk := range SplitChunks(text, maxChunkRunes) {
		if err := s.fetch(ctx, lang, chunk, &audio); err != nil {
			return err
		}
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("speech: create temp dir: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("speech_%d.mp3", s.now().UnixNano()))
	if err := afero.WriteFile(s.fs, path, audio.Bytes(), 0o600); err != nil {
		return fmt.Errorf("speech: write audio: %w", err)
	}
	defer func() {
		if err := s.fs.Remove(path); err != nil {
			s.logger.Warn("Could not remove speech file", zap.String("path", path), zap.Error(err))
		}
	}()

	if err := s.player.Play(ctx, path); err != nil {
		return fmt.Errorf("speech: play: %w", err)
	}
	return nil
}

func (s *GoogleSpeaker) fetch(ctx context.Context, lang, chunk string, w io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("speech: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech: fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech: TTS endpoint returned HTTP %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("speech: read audio: %w", err)
	}
	return nil
}

// DetectLanguage returns the ISO 639-1 code of text, or "en" when the guess
// is unreliable or has no two-letter code.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return fallbackLang
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return fallbackLang
}

// SplitChunks breaks text at whitespace into pieces of at most limit runes.
// Words longer than limit are cut.
func SplitChunks(text string, limit int) []string {
	var chunks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			chunks = append(chunks, string(w[:limit]))
			w = w[limit:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= limit:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			flush()
			cur = append(cur, w...)
		}
	}
	flush()
	return chunks
}

type mute struct{ logger *zap.Logger }

func (m *mute) Speak(_ context.Context, text string) error {
	m.logger.Info("Speech disabled, not speaking", zap.String("text", text))
	return nil
}
