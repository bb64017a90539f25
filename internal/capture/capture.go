// Package capture grabs the screen, draws the pointer onto it and stores the
// result as a PNG for the model to look at.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/xkilldash9x/aiport/internal/config"
)

const (
	filePrefix  = "screenshot_"
	filePattern = filePrefix + "*.png"

	defaultReferenceWidth  = 1920
	defaultReferenceHeight = 1080
)

// Screen is the platform's view of the display.
type Screen interface {
	// Grab returns the full primary screen.
	Grab(ctx context.Context) (image.Image, error)
	// Pointer returns the cursor position in screen coordinates.
	Pointer(ctx context.Context) (image.Point, error)
}

// Shot is one stored capture.
type Shot struct {
	PNG    []byte
	Path   string
	Cursor image.Point
	Size   image.Point
}

// Pipeline turns screen grabs into annotated PNG files.
type Pipeline struct {
	screen Screen
	fs     afero.Fs
	dir    string
	glyph  image.Image
	refW   int
	refH   int
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New builds a pipeline. A configured cursor image that cannot be read is
// logged and replaced by the built-in arrow.
func New(cfg config.CaptureConfig, screen Screen, fs afero.Fs, logger *zap.Logger) *Pipeline {
	logger = logger.Named("capture")
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	p := &Pipeline{
		screen: screen,
		fs:     fs,
		dir:    dir,
		glyph:  defaultGlyph(),
		refW:   cfg.ReferenceWidth,
		refH:   cfg.ReferenceHeight,
		logger: logger,
		now:    time.Now,
	}
	if p.refW <= 0 {
		p.refW = defaultReferenceWidth
	}
	if p.refH <= 0 {
		p.refH = defaultReferenceHeight
	}
	if cfg.CursorImage != "" {
		glyph, err := loadGlyph(fs, cfg.CursorImage)
		if err != nil {
			logger.Warn("Cursor image unusable, falling back to the built-in arrow",
				zap.String("path", cfg.CursorImage), zap.Error(err))
		} else {
			p.glyph = glyph
		}
	}
	return p
}

func loadGlyph(fs afero.Fs, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode cursor png: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("cursor image is empty")
	}
	return img, nil
}

// Dir is where screenshots are written.
func (p *Pipeline) Dir() string { return p.dir }

// Capture removes earlier screenshots, grabs the screen, composites the
// pointer and writes screenshot_<unix-nanos>.png.
func (p *Pipeline) Capture(ctx context.Context) (Shot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.cleanup(); err != nil {
		p.logger.Warn("Could not remove old screenshots", zap.Error(err))
	}

	frame, err := p.screen.Grab(ctx)
	if err != nil {
		return Shot{}, fmt.Errorf("grab screen: %w", err)
	}
	bounds := frame.Bounds()
	if bounds.Empty() {
		return Shot{}, errors.New("grab screen: empty frame")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, bounds.Min, draw.Src)

	cursor, err := p.screen.Pointer(ctx)
	if err != nil {
		// A missing pointer only loses the overlay.
		p.logger.Debug("Pointer position unavailable", zap.Error(err))
	} else {
		p.drawCursor(canvas, cursor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return Shot{}, fmt.Errorf("encode png: %w", err)
	}

	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return Shot{}, fmt.Errorf("create capture dir: %w", err)
	}
	path := filepath.Join(p.dir, fmt.Sprintf("%s%d.png", filePrefix, p.now().UnixNano()))
	if err := afero.WriteFile(p.fs, path, buf.Bytes(), 0o600); err != nil {
		return Shot{}, fmt.Errorf("write screenshot: %w", err)
	}

	p.logger.Debug("Screenshot captured", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return Shot{PNG: buf.Bytes(), Path: path, Cursor: cursor, Size: image.Pt(bounds.Dx(), bounds.Dy())}, nil
}

// drawCursor scales the glyph by min(w/refW, h/refH) and centres it on the pointer.
func (p *Pipeline) drawCursor(canvas *image.RGBA, at image.Point) {
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	scale := min(float64(w)/float64(p.refW), float64(h)/float64(p.refH))

	gb := p.glyph.Bounds()
	gw := int(float64(gb.Dx())*scale + 0.5)
	gh := int(float64(gb.Dy())*scale + 0.5)
	if gw <= 0 || gh <= 0 {
		return
	}
	dst := image.Rect(at.X-gw/2, at.Y-gh/2, at.X-gw/2+gw, at.Y-gh/2+gh)
	if !dst.Overlaps(canvas.Bounds()) {
		return
	}
	draw.CatmullRom.Scale(canvas, dst, p.glyph, gb, draw.Over, nil)
}

// Cleanup removes every screenshot file in the capture directory. It is safe
// to call repeatedly.
func (p *Pipeline) Cleanup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleanup()
}

func (p *Pipeline) cleanup() error {
	matches, err := afero.Glob(p.fs, filepath.Join(p.dir, filePattern))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := p.fs.Remove(m); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(matches) > 0 {
		p.logger.Debug("Removed screenshots", zap.Int("count", len(matches)-len(errs)))
	}
	return errors.Join(errs...)
}
