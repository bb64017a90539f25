package usage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Entry is one day's record in the ledger file.
type Entry struct {
	Model            string  `json:"model"`
	TokensIn         int64   `json:"tokens_in"`
	TokensOut        int64   `json:"tokens_out"`
	TotalRequests    int64   `json:"total_requests"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	CurrentCostUSD   float64 `json:"current_cost_usd"`
	HourlyCostEstUSD float64 `json:"hourly_cost_est_usd"`
	DailyCostEstUSD  float64 `json:"daily_cost_est_usd"`
}

// DatedEntry pairs an entry with its ISO date key.
type DatedEntry struct {
	Date string
	Entry
}

// NewEntry builds the ledger record for a session snapshot.
func NewEntry(s Stats, table PriceTable, now time.Time) Entry {
	c := s.Costs(table, now)
	return Entry{
		Model:            s.Model,
		TokensIn:         s.TokensIn,
		TokensOut:        s.TokensOut,
		TotalRequests:    s.Requests,
		UptimeSeconds:    s.Uptime(now).Seconds(),
		CurrentCostUSD:   c.Current,
		HourlyCostEstUSD: c.Hourly,
		DailyCostEstUSD:  c.Daily,
	}
}

// Ledger is the JSON file of daily usage keyed by ISO date. The most recent
// session of a day replaces that day's entry.
type Ledger struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	logger *zap.Logger
}

func NewLedger(fs afero.Fs, path string, logger *zap.Logger) *Ledger {
	return &Ledger{fs: fs, path: path, logger: logger.Named("usage_ledger")}
}

// Path is the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Load reads all entries. A missing file is an empty ledger; a corrupt one
// is logged and treated as empty.
func (l *Ledger) Load() (map[string]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Ledger) load() (map[string]Entry, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("read usage ledger: %w", err)
	}
	entries := map[string]Entry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("Usage ledger is corrupt, starting a fresh one", zap.String("path", l.path), zap.Error(err))
		return map[string]Entry{}, nil
	}
	return entries, nil
}

// Record stores e under the local date of day, replacing any earlier entry
// for that date.
func (l *Ledger) Record(day time.Time, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return err
	}
	key := day.Format(time.DateOnly)
	entries[key] = e

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode usage ledger: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	if err := afero.WriteFile(l.fs, l.path, data, 0o644); err != nil {
		return fmt.Errorf("write usage ledger: %w", err)
	}
	l.logger.Info("Usage recorded",
		zap.String("date", key),
		zap.String("model", e.Model),
		zap.Int64("requests", e.TotalRequests),
		zap.Float64("cost_usd", e.CurrentCostUSD),
	)
	return nil
}

// Sorted returns entries ordered by date, oldest first.
func Sorted(entries map[string]Entry) []DatedEntry {
	out := make([]DatedEntry, 0, len(entries))
	for d, e := range entries {
		out = append(out, DatedEntry{Date: d, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
