package usage

import (
	"sync"
	"time"
)

// Stats is a point-in-time view of one session's usage.
type Stats struct {
	Model     string
	TokensIn  int64
	TokensOut int64
	Requests  int64
	// Estimated counts requests whose usage was approximated.
	Estimated int64
	Started   time.Time
}

// Costs are the spend so far and its extrapolation from the average rate.
type Costs struct {
	Current float64
	Hourly  float64
	Daily   float64
}

// Uptime is the time elapsed since the session started.
func (s Stats) Uptime(now time.Time) time.Duration {
	if s.Started.IsZero() || now.Before(s.Started) {
		return 0
	}
	return now.Sub(s.Started)
}

// RequestsPerMinute is the observed average request rate.
func (s Stats) RequestsPerMinute(now time.Time) float64 {
	up := s.Uptime(now).Seconds()
	if up <= 0 {
		return 0
	}
	return float64(s.Requests) / up * 60
}

// Costs prices the counters with table and extrapolates the hourly and daily
// rate from the average spend since Started.
func (s Stats) Costs(table PriceTable, now time.Time) Costs {
	current := table.Lookup(s.Model).Cost(s.TokensIn, s.TokensOut)
	up := s.Uptime(now).Seconds()
	if up <= 0 {
		return Costs{Current: current}
	}
	return Costs{
		Current: current,
		Hourly:  current / (up / 3600),
		Daily:   current / (up / 86400),
	}
}

// Tracker accumulates usage for a session. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	stats Stats
}

// NewTracker starts tracking model at start.
func NewTracker(model string, start time.Time) *Tracker {
	return &Tracker{stats: Stats{Model: model, Started: start}}
}

// Add records one completed request.
func (t *Tracker) Add(tokensIn, tokensOut int, estimated bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TokensIn += int64(tokensIn)
	t.stats.TokensOut += int64(tokensOut)
	t.stats.Requests++
	if estimated {
		t.stats.Estimated++
	}
}

// Snapshot returns a copy of the counters.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
