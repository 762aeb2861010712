package quote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"duetrack/internal/log"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultWindow   = 30 * time.Second
	DefaultLimit    = 5
)

type FetcherConfig struct {
	// Interval between scheduled fetches.
	Interval time.Duration
	// Window is the fixed rate-limit window; the request count resets
	// once it has elapsed.
	Window time.Duration
	// Limit is the number of successful fetches allowed per window.
	Limit int
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	return c
}

// Fetcher owns the current quote and the rate-limit counter. Scheduled
// ticks and manual triggers are consumed by one Run loop, and Fetch holds
// a lock for the whole attempt, so the counter is never raced.
type Fetcher struct {
	source Source
	cfg    FetcherConfig
	now    func() time.Time
	logger *slog.Logger

	fetchMu sync.Mutex

	mu          sync.RWMutex
	count       int
	windowStart time.Time
	current     *Quote

	trigger chan struct{}
	updates chan Quote
}

type FetcherOption func(*Fetcher)

func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

func NewFetcher(source Source, cfg FetcherConfig, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:  source,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		logger:  log.NewModuleLogger("quote", "fetcher"),
		trigger: make(chan struct{}, 1),
		updates: make(chan Quote, 1),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch performs one rate-limited attempt. On failure the current quote
// is kept.
func (f *Fetcher) Fetch(ctx context.Context) (Quote, error) {
	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()

	if f.limited() {
		f.logger.Info("quote fetch skipped", "reason", "rate limited", "limit", f.cfg.Limit, "window", f.cfg.Window)
		return Quote{}, ErrRateLimited
	}

	q, err := f.source.Fetch(ctx)
	if err != nil {
		f.logger.Warn("quote fetch failed", "error", err)
		return Quote{}, err
	}

	f.mu.Lock()
	f.current = &q
	f.count++
	f.mu.Unlock()

	f.publish(q)
	f.logger.Debug("quote fetched", "author", q.Author)
	return q, nil
}

// limited resets an expired window and reports whether the budget is spent.
func (f *Fetcher) limited() bool {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.windowStart.IsZero() || now.Sub(f.windowStart) >= f.cfg.Window {
		f.windowStart = now
		f.count = 0
	}
	return f.count >= f.cfg.Limit
}

// publish keeps only the latest quote for a slow reader.
func (f *Fetcher) publish(q Quote) {
	for {
		select {
		case f.updates <- q:
			return
		default:
		}
		select {
		case <-f.updates:
		default:
		}
	}
}

// Trigger asks the Run loop for an extra fetch. Triggers that arrive while
// one is pending are coalesced.
func (f *Fetcher) Trigger() {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// Updates delivers each newly fetched quote.
func (f *Fetcher) Updates() <-chan Quote {
	return f.updates
}

func (f *Fetcher) Current() (Quote, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current == nil {
		return Quote{}, false
	}
	return *f.current, true
}

// Requests is the number of successful fetches in the current window.
func (f *Fetcher) Requests() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Run fetches once, then on every tick and trigger until ctx is done. A
// successful fetch restarts the tick phase.
func (f *Fetcher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	f.attempt(ctx, ticker)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.attempt(ctx, ticker)
		case <-f.trigger:
			f.attempt(ctx, ticker)
		}
	}
}

func (f *Fetcher) attempt(ctx context.Context, ticker *time.Ticker) {
	if _, err := f.Fetch(ctx); err != nil {
		if !errors.Is(err, ErrRateLimited) && ctx.Err() == nil {
			f.logger.Debug("keeping previous quote", "error", err)
		}
		return
	}
	ticker.Reset(f.cfg.Interval)
}
