// Package universe owns the in-memory screening universe: it refreshes the
// stock records from the data sources, keeps the latest snapshot, feeds the
// alert engine and maintains the benchmark reference averages.
package universe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/deepscreen/internal/datasource"
	"github.com/seenimoa/deepscreen/internal/screener/alerts"
	"github.com/seenimoa/deepscreen/internal/screener/assemble"
	"github.com/seenimoa/deepscreen/internal/screener/benchmark"
	"github.com/seenimoa/deepscreen/pkg/models"
)

// Fetch pacing. The universe runs small batches with long pauses to stay
// inside the upstream per-minute quota; the benchmark uses larger batches
// since it only pulls a handful of endpoints per symbol.
const (
	universeBatchSize   = 3
	universeBatchDelay  = 1500 * time.Millisecond
	benchmarkBatchSize  = 10
	benchmarkBatchDelay = 500 * time.Millisecond
)

// DataSource is the slice of the FMP client the controller needs.
type DataSource interface {
	Universe(ctx context.Context, total int) ([]datasource.ScreenerItem, error)
	FetchSymbol(ctx context.Context, item datasource.ScreenerItem) (*datasource.SymbolData, error)
}

// NewsSource refreshes the catalyst headline set before a universe build.
type NewsSource interface {
	Refresh(ctx context.Context) error
}

// Controller coordinates refreshes and serves the latest snapshot. All
// public methods are safe for concurrent use; only one refresh runs at a
// time and a newer refresh supersedes the results of an older one.
type Controller struct {
	source  DataSource
	builder *assemble.Builder
	news    NewsSource
	alerts  *alerts.Engine
	size    int

	// notify receives the alerts raised by a snapshot, typically the
	// websocket hub broadcast. May be nil.
	notify func([]models.Alert)

	batchDelay time.Duration
	benchDelay time.Duration

	mu         sync.RWMutex
	stocks     []models.Stock
	reference  models.BenchmarkAverages
	refreshed  time.Time
	generation int

	cron *cron.Cron
}

type Option func(*Controller)

// WithNewsSource wires in the catalyst feed refresh.
func WithNewsSource(news NewsSource) Option {
	return func(c *Controller) { c.news = news }
}

// WithNotify sets the alert delivery callback.
func WithNotify(fn func([]models.Alert)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithBatchDelays overrides the inter-batch pauses. Tests set them to zero.
func WithBatchDelays(universe, bench time.Duration) Option {
	return func(c *Controller) { c.batchDelay, c.benchDelay = universe, bench }
}

func New(source DataSource, builder *assemble.Builder, alertEngine *alerts.Engine, size int, opts ...Option) *Controller {
	c := &Controller{
		source:     source,
		builder:    builder,
		alerts:     alertEngine,
		size:       size,
		batchDelay: universeBatchDelay,
		benchDelay: benchmarkBatchDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current universe.
func (c *Controller) Snapshot() []models.Stock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Stock, len(c.stocks))
	copy(out, c.stocks)
	return out
}

// LastRefresh reports when the current snapshot was installed; the zero
// time means no refresh has completed yet.
func (c *Controller) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// Refresh rebuilds the whole universe. If another Refresh starts while this
// one is still fetching, the older result is discarded instead of
// overwriting the newer snapshot.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	start := time.Now()

	if c.news != nil {
		if err := c.news.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("catalyst feed refresh failed, continuing without fresh headlines")
		}
	}

	items, err := c.source.Universe(ctx, c.size)
	if err != nil {
		return fmt.Errorf("fetch universe: %w", err)
	}
	log.Info().Int("symbols", len(items)).Msg("universe screen fetched")

	stocks, err := c.buildAll(ctx, items, c.batchDelay, universeBatchSize)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Info().Int("generation", gen).Msg("refresh superseded, discarding result")
		return nil
	}
	c.stocks = stocks
	c.refreshed = time.Now()
	c.mu.Unlock()

	log.Info().
		Int("stocks", len(stocks)).
		Dur("elapsed", time.Since(start)).
		Msg("universe refreshed")

	if c.alerts != nil {
		raised := c.alerts.ObserveSnapshot(stocks)
		if len(raised) > 0 && c.notify != nil {
			c.notify(raised)
		}
	}
	return nil
}

// RefreshBenchmark rebuilds the reference averages from the given
// constituent symbols.
func (c *Controller) RefreshBenchmark(ctx context.Context, symbols []string) error {
	items := make([]datasource.ScreenerItem, len(symbols))
	for i, s := range symbols {
		items[i] = datasource.ScreenerItem{Symbol: s}
	}

	stocks, err := c.buildAll(ctx, items, c.benchDelay, benchmarkBatchSize)
	if err != nil {
		return err
	}

	ref := benchmark.ReferenceAverages(stocks, len(symbols))
	c.mu.Lock()
	c.reference = ref
	c.mu.Unlock()

	log.Info().Int("constituents", ref.SampleSize).Msg("benchmark reference refreshed")
	return nil
}

// Compare returns the current screen averages next to the benchmark
// reference.
func (c *Controller) Compare() models.BenchmarkComparison {
	c.mu.RLock()
	stocks := c.stocks
	ref := c.reference
	c.mu.RUnlock()
	return models.BenchmarkComparison{
		Screen:    benchmark.ScreenAverages(stocks),
		Reference: ref,
	}
}

// buildAll fetches and assembles records in fixed-size batches. Auth
// failures abort the whole build; any other per-symbol failure produces a
// record with only the screener fields populated.
func (c *Controller) buildAll(ctx context.Context, items []datasource.ScreenerItem, delay time.Duration, batchSize int) ([]models.Stock, error) {
	stocks := make([]models.Stock, len(items))

	for offset := 0; offset < len(items); offset += batchSize {
		end := offset + batchSize
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := offset; i < end; i++ {
			i := i
			g.Go(func() error {
				item := items[i]
				data, err := c.source.FetchSymbol(gctx, item)
				if err != nil {
					if datasource.IsAuthError(err) {
						return err
					}
					log.Warn().Err(err).Str("symbol", item.Symbol).Msg("symbol fetch failed, assembling bare record")
					data = &datasource.SymbolData{Screener: item}
				}
				stocks[i] = c.builder.Build(data)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < len(items) && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return stocks, nil
}

// StartSchedule runs Refresh on the given cron spec until StopSchedule is
// called. The refresh context is detached from the caller.
func (c *Controller) StartSchedule(spec string) error {
	if c.cron != nil {
		c.cron.Stop()
	}
	c.cron = cron.New()
	_, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	c.cron.Start()
	log.Info().Str("schedule", spec).Msg("refresh schedule started")
	return nil
}

// StopSchedule halts the scheduled refreshes, waiting for a running one to
// finish.
func (c *Controller) StopSchedule() {
	if c.cron == nil {
		return
	}
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.cron = nil
}
