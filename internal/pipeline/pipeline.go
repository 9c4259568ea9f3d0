package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/zionnet/newsflow/internal/domain"
	"github.com/zionnet/newsflow/internal/sink"
)

// Fetcher produces one enriched record for a category (a cache miss path).
// Satisfied by enrich.Enricher.
type Fetcher interface {
	Fetch(ctx context.Context, category domain.Category) (*domain.ContentRecord, error)
}

// CacheStore is the durable per-category cache contract. Satisfied by cache.Store.
type CacheStore interface {
	Get(ctx context.Context, category domain.Category) (*domain.CacheEntry, error)
	Put(ctx context.Context, record *domain.ContentRecord) error
}

// Hooks carries metric callbacks injected by main. Using a struct keeps the
// pipeline constructor signature clean; nil fields become no-ops.
type Hooks struct {
	OnCacheHit  func(category domain.Category)
	OnCacheMiss func(category domain.Category)
	OnFetchMiss func(category domain.Category)
	OnSink      func(name string, err error, elapsed time.Duration)
}

// Options bounds the pipeline's time behaviour.
type Options struct {
	// TTL is the maximum age at which a cached entry is still served.
	TTL time.Duration
	// RunTimeout caps one whole Process call across all category fetches.
	RunTimeout time.Duration
	// SinkTimeout caps each individual sink delivery.
	SinkTimeout time.Duration
}

// Pipeline serves cached-or-fresh content per category and fans the merged
// result out to every registered sink.
//
// Concurrent requests for the same stale category share a single upstream
// fetch through a singleflight group; this is a documented guarantee, not an
// accident of timing.
type Pipeline struct {
	cache   CacheStore
	fetcher Fetcher
	sinks   []sink.Sink
	opts    Options
	logger  *zap.Logger
	hooks   Hooks

	flight singleflight.Group
	sinkWG sync.WaitGroup
}

func New(cache CacheStore, fetcher Fetcher, sinks []sink.Sink, opts Options, logger *zap.Logger, hooks Hooks) *Pipeline {
	if hooks.OnCacheHit == nil {
		hooks.OnCacheHit = func(domain.Category) {}
	}
	if hooks.OnCacheMiss == nil {
		hooks.OnCacheMiss = func(domain.Category) {}
	}
	if hooks.OnFetchMiss == nil {
		hooks.OnFetchMiss = func(domain.Category) {}
	}
	if hooks.OnSink == nil {
		hooks.OnSink = func(string, error, time.Duration) {}
	}
	return &Pipeline{
		cache:   cache,
		fetcher: fetcher,
		sinks:   sinks,
		opts:    opts,
		logger:  logger,
		hooks:   hooks,
	}
}

// Process validates the preference list, assembles cached-or-fresh records in
// input order, and dispatches the bundle to every sink.
//
// The returned slice preserves the order of the input categories, never fetch
// completion order. Categories that miss everywhere are omitted. Sink
// delivery runs detached and never affects the returned outcome.
func (p *Pipeline) Process(ctx context.Context, preferences []string, rcpt domain.Recipient) ([]domain.ContentRecord, error) {
	categories := domain.FilterPreferences(preferences)
	if len(categories) == 0 {
		return nil, domain.ErrNoValidCategories
	}

	// Fetch side effects (cache population, delivery) stay valuable even if
	// the requester disconnects, so the run is bounded by its own ceiling
	// rather than the caller's cancellation.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.RunTimeout)
	defer cancel()

	now := time.Now()
	results := make([]*domain.ContentRecord, len(categories))
	var wg sync.WaitGroup

	for i, category := range categories {
		entry, err := p.cache.Get(runCtx, category)
		if err == nil && entry.Fresh(now, p.opts.TTL) {
			p.hooks.OnCacheHit(category)
			record := entry.Record
			results[i] = &record
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			p.logger.Warn("cache read failed, treating as miss",
				zap.String("category", string(category)), zap.Error(err))
		}

		p.hooks.OnCacheMiss(category)
		wg.Add(1)
		go func(i int, category domain.Category) {
			defer wg.Done()
			results[i] = p.refresh(runCtx, category)
		}(i, category)
	}
	wg.Wait()

	merged := make([]domain.ContentRecord, 0, len(categories))
	for _, r := range results {
		if r != nil {
			merged = append(merged, *r)
		}
	}
	if len(merged) == 0 {
		return nil, domain.ErrNoContent
	}

	p.dispatch(runCtx, domain.NotificationJob{
		Username: rcpt.Username,
		Email:    rcpt.Email,
		Items:    merged,
	})

	return merged, nil
}

// refresh fetches one category through the singleflight group and writes the
// result back to the cache. Any failure downgrades to a nil record: the
// category is omitted from the merged set, never fatal to the run.
func (p *Pipeline) refresh(ctx context.Context, category domain.Category) *domain.ContentRecord {
	v, err, _ := p.flight.Do(string(category), func() (any, error) {
		record, err := p.fetcher.Fetch(ctx, category)
		if err != nil {
			return nil, err
		}
		if putErr := p.cache.Put(ctx, record); putErr != nil {
			// The fresh record is still served; only durability suffered.
			p.logger.Error("cache write failed",
				zap.String("category", string(category)), zap.Error(putErr))
		}
		return record, nil
	})
	if err != nil {
		p.hooks.OnFetchMiss(category)
		if errors.Is(err, domain.ErrNoArticle) {
			p.logger.Info("no article for category", zap.String("category", string(category)))
		} else {
			p.logger.Warn("category fetch failed",
				zap.String("category", string(category)), zap.Error(err))
		}
		return nil
	}
	return v.(*domain.ContentRecord)
}

// dispatch hands the job to every sink in parallel. Each delivery gets its
// own timeout and detached context; one sink's outcome never blocks or fails
// another's, and none of them affect the pipeline result.
func (p *Pipeline) dispatch(ctx context.Context, job domain.NotificationJob) {
	base := context.WithoutCancel(ctx)
	for _, s := range p.sinks {
		p.sinkWG.Add(1)
		go func(s sink.Sink) {
			defer p.sinkWG.Done()

			sctx, cancel := context.WithTimeout(base, p.opts.SinkTimeout)
			defer cancel()

			start := time.Now()
			err := s.Deliver(sctx, job)
			elapsed := time.Since(start)
			p.hooks.OnSink(s.Name(), err, elapsed)

			if err != nil {
				p.logger.Warn("sink delivery failed",
					zap.String("sink", s.Name()),
					zap.Duration("elapsed", elapsed),
					zap.Error(err))
				return
			}
			p.logger.Info("sink delivered",
				zap.String("sink", s.Name()),
				zap.String("recipient", job.Email),
				zap.Int("items", len(job.Items)),
				zap.Duration("elapsed", elapsed))
		}(s)
	}
}

// Wait blocks until all in-flight sink deliveries have finished.
// Call during graceful shutdown after the HTTP server has stopped.
func (p *Pipeline) Wait() {
	p.sinkWG.Wait()
}
