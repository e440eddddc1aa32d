// Package pager walks the paginated petition list and keeps a snapshot of
// every petition it has accepted.
//
// Each traversal classifies every petition on every page as new, changed,
// removed, unchanged or filtered, updates the snapshot and tells observers
// about the difference. Page and detail fetches all go through one executor,
// so at most one request to the petitions API is in flight and each starts
// LoadInterval after the previous one finished.
//
// Snapshot mutations happen only inside executor tasks and are therefore
// serialized. The order in which a page's detail records are applied follows
// the executor's queue, not necessarily page order; a page is reported loaded
// only once all of its items are done, and the next page is not requested
// before that.
package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/executor"
	"github.com/Sternrassler/uk-petitions/pkg/latch"
	"github.com/Sternrassler/uk-petitions/pkg/loader"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/Sternrassler/uk-petitions/pkg/snapshot"
	"github.com/rs/zerolog"
)

var (
	// ErrTransform is reported when the transform yields no record.
	ErrTransform = errors.New("failed to transform the petition data")

	// ErrPageFetch is reported when a page cannot be loaded. The traversal
	// it belongs to ends without Loaded.
	ErrPageFetch = errors.New("failed to load the petition page")
)

// Predicate decides about a petition seen on a list page. candidate is the
// transformed summary; view is the snapshot before the decision.
type Predicate func(candidate *petition.Petition, view snapshot.View) bool

// Pager loads petition pages and diffs them against its snapshot.
type Pager struct {
	pages    loader.PageFetcher
	items    loader.ItemFetcher
	config   Config
	executor *executor.Executor
	store    *snapshot.Store
	logger   zerolog.Logger

	mu        sync.RWMutex
	observers []Observer
}

// New creates a pager. items may be nil unless cfg.LoadDetail is set.
func New(pages loader.PageFetcher, items loader.ItemFetcher, cfg Config, logger zerolog.Logger) (*Pager, error) {
	if pages == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if cfg.LoadDetail && items == nil {
		return nil, fmt.Errorf("item fetcher is required when loading detail")
	}
	if cfg.LoadInterval < 0 {
		return nil, fmt.Errorf("load interval must be >= 0 (got %s)", cfg.LoadInterval)
	}
	if cfg.Transform == nil {
		cfg.Transform = petition.Enrich
	}
	if cfg.FirstPagePath == "" {
		cfg.FirstPagePath = DefaultConfig().FirstPagePath
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}

	return &Pager{
		pages:    pages,
		items:    items,
		config:   cfg,
		executor: executor.New(cfg.LoadInterval, logger),
		store:    snapshot.New(cfg.Name),
		logger:   logger,
	}, nil
}

// Subscribe registers an observer. Observers are called in registration order.
func (p *Pager) Subscribe(o Observer) {
	if o == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// SetPageLoadInterval changes the delay before future fetches.
func (p *Pager) SetPageLoadInterval(d time.Duration) {
	p.executor.SetInterval(d)
}

// PageLoadInterval returns the current fetch delay.
func (p *Pager) PageLoadInterval() time.Duration {
	return p.executor.Interval()
}

// Snapshot returns read-only access to the stored petitions.
func (p *Pager) Snapshot() snapshot.View {
	return p.store
}

// Count returns the number of stored petitions.
func (p *Pager) Count() int {
	return p.store.Count()
}

// Stop prevents further fetches from starting. A page whose items are still
// being fetched never completes.
func (p *Pager) Stop() {
	p.executor.Stop()
}

// PopulateOneLevel loads the first page of the default listing without
// filtering and reports Loaded once it is processed. Pagination links are not
// followed.
func (p *Pager) PopulateOneLevel() {
	p.loadPage(loader.PageNumber(1), func(*petition.Page) {
		p.notifyLoaded()
	}, nil, nil)
}

// Populate loads every page of the full listing, following next links until
// the last page, and reports Loaded once. remove is consulted before accept;
// a nil predicate is skipped.
func (p *Pager) Populate(accept, remove Predicate) {
	started := time.Now()

	var loadNext func(page *petition.Page)
	loadNext = func(page *petition.Page) {
		if next, ok := loader.NextPage(page); ok {
			p.loadPage(next, loadNext, accept, remove)
			return
		}
		cycleDuration.Observe(time.Since(started).Seconds())
		p.notifyLoaded()
	}

	p.loadPage(loader.PagePath(p.config.FirstPagePath), loadNext, accept, remove)
}

// loadPage schedules the fetch of one page. Once every item on it has been
// handled, observers get OnPageLoaded and then pageLoaded runs.
func (p *Pager) loadPage(page loader.Page, pageLoaded func(*petition.Page), accept, remove Predicate) {
	p.executor.Execute(func(ctx context.Context) {
		if _, err := page.Path(); err != nil {
			p.fail("page", err)
			return
		}

		p.logger.Debug().Stringer("page", page).Msg("Loading page")

		result, err := p.pages.FetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.fail("fetch", fmt.Errorf("%w %s: %w", ErrPageFetch, page, err))
			return
		}
		if result == nil {
			result = &petition.Page{}
		}

		gate := latch.New(len(result.Data))
		gate.OnRelease(func() {
			pagesLoaded.Inc()
			p.logger.Debug().
				Stringer("page", page).
				Int("petitions", len(result.Data)).
				Int("stored", p.store.Count()).
				Msg("Page loaded")
			p.notifyPageLoaded(result)
			pageLoaded(result)
		})

		for i := range result.Data {
			p.handleSummary(&result.Data[i], gate, accept, remove)
		}
	})
}

// handleSummary classifies one list item and releases gate once it is done.
func (p *Pager) handleSummary(summary *petition.Raw, gate *latch.Latch, accept, remove Predicate) {
	var candidate *petition.Petition
	if accept != nil || remove != nil {
		var err error
		if candidate, err = p.transform(summary); err != nil {
			p.fail("transform", err)
			gate.Release()
			return
		}
	}

	trace := func(msg string) {
		p.logger.Trace().Int64("petition_id", int64(summary.ID)).Str("action", summary.Attributes.Action).Msg(msg)
	}

	if remove != nil && remove(candidate, p.store) {
		if !p.config.LoadDetail {
			trace("Petition removed")
			p.removePetition(summary)
			gate.Release()
			return
		}
		p.loadDetail(summary, gate, func(detail *petition.Raw) {
			p.logger.Trace().Int64("petition_id", int64(detail.ID)).Msg("Petition detail removed")
			p.removePetition(detail)
		})
		return
	}

	if accept != nil && !accept(candidate, p.store) {
		trace("Petition filtered")
		gate.Release()
		return
	}

	if !p.config.LoadDetail {
		trace("Petition summary stored")
		p.setPetition(summary)
		gate.Release()
		return
	}

	p.loadDetail(summary, gate, func(detail *petition.Raw) {
		p.logger.Trace().Int64("petition_id", int64(detail.ID)).Msg("Petition detail stored")
		p.setPetition(detail)
	})
}

// loadDetail schedules the detail fetch of summary's petition. gate is
// released after onSuccess, or after the failure has been reported. A fetch
// cut short by Stop releases nothing.
func (p *Pager) loadDetail(summary *petition.Raw, gate *latch.Latch, onSuccess func(*petition.Raw)) {
	id, action := summary.ID, summary.Attributes.Action

	p.executor.Execute(func(ctx context.Context) {
		detail, err := p.items.FetchPetition(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Debug().Err(err).Str("action", action).Msg("Error loading petition detail")
			p.fail("detail", err)
			gate.Release()
			return
		}
		if detail == nil {
			p.fail("detail", fmt.Errorf("load petition %d: empty response", id))
			gate.Release()
			return
		}

		onSuccess(detail)
		gate.Release()
	})
}

// setPetition stores a record. Unchanged records are not reported.
func (p *Pager) setPetition(raw *petition.Raw) {
	next, err := p.transform(raw)
	if err != nil {
		p.fail("transform", err)
		return
	}

	old, found := p.store.Get(raw.ID)
	if found && old.Equal(next) {
		return
	}

	p.store.Set(raw.ID, next)
	if found {
		changesTotal.WithLabelValues("updated").Inc()
		p.notifyPetition(next, old)
		return
	}
	changesTotal.WithLabelValues("new").Inc()
	p.notifyPetition(next, nil)
}

// removePetition deletes a stored record. Absent records are not reported.
func (p *Pager) removePetition(raw *petition.Raw) {
	next, err := p.transform(raw)
	if err != nil {
		p.fail("transform", err)
		return
	}

	old, found := p.store.Delete(raw.ID)
	if !found {
		return
	}

	changesTotal.WithLabelValues("removed").Inc()
	p.notifyRemoved(next, old)
}

func (p *Pager) transform(raw *petition.Raw) (*petition.Petition, error) {
	t, err := p.config.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: petition %d: %w", ErrTransform, raw.ID, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: petition %d", ErrTransform, raw.ID)
	}
	return t, nil
}

func (p *Pager) fail(kind string, err error) {
	errorsTotal.WithLabelValues(kind).Inc()
	p.logger.Warn().Err(err).Str("kind", kind).Msg("Pager error")
	for _, o := range p.snapshotObservers() {
		o.OnError(err)
	}
}

func (p *Pager) snapshotObservers() []Observer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Observer(nil), p.observers...)
}

func (p *Pager) notifyPetition(cur, old *petition.Petition) {
	for _, o := range p.snapshotObservers() {
		o.OnPetition(cur, old)
	}
}

func (p *Pager) notifyRemoved(cur, old *petition.Petition) {
	for _, o := range p.snapshotObservers() {
		o.OnRemoved(cur, old)
	}
}

func (p *Pager) notifyPageLoaded(page *petition.Page) {
	for _, o := range p.snapshotObservers() {
		o.OnPageLoaded(page)
	}
}

func (p *Pager) notifyLoaded() {
	p.logger.Debug().Int("stored", p.store.Count()).Msg("Petitions loaded")
	for _, o := range p.snapshotObservers() {
		o.OnLoaded(p.store)
	}
}
