// Package monitor polls the petition list forever and turns the differences
// between polls into named events.
//
// The first traversal runs at InitialInterval to catch up quickly. When it
// completes the monitor emits "initial-load", switches to Interval and keeps
// traversing, emitting "loaded" after every later traversal.
//
// A traversal cut short by a failed page fetch is started again after the
// "error" event.
//
// Every new or changed petition emits "new-petition" or "updated-petition",
// then each registered event whose predicate holds. Delta events are only
// checked for changed petitions, against the previously stored record:
//
//	m, _ := monitor.New(api, api, monitor.DefaultConfig(), logger)
//	m.AddMonitorDeltaEvent("reached-response-threshold", queries.DeltaReachedResponseThreshold)
//	m.On("reached-response-threshold", func(ev monitor.Event) {
//		fmt.Printf("%s needs a response\n", ev.Petition.Action)
//	})
//	m.Start(ctx)
package monitor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/loader"
	"github.com/Sternrassler/uk-petitions/pkg/pager"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/Sternrassler/uk-petitions/pkg/queries"
	"github.com/Sternrassler/uk-petitions/pkg/snapshot"
	"github.com/rs/zerolog"
)

// Built-in event names.
const (
	EventNewPetition     = "new-petition"
	EventUpdatedPetition = "updated-petition"
	EventRemovedPetition = "removed-petition"
	EventInitialLoad     = "initial-load"
	EventLoaded          = "loaded"
	EventError           = "error"
)

// Names of the events registered by WithStandardEvents.
const (
	EventResponseThreshold  = "reached-response-threshold"
	EventDebateThreshold    = "reached-debate-threshold"
	EventGovernmentResponse = "government-response"
	EventDebateTranscript   = "debate-transcript"
	EventDebateScheduled    = "debate-scheduled"
	EventDebateRescheduled  = "debate-rescheduled"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("monitor already started")

// Event is one monitor notification. Which fields are set depends on Name:
// petition events carry Petition (and Old when there is a previous record),
// "initial-load" and "loaded" carry View, "error" carries Err.
type Event struct {
	Name     string
	Petition *petition.Petition
	Old      *petition.Petition
	View     snapshot.View
	Err      error
	At       time.Time
}

// Handler handles a monitor event. Handlers run on the monitor's loader
// goroutine and must not block for long.
type Handler func(Event)

type namedPredicate struct {
	name  string
	check queries.Predicate
}

type namedCheck struct {
	name  string
	check queries.Check
}

// Monitor drives a pager in a loop and dispatches events to handlers.
type Monitor struct {
	pages  loader.PageFetcher
	items  loader.ItemFetcher
	config Config
	logger zerolog.Logger

	mu          sync.RWMutex
	events      []namedPredicate
	deltaEvents []namedCheck
	handlers    map[string][]Handler
	wildcard    []Handler
	pager       *pager.Pager

	initialDone atomic.Bool
	done        chan struct{}
	stopOnce    sync.Once
}

// New creates a monitor. items may be nil unless cfg.LoadDetail is set. Nil
// predicates and transform fall back to the defaults.
func New(pages loader.PageFetcher, items loader.ItemFetcher, cfg Config, logger zerolog.Logger) (*Monitor, error) {
	if pages == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if cfg.LoadDetail && items == nil {
		return nil, fmt.Errorf("item fetcher is required when loading detail")
	}
	if cfg.InitialInterval < 0 || cfg.Interval < 0 {
		return nil, fmt.Errorf("intervals must be >= 0 (got %s, %s)", cfg.InitialInterval, cfg.Interval)
	}
	if cfg.Accept == nil {
		cfg.Accept = StandardAccept
	}
	if cfg.Remove == nil {
		cfg.Remove = StandardRemove
	}
	if cfg.Transform == nil {
		cfg.Transform = petition.Enrich
	}

	return &Monitor{
		pages:    pages,
		items:    items,
		config:   cfg,
		logger:   logger,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}, nil
}

// AddMonitorEvent emits an event called name for every new or changed
// petition that check holds for.
func (m *Monitor) AddMonitorEvent(name string, check queries.Predicate) *Monitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, namedPredicate{name: name, check: check})
	return m
}

// AddMonitorDeltaEvent emits an event called name for every changed petition
// that check holds for, given the new and the previously stored record.
func (m *Monitor) AddMonitorDeltaEvent(name string, check queries.Check) *Monitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltaEvents = append(m.deltaEvents, namedCheck{name: name, check: check})
	return m
}

// On registers a handler for the event called name. Handlers of one event run
// in registration order.
func (m *Monitor) On(name string, h Handler) *Monitor {
	if h == nil {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = append(m.handlers[name], h)
	return m
}

// OnAll registers a handler for every event. It runs after the handlers
// registered for the specific name.
func (m *Monitor) OnAll(h Handler) *Monitor {
	if h == nil {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wildcard = append(m.wildcard, h)
	return m
}

// WithSignatureMilestones registers a "reached-<n>-signatures" delta event
// for each count, or for queries.SignatureMilestones when none are given.
func (m *Monitor) WithSignatureMilestones(counts ...int) *Monitor {
	if len(counts) == 0 {
		counts = queries.SignatureMilestones
	}
	for _, n := range counts {
		m.AddMonitorDeltaEvent(MilestoneEvent(n), queries.DeltaReachedSignatureCount(n))
	}
	return m
}

// MilestoneEvent is the event name used by WithSignatureMilestones.
func MilestoneEvent(n int) string {
	return fmt.Sprintf("reached-%d-signatures", n)
}

// WithStandardEvents registers the threshold, response and debate delta
// events.
func (m *Monitor) WithStandardEvents() *Monitor {
	return m.
		AddMonitorDeltaEvent(EventResponseThreshold, queries.DeltaReachedResponseThreshold).
		AddMonitorDeltaEvent(EventDebateThreshold, queries.DeltaReachedDebateThreshold).
		AddMonitorDeltaEvent(EventGovernmentResponse, queries.DeltaGovernmentResponded).
		AddMonitorDeltaEvent(EventDebateTranscript, queries.DeltaDebateTranscriptAvailable).
		AddMonitorDeltaEvent(EventDebateScheduled, queries.DeltaDebateScheduled).
		AddMonitorDeltaEvent(EventDebateRescheduled, queries.DeltaDebateRescheduled)
}

// Start begins polling. It returns immediately; polling stops on Stop or when
// ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.pager != nil {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}

	p, err := pager.New(m.pages, m.items, pager.Config{
		Name:         "monitor",
		LoadInterval: m.config.InitialInterval,
		LoadDetail:   m.config.LoadDetail,
		Transform:    m.config.Transform,
	}, m.logger)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("create pager: %w", err)
	}
	m.pager = p
	m.mu.Unlock()

	p.Subscribe(pager.ObserverFuncs{
		Petition: m.onPetition,
		Removed:  m.onRemoved,
		Error: func(err error) {
			m.onError(p, err)
		},
		Loaded: func(view snapshot.View) {
			m.onLoaded(p, view)
		},
	})

	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-m.done:
		}
	}()

	m.logger.Info().
		Dur("initial_interval", m.config.InitialInterval).
		Dur("interval", m.config.Interval).
		Bool("load_detail", m.config.LoadDetail).
		Msg("Starting monitor")

	p.Populate(m.config.Accept, m.config.Remove)
	return nil
}

// Stop ends polling. A traversal in progress is abandoned.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.RLock()
		p := m.pager
		m.mu.RUnlock()
		if p != nil {
			p.Stop()
		}
		m.logger.Info().Msg("Monitor stopped")
	})
}

// Snapshot returns the petitions currently tracked, or nil before Start.
func (m *Monitor) Snapshot() snapshot.View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pager == nil {
		return nil
	}
	return m.pager.Snapshot()
}

// Interval returns the fetch delay in use, or zero before Start.
func (m *Monitor) Interval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pager == nil {
		return 0
	}
	return m.pager.PageLoadInterval()
}

func (m *Monitor) onPetition(cur, old *petition.Petition) {
	if old == nil {
		m.emit(Event{Name: EventNewPetition, Petition: cur})
	} else {
		m.emit(Event{Name: EventUpdatedPetition, Petition: cur, Old: old})
	}

	m.mu.RLock()
	events := append([]namedPredicate(nil), m.events...)
	deltaEvents := append([]namedCheck(nil), m.deltaEvents...)
	m.mu.RUnlock()

	for _, ev := range events {
		if ev.check(cur) {
			m.emit(Event{Name: ev.name, Petition: cur, Old: old})
		}
	}

	if old == nil {
		return
	}
	for _, ev := range deltaEvents {
		if ev.check(cur, old) {
			m.emit(Event{Name: ev.name, Petition: cur, Old: old})
		}
	}
}

func (m *Monitor) onRemoved(cur, old *petition.Petition) {
	m.emit(Event{Name: EventRemovedPetition, Petition: cur, Old: old})
}

// onError forwards err. A failed page fetch ends the traversal, so polling
// starts over from the first page.
func (m *Monitor) onError(p *pager.Pager, err error) {
	m.emit(Event{Name: EventError, Err: err})

	if errors.Is(err, pager.ErrPageFetch) {
		m.logger.Debug().Err(err).Msg("Traversal aborted, starting again")
		p.Populate(m.config.Accept, m.config.Remove)
	}
}

func (m *Monitor) onLoaded(p *pager.Pager, view snapshot.View) {
	traversalsTotal.Inc()

	if !m.initialDone.Swap(true) {
		m.logger.Debug().Int("petitions", view.Count()).Msg("Initial petitions polled, going again")
		p.SetPageLoadInterval(m.config.Interval)
		m.emit(Event{Name: EventInitialLoad, View: view})
	} else {
		m.logger.Debug().Int("petitions", view.Count()).Msg("All petitions polled, going again")
		m.emit(Event{Name: EventLoaded, View: view})
	}

	p.Populate(m.config.Accept, m.config.Remove)
}

// emit dispatches ev to its handlers, then to the wildcard handlers.
func (m *Monitor) emit(ev Event) {
	ev.At = time.Now()
	eventsTotal.WithLabelValues(ev.Name).Inc()

	m.mu.RLock()
	handlers := append([]Handler(nil), m.handlers[ev.Name]...)
	handlers = append(handlers, m.wildcard...)
	m.mu.RUnlock()

	for _, h := range handlers {
		m.safeCall(h, ev)
	}
}

// safeCall invokes a handler and recovers a panic so the remaining handlers
// still run.
func (m *Monitor) safeCall(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.WithLabelValues(ev.Name).Inc()
			m.logger.Error().
				Str("event", ev.Name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Event handler panicked")
		}
	}()
	h(ev)
}
