package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
)

// DefaultDebounce is the idle window change notifications are coalesced
// over before one reset-reload fires.
const DefaultDebounce = 500 * time.Millisecond

type statusPage struct {
	tasks   []model.Task
	page    int
	hasMore bool
	loading bool
}

// Store holds the board's client-side state: per-status task pages, the
// active filter set, pagination cursors, and column counts. All mutations
// go through the store; realtime change events are coalesced into at most
// one reset-reload per burst.
//
// Each status list is a prefix, in creation-descending order, of the
// backend's filtered result set — broken only by unmerged optimistic moves,
// which the next refetch corrects.
type Store struct {
	mu      sync.Mutex
	gw      Gateway
	filters model.Filters
	pages   map[model.Status]*statusPage
	counts  map[model.Status]int

	// generation increments on every reset; a page response issued under an
	// older generation is discarded instead of overwriting fresher state.
	generation uint64

	// Coalescing queue for realtime notifications: events accumulate until
	// the idle timer flushes one reload.
	pending    []event.ChangeEvent
	flushTimer *time.Timer
	debounce   time.Duration

	onChange func()
}

type Option func(*Store)

// WithDebounce overrides the realtime coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithOnChange registers the view's re-render hook. Called after every
// state change, outside the store lock.
func WithOnChange(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithPageLimit sets the initial page size.
func WithPageLimit(limit int) Option {
	return func(s *Store) { s.filters.Limit = limit }
}

func NewStore(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:       gw,
		pages:    make(map[model.Status]*statusPage),
		counts:   make(map[model.Status]int),
		debounce: DefaultDebounce,
	}
	for _, status := range model.BoardStatuses {
		s.pages[status] = &statusPage{hasMore: true}
	}
	s.pages[model.StatusDiscarded] = &statusPage{hasMore: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadMore fetches the next page for the given statuses (the three board
// columns when none are named) under the current filters. A status whose
// fetch is already in flight, or whose cursor is exhausted, is skipped
// unless resetting. Returns the first fetch error; failed columns are left
// as they were, indistinguishable from empty (spec'd behavior).
func (s *Store) LoadMore(ctx context.Context, reset bool, statuses ...model.Status) error {
	if len(statuses) == 0 {
		statuses = model.BoardStatuses
	}

	type fetchTarget struct {
		status model.Status
		offset int
	}

	s.mu.Lock()
	if reset {
		s.generation++
		for _, status := range statuses {
			s.pages[status] = &statusPage{hasMore: true}
		}
	}
	gen := s.generation
	filters := s.filters
	limit := filters.PageLimit()

	var targets []fetchTarget
	for _, status := range statuses {
		page := s.pageFor(status)
		if !reset && (page.loading || !page.hasMore) {
			continue
		}
		page.loading = true
		targets = append(targets, fetchTarget{status: status, offset: page.page * limit})
	}
	s.mu.Unlock()

	if reset {
		s.notifyChange()
	}

	var firstErr error
	for _, target := range targets {
		rows, err := s.gw.ListTasks(ctx, target.status, filters, target.offset)

		s.mu.Lock()
		if s.generation != gen {
			// A newer reset superseded this fetch; drop the stale page.
			s.mu.Unlock()
			continue
		}
		page := s.pageFor(target.status)
		page.loading = false
		if err != nil {
			log.Error().Err(err).Str("status", string(target.status)).Msg("Failed to load task page")
			if firstErr == nil {
				firstErr = err
			}
			s.mu.Unlock()
			continue
		}
		page.tasks = append(page.tasks, rows...)
		page.page++
		page.hasMore = len(rows) == limit
		s.mu.Unlock()
	}

	s.notifyChange()
	return firstErr
}

// RefreshCounts re-queries the per-status totals under the current
// filters. Count failures are logged and leave the previous value.
func (s *Store) RefreshCounts(ctx context.Context) {
	s.mu.Lock()
	gen := s.generation
	filters := s.filters
	statuses := s.trackedStatuses()
	s.mu.Unlock()

	for _, status := range statuses {
		total, err := s.gw.CountTasks(ctx, status, filters)
		if err != nil {
			log.Error().Err(err).Str("status", string(status)).Msg("Failed to refresh count")
			continue
		}
		s.mu.Lock()
		if s.generation == gen {
			s.counts[status] = total
		}
		s.mu.Unlock()
	}
	s.notifyChange()
}

// MoveTask optimistically relocates a task between status lists at the
// requested index and persists the move with exactly one status-update
// call. A failed remote write is logged, not rolled back; the divergence
// lasts until the next refetch.
func (s *Store) MoveTask(ctx context.Context, taskID string, from, to model.Status, index int) error {
	s.mu.Lock()
	fromPage := s.pageFor(from)
	var moved *model.Task
	for i := range fromPage.tasks {
		if fromPage.tasks[i].ID == taskID {
			taskCopy := fromPage.tasks[i]
			moved = &taskCopy
			fromPage.tasks = append(fromPage.tasks[:i], fromPage.tasks[i+1:]...)
			break
		}
	}
	if moved == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s is not in the %s list", taskID, from)
	}

	moved.Status = to
	toPage := s.pageFor(to)
	if index < 0 {
		index = 0
	}
	if index > len(toPage.tasks) {
		index = len(toPage.tasks)
	}
	toPage.tasks = append(toPage.tasks[:index], append([]model.Task{*moved}, toPage.tasks[index:]...)...)
	s.mu.Unlock()
	s.notifyChange()

	if err := s.gw.UpdateTaskStatus(ctx, taskID, to); err != nil {
		log.Error().Err(err).Str("taskId", taskID).Str("to", string(to)).Msg("Failed to persist status move")
	}
	s.RefreshCounts(ctx)
	return nil
}

// Filter setters. Every filter change invalidates all cursors and triggers
// one reload per board column plus a count refresh.

func (s *Store) SetCategory(ctx context.Context, category, subcategory string) error {
	s.mu.Lock()
	s.filters.Category = category
	s.filters.Subcategory = subcategory
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) SetSearch(ctx context.Context, search string) error {
	s.mu.Lock()
	s.filters.Search = search
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) SetDateRange(ctx context.Context, from, to *time.Time) error {
	s.mu.Lock()
	s.filters.DateFrom = from
	s.filters.DateTo = to
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) SetCountries(ctx context.Context, countries []string) error {
	s.mu.Lock()
	s.filters.Countries = append([]string(nil), countries...)
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) SetHourlyBudgetType(ctx context.Context, budgetType string) error {
	s.mu.Lock()
	s.filters.HourlyBudgetType = budgetType
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) SetPriceRange(ctx context.Context, from, to *decimal.Decimal) error {
	s.mu.Lock()
	s.filters.PriceFrom = from
	s.filters.PriceTo = to
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) SetPageLimit(ctx context.Context, limit int) error {
	s.mu.Lock()
	s.filters.Limit = limit
	s.mu.Unlock()
	return s.applyFilterChange(ctx)
}

func (s *Store) applyFilterChange(ctx context.Context) error {
	err := s.LoadMore(ctx, true, model.BoardStatuses...)
	s.RefreshCounts(ctx)
	return err
}

// Notify feeds a realtime change event into the coalescing queue. The
// reload fires once the feed has been idle for the debounce window, so a
// burst of backend writes costs one refetch, not one per event.
func (s *Store) Notify(ev event.ChangeEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	if s.flushTimer == nil {
		s.flushTimer = time.AfterFunc(s.debounce, s.flush)
	} else {
		s.flushTimer.Reset(s.debounce)
	}
	s.mu.Unlock()
}

func (s *Store) flush() {
	s.mu.Lock()
	drained := len(s.pending)
	s.pending = nil
	s.flushTimer = nil
	s.mu.Unlock()

	if drained == 0 {
		return
	}
	log.Debug().Int("events", drained).Msg("Flushing coalesced change events")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.LoadMore(ctx, true, model.BoardStatuses...); err != nil {
		log.Error().Err(err).Msg("Realtime reload failed")
	}
	s.RefreshCounts(ctx)
}

// Close cancels any pending coalesced flush.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	s.pending = nil
}

// Tasks returns a copy of a status column's loaded prefix.
func (s *Store) Tasks(status model.Status) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.pageFor(status)
	return append([]model.Task(nil), page.tasks...)
}

func (s *Store) HasMore(status model.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageFor(status).hasMore
}

func (s *Store) Loading(status model.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageFor(status).loading
}

func (s *Store) Count(status model.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[status]
}

func (s *Store) Filters() model.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

func (s *Store) pageFor(status model.Status) *statusPage {
	page, ok := s.pages[status]
	if !ok {
		page = &statusPage{hasMore: true}
		s.pages[status] = page
	}
	return page
}

func (s *Store) trackedStatuses() []model.Status {
	statuses := make([]model.Status, 0, len(s.pages))
	for _, status := range model.BoardStatuses {
		statuses = append(statuses, status)
	}
	if _, ok := s.pages[model.StatusDiscarded]; ok {
		statuses = append(statuses, model.StatusDiscarded)
	}
	return statuses
}

func (s *Store) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}
