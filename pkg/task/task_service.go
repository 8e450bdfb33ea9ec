package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"taskboard-api/pkg/cache"
	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
	"taskboard-api/pkg/orm"
)

const (
	countCacheTTL     = 30 * time.Second
	countriesCacheTTL = 5 * time.Minute
	countVersionKey   = "taskboard:counts:version"
	countriesCacheKey = "taskboard:countries"
)

// Service implements the board's task RPCs: paged status queries, filtered
// counts, detail lookup, status moves, and the distinct-value lookups the
// filter bar needs.
type Service struct {
	tasks  *orm.TaskORM
	cache  *cache.Cache
	events *event.Publisher
}

// NewService wires a task service. cache and events may be nil; both
// degrade to uncached, unpublished operation.
func NewService(db *gorm.DB, c *cache.Cache, events *event.Publisher) *Service {
	return &Service{
		tasks:  orm.NewTaskORM(db),
		cache:  c,
		events: events,
	}
}

// GetTasksByStatus returns one page of the filtered, creation-descending
// result set for a status.
func (s *Service) GetTasksByStatus(ctx context.Context, status model.Status, filters model.Filters, offset int) ([]model.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	return s.tasks.ListByStatus(ctx, status, filters, offset)
}

// GetTaskCountByStatus counts the filtered result set for a status. Counts
// are cached briefly under a version key that every task write bumps, so a
// stale count never outlives the next change event.
func (s *Service) GetTaskCountByStatus(ctx context.Context, status model.Status, filters model.Filters) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("invalid status %q", status)
	}

	key := s.countCacheKey(ctx, status, filters)
	if key != "" {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			if total, convErr := strconv.Atoi(cached); convErr == nil {
				return total, nil
			}
		}
	}

	total, err := s.tasks.CountByStatus(ctx, status, filters)
	if err != nil {
		return 0, err
	}

	if key != "" {
		if err := s.cache.SetWithExpire(ctx, key, strconv.Itoa(total), countCacheTTL); err != nil {
			log.Debug().Err(err).Msg("Failed to cache task count")
		}
	}
	return total, nil
}

func (s *Service) GetTaskDetail(ctx context.Context, taskID string) (*model.Task, error) {
	found, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{ID: taskID}
		}
		return nil, err
	}
	return found, nil
}

// UpdateTaskStatus moves a task to a new column, bumps the count cache
// version, and publishes the row-update change event.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	if err := s.tasks.UpdateStatus(ctx, taskID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{ID: taskID}
		}
		return err
	}

	s.bumpCountVersion(ctx)
	s.events.Publish(ctx, event.ChangeEvent{
		Table:  event.TableTasks,
		Action: event.ActionUpdate,
		TaskID: taskID,
		Status: status,
	})
	return nil
}

// CreateTask inserts a listing and publishes the insert event. Used by the
// seeder and kept for ingest jobs.
func (s *Service) CreateTask(ctx context.Context, t *model.Task) error {
	if !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return err
	}
	s.bumpCountVersion(ctx)
	s.events.Publish(ctx, event.ChangeEvent{
		Table:  event.TableTasks,
		Action: event.ActionInsert,
		TaskID: t.ID,
		Status: t.Status,
	})
	return nil
}

// DistinctCountries returns the country multi-select options, cached for a
// few minutes.
func (s *Service) DistinctCountries(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, countriesCacheKey); err == nil {
			var countries []string
			if json.Unmarshal([]byte(cached), &countries) == nil {
				return countries, nil
			}
		}
	}

	countries, err := s.tasks.DistinctCountries(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(countries); err == nil {
			if err := s.cache.SetWithExpire(ctx, countriesCacheKey, string(payload), countriesCacheTTL); err != nil {
				log.Debug().Err(err).Msg("Failed to cache countries")
			}
		}
	}
	return countries, nil
}

// CategoryOptions scans the distinct category/subcategory pairs and builds
// the filter bar's option lists.
func (s *Service) CategoryOptions(ctx context.Context) (*model.CategoryOptions, error) {
	pairs, err := s.tasks.CategoryPairs(ctx)
	if err != nil {
		return nil, err
	}

	options := &model.CategoryOptions{
		Subcategories: make(map[string][]string),
	}
	for _, pair := range pairs {
		if _, seen := options.Subcategories[pair.Category]; !seen {
			options.Categories = append(options.Categories, pair.Category)
			options.Subcategories[pair.Category] = nil
		}
		if pair.Subcategory != "" {
			options.Subcategories[pair.Category] = append(options.Subcategories[pair.Category], pair.Subcategory)
		}
	}
	return options, nil
}

func (s *Service) bumpCountVersion(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, countVersionKey); err != nil {
		log.Debug().Err(err).Msg("Failed to bump count cache version")
	}
}

// countCacheKey returns "" when caching is unavailable. The key embeds the
// write-bumped version plus a canonical filter encoding.
func (s *Service) countCacheKey(ctx context.Context, status model.Status, filters model.Filters) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, countVersionKey)
	if err != nil {
		version = "0"
	}
	encoded, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("taskboard:counts:%s:%s:%s", version, status, encoded)
}
