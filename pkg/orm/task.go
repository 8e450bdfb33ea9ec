package orm

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"taskboard-api/pkg/model"
)

// TaskORM handles queries over the tasks table.
type TaskORM struct {
	db *gorm.DB
}

func NewTaskORM(db *gorm.DB) *TaskORM {
	return &TaskORM{db: db}
}

func (o *TaskORM) Create(ctx context.Context, task *model.Task) error {
	if err := o.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByStatus returns one page of the filtered result set for a status,
// newest first. Pages are stable prefixes of the creation-descending order
// the board relies on.
func (o *TaskORM) ListByStatus(ctx context.Context, status model.Status, filters model.Filters, offset int) ([]model.Task, error) {
	var tasks []model.Task
	query := applyFilters(o.db.WithContext(ctx).Model(&model.Task{}), status, filters)
	err := query.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(filters.PageLimit()).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks by status: %w", err)
	}
	return tasks, nil
}

// CountByStatus counts the full filtered result set for a status. The query
// is built with squirrel and run raw so it stays in lockstep with the
// predicates applyFilters adds to the page query.
func (o *TaskORM) CountByStatus(ctx context.Context, status model.Status, filters model.Filters) (int, error) {
	builder := sq.Select("count(*)").
		From("tasks").
		Where(sq.Eq{"status": string(status)}).
		PlaceholderFormat(sq.Question)
	builder = applyFilterPredicates(builder, filters)

	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := o.db.WithContext(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("count tasks by status: %w", err)
	}
	return total, nil
}

func (o *TaskORM) GetByID(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := o.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus moves a task to a new status column. Returns
// gorm.ErrRecordNotFound when no row matched.
func (o *TaskORM) UpdateStatus(ctx context.Context, taskID string, status model.Status) error {
	res := o.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update task status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (o *TaskORM) DistinctCountries(ctx context.Context) ([]string, error) {
	var countries []string
	err := o.db.WithContext(ctx).Model(&model.Task{}).
		Distinct("country").
		Where("country <> ''").
		Order("country").
		Pluck("country", &countries).Error
	if err != nil {
		return nil, fmt.Errorf("distinct countries: %w", err)
	}
	return countries, nil
}

type CategoryPair struct {
	Category    string
	Subcategory string
}

// CategoryPairs scans the distinct category/subcategory combinations in the
// table; the filter bar derives its option lists from them.
func (o *TaskORM) CategoryPairs(ctx context.Context) ([]CategoryPair, error) {
	var pairs []CategoryPair
	err := o.db.WithContext(ctx).Model(&model.Task{}).
		Distinct("category", "subcategory").
		Where("category <> ''").
		Order("category, subcategory").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("category pairs: %w", err)
	}
	return pairs, nil
}

// PurgeDiscardedBefore deletes discarded tasks older than the cutoff and
// returns how many rows went away.
func (o *TaskORM) PurgeDiscardedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := o.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.StatusDiscarded, cutoff).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge discarded tasks: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("purged", res.RowsAffected).Msg("Purged stale discarded tasks")
	}
	return res.RowsAffected, nil
}

// Reset wipes the tasks table. Seeding only.
func (o *TaskORM) Reset(ctx context.Context) error {
	if err := o.db.WithContext(ctx).Where("1 = 1").Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("reset tasks: %w", err)
	}
	return nil
}

// applyFilters narrows a tasks query to one status plus the active filter
// set. Must stay in sync with applyFilterPredicates.
func applyFilters(query *gorm.DB, status model.Status, f model.Filters) *gorm.DB {
	query = query.Where("status = ?", status)
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Subcategory != "" {
		query = query.Where("subcategory = ?", f.Subcategory)
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", *f.DateTo)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if len(f.Countries) > 0 {
		query = query.Where("country IN ?", f.Countries)
	}
	if f.HourlyBudgetType != "" {
		query = query.Where("hourly_budget_type = ?", f.HourlyBudgetType)
	}
	if f.PriceFrom != nil {
		query = query.Where("amount >= ?", *f.PriceFrom)
	}
	if f.PriceTo != nil {
		query = query.Where("amount <= ?", *f.PriceTo)
	}
	return query
}

func applyFilterPredicates(builder sq.SelectBuilder, f model.Filters) sq.SelectBuilder {
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.Subcategory != "" {
		builder = builder.Where(sq.Eq{"subcategory": f.Subcategory})
	}
	if f.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *f.DateFrom})
	}
	if f.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"created_at": *f.DateTo})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"title": pattern},
			sq.Like{"description": pattern},
		})
	}
	if len(f.Countries) > 0 {
		builder = builder.Where(sq.Eq{"country": f.Countries})
	}
	if f.HourlyBudgetType != "" {
		builder = builder.Where(sq.Eq{"hourly_budget_type": f.HourlyBudgetType})
	}
	if f.PriceFrom != nil {
		builder = builder.Where(sq.GtOrEq{"amount": *f.PriceFrom})
	}
	if f.PriceTo != nil {
		builder = builder.Where(sq.LtOrEq{"amount": *f.PriceTo})
	}
	return builder
}
