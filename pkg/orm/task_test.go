package orm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"taskboard-api/pkg/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	if err := db.Where("1 = 1").Delete(&model.Task{}).Error; err != nil {
		t.Fatalf("clear tasks: %v", err)
	}
	if err := db.Where("1 = 1").Delete(&model.Comment{}).Error; err != nil {
		t.Fatalf("clear comments: %v", err)
	}
	return db
}

func insertTask(t *testing.T, o *TaskORM, mutate func(*model.Task)) *model.Task {
	t.Helper()
	task := &model.Task{
		ID:            uuid.NewString(),
		Title:         "Write docs",
		Description:   "Document the API",
		Status:        model.StatusToDo,
		Category:      "Writing",
		Subcategory:   "Articles",
		Country:       "US",
		Amount:        decimal.NewFromInt(500),
		AmountDisplay: "$500",
		CreatedAt:     time.Now(),
	}
	if mutate != nil {
		mutate(task)
	}
	if err := o.Create(context.Background(), task); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return task
}

func TestListByStatusPaginatesNewestFirst(t *testing.T) {
	o := NewTaskORM(newTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		i := i
		insertTask(t, o, func(task *model.Task) {
			task.Title = fmt.Sprintf("Task %d", i)
			task.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}

	filters := model.Filters{Limit: 3}
	page1, err := o.ListByStatus(ctx, model.StatusToDo, filters, 0)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page1))
	}
	if page1[0].Title != "Task 6" || page1[2].Title != "Task 4" {
		t.Fatalf("page not newest-first: %s .. %s", page1[0].Title, page1[2].Title)
	}

	page2, err := o.ListByStatus(ctx, model.StatusToDo, filters, 3)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if page2[0].Title != "Task 3" {
		t.Fatalf("second page does not continue the order: %s", page2[0].Title)
	}

	page3, err := o.ListByStatus(ctx, model.StatusToDo, filters, 6)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("expected final partial page of 1, got %d", len(page3))
	}
}

func TestCountMatchesFilteredList(t *testing.T) {
	o := NewTaskORM(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		insertTask(t, o, func(task *model.Task) { task.Category = "Writing" })
	}
	for i := 0; i < 3; i++ {
		insertTask(t, o, func(task *model.Task) { task.Category = "Design"; task.Country = "DE" })
	}
	insertTask(t, o, func(task *model.Task) { task.Status = model.StatusDone })

	cases := []struct {
		name    string
		filters model.Filters
		want    int
	}{
		{"unfiltered", model.Filters{}, 7},
		{"category", model.Filters{Category: "Writing"}, 4},
		{"country", model.Filters{Countries: []string{"DE"}}, 3},
		{"country miss", model.Filters{Countries: []string{"JP"}}, 0},
	}
	for _, tc := range cases {
		got, err := o.CountByStatus(ctx, model.StatusToDo, tc.filters)
		if err != nil {
			t.Fatalf("%s: count: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected count %d, got %d", tc.name, tc.want, got)
		}
		tc.filters.Limit = 100
		rows, err := o.ListByStatus(ctx, model.StatusToDo, tc.filters, 0)
		if err != nil {
			t.Fatalf("%s: list: %v", tc.name, err)
		}
		if len(rows) != got {
			t.Fatalf("%s: count %d disagrees with %d listed rows", tc.name, got, len(rows))
		}
	}
}

func TestFiltersSearchAndPriceRange(t *testing.T) {
	o := NewTaskORM(newTestDB(t))
	ctx := context.Background()

	insertTask(t, o, func(task *model.Task) {
		task.Title = "Kubernetes migration"
		task.Amount = decimal.NewFromInt(4000)
	})
	insertTask(t, o, func(task *model.Task) {
		task.Title = "Small edit"
		task.Description = "Fix typos across kubernetes docs"
		task.Amount = decimal.NewFromInt(100)
	})
	insertTask(t, o, func(task *model.Task) {
		task.Title = "Unrelated"
		task.Amount = decimal.NewFromInt(700)
	})

	rows, err := o.ListByStatus(ctx, model.StatusToDo, model.Filters{Search: "kubernetes"}, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("search should match title and description, got %d rows", len(rows))
	}

	from := decimal.NewFromInt(500)
	to := decimal.NewFromInt(5000)
	rows, err = o.ListByStatus(ctx, model.StatusToDo, model.Filters{PriceFrom: &from, PriceTo: &to}, 0)
	if err != nil {
		t.Fatalf("price range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows within price range, got %d", len(rows))
	}

	count, err := o.CountByStatus(ctx, model.StatusToDo, model.Filters{Search: "kubernetes", PriceFrom: &from})
	if err != nil {
		t.Fatalf("combined count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected combined filters to match 1 row, got %d", count)
	}
}

func TestUpdateStatus(t *testing.T) {
	o := NewTaskORM(newTestDB(t))
	ctx := context.Background()

	task := insertTask(t, o, nil)
	if err := o.UpdateStatus(ctx, task.ID, model.StatusInProgress); err != nil {
		t.Fatalf("update: %v", err)
	}
	found, err := o.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found.Status != model.StatusInProgress {
		t.Fatalf("status not persisted, got %s", found.Status)
	}

	if err := o.UpdateStatus(ctx, uuid.NewString(), model.StatusDone); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found for unknown id, got %v", err)
	}
}

func TestDistinctCountriesAndCategoryPairs(t *testing.T) {
	o := NewTaskORM(newTestDB(t))
	ctx := context.Background()

	insertTask(t, o, func(task *model.Task) { task.Country = "US"; task.Category = "Writing"; task.Subcategory = "Articles" })
	insertTask(t, o, func(task *model.Task) { task.Country = "US"; task.Category = "Writing"; task.Subcategory = "Editing" })
	insertTask(t, o, func(task *model.Task) { task.Country = "DE"; task.Category = "Design"; task.Subcategory = "Branding" })
	insertTask(t, o, func(task *model.Task) { task.Country = "" })

	countries, err := o.DistinctCountries(ctx)
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if len(countries) != 2 || countries[0] != "DE" || countries[1] != "US" {
		t.Fatalf("expected sorted unique countries [DE US], got %v", countries)
	}

	pairs, err := o.CategoryPairs(ctx)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 4 {
		t.Fatalf("expected 4 distinct category pairs, got %d: %v", len(pairs), pairs)
	}
	if pairs[0].Category != "Design" || pairs[0].Subcategory != "Branding" {
		t.Fatalf("pairs not sorted: %v", pairs[0])
	}
}

func TestPurgeDiscardedBefore(t *testing.T) {
	o := NewTaskORM(newTestDB(t))
	ctx := context.Background()

	old := insertTask(t, o, func(task *model.Task) {
		task.Status = model.StatusDiscarded
		task.CreatedAt = time.Now().Add(-48 * time.Hour)
	})
	fresh := insertTask(t, o, func(task *model.Task) {
		task.Status = model.StatusDiscarded
	})
	keeper := insertTask(t, o, func(task *model.Task) {
		task.CreatedAt = time.Now().Add(-48 * time.Hour)
	})

	purged, err := o.PurgeDiscardedBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged row, got %d", purged)
	}
	if _, err := o.GetByID(ctx, old.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("old discarded task should be gone, got %v", err)
	}
	if _, err := o.GetByID(ctx, fresh.ID); err != nil {
		t.Fatalf("recent discarded task should survive: %v", err)
	}
	if _, err := o.GetByID(ctx, keeper.ID); err != nil {
		t.Fatalf("non-discarded task should survive: %v", err)
	}
}
