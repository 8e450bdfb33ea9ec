package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"taskboard-api/pkg/model"
	"taskboard-api/pkg/orm"
	"taskboard-api/utils"
)

// Seeds the board with a spread of fixture listings across statuses,
// categories, and countries. Wipes existing rows first.
func main() {
	utils.GetLogger()
	ctx := context.Background()

	handler := orm.GetConnHandler()
	defer handler.OnShutdown()

	taskORM := orm.NewTaskORM(handler.DB())
	commentORM := orm.NewCommentORM(handler.DB())

	if err := taskORM.Reset(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset tasks")
	}

	created := 0
	for _, fixture := range fixtures() {
		if err := taskORM.Create(ctx, fixture); err != nil {
			log.Fatal().Err(err).Str("title", fixture.Title).Msg("Failed to create fixture task")
		}
		if err := commentORM.DeleteByTask(ctx, fixture.ID); err != nil {
			log.Fatal().Err(err).Msg("Failed to clear fixture comments")
		}
		created++
	}

	log.Info().Int("tasks", created).Msg("Seeded board fixtures")
}

func fixtures() []*model.Task {
	type seedRow struct {
		title       string
		category    string
		subcategory string
		country     string
		status      model.Status
		amount      int64
		budgetType  string
		applicants  int
		willHire    bool
	}

	rows := []seedRow{
		{"Blog series on remote onboarding", "Writing", "Articles", "US", model.StatusToDo, 1200, "fixed", 4, true},
		{"Landing page copy refresh", "Writing", "Copywriting", "GB", model.StatusToDo, 800, "fixed", 7, false},
		{"Technical whitepaper edit", "Writing", "Editing", "DE", model.StatusInProgress, 2400, "fixed", 2, true},
		{"Logo redesign for fintech app", "Design", "Branding", "US", model.StatusToDo, 1500, "fixed", 12, true},
		{"Mobile UI kit", "Design", "UI/UX", "JP", model.StatusInProgress, 3600, "hourly", 5, true},
		{"Illustrated product icons", "Design", "Illustration", "FR", model.StatusDone, 950, "fixed", 9, false},
		{"ETL pipeline hardening", "Development", "Backend", "US", model.StatusInProgress, 5200, "hourly", 3, true},
		{"Checkout flow bug triage", "Development", "Frontend", "CA", model.StatusToDo, 1800, "hourly", 6, false},
		{"Legacy importer rewrite", "Development", "Backend", "IN", model.StatusDone, 4100, "fixed", 8, true},
		{"Duplicate listing cleanup", "Writing", "Articles", "US", model.StatusDiscarded, 300, "fixed", 1, false},
	}

	hourlyMin := decimal.NewFromInt(35)
	hourlyMax := decimal.NewFromInt(80)

	tasks := make([]*model.Task, 0, len(rows))
	for i, row := range rows {
		amount := decimal.NewFromInt(row.amount)
		t := &model.Task{
			ID:               uuid.NewString(),
			Title:            row.title,
			Description:      fmt.Sprintf("Outsourced listing: %s (%s / %s)", row.title, row.category, row.subcategory),
			Status:           row.status,
			Category:         row.category,
			Subcategory:      row.subcategory,
			Country:          row.country,
			Amount:           amount,
			AmountDisplay:    "$" + amount.StringFixed(0),
			HourlyBudgetType: row.budgetType,
			ApplicantCount:   row.applicants,
			WillHire:         row.willHire,
			CreatedAt:        time.Now().Add(-time.Duration(i) * time.Hour),
		}
		if row.budgetType == "hourly" {
			t.HourlyBudgetMin = &hourlyMin
			t.HourlyBudgetMax = &hourlyMax
		}
		tasks = append(tasks, t)
	}
	return tasks
}
