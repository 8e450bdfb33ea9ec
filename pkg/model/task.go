package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle column a task sits in.
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusDiscarded  Status = "discarded"
)

// BoardStatuses are the three columns the kanban board renders. Discarded
// tasks live on their own page.
var BoardStatuses = []Status{StatusToDo, StatusInProgress, StatusDone}

var statusLabels = map[Status]string{
	StatusToDo:       "To Do",
	StatusInProgress: "In Progress",
	StatusDone:       "Done",
	StatusDiscarded:  "Discarded",
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// ParseStatus accepts either the wire form ("in_progress") or the display
// label ("In Progress").
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if s.Valid() {
		return s, nil
	}
	for status, label := range statusLabels {
		if label == raw {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Task is a single outsourced-work listing.
type Task struct {
	ID               string           `gorm:"primaryKey" json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Status           Status           `gorm:"index" json:"status"`
	Category         string           `gorm:"index" json:"category"`
	Subcategory      string           `json:"subcategory"`
	Country          string           `json:"country"`
	Amount           decimal.Decimal  `gorm:"type:numeric" json:"amount"`
	AmountDisplay    string           `json:"amountDisplay"`
	HourlyBudgetType string           `json:"hourlyBudgetType"`
	HourlyBudgetMin  *decimal.Decimal `gorm:"type:numeric" json:"hourlyBudgetMin,omitempty"`
	HourlyBudgetMax  *decimal.Decimal `gorm:"type:numeric" json:"hourlyBudgetMax,omitempty"`
	ApplicantCount   int              `json:"applicantCount"`
	WillHire         bool             `json:"willHire"`
	CreatedAt        time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// DefaultPageLimit matches the board's page size when the filter set does
// not carry one.
const DefaultPageLimit = 20

// Filters narrows task queries. Zero values mean "not filtering on this
// field". Session-only, never persisted.
type Filters struct {
	Category         string           `json:"category,omitempty"`
	Subcategory      string           `json:"subcategory,omitempty"`
	DateFrom         *time.Time       `json:"dateFrom,omitempty"`
	DateTo           *time.Time       `json:"dateTo,omitempty"`
	Search           string           `json:"search,omitempty"`
	Countries        []string         `json:"countries,omitempty"`
	HourlyBudgetType string           `json:"hourlyBudgetType,omitempty"`
	PriceFrom        *decimal.Decimal `json:"priceFrom,omitempty"`
	PriceTo          *decimal.Decimal `json:"priceTo,omitempty"`
	Limit            int              `json:"limit,omitempty"`
}

func (f Filters) PageLimit() int {
	if f.Limit <= 0 {
		return DefaultPageLimit
	}
	return f.Limit
}

// CategoryOptions is the one-shot scan result backing the filter bar:
// ordered category names plus a category→subcategory map.
type CategoryOptions struct {
	Categories    []string            `json:"categories"`
	Subcategories map[string][]string `json:"subcategories"`
}
