package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taskboard-api/pkg/model"
	"taskboard-api/utils"
)

// parseFilters decodes the filter set the board sends on every list and
// count query. Unknown fields are ignored; malformed ones are errors so a
// bad client never silently sees an unfiltered board.
func parseFilters(c *gin.Context) (model.Filters, error) {
	var f model.Filters

	f.Category = c.Query("category")
	f.Subcategory = c.Query("subcategory")
	f.Search = c.Query("search")
	f.HourlyBudgetType = c.Query("hourly_budget_type")
	f.Countries = c.QueryArray("countries")

	if raw := c.Query("date_from"); raw != "" {
		parsed := utils.ParseDate(raw)
		if parsed == nil {
			return f, errors.New("invalid date_from")
		}
		f.DateFrom = parsed
	}
	if raw := c.Query("date_to"); raw != "" {
		parsed := utils.ParseDate(raw)
		if parsed == nil {
			return f, errors.New("invalid date_to")
		}
		f.DateTo = parsed
	}
	if raw := c.Query("price_from"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return f, errors.New("invalid price_from")
		}
		f.PriceFrom = &price
	}
	if raw := c.Query("price_to"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return f, errors.New("invalid price_to")
		}
		f.PriceTo = &price
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return f, errors.New("invalid limit")
		}
		f.Limit = limit
	}

	return f, nil
}

func parseOffset(c *gin.Context) (int, error) {
	raw := c.Query("offset")
	if raw == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, errors.New("invalid offset")
	}
	return offset, nil
}

func parseStatus(c *gin.Context) (model.Status, error) {
	raw := c.Query("status")
	if raw == "" {
		return "", errors.New("status is required")
	}
	return model.ParseStatus(raw)
}
