package task

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
	"taskboard-api/pkg/orm"
	"taskboard-api/utils"
)

// Maintenance runs the board's scheduled housekeeping: purging discarded
// listings past their retention window and keeping the filter-bar lookups
// warm in cache.
type Maintenance struct {
	cron      *cron.Cron
	service   *Service
	tasks     *orm.TaskORM
	retention time.Duration
}

func NewMaintenance(db *gorm.DB, service *Service) *Maintenance {
	retentionDays, err := strconv.Atoi(utils.LoadDotEnvOr("DISCARD_RETENTION_DAYS", "30"))
	if err != nil || retentionDays <= 0 {
		retentionDays = 30
	}
	return &Maintenance{
		cron:      cron.New(),
		service:   service,
		tasks:     orm.NewTaskORM(db),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

func (m *Maintenance) Start() error {
	if _, err := m.cron.AddFunc("@hourly", m.runOnce); err != nil {
		return err
	}
	m.cron.Start()
	log.Info().Dur("retention", m.retention).Msg("Board maintenance scheduled")
	return nil
}

func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *Maintenance) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-m.retention)
	purged, err := m.tasks.PurgeDiscardedBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge discarded tasks")
	}
	if purged > 0 {
		m.service.bumpCountVersion(ctx)
		m.service.events.Publish(ctx, event.ChangeEvent{
			Table:  event.TableTasks,
			Action: event.ActionDelete,
			Status: model.StatusDiscarded,
		})
	}

	// Warm the lookups the filter bar hits on every page load.
	if _, err := m.service.DistinctCountries(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to warm country cache")
	}
}
