package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/dubsarr/internal/controllers"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// historyRetention is how long processed-event history is kept
const historyRetention = 30 * 24 * time.Hour

// Scheduler runs periodic maintenance: collection trim sweeps and history
// pruning
type Scheduler struct {
	cron        *cron.Cron
	collections *controllers.CollectionController
	db          *models.Database
	libraries   []string
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler. libraries are the configured target
// libraries whose managed collection gets swept.
func NewScheduler(collections *controllers.CollectionController, db *models.Database, libraries []string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		collections: collections,
		db:          db,
		libraries:   libraries,
		logger:      logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every hour: re-apply the collection size cap. The reconciler already
	// trims on every add; the sweep catches anything interleaved tasks left
	// over the cap.
	_, err := s.cron.AddFunc("0 * * * *", func() {
		s.runTrimSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to add trim sweep job: %w", err)
	}

	// Daily at 03:00: prune old event history
	_, err = s.cron.AddFunc("0 3 * * *", func() {
		s.runHistoryPrune()
	})
	if err != nil {
		return fmt.Errorf("failed to add history prune job: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runTrimSweep() {
	ctx := context.Background()
	for _, library := range s.libraries {
		if err := s.collections.Trim(ctx, library); err != nil {
			s.logger.WithError(err).WithField("library", library).Error("Collection trim sweep failed")
		}
	}
}

func (s *Scheduler) runHistoryPrune() {
	deleted, err := s.db.DeleteEventsBefore(time.Now().Add(-historyRetention))
	if err != nil {
		s.logger.WithError(err).Error("Failed to prune event history")
		return
	}
	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("Pruned event history")
	}
}
