package controllers

import (
	"context"
	"sync"

	"github.com/amaumene/dubsarr/internal/ledger"
	"github.com/amaumene/dubsarr/internal/metrics"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/amaumene/dubsarr/internal/services/plex"
	"github.com/sirupsen/logrus"
)

// taskQueueSize bounds how many resolve+reconcile tasks can be waiting.
// Beyond this, events are dropped rather than blocking webhook responses.
const taskQueueSize = 64

// IngestController runs the webhook pipeline: synchronous classification,
// then resolve+reconcile on a bounded worker pool so responses are never
// blocked by catalog lookups.
type IngestController struct {
	classifier    *Classifier
	ledger        *ledger.Ledger
	resolver      *ResolverController
	collections   *CollectionController
	db            *models.Database
	seriesLibrary string
	movieLibrary  string
	logger        *logrus.Logger

	tasks chan models.MediaEvent
	wg    sync.WaitGroup
}

// NewIngestController creates a new ingest controller
func NewIngestController(
	classifier *Classifier,
	dl *ledger.Ledger,
	resolver *ResolverController,
	collections *CollectionController,
	db *models.Database,
	seriesLibrary, movieLibrary string,
	logger *logrus.Logger,
) *IngestController {
	return &IngestController{
		classifier:    classifier,
		ledger:        dl,
		resolver:      resolver,
		collections:   collections,
		db:            db,
		seriesLibrary: seriesLibrary,
		movieLibrary:  movieLibrary,
		logger:        logger,
		tasks:         make(chan models.MediaEvent, taskQueueSize),
	}
}

// Start launches the background worker pool
func (c *IngestController) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	c.logger.WithField("workers", workers).Info("Ingest workers started")
}

// Stop drains the task queue and waits for in-flight work to finish
func (c *IngestController) Stop() {
	close(c.tasks)
	c.wg.Wait()
	c.logger.Info("Ingest workers stopped")
}

// HandleEvent runs the synchronous phase for one webhook event: classify,
// act on the disposition, record history. It returns once the event is
// classified; reconcile work continues in the background.
func (c *IngestController) HandleEvent(event models.MediaEvent) Disposition {
	c.logEvent(event)
	metrics.WebhooksReceived.WithLabelValues(string(event.Source)).Inc()

	disposition := c.classifier.Classify(event)
	metrics.Dispositions.WithLabelValues(string(disposition.Kind)).Inc()

	switch disposition.Kind {
	case DispositionRecordDeletion:
		if err := c.ledger.Record(event.MediaID); err != nil {
			c.logger.WithError(err).WithField("media_id", event.MediaID).Error("Failed to record deletion")
		}

	case DispositionSuppress:
		c.logger.WithFields(logrus.Fields{
			"media_id": event.MediaID,
			"reason":   disposition.Reason,
		}).Info("Skipping re-added media")

	case DispositionAttemptAdd:
		c.enqueue(event)

	case DispositionSkip:
		c.logger.WithFields(logrus.Fields{
			"event":  event.EventType,
			"dubbed": event.IsDubbed,
			"reason": disposition.Reason,
		}).Info("Skipping event")
	}

	c.recordHistory(event, disposition)
	return disposition
}

// enqueue hands an event to the worker pool without ever blocking the
// caller; a full queue drops the event with a log and a metric.
func (c *IngestController) enqueue(event models.MediaEvent) {
	select {
	case c.tasks <- event:
	default:
		metrics.DroppedTasks.Inc()
		c.logger.WithFields(logrus.Fields{
			"title":    event.Title,
			"media_id": event.MediaID,
		}).Error("Task queue full, dropping event")
	}
}

func (c *IngestController) worker() {
	defer c.wg.Done()
	for event := range c.tasks {
		c.process(event)
	}
}

// process resolves and reconciles one eligible download event. Failures are
// logged and the event is dropped; nothing propagates back to the HTTP
// layer.
func (c *IngestController) process(event models.MediaEvent) {
	ctx := context.Background()

	var item *plexItemResult
	switch event.Source {
	case models.SourceMovie:
		resolved, err := c.resolver.ResolveMovie(ctx, c.movieLibrary, event.Title)
		if err != nil {
			c.resolveFailed(event, err)
			return
		}
		item = &plexItemResult{library: c.movieLibrary, item: resolved}
	default:
		resolved, err := c.resolver.ResolveEpisode(ctx, c.seriesLibrary, event.Title, event.Season, event.Episode)
		if err != nil {
			c.resolveFailed(event, err)
			return
		}
		item = &plexItemResult{library: c.seriesLibrary, item: resolved}
	}

	if err := c.collections.Reconcile(ctx, item.library, *item.item); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"library": item.library,
			"title":   item.item.Title,
		}).Error("Error processing download event")
	}
}

func (c *IngestController) resolveFailed(event models.MediaEvent, err error) {
	metrics.ResolutionFailures.WithLabelValues(string(event.Source)).Inc()
	c.logger.WithError(err).WithFields(logrus.Fields{
		"title":    event.Title,
		"media_id": event.MediaID,
	}).Error("Resolution failed, dropping event")
}

// logEvent logs the incoming webhook in one structured line
func (c *IngestController) logEvent(event models.MediaEvent) {
	fields := logrus.Fields{
		"source":     event.Source,
		"event_type": event.EventType,
		"title":      event.Title,
		"media_id":   event.MediaID,
		"dubbed":     event.IsDubbed,
		"upgrade":    event.IsUpgrade,
	}
	if event.Source == models.SourceSeries {
		fields["season"] = event.Season
		fields["episode"] = event.Episode
	}
	if event.ReleaseDate != "" {
		fields["release_date"] = event.ReleaseDate
	}
	c.logger.WithFields(fields).Info("Webhook event received")
}

// recordHistory persists the processed event for the status endpoint
func (c *IngestController) recordHistory(event models.MediaEvent, disposition Disposition) {
	if c.db == nil {
		return
	}
	record := &models.EventRecord{
		Source:      string(event.Source),
		EventType:   event.EventType,
		MediaID:     event.MediaID,
		Title:       event.Title,
		Disposition: string(disposition.Kind),
		Reason:      disposition.Reason,
	}
	if err := c.db.RecordEvent(record); err != nil {
		c.logger.WithError(err).Warn("Failed to record event history")
	}
}

type plexItemResult struct {
	library string
	item    *plex.Item
}
