package controllers

import (
	"time"

	"github.com/amaumene/dubsarr/internal/ledger"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/amaumene/dubsarr/internal/utils"
	"github.com/sirupsen/logrus"
)

// DispositionKind is the handling decided for a webhook event
type DispositionKind string

const (
	// DispositionRecordDeletion records the media id in the deletion ledger
	DispositionRecordDeletion DispositionKind = "record_deletion"
	// DispositionSuppress drops the event because the id was deleted during
	// a dub upgrade
	DispositionSuppress DispositionKind = "suppress_deleted"
	// DispositionAttemptAdd queues the event for resolve and reconcile
	DispositionAttemptAdd DispositionKind = "attempt_add"
	// DispositionSkip drops the event as not relevant
	DispositionSkip DispositionKind = "skip"
)

// Disposition is the classification outcome for one event
type Disposition struct {
	Kind    DispositionKind
	MediaID int64
	Reason  string
}

// Classifier decides how each incoming webhook event is handled
type Classifier struct {
	ledger        *ledger.Ledger
	seriesLibrary string
	movieLibrary  string
	maxDateDiff   int
	logger        *logrus.Logger
	now           func() time.Time
}

// NewClassifier creates a new event classifier
func NewClassifier(dl *ledger.Ledger, seriesLibrary, movieLibrary string, maxDateDiff int, logger *logrus.Logger) *Classifier {
	return &Classifier{
		ledger:        dl,
		seriesLibrary: seriesLibrary,
		movieLibrary:  movieLibrary,
		maxDateDiff:   maxDateDiff,
		logger:        logger,
		now:           time.Now,
	}
}

// Classify evaluates the classification rules in order, first match wins:
//  1. upgrade-triggered delete of dubbed content -> record in the ledger
//  2. id present in the deletion ledger -> suppress, whatever the event is
//  3. dubbed download into a configured library -> attempt add, provided the
//     event is an upgrade or the release is recent or upcoming
//  4. anything else -> skip
func (c *Classifier) Classify(event models.MediaEvent) Disposition {
	if event.EventType == event.DeleteEventType() &&
		event.DeleteReason == models.DeleteReasonUpgrade &&
		event.IsDubbed {
		return Disposition{Kind: DispositionRecordDeletion, MediaID: event.MediaID}
	}

	recorded, err := c.ledger.WasRecorded(event.MediaID)
	if err != nil {
		// A broken ledger read must not block processing; treat as not
		// recorded and keep going.
		c.logger.WithError(err).WithField("media_id", event.MediaID).Error("Failed to read deletion ledger")
	}
	if recorded {
		return Disposition{
			Kind:    DispositionSuppress,
			MediaID: event.MediaID,
			Reason:  "previous upgrade of dubbed media",
		}
	}

	if event.EventType == models.EventTypeDownload && event.IsDubbed && c.libraryFor(event.Source) != "" {
		if event.IsUpgrade || utils.IsRecentOrUpcoming(event.ReleaseDate, c.now(), c.maxDateDiff, c.logger) {
			return Disposition{Kind: DispositionAttemptAdd, MediaID: event.MediaID}
		}
		return Disposition{
			Kind:    DispositionSkip,
			MediaID: event.MediaID,
			Reason:  "not upgrade or recent release",
		}
	}

	return Disposition{
		Kind:    DispositionSkip,
		MediaID: event.MediaID,
		Reason:  "does not meet criteria",
	}
}

// libraryFor returns the configured target library for an event source,
// empty if that source has no library configured
func (c *Classifier) libraryFor(source models.Source) string {
	if source == models.SourceMovie {
		return c.movieLibrary
	}
	return c.seriesLibrary
}
