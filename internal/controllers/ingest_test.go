package controllers

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/amaumene/dubsarr/internal/ledger"
	"github.com/amaumene/dubsarr/internal/models"
	"github.com/amaumene/dubsarr/internal/services/plex"
)

func newTestIngest(t *testing.T, catalog *fakeCatalog, library *fakeLibrary) (*IngestController, *ledger.Ledger) {
	t.Helper()

	logger := testLogger()
	dl, err := ledger.New(filepath.Join(t.TempDir(), "deleted.txt"), 100, logger)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}

	classifier := NewClassifier(dl, "Anime Series", "Anime Movies", 4, logger)
	classifier.now = func() time.Time {
		return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	}

	resolver := newTestResolver(library)
	collections := NewCollectionController(catalog, DefaultCollectionName, 100, logger)

	ingest := NewIngestController(classifier, dl, resolver, collections, nil, "Anime Series", "Anime Movies", logger)
	return ingest, dl
}

func TestHandleEventDownloadReconcilesCollection(t *testing.T) {
	catalog := newFakeCatalog()
	ingest, _ := newTestIngest(t, catalog, aotLibrary())

	ingest.Start(1)

	event := models.MediaEvent{
		EventType:   models.EventTypeDownload,
		Source:      models.SourceSeries,
		Title:       "Attack on Titan",
		MediaID:     123,
		Season:      1,
		Episode:     1,
		ReleaseDate: "2024-01-01",
		IsDubbed:    true,
	}

	d := ingest.HandleEvent(event)
	if d.Kind != DispositionAttemptAdd {
		t.Fatalf("expected attempt_add, got %s", d.Kind)
	}

	// Stop drains the queue, so the background reconcile has finished.
	ingest.Stop()

	items := collectionState(t, catalog, "Anime Series", DefaultCollectionName)
	if len(items) != 1 || items[0].RatingKey != "101" {
		t.Errorf("expected resolved episode in collection, got %+v", items)
	}
}

func TestHandleEventDeletionThenRedownloadSuppressed(t *testing.T) {
	catalog := newFakeCatalog()
	ingest, dl := newTestIngest(t, catalog, aotLibrary())

	ingest.Start(1)

	deletion := models.MediaEvent{
		EventType:    models.EventTypeEpisodeFileDelete,
		Source:       models.SourceSeries,
		Title:        "Attack on Titan",
		MediaID:      123,
		DeleteReason: models.DeleteReasonUpgrade,
		IsDubbed:     true,
	}
	if d := ingest.HandleEvent(deletion); d.Kind != DispositionRecordDeletion {
		t.Fatalf("expected record_deletion, got %s", d.Kind)
	}

	recorded, err := dl.WasRecorded(123)
	if err != nil {
		t.Fatalf("WasRecorded failed: %v", err)
	}
	if !recorded {
		t.Fatal("deletion disposition must land in the ledger")
	}

	redownload := models.MediaEvent{
		EventType:   models.EventTypeDownload,
		Source:      models.SourceSeries,
		Title:       "Attack on Titan",
		MediaID:     123,
		Season:      1,
		Episode:     1,
		ReleaseDate: "2024-01-01",
		IsDubbed:    true,
	}
	if d := ingest.HandleEvent(redownload); d.Kind != DispositionSuppress {
		t.Fatalf("expected suppress_deleted for re-download, got %s", d.Kind)
	}

	ingest.Stop()

	// Nothing should have been reconciled.
	if _, ok := catalog.keys["Anime Series/"+DefaultCollectionName]; ok {
		t.Error("suppressed event must not touch the collection")
	}
}

func TestHandleEventResolutionFailureIsDropped(t *testing.T) {
	catalog := newFakeCatalog()
	// Library knows nothing: resolution fails after fuzzy fallback.
	ingest, _ := newTestIngest(t, catalog, &fakeLibrary{shows: map[string]plex.Item{}})

	ingest.Start(1)

	event := models.MediaEvent{
		EventType:   models.EventTypeDownload,
		Source:      models.SourceSeries,
		Title:       "Attack on Titan",
		MediaID:     123,
		Season:      1,
		Episode:     1,
		ReleaseDate: "2024-01-01",
		IsDubbed:    true,
	}

	// Must not panic or propagate; the event is just dropped.
	ingest.HandleEvent(event)
	ingest.Stop()

	if _, ok := catalog.keys["Anime Series/"+DefaultCollectionName]; ok {
		t.Error("failed resolution must not create the collection")
	}
}
