package ledger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLedger(t *testing.T, maxEntries int) *Ledger {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	path := filepath.Join(t.TempDir(), "deleted_media_ids.txt")
	l, err := New(path, maxEntries, logger)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return l
}

func TestRecordAndWasRecorded(t *testing.T) {
	l := newTestLedger(t, 100)

	recorded, err := l.WasRecorded(42)
	if err != nil {
		t.Fatalf("WasRecorded failed: %v", err)
	}
	if recorded {
		t.Error("id should not be recorded before Record")
	}

	if err := l.Record(42); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	recorded, err = l.WasRecorded(42)
	if err != nil {
		t.Fatalf("WasRecorded failed: %v", err)
	}
	if !recorded {
		t.Error("id should be recorded after Record")
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	l := newTestLedger(t, 100)

	for i := 0; i < 3; i++ {
		if err := l.Record(7); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 1 {
		t.Errorf("expected 1 entry after repeated Record of same id, got %d", size)
	}
}

func TestFIFOEvictionAtCapacity(t *testing.T) {
	l := newTestLedger(t, 100)

	if err := l.Record(1); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// 99 more distinct ids: the first id must survive.
	for id := int64(2); id <= 100; id++ {
		if err := l.Record(id); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recorded, err := l.WasRecorded(1)
	if err != nil {
		t.Fatalf("WasRecorded failed: %v", err)
	}
	if !recorded {
		t.Error("oldest id evicted too early: ledger is exactly at capacity")
	}

	// One more pushes the oldest out.
	if err := l.Record(101); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	recorded, err = l.WasRecorded(1)
	if err != nil {
		t.Fatalf("WasRecorded failed: %v", err)
	}
	if recorded {
		t.Error("oldest id should be evicted once capacity is exceeded")
	}

	recorded, err = l.WasRecorded(2)
	if err != nil {
		t.Fatalf("WasRecorded failed: %v", err)
	}
	if !recorded {
		t.Error("second-oldest id should still be present")
	}

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 100 {
		t.Errorf("expected ledger size 100 after eviction, got %d", size)
	}
}

func TestMissingFileMeansNotRecorded(t *testing.T) {
	l := newTestLedger(t, 100)

	// Simulate the backing file disappearing out from under us.
	if err := os.Remove(l.path); err != nil {
		t.Fatalf("failed to remove ledger file: %v", err)
	}

	recorded, err := l.WasRecorded(5)
	if err != nil {
		t.Fatalf("WasRecorded on missing file should not error, got: %v", err)
	}
	if recorded {
		t.Error("missing file should report nothing recorded")
	}
}

func TestConcurrentRecords(t *testing.T) {
	l := newTestLedger(t, 100)

	var wg sync.WaitGroup
	for id := int64(1); id <= 50; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := l.Record(id); err != nil {
				t.Errorf("Record(%d) failed: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	size, err := l.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 50 {
		t.Errorf("expected all 50 concurrent records to land, got %d", size)
	}

	for id := int64(1); id <= 50; id++ {
		recorded, err := l.WasRecorded(id)
		if err != nil {
			t.Fatalf("WasRecorded failed: %v", err)
		}
		if !recorded {
			t.Errorf("lost update for id %d", id)
		}
	}
}
