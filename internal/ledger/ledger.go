// Package ledger persists the set of media ids whose dubbed file was deleted
// during a quality upgrade, so the resulting re-download is not re-added to
// the collection. Storage is a flat file of ids, one per line, oldest first,
// trimmed to a fixed number of entries.
package ledger

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// DefaultMaxEntries is how many deletion records are kept before the oldest
// are evicted. Eviction is by count only, never by age.
const DefaultMaxEntries = 100

// Ledger is a bounded, durable, FIFO set of deleted media ids. The in-process
// mutex serializes this process's goroutines; the advisory file lock guards
// the read-modify-write against a half-written file on disk.
type Ledger struct {
	path       string
	maxEntries int

	mu     sync.Mutex
	flock  *flock.Flock
	logger *logrus.Logger
}

// New opens the ledger at path, creating an empty file if none exists.
func New(path string, maxEntries int, logger *logrus.Logger) (*Ledger, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger file: %w", err)
		}
		file.Close()
	}

	return &Ledger{
		path:       path,
		maxEntries: maxEntries,
		flock:      flock.New(path),
		logger:     logger,
	}, nil
}

// Record appends mediaID to the ledger if not already present, then trims the
// ledger to the most recent maxEntries ids, oldest discarded first. Recording
// an id that is already present is a no-op.
func (l *Ledger) Record(mediaID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to lock ledger file: %w", err)
	}
	defer l.flock.Unlock()

	ids, err := l.readIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		if id == mediaID {
			return nil
		}
	}

	ids = append(ids, mediaID)
	if len(ids) > l.maxEntries {
		ids = ids[len(ids)-l.maxEntries:]
	}

	if err := l.writeIDs(ids); err != nil {
		return err
	}

	l.logger.WithField("media_id", mediaID).Info("Added media id to deletion ledger")
	return nil
}

// WasRecorded reports whether mediaID is currently in the ledger. A missing
// ledger file means nothing was ever recorded, not an error.
func (l *Ledger) WasRecorded(mediaID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return false, nil
	}

	if err := l.flock.RLock(); err != nil {
		return false, fmt.Errorf("failed to lock ledger file: %w", err)
	}
	defer l.flock.Unlock()

	ids, err := l.readIDs()
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if id == mediaID {
			return true, nil
		}
	}
	return false, nil
}

// Size returns the number of ids currently recorded.
func (l *Ledger) Size() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return 0, nil
	}

	if err := l.flock.RLock(); err != nil {
		return 0, fmt.Errorf("failed to lock ledger file: %w", err)
	}
	defer l.flock.Unlock()

	ids, err := l.readIDs()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// readIDs loads all ids in file order, oldest first. Callers hold the locks.
func (l *Ledger) readIDs() ([]int64, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var ids []int64
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			l.logger.WithField("line", line).Warn("Skipping malformed ledger entry")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// writeIDs replaces the file contents. Callers hold the locks.
func (l *Ledger) writeIDs(ids []int64) error {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(l.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	return nil
}
