package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store holding the processed-event history
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// RecordEvent stores a processed webhook event
func (db *Database) RecordEvent(record *EventRecord) error {
	record.CreatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), record)
}

// GetAllEvents retrieves the full event history
func (db *Database) GetAllEvents() ([]*EventRecord, error) {
	var records []*EventRecord
	err := db.store.Find(&records, nil)
	return records, err
}

// GetEventsByDisposition retrieves events classified with a given disposition
func (db *Database) GetEventsByDisposition(disposition string) ([]*EventRecord, error) {
	var records []*EventRecord
	err := db.store.Find(&records, bolthold.Where("Disposition").Eq(disposition))
	return records, err
}

// DeleteEventsBefore removes history entries older than the cutoff and
// returns how many were deleted
func (db *Database) DeleteEventsBefore(cutoff time.Time) (int, error) {
	var records []*EventRecord
	err := db.store.Find(&records, bolthold.Where("CreatedAt").Lt(cutoff))
	if err != nil {
		return 0, err
	}

	for _, record := range records {
		if err := db.store.Delete(record.ID, &EventRecord{}); err != nil {
			return 0, err
		}
	}

	return len(records), nil
}
