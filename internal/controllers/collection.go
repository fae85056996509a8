package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaumene/dubsarr/internal/metrics"
	"github.com/amaumene/dubsarr/internal/services/plex"
	"github.com/sirupsen/logrus"
)

// DefaultCollectionName is the managed collection's title
const DefaultCollectionName = "Latest Dubs"

// Catalog is the subset of the media server API used during reconciliation
type Catalog interface {
	Collections(ctx context.Context, library string) ([]plex.Collection, error)
	CreateCollection(ctx context.Context, library, name string, item plex.Item) (*plex.Collection, error)
	CollectionItems(ctx context.Context, collectionKey string) ([]plex.Item, error)
	AddToCollection(ctx context.Context, collectionKey string, item plex.Item) error
	MoveToFront(ctx context.Context, collectionKey string, item plex.Item) error
	RemoveFromCollection(ctx context.Context, collectionKey string, item plex.Item) error
}

// CollectionController keeps the managed collection of each library bounded
// and ordered: newest first, capped at capacity, no duplicates.
type CollectionController struct {
	catalog        Catalog
	collectionName string
	capacity       int
	logger         *logrus.Logger

	// one lock per library/collection pair so concurrent background tasks
	// cannot interleave their read-modify-write against the same collection
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCollectionController creates a new collection controller
func NewCollectionController(catalog Catalog, collectionName string, capacity int, logger *logrus.Logger) *CollectionController {
	return &CollectionController{
		catalog:        catalog,
		collectionName: collectionName,
		capacity:       capacity,
		logger:         logger,
		locks:          make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding the managed collection of a library
func (c *CollectionController) lockFor(library string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[library]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[library] = lock
	}
	return lock
}

// Reconcile ensures item is the front-most entry of the managed collection in
// a library and trims the collection to capacity, evicting from the tail.
// If the collection does not exist yet it is created containing exactly this
// item, in custom order. An item that is already a member keeps its current
// position: only fresh adds are promoted to the front.
func (c *CollectionController) Reconcile(ctx context.Context, library string, item plex.Item) error {
	lock := c.lockFor(library)
	lock.Lock()
	defer lock.Unlock()

	c.logger.WithFields(logrus.Fields{
		"library":    library,
		"collection": c.collectionName,
		"title":      item.Title,
	}).Info("Managing collection")

	collection, err := c.findCollection(ctx, library)
	if err != nil {
		return err
	}

	if collection == nil {
		c.logger.WithField("collection", c.collectionName).Info("Creating new collection")
		if _, err := c.catalog.CreateCollection(ctx, library, c.collectionName, item); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		metrics.CollectionAdds.Inc()
		// A fresh collection of size one cannot exceed capacity.
		return nil
	}

	items, err := c.catalog.CollectionItems(ctx, collection.RatingKey)
	if err != nil {
		return fmt.Errorf("failed to read collection items: %w", err)
	}

	if !containsItem(items, item) {
		c.logger.WithField("title", item.Title).Info("Adding item to collection")
		if err := c.catalog.AddToCollection(ctx, collection.RatingKey, item); err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		if err := c.catalog.MoveToFront(ctx, collection.RatingKey, item); err != nil {
			return fmt.Errorf("failed to move item to front: %w", err)
		}
		metrics.CollectionAdds.Inc()
	} else {
		c.logger.WithField("title", item.Title).Info("Item already in collection")
	}

	return c.trimCollection(ctx, collection.RatingKey)
}

// Trim re-applies the size cap on the managed collection of a library. Used
// by the maintenance sweep; a missing collection is not an error.
func (c *CollectionController) Trim(ctx context.Context, library string) error {
	lock := c.lockFor(library)
	lock.Lock()
	defer lock.Unlock()

	collection, err := c.findCollection(ctx, library)
	if err != nil {
		return err
	}
	if collection == nil {
		return nil
	}

	return c.trimCollection(ctx, collection.RatingKey)
}

// findCollection locates the managed collection by exact title, nil if absent
func (c *CollectionController) findCollection(ctx context.Context, library string) (*plex.Collection, error) {
	collections, err := c.catalog.Collections(ctx, library)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	for _, collection := range collections {
		if collection.Title == c.collectionName {
			found := collection
			return &found, nil
		}
	}
	return nil, nil
}

// trimCollection removes tail items until the collection is at capacity.
// The tail is the end opposite index 0, the oldest entries.
func (c *CollectionController) trimCollection(ctx context.Context, collectionKey string) error {
	items, err := c.catalog.CollectionItems(ctx, collectionKey)
	if err != nil {
		return fmt.Errorf("failed to read collection items: %w", err)
	}

	removeCount := len(items) - c.capacity
	if removeCount <= 0 {
		return nil
	}

	c.logger.WithFields(logrus.Fields{
		"size":     len(items),
		"capacity": c.capacity,
		"removing": removeCount,
	}).Info("Trimming collection to capacity")

	for _, item := range items[len(items)-removeCount:] {
		c.logger.WithField("title", item.Title).Info("Removing item from collection")
		if err := c.catalog.RemoveFromCollection(ctx, collectionKey, item); err != nil {
			return fmt.Errorf("failed to remove item %q: %w", item.Title, err)
		}
		metrics.CollectionTrims.Inc()
	}
	return nil
}

func containsItem(items []plex.Item, item plex.Item) bool {
	for _, existing := range items {
		if existing.RatingKey == item.RatingKey {
			return true
		}
	}
	return false
}
