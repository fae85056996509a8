package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// collectionSortCustom keeps a collection in explicit manual order instead of
// the server's default alphabetical sort
const collectionSortCustom = "2"

// Collections lists the collections of a library section
func (c *Client) Collections(ctx context.Context, library string) ([]Collection, error) {
	section, err := c.section(ctx, library)
	if err != nil {
		return nil, err
	}

	var container MediaContainer
	path := fmt.Sprintf("/library/sections/%s/collections", section.Key)
	if err := c.get(ctx, path, nil, &container); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	collections := make([]Collection, 0, len(container.Directories))
	for _, directory := range container.Directories {
		collections = append(collections, Collection{
			RatingKey:  directory.RatingKey,
			Title:      directory.Title,
			ChildCount: directory.ChildCount,
		})
	}
	return collections, nil
}

// CreateCollection creates a collection containing exactly one item and
// switches it to custom ordering, so later front-promotions stick.
func (c *Client) CreateCollection(ctx context.Context, library, name string, item Item) (*Collection, error) {
	section, err := c.section(ctx, library)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("title", name)
	query.Set("smart", "0")
	query.Set("sectionId", section.Key)
	query.Set("type", strconv.Itoa(metadataTypeID(item.Type)))
	query.Set("uri", c.metadataURI(item))

	var container MediaContainer
	if err := c.do(ctx, http.MethodPost, "/library/collections", query, &container); err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	if len(container.Directories) == 0 {
		return nil, fmt.Errorf("create collection %q returned no metadata", name)
	}

	collection := Collection{
		RatingKey:  container.Directories[0].RatingKey,
		Title:      container.Directories[0].Title,
		ChildCount: 1,
	}

	if err := c.setCollectionSort(ctx, collection.RatingKey, collectionSortCustom); err != nil {
		return nil, err
	}

	return &collection, nil
}

// setCollectionSort updates a collection's ordering preference
func (c *Client) setCollectionSort(ctx context.Context, collectionKey, sort string) error {
	query := url.Values{}
	query.Set("collectionSort", sort)

	path := fmt.Sprintf("/library/collections/%s/prefs", collectionKey)
	if err := c.do(ctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("failed to set collection sort: %w", err)
	}
	return nil
}

// CollectionItems returns a collection's members in collection order, index 0
// first
func (c *Client) CollectionItems(ctx context.Context, collectionKey string) ([]Item, error) {
	var container MediaContainer
	path := fmt.Sprintf("/library/collections/%s/children", collectionKey)
	if err := c.get(ctx, path, nil, &container); err != nil {
		return nil, fmt.Errorf("failed to list collection items: %w", err)
	}

	items := make([]Item, 0, len(container.Videos)+len(container.Directories))
	for _, video := range container.Videos {
		items = append(items, Item{RatingKey: video.RatingKey, Title: video.Title, Type: video.Type})
	}
	for _, directory := range container.Directories {
		items = append(items, Item{RatingKey: directory.RatingKey, Title: directory.Title, Type: directory.Type})
	}
	return items, nil
}

// AddToCollection appends an item to a collection
func (c *Client) AddToCollection(ctx context.Context, collectionKey string, item Item) error {
	query := url.Values{}
	query.Set("uri", c.metadataURI(item))

	path := fmt.Sprintf("/library/collections/%s/items", collectionKey)
	if err := c.do(ctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("failed to add item to collection: %w", err)
	}
	return nil
}

// MoveToFront repositions an item at index 0 of a custom-ordered collection.
// Omitting the "after" parameter moves the item to the front.
func (c *Client) MoveToFront(ctx context.Context, collectionKey string, item Item) error {
	path := fmt.Sprintf("/library/collections/%s/items/%s/move", collectionKey, item.RatingKey)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("failed to move item to front of collection: %w", err)
	}
	return nil
}

// RemoveFromCollection removes an item from a collection
func (c *Client) RemoveFromCollection(ctx context.Context, collectionKey string, item Item) error {
	path := fmt.Sprintf("/library/collections/%s/items/%s", collectionKey, item.RatingKey)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to remove item from collection: %w", err)
	}
	return nil
}

// metadataTypeID maps an item type to the numeric id the API expects
func metadataTypeID(itemType string) int {
	switch itemType {
	case "movie":
		return typeMovie
	case "show":
		return typeShow
	default:
		return typeEpisode
	}
}
