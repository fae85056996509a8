package plex

import (
	"context"
	"fmt"
	"net/url"

	"github.com/patrickmn/go-cache"
)

// Numeric metadata type ids used by the API
const (
	typeMovie   = 1
	typeShow    = 2
	typeEpisode = 4
)

// section resolves a library section by its exact title. Results are cached:
// section keys never change while the server runs.
func (c *Client) section(ctx context.Context, library string) (*Metadata, error) {
	cacheKey := "section:" + library
	if cached, found := c.cache.Get(cacheKey); found {
		section := cached.(Metadata)
		return &section, nil
	}

	var container MediaContainer
	if err := c.get(ctx, "/library/sections", nil, &container); err != nil {
		return nil, fmt.Errorf("failed to list library sections: %w", err)
	}

	for _, directory := range container.Directories {
		if directory.Title == library {
			c.cache.Set(cacheKey, directory, cache.NoExpiration)
			section := directory
			return &section, nil
		}
	}

	return nil, fmt.Errorf("library section %q: %w", library, ErrNotFound)
}

// SectionTitles returns the titles of every top-level item in a library
// section, in server order. Used as the fuzzy-match candidate list, so the
// result is cached briefly to avoid re-listing the library on every event.
func (c *Client) SectionTitles(ctx context.Context, library string) ([]string, error) {
	cacheKey := "titles:" + library
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]string), nil
	}

	section, err := c.section(ctx, library)
	if err != nil {
		return nil, err
	}

	var container MediaContainer
	path := fmt.Sprintf("/library/sections/%s/all", section.Key)
	if err := c.get(ctx, path, nil, &container); err != nil {
		return nil, fmt.Errorf("failed to list library %q: %w", library, err)
	}

	titles := make([]string, 0, len(container.Directories)+len(container.Videos))
	for _, directory := range container.Directories {
		titles = append(titles, directory.Title)
	}
	for _, video := range container.Videos {
		titles = append(titles, video.Title)
	}

	c.cache.Set(cacheKey, titles, cache.DefaultExpiration)
	return titles, nil
}

// SearchShows searches a library section for shows matching a title
func (c *Client) SearchShows(ctx context.Context, library, title string) ([]Item, error) {
	section, err := c.section(ctx, library)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("type", fmt.Sprintf("%d", typeShow))
	query.Set("title", title)

	var container MediaContainer
	path := fmt.Sprintf("/library/sections/%s/all", section.Key)
	if err := c.get(ctx, path, query, &container); err != nil {
		return nil, fmt.Errorf("show search failed: %w", err)
	}

	items := make([]Item, 0, len(container.Directories))
	for _, directory := range container.Directories {
		items = append(items, Item{
			RatingKey: directory.RatingKey,
			Title:     directory.Title,
			Type:      "show",
		})
	}
	return items, nil
}

// FindByTitle retrieves the library item whose title matches exactly.
// Intended for fetching the entry a fuzzy match selected, so the title is
// already the catalog's own spelling.
func (c *Client) FindByTitle(ctx context.Context, library, title string) (*Item, error) {
	section, err := c.section(ctx, library)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("title", title)

	var container MediaContainer
	path := fmt.Sprintf("/library/sections/%s/all", section.Key)
	if err := c.get(ctx, path, query, &container); err != nil {
		return nil, fmt.Errorf("title lookup failed: %w", err)
	}

	for _, directory := range container.Directories {
		if directory.Title == title {
			return &Item{RatingKey: directory.RatingKey, Title: directory.Title, Type: directory.Type}, nil
		}
	}
	for _, video := range container.Videos {
		if video.Title == title {
			return &Item{RatingKey: video.RatingKey, Title: video.Title, Type: video.Type}, nil
		}
	}

	return nil, fmt.Errorf("item %q: %w", title, ErrNotFound)
}

// Episode resolves a specific episode of a show by season and episode number
func (c *Client) Episode(ctx context.Context, showRatingKey string, season, episode int) (*Item, error) {
	var container MediaContainer
	path := fmt.Sprintf("/library/metadata/%s/allLeaves", showRatingKey)
	if err := c.get(ctx, path, nil, &container); err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	for _, video := range container.Videos {
		if video.ParentIndex == season && video.Index == episode {
			return &Item{RatingKey: video.RatingKey, Title: video.Title, Type: "episode"}, nil
		}
	}

	return nil, fmt.Errorf("episode S%02dE%02d: %w", season, episode, ErrNotFound)
}
