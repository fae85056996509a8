package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/dubsarr/internal/matcher"
	"github.com/amaumene/dubsarr/internal/services/plex"
	"github.com/sirupsen/logrus"
)

const (
	resolveMaxRetries = 3
	resolveRetryDelay = 10 * time.Second
)

// Library is the subset of the media server API used during resolution
type Library interface {
	SearchShows(ctx context.Context, library, title string) ([]plex.Item, error)
	Episode(ctx context.Context, showRatingKey string, season, episode int) (*plex.Item, error)
	SectionTitles(ctx context.Context, library string) ([]string, error)
	FindByTitle(ctx context.Context, library, title string) (*plex.Item, error)
}

// ResolverController bridges the inexact naming between the download
// trackers and the catalog: exact search with retries for shows, fuzzy
// matching as the fallback, and fuzzy-only lookup for movies.
type ResolverController struct {
	library     Library
	scoreCutoff int
	maxRetries  int
	retryDelay  time.Duration
	logger      *logrus.Logger
}

// NewResolverController creates a new resolver controller
func NewResolverController(library Library, logger *logrus.Logger) *ResolverController {
	return &ResolverController{
		library:     library,
		scoreCutoff: matcher.DefaultScoreCutoff,
		maxRetries:  resolveMaxRetries,
		retryDelay:  resolveRetryDelay,
		logger:      logger,
	}
}

// ResolveEpisode finds the catalog entry for an episode. The show is looked
// up by exact title with a bounded retry loop, because the catalog may not
// have scanned a fresh download yet; fuzzy matching is the fallback once
// exact search is exhausted. The episode lookup uses the same retry loop.
func (r *ResolverController) ResolveEpisode(ctx context.Context, library, showTitle string, season, episode int) (*plex.Item, error) {
	r.logger.WithFields(logrus.Fields{
		"show":    showTitle,
		"library": library,
	}).Info("Searching for show")

	show, err := r.resolveShow(ctx, library, showTitle)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"show":    show.Title,
		"season":  season,
		"episode": episode,
	}).Info("Searching for episode")

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			r.sleep(ctx)
		}

		item, err := r.library.Episode(ctx, show.RatingKey, season, episode)
		if err == nil {
			r.logger.WithField("episode", item.Title).Info("Episode found")
			return item, nil
		}
		if !errors.Is(err, plex.ErrNotFound) {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"season":  season,
				"episode": episode,
			}).Error("Error fetching episode")
		}
	}

	return nil, fmt.Errorf("episode S%02dE%02d of %q not found after %d attempts",
		season, episode, show.Title, r.maxRetries)
}

// resolveShow finds a show by exact title, retrying, then falls back to
// fuzzy matching over all section titles.
func (r *ResolverController) resolveShow(ctx context.Context, library, showTitle string) (*plex.Item, error) {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			r.sleep(ctx)
		}

		matches, err := r.library.SearchShows(ctx, library, showTitle)
		if err != nil {
			r.logger.WithError(err).WithField("show", showTitle).Warn("Show search failed")
			continue
		}

		for _, match := range matches {
			if match.Title == showTitle {
				r.logger.WithFields(logrus.Fields{
					"show":       match.Title,
					"match_type": "exact",
				}).Info("Show found")
				found := match
				return &found, nil
			}
		}
	}

	item, err := r.fuzzyLookup(ctx, library, showTitle)
	if err != nil {
		return nil, fmt.Errorf("show %q not found after %d attempts: %w", showTitle, r.maxRetries, err)
	}

	r.logger.WithFields(logrus.Fields{
		"show":       item.Title,
		"match_type": "fuzzy",
	}).Info("Show found")
	return item, nil
}

// ResolveMovie finds the catalog entry for a movie. Movie titles from the
// tracker rarely match the catalog spelling, so fuzzy matching is the only
// lookup strategy.
func (r *ResolverController) ResolveMovie(ctx context.Context, library, movieTitle string) (*plex.Item, error) {
	r.logger.WithFields(logrus.Fields{
		"movie":   movieTitle,
		"library": library,
	}).Info("Searching for movie")

	item, err := r.fuzzyLookup(ctx, library, movieTitle)
	if err != nil {
		return nil, fmt.Errorf("movie %q not found: %w", movieTitle, err)
	}

	r.logger.WithField("movie", item.Title).Info("Movie found")
	return item, nil
}

// fuzzyLookup matches a query title against every title in the section and
// fetches the winning entry
func (r *ResolverController) fuzzyLookup(ctx context.Context, library, queryTitle string) (*plex.Item, error) {
	titles, err := r.library.SectionTitles(ctx, library)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate titles: %w", err)
	}

	match, ok := matcher.FindBestMatch(queryTitle, titles, r.scoreCutoff, r.logger)
	if !ok {
		return nil, fmt.Errorf("no match above cutoff %d for %q", r.scoreCutoff, queryTitle)
	}

	return r.library.FindByTitle(ctx, library, match.Title)
}

// sleep waits out the retry delay, returning early on context cancellation
func (r *ResolverController) sleep(ctx context.Context) {
	select {
	case <-time.After(r.retryDelay):
	case <-ctx.Done():
	}
}
