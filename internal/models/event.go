package models

import "time"

// Source identifies which download tracker sent the webhook
type Source string

const (
	SourceSeries Source = "series" // Sonarr
	SourceMovie  Source = "movie"  // Radarr
)

// Event types and delete reasons as emitted by the trackers
const (
	EventTypeDownload          = "Download"
	EventTypeEpisodeFileDelete = "EpisodeFileDelete"
	EventTypeMovieFileDelete   = "MovieFileDelete"
	DeleteReasonUpgrade        = "upgrade"
)

// MediaEvent is the normalized form of an incoming webhook payload.
// Constructed once per request and never mutated afterwards.
type MediaEvent struct {
	EventType    string
	Source       Source
	Title        string // show title for series, movie title for movies
	MediaID      int64
	Season       int    // series only
	Episode      int    // series only
	EpisodeTitle string // series only
	ReleaseDate  string // airDate / releaseDate, "YYYY-MM-DD", may be empty
	IsUpgrade    bool
	IsDubbed     bool
	DeleteReason string
}

// DeleteEventType returns the tracker's file-deleted event type for this
// event's source.
func (e MediaEvent) DeleteEventType() string {
	if e.Source == SourceMovie {
		return EventTypeMovieFileDelete
	}
	return EventTypeEpisodeFileDelete
}

// EventRecord is a processed webhook event kept for the status endpoint.
type EventRecord struct {
	ID          uint64 `boltholdKey:"ID"`
	Source      string `boltholdIndex:"Source"`
	EventType   string
	MediaID     int64
	Title       string
	Disposition string `boltholdIndex:"Disposition"`
	Reason      string
	CreatedAt   time.Time
}
