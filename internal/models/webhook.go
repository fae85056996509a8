package models

// Webhook payload shapes for the two download trackers. Only the fields the
// classifier needs are mapped; everything else in the JSON body is ignored,
// and missing fields decode to zero values so classification degrades to a
// skip instead of an error.

// MediaInfo carries the audio track languages of a downloaded file
type MediaInfo struct {
	AudioLanguages []string `json:"audioLanguages"`
}

// CustomFormat is a named quality-profile tag attached to a release
type CustomFormat struct {
	Name string `json:"name"`
}

// CustomFormatInfo wraps the custom formats matched for a release
type CustomFormatInfo struct {
	CustomFormats []CustomFormat `json:"customFormats"`
}

// dubIndicatingFormats are custom format names that mark a release as dubbed
// even when the audio language list is missing
var dubIndicatingFormats = []string{"Anime Dual Audio", "Dubs Only"}

// IsEnglishDubbed reports whether a release counts as English dubbed: the
// audio track list includes English, or a dub-indicating custom format is
// attached.
func IsEnglishDubbed(audioLanguages []string, info CustomFormatInfo) bool {
	for _, lang := range audioLanguages {
		if lang == "eng" {
			return true
		}
	}

	for _, cf := range info.CustomFormats {
		for _, name := range dubIndicatingFormats {
			if cf.Name == name {
				return true
			}
		}
	}

	return false
}

// SonarrPayload is the webhook body sent by the episode tracker
type SonarrPayload struct {
	EventType string `json:"eventType"`
	Series    struct {
		Title string `json:"title"`
	} `json:"series"`
	Episodes    []SonarrEpisode `json:"episodes"`
	EpisodeFile struct {
		MediaInfo MediaInfo `json:"mediaInfo"`
	} `json:"episodeFile"`
	CustomFormatInfo CustomFormatInfo `json:"customFormatInfo"`
	IsUpgrade        bool             `json:"isUpgrade"`
	DeleteReason     string           `json:"deleteReason"`
}

// SonarrEpisode is one episode entry in a Sonarr webhook
type SonarrEpisode struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	AirDate       string `json:"airDate"`
}

// ToEvent normalizes the payload. Only the first episode entry is used; the
// tracker sends one episode per import event.
func (p *SonarrPayload) ToEvent() MediaEvent {
	var episode SonarrEpisode
	if len(p.Episodes) > 0 {
		episode = p.Episodes[0]
	}

	return MediaEvent{
		EventType:    p.EventType,
		Source:       SourceSeries,
		Title:        p.Series.Title,
		MediaID:      episode.ID,
		Season:       episode.SeasonNumber,
		Episode:      episode.EpisodeNumber,
		EpisodeTitle: episode.Title,
		ReleaseDate:  episode.AirDate,
		IsUpgrade:    p.IsUpgrade,
		IsDubbed:     IsEnglishDubbed(p.EpisodeFile.MediaInfo.AudioLanguages, p.CustomFormatInfo),
		DeleteReason: p.DeleteReason,
	}
}

// RadarrPayload is the webhook body sent by the movie tracker
type RadarrPayload struct {
	EventType string `json:"eventType"`
	Movie     struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		ReleaseDate string `json:"releaseDate"`
	} `json:"movie"`
	MovieFile struct {
		MediaInfo MediaInfo `json:"mediaInfo"`
	} `json:"movieFile"`
	CustomFormatInfo CustomFormatInfo `json:"customFormatInfo"`
	IsUpgrade        bool             `json:"isUpgrade"`
	DeleteReason     string           `json:"deleteReason"`
}

// ToEvent normalizes the payload
func (p *RadarrPayload) ToEvent() MediaEvent {
	return MediaEvent{
		EventType:    p.EventType,
		Source:       SourceMovie,
		Title:        p.Movie.Title,
		MediaID:      p.Movie.ID,
		ReleaseDate:  p.Movie.ReleaseDate,
		IsUpgrade:    p.IsUpgrade,
		IsDubbed:     IsEnglishDubbed(p.MovieFile.MediaInfo.AudioLanguages, p.CustomFormatInfo),
		DeleteReason: p.DeleteReason,
	}
}
