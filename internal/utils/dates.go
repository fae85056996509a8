package utils

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ISO calendar date as sent by Sonarr (airDate) and Radarr (releaseDate)
const releaseDateFormat = "2006-01-02"

// IsRecentOrUpcoming reports whether a release date falls within the recency
// window or lies in the future. An empty or unparsable date string is treated
// as not recent (a warning is logged for unparsable input, never an error).
// The reference time is passed in so the decision is reproducible in tests.
func IsRecentOrUpcoming(dateStr string, now time.Time, maxDateDiff int, logger *logrus.Logger) bool {
	if dateStr == "" {
		return false
	}

	releaseDate, err := time.ParseInLocation(releaseDateFormat, dateStr, time.UTC)
	if err != nil {
		logger.WithField("date", dateStr).Warn("Invalid release date format")
		return false
	}

	today := now.UTC().Truncate(24 * time.Hour)
	daysDiff := int(today.Sub(releaseDate).Hours() / 24)

	return (daysDiff >= 0 && daysDiff <= maxDateDiff) || releaseDate.After(today)
}
