package matcher

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultScoreCutoff is the minimum similarity score (0-100) for a match
const DefaultScoreCutoff = 75

// Match is the best candidate found for a query title
type Match struct {
	Title string
	Score int
}

// Normalize folds a title into a comparison form: lowercase, diacritics
// stripped, whitespace collapsed. "Pokémon" and "pokemon" normalize equal.
func Normalize(title string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		folded = title
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Similarity scores how close two titles are on a 0-100 scale using the
// Levenshtein distance over normalized forms. 100 means identical after
// normalization. The underlying distance is deterministic, so identical
// inputs always produce identical scores.
func Similarity(a, b string) int {
	na := Normalize(a)
	nb := Normalize(b)

	if na == nb {
		return 100
	}

	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(na, nb)
	return 100 - (100*distance)/longest
}

// ExtractOne finds the single best-scoring candidate for the query title.
// Returns false if no candidate reaches minScore or the candidate list is
// empty. Ties are broken by candidate order: the first candidate with the
// top score wins, so results are stable for identical inputs.
func ExtractOne(query string, candidates []string, minScore int) (Match, bool) {
	best := Match{Score: -1}

	for _, candidate := range candidates {
		score := Similarity(query, candidate)
		if score > best.Score {
			best = Match{Title: candidate, Score: score}
		}
	}

	if best.Score < minScore || best.Score < 0 {
		return Match{}, false
	}
	return best, true
}

// FindBestMatch is ExtractOne with a no-match diagnostic, mirroring how
// lookups report a miss during resolution.
func FindBestMatch(query string, candidates []string, minScore int, logger *logrus.Logger) (Match, bool) {
	match, ok := ExtractOne(query, candidates, minScore)
	if !ok {
		logger.WithFields(logrus.Fields{
			"query":  query,
			"cutoff": minScore,
		}).Info("No close match found")
	}
	return match, ok
}
