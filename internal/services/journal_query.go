package services

import (
	"sort"
	"strings"

	"github.com/triptales/triptales-backend/internal/models"
	"github.com/triptales/triptales-backend/pkg/utils"
)

// SortJournalsNewestFirst orders entries by creation time, newest first.
// Entries with a zero timestamp sort as the oldest possible value instead of
// being dropped. The input slice is not modified.
func SortJournalsNewestFirst(journals []models.Journal) []models.Journal {
	sorted := make([]models.Journal, len(journals))
	copy(sorted, journals)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// MatchesFilter reports whether a journal matches the search text, using the
// home screen's rules: case-insensitive substring against the title, the
// location label, or the formatted creation date.
func MatchesFilter(journal models.Journal, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(journal.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(journal.LocationName), q) {
		return true
	}
	return strings.Contains(strings.ToLower(utils.FormatJournalDate(journal.CreatedAt)), q)
}

// FilterJournals returns the entries matching query. The fetched sequence is
// never mutated; each call re-evaluates the predicate against the slice it
// is given.
func FilterJournals(journals []models.Journal, query string) []models.Journal {
	filtered := make([]models.Journal, 0, len(journals))
	for _, journal := range journals {
		if MatchesFilter(journal, query) {
			filtered = append(filtered, journal)
		}
	}
	return filtered
}
