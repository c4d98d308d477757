package services

import (
	"testing"
	"time"

	"github.com/triptales/triptales-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journalAt(title string, created time.Time) models.Journal {
	return models.Journal{Title: title, CreatedAt: created}
}

func TestSortJournalsNewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	input := []models.Journal{
		journalAt("first", base),
		journalAt("third", base.Add(2*time.Hour)),
		journalAt("second", base.Add(time.Hour)),
	}

	sorted := SortJournalsNewestFirst(input)

	require.Len(t, sorted, 3)
	assert.Equal(t, "third", sorted[0].Title)
	assert.Equal(t, "second", sorted[1].Title)
	assert.Equal(t, "first", sorted[2].Title)

	// The fetched slice is left alone.
	assert.Equal(t, "first", input[0].Title)
}

func TestSortJournalsNewestFirst_ZeroTimestampSortsLast(t *testing.T) {
	input := []models.Journal{
		journalAt("undated", time.Time{}),
		journalAt("dated", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	}

	sorted := SortJournalsNewestFirst(input)

	require.Len(t, sorted, 2, "an entry with a missing timestamp is kept, not dropped")
	assert.Equal(t, "dated", sorted[0].Title)
	assert.Equal(t, "undated", sorted[1].Title)
}

func TestMatchesFilter(t *testing.T) {
	journal := models.Journal{
		Title:        "Weekend in Lisbon",
		LocationName: "Lisbon, Portugal",
		CreatedAt:    time.Date(2025, 3, 9, 10, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty_query_matches_everything", "", true},
		{"whitespace_query_matches_everything", "   ", true},
		{"title_substring", "weekend", true},
		{"title_case_insensitive", "LISBON", true},
		{"location_label", "portugal", true},
		{"formatted_date", "Mar 9", true},
		{"year_only", "2025", true},
		{"no_match", "tokyo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesFilter(journal, tt.query))
		})
	}
}

func TestFilterJournals(t *testing.T) {
	journals := []models.Journal{
		{Title: "Road trip day 1", CreatedAt: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Title: "Museum visit", LocationName: "Berlin, Germany", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "Road trip day 2", CreatedAt: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
	}

	filtered := FilterJournals(journals, "road trip")

	require.Len(t, filtered, 2)
	assert.Equal(t, "Road trip day 1", filtered[0].Title)
	assert.Equal(t, "Road trip day 2", filtered[1].Title)

	assert.Len(t, FilterJournals(journals, "berlin"), 1)
	assert.Empty(t, FilterJournals(journals, "zanzibar"))
	assert.Len(t, FilterJournals(journals, ""), 3)
}
