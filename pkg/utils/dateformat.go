package utils

import "time"

// FormatJournalDate renders a timestamp the way the app's journal cards
// display it, e.g. "Jul 14, 2025". The list search filter matches against
// this string, so the format must stay in sync with the client.
func FormatJournalDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
