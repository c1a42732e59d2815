package rendezvous

import (
	"github.com/mcdev12/rendezvous/go/internal/models"
)

// prependHistory puts entry at the front and trims the tail to limit.
// A limit of 0 keeps everything.
func prependHistory(history []models.HistoryEntry, entry models.HistoryEntry, limit int) []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, len(history)+1)
	out = append(out, entry)
	out = append(out, history...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
