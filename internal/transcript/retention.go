// Package transcript holds the retention policy applied to stored
// conversations.
package transcript

import (
	"time"

	"truelive-router/internal/domain"
)

// Window is how far back a persisted turn may reach.
const Window = 30 * 24 * time.Hour

// Filter drops every turn older than now-Window. Turns without a timestamp are
// treated as created at now and are kept; they never age out on their own.
func Filter(t domain.Transcript, now time.Time) domain.Transcript {
	cutoff := now.Add(-Window)
	kept := make([]domain.Turn, 0, len(t.Messages))
	for _, m := range t.Messages {
		if m.Timestamp != nil && !m.Timestamp.After(cutoff) {
			continue
		}
		kept = append(kept, m)
	}
	return domain.Transcript{Messages: kept}
}
