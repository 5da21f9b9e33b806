// Package repository persists per-user transcripts. Every backend overwrites
// the whole document on save; concurrent requests for one user resolve as
// last-write-wins. Documents never expire in the backing store: turns without
// a timestamp are kept indefinitely, so ageing out is left to transcript.Filter.
package repository

import (
	"context"
	"time"

	"truelive-router/internal/domain"
)

// TranscriptStore loads and saves a user's full transcript.
type TranscriptStore interface {
	// Load returns the stored transcript, or an empty one when none exists.
	Load(ctx context.Context, userID string) (domain.Transcript, error)
	// Save overwrites the stored transcript.
	Save(ctx context.Context, userID string, t domain.Transcript) error
}

// document is the persisted transcript shape shared by the JSON backends:
// {"messages":[{"role","content","timestamp"}]}, timestamp in epoch milliseconds.
type document struct {
	Messages []documentTurn `json:"messages"`
}

type documentTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

func toDocument(t domain.Transcript) document {
	doc := document{Messages: make([]documentTurn, 0, len(t.Messages))}
	for _, m := range t.Messages {
		doc.Messages = append(doc.Messages, documentTurn{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: toMillis(m.Timestamp),
		})
	}
	return doc
}

func fromDocument(doc document) domain.Transcript {
	out := domain.Transcript{Messages: make([]domain.Turn, 0, len(doc.Messages))}
	for _, m := range doc.Messages {
		out.Messages = append(out.Messages, domain.Turn{
			Role:      domain.Role(m.Role),
			Content:   m.Content,
			Timestamp: fromMillis(m.Timestamp),
		})
	}
	return out
}

func toMillis(ts *time.Time) *int64 {
	if ts == nil {
		return nil
	}
	ms := ts.UnixMilli()
	return &ms
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	ts := time.UnixMilli(*ms).UTC()
	return &ts
}
