package domain

import "time"

// Fact is a static knowledge base entry matched by topic phrase.
type Fact struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// Article is a single news result.
type Article struct {
	Title       string
	Description string
	URL         string
	Source      string
	PublishedAt time.Time
}

// NewsQuery describes one single-article news search. Language and Domains
// are optional; Domains restricts results to an allow-list.
type NewsQuery struct {
	Text     string
	Language string
	Domains  []string
}
