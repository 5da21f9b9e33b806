// Package knowledge loads the static facts and trusted news domains the
// router consults. Both are read once at startup and never mutated.
package knowledge

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"truelive-router/internal/domain"
)

//go:embed data/knowledge_base.json
var defaultFacts []byte

//go:embed data/trusted_sources.json
var defaultSources []byte

// KnowledgeBase is an ordered, immutable set of facts.
type KnowledgeBase struct {
	facts   []domain.Fact
	phrases []string
}

// NewKnowledgeBase validates facts and keeps their declared order.
func NewKnowledgeBase(facts []domain.Fact) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		facts:   make([]domain.Fact, 0, len(facts)),
		phrases: make([]string, 0, len(facts)),
	}
	for i, f := range facts {
		phrase := strings.ToLower(strings.TrimSpace(f.Question))
		if phrase == "" {
			return nil, fmt.Errorf("knowledge: fact %d has an empty question", i)
		}
		if strings.TrimSpace(f.Answer) == "" {
			return nil, fmt.Errorf("knowledge: fact %d (%q) has an empty answer", i, f.Question)
		}
		kb.facts = append(kb.facts, f)
		kb.phrases = append(kb.phrases, phrase)
	}
	return kb, nil
}

// Match returns the first fact, in declared order, whose question phrase is
// contained in text ignoring case.
func (kb *KnowledgeBase) Match(text string) (domain.Fact, bool) {
	if kb == nil {
		return domain.Fact{}, false
	}
	lower := strings.ToLower(text)
	for i, phrase := range kb.phrases {
		if strings.Contains(lower, phrase) {
			return kb.facts[i], true
		}
	}
	return domain.Fact{}, false
}

// Facts returns a copy of the facts in declared order.
func (kb *KnowledgeBase) Facts() []domain.Fact {
	if kb == nil {
		return nil
	}
	return append([]domain.Fact(nil), kb.facts...)
}

// Len returns the number of facts.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.facts)
}

// TrustedSources is the allow-list of news domains used for sensitive topics.
type TrustedSources struct {
	domains []string
}

// NewTrustedSources normalizes and de-duplicates domains, keeping first-seen order.
func NewTrustedSources(domains []string) (*TrustedSources, error) {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, errors.New("knowledge: trusted source list is empty")
	}
	return &TrustedSources{domains: out}, nil
}

// Domains returns a copy of the allow-list.
func (s *TrustedSources) Domains() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.domains...)
}

// LoadKnowledgeBase reads facts from path, or the embedded defaults when path is empty.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	raw, err := readOrDefault(path, defaultFacts)
	if err != nil {
		return nil, err
	}
	var facts []domain.Fact
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, fmt.Errorf("knowledge: decode knowledge base: %w", err)
	}
	return NewKnowledgeBase(facts)
}

// LoadTrustedSources reads domains from path, or the embedded defaults when path is empty.
func LoadTrustedSources(path string) (*TrustedSources, error) {
	raw, err := readOrDefault(path, defaultSources)
	if err != nil {
		return nil, err
	}
	var domains []string
	if err := json.Unmarshal(raw, &domains); err != nil {
		return nil, fmt.Errorf("knowledge: decode trusted sources: %w", err)
	}
	return NewTrustedSources(domains)
}

func readOrDefault(path string, fallback []byte) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read %q: %w", path, err)
	}
	return raw, nil
}
