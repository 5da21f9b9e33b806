package usecase

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Keywords is the phrase configuration driving message classification. All
// phrases match case-insensitively on word boundaries.
type Keywords struct {
	// NewsTriggers mark an explicit request for the latest news.
	NewsTriggers []string
	// Sensitive marks a message as touching the domain's sensitive topic.
	Sensitive []string
	// SensitiveSubject is the canonical query used for sensitive news lookups.
	SensitiveSubject string
	// Recency marks a message as being about recent events.
	Recency []string
	// RecencyYears are literal year tokens counted as recency markers. When
	// empty the current and next calendar year are derived from the clock.
	RecencyYears []string
}

// DefaultKeywords returns the Portuguese and English phrase sets.
func DefaultKeywords() Keywords {
	return Keywords{
		NewsTriggers: []string{
			"últimas notícias", "notícias recentes", "latest news", "recent news",
			"situação atual", "current situation", "hoje", "today",
		},
		Sensitive: []string{
			"israel", "israelense", "israelenses", "israeli", "israelis", "israelita",
			"palestina", "palestine", "palestino", "palestinos", "palestinian", "palestinians",
			"gaza", "cisjordânia", "west bank", "jerusalém", "jerusalem", "tel aviv",
			"golã", "golan", "líbano", "lebanon", "irã", "iran",
			"netanyahu", "herzog", "ben-gurion", "arafat", "abbas", "sinwar", "nasrallah",
			"hamas", "hezbollah", "idf", "knesset",
			"sionismo", "sionista", "zionism", "zionist",
			"judaísmo", "judaism", "judeu", "judeus", "judaico", "jew", "jews", "jewish",
			"holocausto", "holocaust", "shoah", "antissemitismo", "antisemitism",
			"intifada", "torá", "torah", "muro das lamentações", "western wall",
			"partition plan", "plano de partilha",
		},
		SensitiveSubject: "Israel",
		Recency: []string{
			"current", "currently", "now", "today", "this year", "recently", "latest",
			"atual", "atualmente", "agora", "hoje", "este ano", "esse ano",
			"recentemente", "recente", "últimas", "último", "última",
		},
	}
}

// Classification is the outcome of the keyword predicates for one message.
type Classification struct {
	// News is set when a news trigger phrase is present; NewsTopic is then the
	// query to search for.
	News      bool
	NewsTopic string
	Sensitive bool
	Recent    bool
}

// Classifier evaluates the keyword predicates. It is immutable and safe for
// concurrent use.
type Classifier struct {
	newsTriggers []string
	sensitive    []string
	subject      string
	recency      []string
	years        []string
}

var topicRe = regexp.MustCompile(`(?i)^[\s:,;\-–—]*(?:(?:sobre|about)(?:\s+|$))?(.*?)[\s?!.,;:]*$`)

// NewClassifier lower-cases and validates kw.
func NewClassifier(kw Keywords) (*Classifier, error) {
	c := &Classifier{
		newsTriggers: normalizePhrases(kw.NewsTriggers),
		sensitive:    normalizePhrases(kw.Sensitive),
		subject:      strings.TrimSpace(kw.SensitiveSubject),
		recency:      normalizePhrases(kw.Recency),
		years:        normalizePhrases(kw.RecencyYears),
	}
	if len(c.newsTriggers) == 0 {
		return nil, errors.New("usecase: news trigger phrases must not be empty")
	}
	if len(c.sensitive) == 0 {
		return nil, errors.New("usecase: sensitive keywords must not be empty")
	}
	if c.subject == "" {
		return nil, errors.New("usecase: sensitive subject must not be empty")
	}
	if len(c.recency) == 0 {
		return nil, errors.New("usecase: recency keywords must not be empty")
	}
	return c, nil
}

// Classify runs every predicate against text. now only feeds the derived
// year tokens.
func (c *Classifier) Classify(text string, now time.Time) Classification {
	lower := strings.ToLower(text)
	out := Classification{
		Sensitive: c.IsSensitive(lower),
		Recent:    c.IsRecent(lower, now),
	}
	if topic, ok := c.newsTopic(text, lower); ok {
		out.News = true
		out.NewsTopic = topic
		if topic == "" || out.Sensitive {
			out.NewsTopic = c.subject
		}
	}
	return out
}

// IsSensitive reports whether text contains a sensitive keyword.
func (c *Classifier) IsSensitive(text string) bool {
	return containsAny(strings.ToLower(text), c.sensitive)
}

// IsRecent reports whether text refers to recent events.
func (c *Classifier) IsRecent(text string, now time.Time) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, c.recency) {
		return true
	}
	return containsAny(lower, c.yearTokens(now))
}

// Subject returns the canonical sensitive subject.
func (c *Classifier) Subject() string {
	return c.subject
}

func (c *Classifier) yearTokens(now time.Time) []string {
	if len(c.years) > 0 {
		return c.years
	}
	y := now.Year()
	return []string{strconv.Itoa(y), strconv.Itoa(y + 1)}
}

// newsTopic finds the earliest news trigger in lower and returns the text
// that follows it, minus a leading "sobre"/"about". The topic keeps the casing
// of text whenever lower-casing left the byte offsets unchanged.
func (c *Classifier) newsTopic(text, lower string) (string, bool) {
	start, end := -1, -1
	for _, phrase := range c.newsTriggers {
		i := indexTerm(lower, phrase)
		if i < 0 {
			continue
		}
		if start < 0 || i < start || (i == start && i+len(phrase) > end) {
			start, end = i, i+len(phrase)
		}
	}
	if start < 0 {
		return "", false
	}
	rest := lower[end:]
	if len(text) == len(lower) && strings.EqualFold(text[end:], rest) {
		rest = text[end:]
	}
	m := topicRe.FindStringSubmatch(rest)
	if m == nil {
		return "", true
	}
	return strings.TrimSpace(m[1]), true
}

func normalizePhrases(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if indexTerm(lower, t) >= 0 {
			return true
		}
	}
	return false
}

// indexTerm returns the byte offset of the first occurrence of term in s that
// is not glued to a surrounding letter or digit, or -1.
func indexTerm(s, term string) int {
	offset := 0
	for {
		i := strings.Index(s[offset:], term)
		if i < 0 {
			return -1
		}
		i += offset
		j := i + len(term)
		if isBoundaryBefore(s, i) && isBoundaryAfter(s, j) {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		offset = i + size
	}
}

func isBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isBoundaryAfter(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
