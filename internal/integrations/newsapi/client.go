// Package newsapi is a focused client for the NewsAPI "everything" search.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"truelive-router/internal/domain"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"

	sortPublishedAt = "publishedAt"
	sortRelevancy   = "relevancy"

	// LatestLookback bounds how old a "latest" article may be.
	LatestLookback = 7 * 24 * time.Hour
)

// TokenSource supplies the API key for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Query describes one single-article search.
type Query = domain.NewsQuery

type searchResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("newsapi: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client searches NewsAPI for a single article.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	now        func() time.Time
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a Client authenticating with tokens.
func NewClient(tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("newsapi: token source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Latest returns the most recently published article of the last seven days.
// A nil article with a nil error means the provider found nothing.
func (c *Client) Latest(ctx context.Context, q Query) (*domain.Article, error) {
	from := c.now().Add(-LatestLookback).UTC().Format(time.RFC3339)
	return c.search(ctx, q, sortPublishedAt, from)
}

// Relevant returns the most relevant article with no time window.
// A nil article with a nil error means the provider found nothing.
func (c *Client) Relevant(ctx context.Context, q Query) (*domain.Article, error) {
	return c.search(ctx, q, sortRelevancy, "")
}

func everythingURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v2") {
		return base + "/everything"
	}
	return base + "/v2/everything"
}

func (c *Client) search(ctx context.Context, q Query, sortBy, from string) (*domain.Article, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, errors.New("newsapi: query must not be empty")
	}
	apiKey, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("newsapi: resolve token: %w", err)
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("sortBy", sortBy)
	params.Set("pageSize", "1")
	if lang := strings.TrimSpace(q.Language); lang != "" {
		params.Set("language", lang)
	}
	if len(q.Domains) > 0 {
		params.Set("domains", strings.Join(q.Domains, ","))
	}
	if from != "" {
		params.Set("from", from)
	}

	endpoint := everythingURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: create request: %w", err)
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}
	if payload.Status != "" && payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi: provider error %s: %s", payload.Code, payload.Message)
	}
	if len(payload.Articles) == 0 {
		return nil, nil
	}
	a := payload.Articles[0]
	return &domain.Article{
		Title:       strings.TrimSpace(a.Title),
		Description: strings.TrimSpace(a.Description),
		URL:         a.URL,
		Source:      strings.TrimSpace(a.Source.Name),
		PublishedAt: a.PublishedAt,
	}, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
