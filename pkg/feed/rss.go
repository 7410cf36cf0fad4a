package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/lingoscope/pkg/domain"
)

// RSS fetches and parses RSS/Atom feeds into article records
type RSS struct {
	client    *http.Client
	userAgent string
}

// NewRSS creates a new RSS fetcher
func NewRSS(timeout time.Duration, userAgent string) *RSS {
	return &RSS{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Fetch returns up to limit articles from the feed, source order preserved.
// Items without a title or summary are skipped.
func (f *RSS) Fetch(ctx context.Context, feedURL string, lang domain.Lang, limit int) ([]domain.Article, error) {
	articles, err := f.fetchAll(ctx, feedURL, lang)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// FetchFiltered returns up to desired articles whose title or summary matches
// any of the keywords. When nothing matches, falls back to the newest items so
// a run is never left without English material.
func (f *RSS) FetchFiltered(ctx context.Context, feedURL string, lang domain.Lang, keywords []string, desired int) ([]domain.Article, error) {
	articles, err := f.fetchAll(ctx, feedURL, lang)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if matchesAny(a, keywords) {
			matched = append(matched, a)
		}
	}
	if len(matched) == 0 {
		log.Printf("[WARN] no items in %s matched keyword filter, falling back to latest items", feedURL)
		matched = articles
	}
	if desired > 0 && len(matched) > desired {
		matched = matched[:desired]
	}
	return matched, nil
}

// fetchAll retrieves the feed and converts every usable item
func (f *RSS) fetchAll(ctx context.Context, feedURL string, lang domain.Lang) ([]domain.Article, error) {
	body, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := strings.TrimSpace(item.Title)
		summary := stripHTML(item.Description)
		if summary == "" {
			summary = stripHTML(item.Content)
		}
		if title == "" || summary == "" {
			continue
		}

		article := domain.Article{
			Source:  parsed.Title,
			Title:   title,
			Link:    strings.TrimSpace(item.Link),
			Summary: summary,
			Lang:    lang,
		}
		if item.PublishedParsed != nil {
			article.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			article.Published = *item.UpdatedParsed
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// fetch retrieves feed content from a URL
func (f *RSS) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// matchesAny reports whether the article's title or summary contains any keyword
func matchesAny(a domain.Article, keywords []string) bool {
	haystack := strings.ToLower(a.Title + " " + a.Summary)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
