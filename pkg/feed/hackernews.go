package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/umputun/lingoscope/pkg/domain"
)

// default Hacker News Firebase API endpoint
const hackerNewsBaseURL = "https://hacker-news.firebaseio.com"

// how many top story ids to scan before giving up on collecting enough stories
const hackerNewsScanLimit = 40

// HackerNews fetches top stories from the Hacker News API
type HackerNews struct {
	client  *http.Client
	baseURL string
}

// NewHackerNews creates a Hacker News client. Empty baseURL uses the public API.
func NewHackerNews(baseURL string, timeout time.Duration) *HackerNews {
	if baseURL == "" {
		baseURL = hackerNewsBaseURL
	}
	return &HackerNews{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// hnItem is the wire format of a single Hacker News item
type hnItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
	Time  int64  `json:"time"`
}

// FetchTop returns up to desired top stories in rank order. Items that fail to
// load or are not stories are skipped, they don't abort the run.
func (h *HackerNews) FetchTop(ctx context.Context, desired int) ([]domain.Article, error) {
	ids, err := h.topStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch top story ids: %w", err)
	}

	articles := make([]domain.Article, 0, desired)
	for _, id := range ids {
		if len(articles) >= desired {
			break
		}
		item, err := h.fetchItem(ctx, id)
		if err != nil {
			log.Printf("[WARN] failed to fetch hn story %d: %v", id, err)
			continue
		}
		if item.Type != "story" || item.Title == "" {
			continue
		}

		link := item.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
		}
		articles = append(articles, domain.Article{
			Source:    "Hacker News",
			Title:     item.Title,
			Link:      link,
			Summary:   stripHTML(item.Text),
			Lang:      domain.LangEnglish,
			Published: time.Unix(item.Time, 0).UTC(),
		})
	}

	return articles, nil
}

// topStoryIDs retrieves the ranked list of top story ids, truncated to the scan limit
func (h *HackerNews) topStoryIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := h.getJSON(ctx, h.baseURL+"/v0/topstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > hackerNewsScanLimit {
		ids = ids[:hackerNewsScanLimit]
	}
	return ids, nil
}

// fetchItem retrieves a single item by id
func (h *HackerNews) fetchItem(ctx context.Context, id int64) (hnItem, error) {
	var item hnItem
	if err := h.getJSON(ctx, fmt.Sprintf("%s/v0/item/%d.json", h.baseURL, id), &item); err != nil {
		return hnItem{}, err
	}
	return item, nil
}

// getJSON issues a GET request and decodes the JSON response into out
func (h *HackerNews) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
