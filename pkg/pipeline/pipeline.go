// Package pipeline runs the daily sequence: fetch news, generate study notes,
// publish them to the monthly document. One pass per process invocation, any
// failure aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/umputun/lingoscope/pkg/composer"
	"github.com/umputun/lingoscope/pkg/config"
	"github.com/umputun/lingoscope/pkg/domain"
)

// StoryFetcher retrieves top stories from the Hacker News API
type StoryFetcher interface {
	FetchTop(ctx context.Context, desired int) ([]domain.Article, error)
}

// NewsFetcher retrieves articles from RSS/Atom feeds
type NewsFetcher interface {
	Fetch(ctx context.Context, feedURL string, lang domain.Lang, limit int) ([]domain.Article, error)
	FetchFiltered(ctx context.Context, feedURL string, lang domain.Lang, keywords []string, desired int) ([]domain.Article, error)
}

// BlogFetcher retrieves the latest tech-blog articles
type BlogFetcher interface {
	FetchLatest(ctx context.Context, limit int) ([]domain.Article, error)
}

// NotesGenerator produces bilingual study notes from articles
type NotesGenerator interface {
	EnglishMaterial(ctx context.Context, articles []domain.Article) (domain.EnglishNotes, error)
	JapaneseMaterial(ctx context.Context, articles []domain.Article) (domain.JapaneseNotes, error)
}

// Publisher maintains the monthly document in the Doc service
type Publisher interface {
	EnsureDocument(ctx context.Context, title string) (string, error)
	PrependContent(ctx context.Context, docID, entry string) error
}

// Opts wires the pipeline's collaborators
type Opts struct {
	Config    *config.Config
	Stories   StoryFetcher
	News      NewsFetcher
	Blog      BlogFetcher
	Generator NotesGenerator
	Publisher Publisher
	Now       func() time.Time // defaults to time.Now, injectable for tests
}

// Pipeline executes the fixed daily sequence
type Pipeline struct {
	cfg       *config.Config
	stories   StoryFetcher
	news      NewsFetcher
	blog      BlogFetcher
	generator NotesGenerator
	publisher Publisher
	now       func() time.Time
}

// New creates a pipeline from the wired collaborators
func New(opts Opts) *Pipeline {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		cfg:       opts.Config,
		stories:   opts.Stories,
		news:      opts.News,
		blog:      opts.Blog,
		generator: opts.Generator,
		publisher: opts.Publisher,
		now:       now,
	}
}

// Run executes one daily pass. Sequential blocking calls, no retries.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Print("[INFO] starting daily language learning run")

	english, err := p.collectEnglish(ctx)
	if err != nil {
		return err
	}

	japanese, err := p.news.Fetch(ctx, p.cfg.JapaneseRSSURL, domain.LangJapanese, p.cfg.MaxJapaneseItems)
	if err != nil {
		return fmt.Errorf("fetch japanese news: %w", err)
	}
	if len(japanese) == 0 {
		return fmt.Errorf("japanese feed %s returned no usable items", p.cfg.JapaneseRSSURL)
	}
	log.Printf("[INFO] fetched %d japanese news items", len(japanese))

	log.Print("[INFO] generating english study material")
	englishNotes, err := p.generator.EnglishMaterial(ctx, english)
	if err != nil {
		return fmt.Errorf("english material: %w", err)
	}

	log.Print("[INFO] generating japanese study material")
	japaneseNotes, err := p.generator.JapaneseMaterial(ctx, japanese)
	if err != nil {
		return fmt.Errorf("japanese material: %w", err)
	}

	today := p.now()
	entry := composer.Entry(today, englishNotes, japanese, japaneseNotes)
	title := composer.MonthTitle(today)

	docID, err := p.publisher.EnsureDocument(ctx, title)
	if err != nil {
		return fmt.Errorf("ensure monthly document: %w", err)
	}
	if err := p.publisher.PrependContent(ctx, docID, entry); err != nil {
		return fmt.Errorf("prepend entry: %w", err)
	}

	log.Printf("[INFO] daily entry published to document %q", title)
	return nil
}

// collectEnglish gathers the English sources: Hacker News stories, the
// keyword-filtered tech-news feed and the latest tech-blog article. The two
// feed sources are skipped when not configured.
func (p *Pipeline) collectEnglish(ctx context.Context) ([]domain.Article, error) {
	stories, err := p.stories.FetchTop(ctx, p.cfg.MaxEnglishItems)
	if err != nil {
		return nil, fmt.Errorf("fetch hacker news stories: %w", err)
	}
	if len(stories) == 0 {
		return nil, fmt.Errorf("no hacker news stories available")
	}
	log.Printf("[INFO] fetched %d hacker news stories", len(stories))

	articles := stories

	if p.cfg.TechNewsFeedURL != "" {
		news, err := p.news.FetchFiltered(ctx, p.cfg.TechNewsFeedURL, domain.LangEnglish, p.cfg.EnglishKeywords, p.cfg.MaxEnglishItems)
		if err != nil {
			return nil, fmt.Errorf("fetch tech news: %w", err)
		}
		log.Printf("[INFO] fetched %d tech news articles", len(news))
		articles = append(articles, news...)
	}

	if p.blog != nil && p.cfg.TechBlogFeedURL != "" {
		posts, err := p.blog.FetchLatest(ctx, 1)
		if err != nil {
			return nil, fmt.Errorf("fetch tech blog: %w", err)
		}
		log.Printf("[INFO] fetched %d tech blog articles", len(posts))
		articles = append(articles, posts...)
	}

	return articles, nil
}
