package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the flat config.json settings. Loaded once at startup,
// immutable for the run's duration.
type Config struct {
	// LLM settings
	OpenAIAPIKey  string `json:"openai_api_key" jsonschema:"required,description=API key for the chat-completion endpoint (env vars expand)"`
	OpenAIModel   string `json:"openai_model" jsonschema:"default=gpt-4o-mini,description=Model name"`
	OpenAIBaseURL string `json:"openai_base_url" jsonschema:"description=OpenAI-compatible API base URL (optional)"`

	// fetch tunables
	RequestTimeout   int      `json:"request_timeout" jsonschema:"default=15,description=Per-request timeout in seconds"`
	LLMTimeout       int      `json:"llm_timeout" jsonschema:"default=60,description=Chat-completion timeout in seconds"`
	MaxEnglishItems  int      `json:"max_english_items" jsonschema:"default=4,description=Number of English news items per run"`
	MaxJapaneseItems int      `json:"max_japanese_items" jsonschema:"default=2,description=Number of Japanese news items per run"`
	MaxArticleChars  int      `json:"max_article_chars" jsonschema:"default=12000,description=Max characters of source text embedded in a single prompt"`
	EnglishKeywords  []string `json:"english_keywords" jsonschema:"description=Keyword filter for the tech-news feed (defaults to AI/programming terms)"`

	// feeds
	TechNewsFeedURL      string   `json:"tech_news_feed_url" jsonschema:"default=https://feeds.arstechnica.com/arstechnica/index,description=English tech-news RSS feed"`
	TechBlogFeedURL      string   `json:"tech_blog_feed_url" jsonschema:"default=https://netflixtechblog.com/feed,description=Tech-blog RSS feed"`
	TechBlogFallbackURLs []string `json:"tech_blog_fallback_urls" jsonschema:"description=Alternative tech-blog feed URLs tried in order"`
	JapaneseRSSURL       string   `json:"japanese_rss_url" jsonschema:"required,description=Japanese news RSS feed"`

	// TLS fallback policy for the tech-blog feed, operator opt-in
	AllowInsecureFallback bool `json:"allow_insecure_fallback" jsonschema:"default=false,description=Retry with TLS verification disabled on certificate failure"`
	AllowCurlFallback     bool `json:"allow_curl_fallback" jsonschema:"default=true,description=Retry via the system curl binary on certificate failure"`

	// Lark (Feishu) Doc service
	LarkAppID       string `json:"lark_app_id" jsonschema:"description=Lark app id for the tenant token exchange"`
	LarkAppSecret   string `json:"lark_app_secret" jsonschema:"description=Lark app secret for the tenant token exchange"`
	LarkAccessToken string `json:"lark_access_token" jsonschema:"description=Pre-issued tenant access token, skips the exchange when set"`
	LarkFolderToken string `json:"lark_folder_token" jsonschema:"required,description=Folder holding the monthly documents"`
	LarkBaseURL     string `json:"lark_base_url" jsonschema:"default=https://open.feishu.cn,description=Lark API base URL"`
}

// default keyword filter for the English tech-news feed
var defaultKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "neural", "ml", "llm",
	"programming", "developer", "coding", "software", "algorithm", "python", "javascript",
}

// Load reads configuration from a flat JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// keys set to an explicit empty string keep it, defaults apply to absent keys only.
	// this lets an operator blank tech_news_feed_url or tech_blog_feed_url to skip that source
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config keys: %w", err)
	}
	keySet := func(name string) bool { _, ok := raw[name]; return ok }

	// set defaults
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 15
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 60
	}
	if cfg.MaxEnglishItems == 0 {
		cfg.MaxEnglishItems = 4
	}
	if cfg.MaxJapaneseItems == 0 {
		cfg.MaxJapaneseItems = 2
	}
	if cfg.MaxArticleChars == 0 {
		cfg.MaxArticleChars = 12000
	}
	if len(cfg.EnglishKeywords) == 0 {
		cfg.EnglishKeywords = defaultKeywords
	}
	if cfg.TechNewsFeedURL == "" && !keySet("tech_news_feed_url") {
		cfg.TechNewsFeedURL = "https://feeds.arstechnica.com/arstechnica/index"
	}
	if cfg.TechBlogFeedURL == "" && !keySet("tech_blog_feed_url") {
		cfg.TechBlogFeedURL = "https://netflixtechblog.com/feed"
	}
	if cfg.LarkBaseURL == "" {
		cfg.LarkBaseURL = "https://open.feishu.cn"
	}

	return &cfg, nil
}

// Validate checks that the keys required for a run are present.
// Presence checks only, no connectivity probing.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("openai_api_key is required"))
	}
	if c.JapaneseRSSURL == "" {
		errs = append(errs, errors.New("japanese_rss_url is required"))
	}
	if c.LarkFolderToken == "" {
		errs = append(errs, errors.New("lark_folder_token is required"))
	}
	if c.LarkAccessToken == "" && (c.LarkAppID == "" || c.LarkAppSecret == "") {
		errs = append(errs, errors.New("provide either lark_access_token or both lark_app_id and lark_app_secret"))
	}
	return errors.Join(errs...)
}

// Timeout returns the per-request timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GenerationTimeout returns the chat-completion timeout as a duration
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.LLMTimeout) * time.Second
}
