package domain

import "time"

// Lang identifies the language of an article's text
type Lang string

// article language tags
const (
	LangEnglish  Lang = "en"
	LangJapanese Lang = "ja"
)

// Article represents a single fetched news item. Produced by a fetcher,
// consumed once by the notes generator and the entry composer.
type Article struct {
	Source    string // human-readable source name, e.g. "Hacker News"
	Title     string
	Link      string
	Summary   string // plain-text summary or body, HTML already stripped
	Lang      Lang
	Published time.Time
}

// PromptSegment formats the article for embedding into an LLM prompt
func (a Article) PromptSegment() string {
	s := a.Title
	if a.Summary != "" {
		s += "\n" + a.Summary
	}
	if a.Link != "" {
		s += "\nLink: " + a.Link
	}
	return s
}
