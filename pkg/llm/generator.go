// Package llm turns fetched news articles into structured bilingual study
// notes via an OpenAI-compatible chat-completion API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/lingoscope/pkg/domain"
)

// Opts configures the notes generator
type Opts struct {
	APIKey         string
	BaseURL        string // OpenAI-compatible endpoint, empty for the default
	Model          string
	Temperature    float64
	Timeout        time.Duration // per-call timeout, 0 means no limit
	MaxSourceChars int           // max characters of source text embedded in a single prompt
}

// Generator produces study notes from articles, one blocking call per section
type Generator struct {
	client         *openai.Client
	model          string
	temperature    float32
	maxSourceChars int
}

// NewGenerator creates a notes generator
func NewGenerator(opts Opts) *Generator {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Generator{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          opts.Model,
		temperature:    float32(opts.Temperature),
		maxSourceChars: opts.MaxSourceChars,
	}
}

const englishSystemPrompt = "You are an assistant that prepares concise, real-world English learning material " +
	"for intermediate learners based on actual technology news."

const japaneseSystemPrompt = "You are a bilingual Japanese-Chinese editor who creates study notes from real Japanese news."

const englishPromptTemplate = `Use the following technology news to create English learning material.
News:
"""%s"""

Requirements:
- Write a natural 150-200 word summary that is easy to read but still professional.
- Provide a vocabulary list of 10-15 words. Each entry must contain the word, an English definition, a Chinese explanation, and a short English example sentence.
- Return JSON with this structure:
{
  "summary": "paragraphs in Markdown",
  "vocabulary": [
    {"word": "...", "definition_en": "...", "definition_zh": "...", "example": "..."}
  ]
}`

const japanesePromptTemplate = `Use the real Japanese news below to produce bilingual study notes.
News:
"""%s"""

Requirements:
- Translate the full text to Chinese.
- Extract 8-12 important Japanese words found in the news. Provide word, part_of_speech, and Chinese meaning.
- Explain 2-3 grammar points from JLPT N5-N3 level that actually appear in the article, referencing the sentence fragments where they occur.
- Respond in JSON with this format:
{
  "translation": "full Chinese translation in Markdown paragraphs",
  "vocabulary": [
    {"word": "...", "part_of_speech": "...", "meaning_zh": "..."}
  ],
  "grammar": [
    {"title": "...", "description": "explain usage and give example from text"}
  ]
}`

// EnglishMaterial generates an English summary and vocabulary list from the articles
func (g *Generator) EnglishMaterial(ctx context.Context, articles []domain.Article) (domain.EnglishNotes, error) {
	if len(articles) == 0 {
		return domain.EnglishNotes{}, fmt.Errorf("no articles provided for english material")
	}

	prompt := fmt.Sprintf(englishPromptTemplate, g.sourceText(articles))
	raw, err := g.chat(ctx, englishSystemPrompt, prompt)
	if err != nil {
		return domain.EnglishNotes{}, fmt.Errorf("generate english material: %w", err)
	}

	var notes domain.EnglishNotes
	if err := json.Unmarshal([]byte(trimJSONFences(raw)), &notes); err != nil {
		return domain.EnglishNotes{}, fmt.Errorf("parse english material response: %w", err)
	}
	return notes, nil
}

// JapaneseMaterial generates a Chinese translation, vocabulary and grammar notes
func (g *Generator) JapaneseMaterial(ctx context.Context, articles []domain.Article) (domain.JapaneseNotes, error) {
	if len(articles) == 0 {
		return domain.JapaneseNotes{}, fmt.Errorf("no articles provided for japanese material")
	}

	prompt := fmt.Sprintf(japanesePromptTemplate, g.sourceText(articles))
	raw, err := g.chat(ctx, japaneseSystemPrompt, prompt)
	if err != nil {
		return domain.JapaneseNotes{}, fmt.Errorf("generate japanese material: %w", err)
	}

	var notes domain.JapaneseNotes
	if err := json.Unmarshal([]byte(trimJSONFences(raw)), &notes); err != nil {
		return domain.JapaneseNotes{}, fmt.Errorf("parse japanese material response: %w", err)
	}
	return notes, nil
}

// sourceText joins article segments and clamps the result to the configured
// character limit, so a single prompt never embeds more source text than allowed
func (g *Generator) sourceText(articles []domain.Article) string {
	segments := make([]string, 0, len(articles))
	for _, a := range articles {
		segments = append(segments, a.PromptSegment())
	}
	text := strings.Join(segments, "\n\n")

	if g.maxSourceChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= g.maxSourceChars {
		return text
	}
	return strings.TrimRight(string(runes[:g.maxSourceChars]), " \n") + "\n\n...(truncated)"
}

// chat issues a single blocking chat-completion call, no retries
func (g *Generator) chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}
	return resp.Choices[0].Message.Content, nil
}

// trimJSONFences strips a markdown code fence some models wrap JSON output in
func trimJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
