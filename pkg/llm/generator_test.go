package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lingoscope/pkg/domain"
)

// completionServer returns a chat-completion stub that records the last request
// and answers with the given content
func completionServer(t *testing.T, content string, lastReq *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(lastReq))

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerator_EnglishMaterial(t *testing.T) {
	response := `{
		"summary": "This week's tech news covers new AI tooling.",
		"vocabulary": [
			{"word": "deploy", "definition_en": "to put into use", "definition_zh": "部署", "example": "We deploy daily."}
		]
	}`

	var lastReq openai.ChatCompletionRequest
	server := completionServer(t, response, &lastReq)
	defer server.Close()

	gen := NewGenerator(Opts{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "gpt-4o-mini", Temperature: 0.2})
	articles := []domain.Article{
		{Title: "AI tooling update", Link: "https://example.com/ai", Summary: "New tools released", Lang: domain.LangEnglish},
	}

	notes, err := gen.EnglishMaterial(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, "This week's tech news covers new AI tooling.", notes.Summary)
	require.Len(t, notes.Vocabulary, 1)
	assert.Equal(t, "deploy", notes.Vocabulary[0].Word)
	assert.Equal(t, "部署", notes.Vocabulary[0].DefinitionZH)

	// request shape
	assert.Equal(t, "gpt-4o-mini", lastReq.Model)
	require.Len(t, lastReq.Messages, 2)
	assert.Equal(t, englishSystemPrompt, lastReq.Messages[0].Content)
	assert.Contains(t, lastReq.Messages[1].Content, "AI tooling update")
	assert.Contains(t, lastReq.Messages[1].Content, "https://example.com/ai")
	require.NotNil(t, lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, lastReq.ResponseFormat.Type)
}

func TestGenerator_JapaneseMaterial(t *testing.T) {
	response := "```json\n" + `{
		"translation": "今日的新闻内容。",
		"vocabulary": [{"word": "経済", "part_of_speech": "名詞", "meaning_zh": "经济"}],
		"grammar": [{"title": "〜について", "description": "表示关于某话题"}]
	}` + "\n```"

	var lastReq openai.ChatCompletionRequest
	server := completionServer(t, response, &lastReq)
	defer server.Close()

	gen := NewGenerator(Opts{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "gpt-4o-mini"})
	articles := []domain.Article{
		{Title: "経済ニュース", Link: "https://example.jp/news", Summary: "経済に関する記事です。", Lang: domain.LangJapanese},
	}

	notes, err := gen.JapaneseMaterial(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, "今日的新闻内容。", notes.Translation)
	require.Len(t, notes.Vocabulary, 1)
	assert.Equal(t, "経済", notes.Vocabulary[0].Word)
	require.Len(t, notes.Grammar, 1)
	assert.Equal(t, "〜について", notes.Grammar[0].Title)

	assert.Equal(t, japaneseSystemPrompt, lastReq.Messages[0].Content)
	assert.Contains(t, lastReq.Messages[1].Content, "経済ニュース")
}

func TestGenerator_SourceTextClamped(t *testing.T) {
	var lastReq openai.ChatCompletionRequest
	server := completionServer(t, `{"summary": "ok", "vocabulary": []}`, &lastReq)
	defer server.Close()

	gen := NewGenerator(Opts{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "gpt-4o-mini", MaxSourceChars: 50})
	articles := []domain.Article{
		{Title: "Long article", Summary: strings.Repeat("word ", 200)},
	}

	_, err := gen.EnglishMaterial(context.Background(), articles)
	require.NoError(t, err)

	// embedded source text is clamped, full body never reaches the prompt
	assert.Contains(t, lastReq.Messages[1].Content, "...(truncated)")
	assert.Less(t, len(lastReq.Messages[1].Content), len(englishPromptTemplate)+200)
}

func TestGenerator_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		gen := NewGenerator(Opts{APIKey: "k", Model: "m"})
		_, err := gen.EnglishMaterial(context.Background(), nil)
		require.Error(t, err)
		_, err = gen.JapaneseMaterial(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("api failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"message": "bad key"}}`))
		}))
		defer server.Close()

		gen := NewGenerator(Opts{APIKey: "bad", BaseURL: server.URL + "/v1", Model: "m"})
		_, err := gen.EnglishMaterial(context.Background(), []domain.Article{{Title: "x", Summary: "y"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm request failed")
	})

	t.Run("slow endpoint hits the configured timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			resp := openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: `{"summary": "late", "vocabulary": []}`}},
				},
			}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		gen := NewGenerator(Opts{APIKey: "k", BaseURL: server.URL + "/v1", Model: "m", Timeout: 50 * time.Millisecond})
		started := time.Now()
		_, err := gen.EnglishMaterial(context.Background(), []domain.Article{{Title: "x", Summary: "y"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm request failed")
		assert.Less(t, time.Since(started), 400*time.Millisecond)
	})

	t.Run("invalid json response is fatal, no retry", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			resp := openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: "not json at all"}},
				},
			}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		gen := NewGenerator(Opts{APIKey: "k", BaseURL: server.URL + "/v1", Model: "m"})
		_, err := gen.EnglishMaterial(context.Background(), []domain.Article{{Title: "x", Summary: "y"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse english material response")
		assert.Equal(t, 1, calls)
	})
}

func TestTrimJSONFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, trimJSONFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, trimJSONFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, trimJSONFences("```\n{\"a\":1}\n```"))
}
