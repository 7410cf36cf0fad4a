package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Run("extracts main article text", func(t *testing.T) {
		page := `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav>Home | About | Contact</nav>
	<article>
		<h1>Understanding Feed Pipelines</h1>
		<p>Feed pipelines move articles from publishers to readers. They parse structured
		formats and normalize the result into a common representation for downstream use.</p>
		<p>This second paragraph adds enough body text for the extractor to treat the
		article element as the dominant content block of the page.</p>
	</article>
	<footer>Copyright 2026</footer>
</body>
</html>`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "lingoscope/1.0", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(page))
		}))
		defer server.Close()

		extractor := NewExtractor(5*time.Second, "lingoscope/1.0")
		text, err := extractor.Extract(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Contains(t, text, "Feed pipelines move articles")
		assert.NotContains(t, text, "Copyright 2026")
	})

	t.Run("invalid url", func(t *testing.T) {
		extractor := NewExtractor(5*time.Second, "lingoscope/1.0")
		_, err := extractor.Extract(context.Background(), "not-a-url")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid URL")
	})

	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		extractor := NewExtractor(5*time.Second, "lingoscope/1.0")
		_, err := extractor.Extract(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status code 404")
	})

	t.Run("empty page yields error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body></body></html>"))
		}))
		defer server.Close()

		extractor := NewExtractor(5*time.Second, "lingoscope/1.0")
		_, err := extractor.Extract(context.Background(), server.URL)
		require.Error(t, err)
	})
}
