package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "hello world", "hello world"},
		{"tags removed", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities unescaped", "cats &amp; dogs", "cats & dogs"},
		{"whitespace collapsed", "  a\n\n  b\tc  ", "a b c"},
		{"script dropped", `<script>alert("x")</script>safe`, "safe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}

func TestHTMLToText(t *testing.T) {
	t.Run("structure preserved", func(t *testing.T) {
		in := `<h2>Heading</h2><p>First  paragraph.</p><ul><li>Item A</li><li>Item B</li></ul>`
		got := htmlToText(in)
		assert.Equal(t, "Heading\nFirst paragraph.\n- Item A\n- Item B", got)
	})

	t.Run("pre keeps line structure", func(t *testing.T) {
		in := "<p>Before</p><pre>line 1\nline 2</pre><p>After</p>"
		got := htmlToText(in)
		assert.Equal(t, "Before\nline 1\nline 2\nAfter", got)
	})

	t.Run("nested paragraphs not duplicated", func(t *testing.T) {
		in := `<blockquote><p>quoted text</p></blockquote>`
		got := htmlToText(in)
		assert.Equal(t, "quoted text", got)
	})

	t.Run("bare text falls back to flat strip", func(t *testing.T) {
		got := htmlToText("just some <b>inline</b> text")
		assert.Equal(t, "just some inline text", got)
	})
}
