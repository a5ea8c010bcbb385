// Package markdown renders note content to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
)

type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// Render converts markdown to HTML. Falls back to the raw content when
// conversion fails.
func (r *Renderer) Render(content string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}
