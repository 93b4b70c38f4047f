// Package markdown renders user-written deed text into HTML safe to embed
// in notification emails.
package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextProcessor {
	return &TextProcessor{
		md:     goldmark.New(goldmark.WithExtensions(extension.Strikethrough)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts text to sanitized HTML. Render failures fall back to the
// escaped input rather than dropping the message.
func (tp *TextProcessor) Render(text string) string {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return strings.TrimSpace(tp.policy.Sanitize(buf.String()))
}
