package notifier

import (
	"bytes"
	"fmt"
	html "html/template"
	text "text/template"

	"github.com/ripple-app/ripple/shared/markdown"
)

type emailTemplate struct {
	subject *text.Template
	body    *html.Template
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: text.Must(text.New(name + "_subject").Parse(subject)),
		body:    html.Must(html.New(name + "_body").Parse(body)),
	}
}

var templates = map[string]emailTemplate{
	TemplateTagged: mustTemplate(TemplateTagged,
		`{{.from_name}} tagged you in a good deed`,
		`<p><strong>{{.from_name}}</strong> did a good deed and tagged you:</p>
{{.post_html}}
<p><a href="{{.post_link}}">See the post on {{.app_name}}</a> and pass it on.</p>`,
	),
	TemplateRippleUpdated: mustTemplate(TemplateRippleUpdated,
		`A ripple you are part of keeps going`,
		`<p><strong>{{.from_name}}</strong> added to a ripple you are part of:</p>
{{.post_html}}
<p><a href="{{.post_link}}">See the whole ripple on {{.app_name}}</a>.</p>`,
	),
	TemplateComment: mustTemplate(TemplateComment,
		`{{.from_name}} commented on your deed`,
		`<p>Hi {{.to_name}},</p>
<p><strong>{{.from_name}}</strong> commented on your deed:</p>
{{.comment_html}}
<p><a href="{{.post_link}}">Open the post on {{.app_name}}</a>.</p>`,
	),
}

// renderMessage produces the subject line and HTML body for one send.
// User-written text arrives as post_text / comment_text and is rendered to
// sanitized HTML before it reaches the body template.
func renderMessage(tp *markdown.TextProcessor, template string, params Params) (subject, body string, err error) {
	tmpl, ok := templates[template]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", template)
	}

	data := make(map[string]any, len(params)+2)
	for k, v := range params {
		data[k] = v
	}
	if t, ok := params["post_text"]; ok {
		data["post_html"] = html.HTML(tp.Render(t))
	}
	if t, ok := params["comment_text"]; ok {
		data["comment_html"] = html.HTML(tp.Render(t))
	}

	var subjBuf bytes.Buffer
	if err := tmpl.subject.Execute(&subjBuf, data); err != nil {
		return "", "", err
	}
	var bodyBuf bytes.Buffer
	if err := tmpl.body.Execute(&bodyBuf, data); err != nil {
		return "", "", err
	}
	return subjBuf.String(), bodyBuf.String(), nil
}
