// Package notifier sends the templated messages produced by the fan-out
// workflows. Every Send targets a single address and succeeds or fails on
// its own; callers decide what a failure means.
package notifier

// Template ids, one per notification kind.
const (
	TemplateTagged        = "tagged"
	TemplateRippleUpdated = "ripple_updated"
	TemplateComment       = "comment"
)

// Params are the template variables. Well-known keys: from_name, to_name,
// post_text, comment_text, post_link, app_name.
type Params map[string]string

type Notifier interface {
	Send(template string, to string, params Params) error
}
