package notifier

import (
	"github.com/ripple-app/ripple/shared/logger"
	"github.com/ripple-app/ripple/shared/markdown"
)

// Log renders notifications and writes them to the application log
// instead of delivering them. Used for local development.
type Log struct {
	text *markdown.TextProcessor
}

func NewLog() *Log {
	return &Log{text: markdown.New()}
}

func (l *Log) Send(template, to string, params Params) error {
	subject, body, err := renderMessage(l.text, template, params)
	if err != nil {
		return err
	}
	logger.Log.Info("notification", "template", template, "to", to, "subject", subject, "body", body)
	return nil
}
