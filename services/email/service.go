// Package emailsvc holds the notification gateway: SMTP, SendGrid and a logging fallback.
package emailsvc

import (
	"context"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/services/metrics"
)

// New picks the transport from the configuration: SendGrid when an API key is set,
// SMTP when every credential is present, the logging fallback otherwise.
func New(conf *core.Config, logger core.Logger) core.EmailService {
	var svc core.EmailService
	switch {
	case conf.Mail.SendgridAPIKey != "":
		svc = NewSendgridService(conf)
	case conf.Mail.Configured():
		svc = NewSMTPService(conf)
	default:
		svc = NewConsoleService(conf, logger)
	}
	return &instrumented{EmailService: svc, logger: logger}
}

// instrumented counts and logs every delivery attempt.
type instrumented struct {
	core.EmailService
	logger core.Logger
}

func (svc *instrumented) SendMessage(ctx context.Context, msg *core.EmailMessage) error {
	err := svc.EmailService.SendMessage(ctx, msg)
	metrics.MailDelivery(svc.Name(), err)
	if err != nil {
		svc.logger.Error("email delivery failed", err, map[string]interface{}{
			"provider": svc.Name(),
			"subject":  msg.Subject,
		})
	}
	return err
}
