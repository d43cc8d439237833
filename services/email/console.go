package emailsvc

import (
	"context"
	"net/mail"

	"github.com/scibridge/scibridge/core"
)

// consoleService is the fallback transport: messages are logged instead of delivered.
type consoleService struct {
	logger     core.Logger
	from       mail.Address
	subjPrefix string
	tc         core.TemplateContext
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		logger:     logger,
		from:       conf.Mail.FromAddress(),
		subjPrefix: conf.Mail.SubjectPrefix,
		tc:         core.NewTemplateContext(conf),
	}
}

func (svc consoleService) Name() string     { return "console" }
func (svc consoleService) Configured() bool { return false }

func (svc consoleService) SendMessage(_ context.Context, msg *core.EmailMessage) error {
	if err := prepare(msg, svc.tc); err != nil {
		return err
	}
	body, err := buildMIME(svc.from, svc.subjPrefix+msg.Subject, msg)
	if err != nil {
		return err
	}
	svc.logger.Info("email transport not configured, message logged instead", map[string]interface{}{
		"to":      msg.Recipients(),
		"subject": msg.Subject,
		"mime":    string(body),
	})
	return nil
}
