package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/scibridge/scibridge/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"

	sendgridAPI = sendgrid.API // mockable
)

type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	tc         core.TemplateContext
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config) core.EmailService {
	from := conf.Mail.FromAddress()
	return &sendgridService{
		key:        conf.Mail.SendgridAPIKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: conf.Mail.SubjectPrefix,
		tc:         core.NewTemplateContext(conf),
	}
}

func (svc sendgridService) Name() string     { return "sendgrid" }
func (svc sendgridService) Configured() bool { return true }

func (svc sendgridService) build(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(svc.getSGEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (svc sendgridService) getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (svc sendgridService) SendMessage(ctx context.Context, msg *core.EmailMessage) error {
	if err := prepare(msg, svc.tc); err != nil {
		return err
	}
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.build(msg))

	type result struct {
		res *rest.Response
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := sendgridAPI(req)
		done <- result{res, err}
	}()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sending email")
	case r := <-done:
		if r.err != nil {
			return errors.Wrap(r.err, "sending email")
		}
		if r.res.StatusCode >= http.StatusBadRequest {
			return errors.Errorf("sending email - status: %d - body: %s", r.res.StatusCode, r.res.Body)
		}
		return nil
	}
}
