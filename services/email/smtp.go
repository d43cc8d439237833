package emailsvc

import (
	"context"
	"crypto/tls"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
)

type smtpService struct {
	host       string
	addr       string
	secure     bool // implicit TLS; otherwise STARTTLS when offered
	auth       smtp.Auth
	from       mail.Address
	subjPrefix string
	timeout    time.Duration
	tc         core.TemplateContext
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config) core.EmailService {
	timeout := conf.Mail.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &smtpService{
		host:       conf.Mail.Host,
		addr:       conf.Mail.Address(),
		secure:     conf.Mail.Secure,
		auth:       smtp.PlainAuth("", conf.Mail.User, conf.Mail.Password, conf.Mail.Host),
		from:       conf.Mail.FromAddress(),
		subjPrefix: conf.Mail.SubjectPrefix,
		timeout:    timeout,
		tc:         core.NewTemplateContext(conf),
	}
}

func (svc smtpService) Name() string     { return "smtp" }
func (svc smtpService) Configured() bool { return true }

func (svc smtpService) SendMessage(ctx context.Context, msg *core.EmailMessage) error {
	if err := prepare(msg, svc.tc); err != nil {
		return err
	}
	body, err := buildMIME(svc.from, svc.subjPrefix+msg.Subject, msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	conn, err := svc.dial(ctx)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", svc.addr)
	}
	// unblock any pending read or write once ctx is done
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, svc.host)
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "smtp handshake")
	}
	defer c.Close()

	if !svc.secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: svc.host}); err != nil {
				return errors.Wrap(err, "smtp starttls")
			}
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(svc.auth); err != nil {
			return errors.Wrap(err, "smtp auth")
		}
	}
	if err := c.Mail(svc.from.Address); err != nil {
		return errors.Wrap(err, "smtp mail from")
	}
	for _, rcpt := range msg.Recipients() {
		if err := c.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "smtp rcpt %s", rcpt)
		}
	}
	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "smtp data")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "smtp write")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "smtp data close")
	}
	return errors.Wrap(c.Quit(), "smtp quit")
}

func (svc smtpService) dial(ctx context.Context) (net.Conn, error) {
	if svc.secure {
		d := &tls.Dialer{Config: &tls.Config{ServerName: svc.host}}
		return d.DialContext(ctx, "tcp", svc.addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", svc.addr)
}
