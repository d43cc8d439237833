package emailsvc

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
)

var nowFunc = time.Now // mockable

// buildMIME renders a multipart/alternative message with a text part and, when present, an html part.
func buildMIME(from mail.Address, subject string, msg *core.EmailMessage) ([]byte, error) {
	body := new(bytes.Buffer)
	altW := multipart.NewWriter(body)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", from.String())
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", nowFunc().Format(time.RFC1123Z))
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n", altW.Boundary())
	_, _ = fmt.Fprint(body, "\r\n")

	parts := []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", msg.TextContent},
		{"text/html; charset=utf-8", msg.HTMLContent},
	}
	for _, part := range parts {
		if part.content == "" {
			continue
		}
		w, err := altW.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s part", part.contentType)
		}
		qpW := quotedprintable.NewWriter(w)
		if _, err := qpW.Write([]byte(part.content)); err != nil {
			return nil, errors.Wrapf(err, "writing %s part", part.contentType)
		}
		if err := qpW.Close(); err != nil {
			return nil, errors.Wrapf(err, "closing %s part", part.contentType)
		}
	}
	if err := altW.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart body")
	}
	return body.Bytes(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// prepare renders the message and checks it can be sent.
func prepare(msg *core.EmailMessage, tc core.TemplateContext) error {
	if err := msg.Render(tc); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() {
		return errors.New("email has no recipients")
	}
	return nil
}
