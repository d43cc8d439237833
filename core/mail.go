package core

import (
	"bytes"
	"context"
	htmltmpl "html/template"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/scibridge/scibridge/fs"
)

var (
	templates tmplCache
	tmplErr   error
	tmplInit  sync.Once
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// TemplateContext holds the values every email template can reach.
	TemplateContext struct {
		AppName         string
		FrontendBaseURL string
	}

	ContextData struct {
		TemplateContext
		Data interface{}
	}

	// EmailService is any service that can deliver emails.
	EmailService interface {
		// SendMessage delivers a single message, returning once the transport accepted or rejected it.
		SendMessage(ctx context.Context, msg *EmailMessage) error
		// Configured reports whether a real transport is available.
		Configured() bool
		Name() string
	}
)

// NewTemplateContext builds the template context from the configuration.
func NewTemplateContext(conf *Config) TemplateContext {
	return TemplateContext{AppName: conf.AppName, FrontendBaseURL: conf.Server.FrontendBaseURL}
}

// Render fills TextContent and HTMLContent. It is a no-op for messages that were already rendered.
func (m *EmailMessage) Render(tc TemplateContext) error {
	if m.HasContent() {
		return nil
	}
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return errors.New("email message has no content")
	}

	tmplInit.Do(parseTemplates)
	if tmplErr != nil {
		return tmplErr
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}

	data := ContextData{TemplateContext: tc, Data: m.TemplateData}
	if entry.text != nil {
		var buff bytes.Buffer
		if err := entry.text.ExecuteTemplate(&buff, m.TemplateName+".txt", data); err != nil {
			return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
		}
		m.TextContent = strings.TrimSpace(buff.String())
	}
	if entry.html != nil {
		var buff bytes.Buffer
		if err := entry.html.ExecuteTemplate(&buff, m.TemplateName+".gohtml", data); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
		}
		m.HTMLContent = strings.TrimSpace(buff.String())
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// Recipients returns the bare addresses of every recipient.
func (m *EmailMessage) Recipients() []string {
	addrs := make([]string, 0, len(m.To))
	for _, to := range m.To {
		addrs = append(addrs, to.Address)
	}
	return addrs
}

func parseTemplates() {
	templates = make(tmplCache)

	entries, err := appfs.FS.ReadDir(appfs.EmailTemplatesDir)
	if err != nil {
		tmplErr = errors.Wrap(err, "core.parseTemplates")
		return
	}

	baseText := path.Join(appfs.EmailTemplatesDir, "_base.txt")
	baseHTML := path.Join(appfs.EmailTemplatesDir, "_base.gohtml")
	for _, de := range entries {
		fname := de.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			entry = new(tmplCacheEntry)
			templates[name] = entry
		}
		fp := path.Join(appfs.EmailTemplatesDir, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.New(fname).Option("missingkey=error").ParseFS(appfs.FS, baseText, fp)
			if err != nil {
				tmplErr = errors.Wrap(err, "core.parseTemplates")
				return
			}
			entry.text = tmpl
		} else {
			tmpl, err := htmltmpl.New(fname).Option("missingkey=error").ParseFS(appfs.FS, baseHTML, fp)
			if err != nil {
				tmplErr = errors.Wrap(err, "core.parseTemplates")
				return
			}
			entry.html = tmpl
		}
	}
}
