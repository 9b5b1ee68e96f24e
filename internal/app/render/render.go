// Package render turns a decoded message into text for a terminal: the
// readable body and a templated summary of headers and attachments.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"jaytaylor.com/html2text"

	"github.com/hickar/mailcore/internal/app/email"
	"github.com/hickar/mailcore/internal/app/parts"
	"github.com/hickar/mailcore/internal/pkg/units"
)

const defaultTemplateContent = `
{{- if .From }}From: {{ addresses .From }}
{{ end }}
{{- if .To }}To: {{ addresses .To }}
{{ end }}
{{- if .Subject }}Subject: {{ .Subject }}
{{ end }}
{{- if not .Date.IsZero }}Date: {{ .Date.Format "Jan 02 2006 15:04:05" }}
{{ end }}
{{ if .Body }}{{ .Body }}{{ else }}TEXT MESSAGE CAN NOT BE REPRESENTED{{ end }}
{{ range .Attachments }}
[{{ .Ordinal }}] {{ .Name }} ({{ .Part.ContentType }}, {{ humanSize .Part.Size }})
{{- end }}`

var (
	defaultTemplateFuncs = template.FuncMap{
		"addresses":  formatAddresses,
		"humanSize":  humanSize,
		"htmlstring": htmlToText,
		"join":       strings.Join,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"contains":   strings.Contains,
		"trimSpace":  strings.TrimSpace,
	}
	defaultTemplateName = "default"
	defaultTemplate     = template.Must(
		template.
			New(defaultTemplateName).
			Funcs(defaultTemplateFuncs).
			Parse(defaultTemplateContent),
	)
)

// Summary is the data handed to summary templates.
type Summary struct {
	Source      string
	Subject     string
	From        []*mail.Address
	To          []*mail.Address
	Date        time.Time
	Body        string
	Parts       []parts.Part
	Attachments []email.Attachment
}

// NewSummary collects the template data for m. It fails only when the
// message could not be decoded.
func NewSummary(m *email.Message) (Summary, error) {
	body, err := BodyText(m)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Source:      m.Source(),
		Subject:     m.Subject(),
		From:        m.From(),
		To:          m.To(),
		Date:        m.Date(),
		Body:        body,
		Parts:       m.BodyParts(),
		Attachments: m.Attachments(),
	}, nil
}

// Render executes templateContent, or the built-in template when it is empty,
// against the summary of m.
func Render(m *email.Message, templateContent string) (string, error) {
	summary, err := NewSummary(m)
	if err != nil {
		return "", err
	}

	tmpl := defaultTemplate
	if templateContent != "" {
		tmpl, err = template.
			New("custom").
			Funcs(defaultTemplateFuncs).
			Parse(templateContent)
		if err != nil {
			return "", fmt.Errorf("custom template parsing: %w", err)
		}
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("%s template rendering: %w", tmpl.Name(), err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// BodyText returns the readable body of m: the first inline text/plain part,
// or else the first inline text/html part converted to plain text. A message
// without either yields an empty string.
func BodyText(m *email.Message) (string, error) {
	found := m.BodyParts()
	if err := m.Err(); err != nil {
		return "", err
	}

	for _, mediaType := range []string{"text/plain", "text/html"} {
		for _, p := range found {
			if p.IsAttachment() || p.ContentType != mediaType {
				continue
			}

			content, err := m.BodyPartBytes(p.Index + 1)
			if err != nil {
				return "", err
			}

			text := toUTF8(content, p.Params["charset"])
			if mediaType == "text/html" {
				return htmlToText(text), nil
			}
			return strings.TrimSpace(text), nil
		}
	}

	return "", nil
}

// toUTF8 converts part content from its declared charset. Content in an
// unknown charset is shown as stored.
func toUTF8(content []byte, name string) string {
	switch strings.ToLower(name) {
	case "", "utf-8", "us-ascii":
		return string(content)
	}

	r, err := charset.Reader(name, bytes.NewReader(content))
	if err != nil {
		return string(content)
	}

	converted, err := io.ReadAll(r)
	if err != nil {
		return string(content)
	}
	return string(converted)
}

var defaultHTMLToTextOpts = html2text.Options{TextOnly: true}

func htmlToText(s string) string {
	output, err := html2text.FromString(s, defaultHTMLToTextOpts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(output)
}

// formatAddresses keeps display names readable; mail.Address.String would
// re-encode non-ASCII names.
func formatAddresses(addresses []*mail.Address) string {
	formatted := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a.Name == "" {
			formatted = append(formatted, a.Address)
			continue
		}
		formatted = append(formatted, fmt.Sprintf("%s <%s>", a.Name, a.Address))
	}
	return strings.Join(formatted, ", ")
}

func humanSize(size int64) string {
	return units.HumanSize(float64(size))
}
