// Package email exposes a single mail document: its header, the list of its
// body parts and attachments, and extraction of their content.
//
// A Message walks its MIME tree once, on the first part query, and keeps the
// resulting descriptors for its whole lifetime. Content itself is never
// cached, every extraction re-reads the part from the document.
package email

import (
	"log/slog"
	"sync"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/hickar/mailcore/internal/app/parts"
)

type Message struct {
	source string
	raw    []byte
	header mail.Header
	opts   Options
	logger *slog.Logger

	walkOnce    sync.Once
	parts       []parts.Part
	attachments []Attachment
	err         error
	closed      bool
}

// Source returns the path or identifier the message was opened from.
func (m *Message) Source() string {
	return m.source
}

// Err returns the decode failure of the message, if loading or walking it
// failed. It does not trigger a walk.
func (m *Message) Err() error {
	return m.err
}

// Header returns the decoded value of the named header field.
func (m *Message) Header(name string) (string, bool) {
	if !m.header.Has(name) {
		return "", false
	}

	// Undecodable charsets leave the raw value, which is still worth showing.
	value, _ := m.header.Text(name)
	return value, true
}

func (m *Message) Subject() string {
	subject, _ := m.header.Subject()
	return subject
}

func (m *Message) From() []*mail.Address {
	from, _ := m.header.AddressList("From")
	return from
}

func (m *Message) To() []*mail.Address {
	to, _ := m.header.AddressList("To")
	return to
}

// Date returns the parsed Date header, or the zero time.
func (m *Message) Date() time.Time {
	date, _ := m.header.Date()
	return date
}

// Close releases the document. Queries on a closed message return empty
// results. Close must not run concurrently with other calls on m.
func (m *Message) Close() error {
	m.closed = true
	m.raw = nil
	m.header = mail.Header{}
	m.parts = nil
	m.attachments = nil
	return nil
}
