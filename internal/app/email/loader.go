package email

import (
	"bytes"
	"log/slog"
	"os"

	"github.com/emersion/go-message/mail"

	"github.com/hickar/mailcore/internal/app/parts"
)

const defaultFileMode os.FileMode = 0o644

// Options tune how loaded messages extract and save their parts.
type Options struct {
	FileMode       os.FileMode // Mode of saved attachments, 0644 when zero.
	MaxExtractSize int64       // Largest part size that may be extracted, 0 for no limit.
}

func (o Options) withDefaults() Options {
	if o.FileMode == 0 {
		o.FileMode = defaultFileMode
	}
	return o
}

// Loader opens messages from files or memory.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Loader{
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Open reads the message stored at path and parses its header. The MIME tree
// is not walked until a part query needs it.
//
// On failure Open returns a *DecodeError together with an inert Message whose
// queries all return empty results.
func (l *Loader) Open(path string) (*Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		m := l.newMessage(path, nil)
		m.err = &DecodeError{Source: path, Err: err}
		m.logger.Warn("message unavailable", slog.Any("error", err))
		return m, m.err
	}

	return l.OpenBytes(path, raw)
}

// OpenBytes is like Open for a message already held in memory. The source
// identifies the message in logs and errors. raw must not be modified
// afterwards.
func (l *Loader) OpenBytes(source string, raw []byte) (*Message, error) {
	m := l.newMessage(source, raw)

	header, err := parts.ReadHeader(bytes.NewReader(raw))
	if err != nil {
		m.raw = nil
		m.err = &DecodeError{Source: source, Err: err}
		m.logger.Warn("message unavailable", slog.Any("error", err))
		return m, m.err
	}
	m.header = mail.Header{Header: header}

	m.logger.Debug("message loaded", slog.Int("size", len(raw)))
	return m, nil
}

func (l *Loader) newMessage(source string, raw []byte) *Message {
	return &Message{
		source: source,
		raw:    raw,
		opts:   l.opts,
		logger: l.logger.With(slog.String("source", source)),
	}
}
