package email

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/hickar/mailcore/internal/app/parts"
)

// Attachment is a part classified as an attachment, addressed by its
// position among attachments only.
type Attachment struct {
	Ordinal int // 1-based within the attachment sequence.
	Name    string
	Part    parts.Part
}

const (
	attachmentSpace = "attachment"
	bodyPartSpace   = "body part"
)

// descriptors walks the tree on first use and returns the memoized leaf and
// attachment sequences. A message that failed to decode has neither.
func (m *Message) descriptors() ([]parts.Part, []Attachment) {
	if m.closed {
		return nil, nil
	}

	m.walkOnce.Do(m.walk)
	return m.parts, m.attachments
}

func (m *Message) walk() {
	if m.err != nil || m.raw == nil {
		return
	}

	found, err := parts.Walk(bytes.NewReader(m.raw))
	if err != nil {
		m.err = &DecodeError{Source: m.source, Err: err}
		m.logger.Warn("message unavailable", slog.Any("error", err))
		return
	}

	attachments := make([]Attachment, 0, len(found))
	for _, p := range found {
		if p.Undecoded {
			m.logger.Debug("part content left undecoded",
				slog.Int("index", p.Index),
				slog.String("content_type", p.ContentType),
			)
		}
		if !p.IsAttachment() {
			continue
		}

		attachments = append(attachments, Attachment{
			Ordinal: len(attachments) + 1,
			Name:    p.Name,
			Part:    p,
		})
	}

	m.parts = found
	m.attachments = attachments
	m.logger.Debug("message walked",
		slog.Int("parts", len(found)),
		slog.Int("attachments", len(attachments)),
	)
}

// Attachments returns the attachment descriptors in ordinal order.
func (m *Message) Attachments() []Attachment {
	_, attachments := m.descriptors()
	return append([]Attachment(nil), attachments...)
}

// AttachmentNames returns attachment names in ordinal order.
func (m *Message) AttachmentNames() []string {
	_, attachments := m.descriptors()

	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}
	return names
}

func (m *Message) CountAttachments() int {
	_, attachments := m.descriptors()
	return len(attachments)
}

// BodyParts returns every leaf part, attachments included, in document order.
func (m *Message) BodyParts() []parts.Part {
	found, _ := m.descriptors()
	return append([]parts.Part(nil), found...)
}

// BodyPartTypes returns the content-type of every leaf part in document order.
func (m *Message) BodyPartTypes() []string {
	found, _ := m.descriptors()

	types := make([]string, 0, len(found))
	for _, p := range found {
		types = append(types, p.ContentType)
	}
	return types
}

func (m *Message) CountBodyParts() int {
	found, _ := m.descriptors()
	return len(found)
}

// HasBodyPart reports whether any leaf has exactly the given content-type.
func (m *Message) HasBodyPart(contentType string) bool {
	found, _ := m.descriptors()

	for _, p := range found {
		if p.ContentType == contentType {
			return true
		}
	}
	return false
}

// AttachmentBytes returns the content of the attachment at the 1-based
// ordinal. Ordinals outside [1, CountAttachments()] yield a *RangeError.
func (m *Message) AttachmentBytes(ordinal int) ([]byte, error) {
	_, attachments := m.descriptors()
	if ordinal < 1 || ordinal > len(attachments) {
		return nil, &RangeError{Space: attachmentSpace, Ordinal: ordinal, Count: len(attachments)}
	}

	return m.extract(attachments[ordinal-1].Part)
}

// BodyPartBytes returns the content of the leaf part at the 1-based ordinal
// over all parts. Ordinals outside [1, CountBodyParts()] yield a *RangeError.
func (m *Message) BodyPartBytes(ordinal int) ([]byte, error) {
	found, _ := m.descriptors()
	if ordinal < 1 || ordinal > len(found) {
		return nil, &RangeError{Space: bodyPartSpace, Ordinal: ordinal, Count: len(found)}
	}

	return m.extract(found[ordinal-1])
}

func (m *Message) extract(p parts.Part) ([]byte, error) {
	if limit := m.opts.MaxExtractSize; limit > 0 && p.Size > limit {
		return nil, fmt.Errorf("part %d (%d bytes, limit %d): %w", p.Index, p.Size, limit, ErrTooLarge)
	}

	content, err := parts.Extract(bytes.NewReader(m.raw), p)
	if err != nil {
		return nil, fmt.Errorf("extract part %d: %w", p.Index, err)
	}

	m.logger.Debug("part extracted",
		slog.Int("index", p.Index),
		slog.String("content_type", p.ContentType),
		slog.Int("size", len(content)),
	)
	return content, nil
}
