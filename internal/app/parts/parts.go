// Package parts walks the MIME tree of a mail document and describes its leaf
// parts: what they contain, whether they are attachments and where to find
// them again when their content is needed.
package parts

import (
	"fmt"
	"strings"

	"github.com/emersion/go-message"
	// Registers charset decoders for the whole process. Encoded words and
	// header parameters in legacy charsets are decoded to UTF-8 through it.
	// Part content is never converted.
	_ "github.com/emersion/go-message/charset"
)

// Disposition tells whether a leaf is an attachment or inline body content.
type Disposition uint8

const (
	Inline Disposition = iota
	Attachment
)

func (d Disposition) String() string {
	switch d {
	case Attachment:
		return "attachment"
	default:
		return "inline"
	}
}

// Part describes a single leaf of the MIME tree. Content is never kept here,
// use Extract to materialize it.
type Part struct {
	Index       int               // 0-based position in traversal order.
	Path        []int             // Multipart indices leading to the leaf, nil for a single-part message.
	ContentType string            // Lower-case media type, e.g. "text/plain".
	Params      map[string]string // Content-Type parameters.
	Disposition Disposition
	Name        string // Always set for attachments, optional for inline parts.
	Size        int64  // Decoded size in bytes.
	Undecoded   bool   // Unknown transfer encoding or charset, content is kept as-is.
}

// IsAttachment reports whether p was classified as an attachment.
func (p Part) IsAttachment() bool {
	return p.Disposition == Attachment
}

// IsNestedMessage reports whether p holds a complete message of its own.
func (p Part) IsNestedMessage() bool {
	return isNestedMessage(p.ContentType)
}

func isNestedMessage(mediaType string) bool {
	switch mediaType {
	case "message/rfc822", "message/global":
		return true
	}
	return false
}

// PlaceholderName is the name given to an attachment which carries neither
// a disposition filename nor a content-type name.
func PlaceholderName(index int) string {
	return fmt.Sprintf("inline-part-%d", index)
}

// describe classifies a leaf entity header.
func describe(index int, path []int, header message.Header) Part {
	mediaType, params := mediaValue(header.ContentType())
	disp, dispParams := mediaValue(header.ContentDisposition())

	part := Part{
		Index:       index,
		Path:        path,
		ContentType: mediaType,
		Params:      params,
		Disposition: Inline,
		Name:        firstNonEmpty(dispParams["filename"], params["name"]),
	}

	if strings.EqualFold(disp, "attachment") {
		part.Disposition = Attachment
		if part.Name == "" {
			part.Name = PlaceholderName(index)
		}
	}

	return part
}

// mediaValue normalizes a parsed Content-Type or Content-Disposition value.
// Malformed values keep whatever precedes the first parameter.
func mediaValue(value string, params map[string]string, err error) (string, map[string]string) {
	if err != nil {
		value, _, _ = strings.Cut(value, ";")
		params = nil
	}
	if params == nil {
		params = map[string]string{}
	}

	return strings.ToLower(strings.TrimSpace(value)), params
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
