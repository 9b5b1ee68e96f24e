package parts

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/textproto"
)

var (
	ErrPartNotFound = errors.New("part not found")

	errStopWalk = errors.New("stop walk")
)

// DecodeError reports a document which could not be parsed into a MIME tree.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode message: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Walk reads a whole message from r and returns its leaf parts in document
// order. Multipart containers are traversed but not reported. Nested
// messages are reported as single leaves and are not descended into.
func Walk(r io.Reader) ([]Part, error) {
	var parts []Part

	err := walkLeaves(r, func(path []int, header message.Header, body io.Reader, soft error) error {
		part := describe(len(parts), path, header)
		part.Undecoded = soft != nil

		// Body is drained to learn the decoded size, nothing is retained.
		n, err := io.Copy(io.Discard, body)
		if err != nil {
			return fmt.Errorf("part %d: read body: %w", part.Index, err)
		}
		part.Size = n

		parts = append(parts, part)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parts, nil
}

// Extract re-reads the message from r, finds the leaf described by target and
// returns its content with the transfer encoding undone. Text keeps its
// declared charset. Nested messages come back exactly as embedded.
func Extract(r io.Reader, target Part) ([]byte, error) {
	var (
		content []byte
		found   bool
	)

	err := walkLeaves(r, func(path []int, _ message.Header, body io.Reader, _ error) error {
		if !slices.Equal(path, target.Path) {
			return nil
		}
		found = true

		var err error
		if content, err = readAll(body); err != nil {
			return fmt.Errorf("part %d: %w", target.Index, err)
		}

		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("part %d at %v: %w", target.Index, target.Path, ErrPartNotFound)
	}

	return content, nil
}

// leafFunc receives the original header of a leaf and its transfer-decoded
// body. soft is set when the encoding or charset is unknown; the body is then
// passed through as stored.
type leafFunc func(path []int, header message.Header, body io.Reader, soft error) error

// walkLeaves calls fn for every non-multipart entity of the message read from
// r, depth first. A failure to parse the tree, or an error returned by fn,
// aborts the walk with a DecodeError.
func walkLeaves(r io.Reader, fn leafFunc) error {
	br := bufio.NewReader(r)

	header, err := textproto.ReadHeader(br)
	if err != nil {
		return &DecodeError{Err: fmt.Errorf("read header: %w", err)}
	}

	err = walkEntity(nil, message.Header{Header: header}, br, fn)
	switch {
	case errors.Is(err, errStopWalk):
		return err
	case err != nil:
		return &DecodeError{Err: err}
	}

	return nil
}

func walkEntity(path []int, header message.Header, body io.Reader, fn leafFunc) error {
	// Same test go-message applies: a malformed Content-Type still counts by
	// its raw prefix.
	mediaType, params, _ := header.ContentType()
	if !strings.HasPrefix(mediaType, "multipart/") {
		decoded, soft := transferDecoded(header, body)
		return fn(path, header, decoded, soft)
	}

	mr := textproto.NewMultipartReader(body, params["boundary"])
	for idx := 0; ; idx++ {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err = walkEntity(append(slices.Clone(path), idx), message.Header{Header: p.Header}, p, fn); err != nil {
			return err
		}
	}
}

// transferDecoded undoes the Content-Transfer-Encoding of body and nothing
// else. The returned error reports an encoding or charset go-message does not
// know.
func transferDecoded(header message.Header, body io.Reader) (io.Reader, error) {
	_, soft := message.New(header, strings.NewReader(""))

	stripped := header.Copy()
	if mediaType, params, err := stripped.ContentType(); err == nil && params["charset"] != "" {
		delete(params, "charset")
		stripped.SetContentType(mediaType, params)
	}

	entity, _ := message.New(stripped, body)
	return entity.Body, soft
}

func readAll(body io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadHeader parses only the top-level header of the message read from r.
func ReadHeader(r io.Reader) (message.Header, error) {
	header, err := textproto.ReadHeader(bufio.NewReader(r))
	if err != nil {
		return message.Header{}, &DecodeError{Err: fmt.Errorf("read header: %w", err)}
	}
	return message.Header{Header: header}, nil
}
