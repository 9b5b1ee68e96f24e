package parts

import (
	"bytes"
	_ "embed"
	"errors"
	"strings"
	"testing"

	"github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	//go:embed testdata/report.eml
	reportEML []byte
	//go:embed testdata/nested.eml
	nestedEML []byte
	//go:embed testdata/single.eml
	singleEML []byte
	//go:embed testdata/corrupt.eml
	corruptEML []byte
	//go:embed testdata/truncated.eml
	truncatedEML []byte
	//go:embed testdata/undecoded.eml
	undecodedEML []byte
)

func TestWalkReport(t *testing.T) {
	parts, err := Walk(bytes.NewReader(reportEML))
	require.NoError(t, err)
	require.Len(t, parts, 2)

	assert.Equal(t, 0, parts[0].Index)
	assert.Equal(t, "text/plain", parts[0].ContentType)
	assert.Equal(t, Inline, parts[0].Disposition)
	assert.Equal(t, "utf-8", parts[0].Params["charset"])

	assert.Equal(t, 1, parts[1].Index)
	assert.Equal(t, "application/pdf", parts[1].ContentType)
	assert.Equal(t, Attachment, parts[1].Disposition)
	assert.Equal(t, "report.pdf", parts[1].Name)
	assert.Equal(t, int64(32), parts[1].Size)
	assert.Equal(t, []int{1}, parts[1].Path)
}

func TestWalkNested(t *testing.T) {
	parts, err := Walk(bytes.NewReader(nestedEML))
	require.NoError(t, err)

	want := []struct {
		contentType string
		disposition Disposition
		name        string
		path        []int
	}{
		{"text/plain", Inline, "", []int{0, 0}},
		{"text/html", Inline, "", []int{0, 1}},
		{"image/png", Attachment, "logo.png", []int{1}},
		{"application/octet-stream", Attachment, "inline-part-3", []int{2}},
		{"image/gif", Inline, "spacer.gif", []int{3}},
		{"message/rfc822", Attachment, "original.eml", []int{4}},
	}

	require.Len(t, parts, len(want))
	for i, w := range want {
		assert.Equal(t, i, parts[i].Index, "part %d", i)
		assert.Equal(t, w.contentType, parts[i].ContentType, "part %d", i)
		assert.Equal(t, w.disposition, parts[i].Disposition, "part %d", i)
		assert.Equal(t, w.name, parts[i].Name, "part %d", i)
		assert.Equal(t, w.path, parts[i].Path, "part %d", i)
	}

	assert.True(t, parts[5].IsNestedMessage())
	assert.False(t, parts[2].IsNestedMessage())
}

func TestWalkSinglePart(t *testing.T) {
	parts, err := Walk(bytes.NewReader(singleEML))
	require.NoError(t, err)
	require.Len(t, parts, 1)

	assert.Nil(t, parts[0].Path)
	assert.Equal(t, "text/plain", parts[0].ContentType)
	assert.False(t, parts[0].IsAttachment())
}

func TestWalkDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "multipart without boundary", raw: corruptEML},
		{name: "missing closing boundary", raw: truncatedEML},
		{name: "garbage header", raw: []byte(" leading space\nnot a header\n\nbody")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Walk(bytes.NewReader(tt.raw))
			assert.Nil(t, parts)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "got %v", err)
		})
	}
}

func TestDescribeDisposition(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		disposition Disposition
		partName    string
	}{
		{
			name:        "no disposition",
			fields:      map[string]string{"Content-Type": "text/plain"},
			disposition: Inline,
		},
		{
			name: "filename wins over name",
			fields: map[string]string{
				"Content-Type":        `application/pdf; name="b.pdf"`,
				"Content-Disposition": `attachment; filename="a.pdf"`,
			},
			disposition: Attachment,
			partName:    "a.pdf",
		},
		{
			name: "mixed case disposition",
			fields: map[string]string{
				"Content-Type":        "application/zip",
				"Content-Disposition": "AttachMent",
			},
			disposition: Attachment,
			partName:    "inline-part-7",
		},
		{
			name: "inline keeps filename",
			fields: map[string]string{
				"Content-Type":        "image/jpeg",
				"Content-Disposition": `inline; filename="photo.jpg"`,
			},
			disposition: Inline,
			partName:    "photo.jpg",
		},
		{
			name: "malformed disposition parameters",
			fields: map[string]string{
				"Content-Type":        "text/csv",
				"Content-Disposition": `attachment; filename="unterminated`,
			},
			disposition: Attachment,
			partName:    "inline-part-7",
		},
		{
			name: "encoded filename",
			fields: map[string]string{
				"Content-Type":        "text/plain",
				"Content-Disposition": `attachment; filename="=?utf-8?q?r=C3=A9sum=C3=A9.txt?="`,
			},
			disposition: Attachment,
			partName:    "résumé.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header message.Header
			for k, v := range tt.fields {
				header.Set(k, v)
			}

			part := describe(7, nil, header)
			assert.Equal(t, tt.disposition, part.Disposition)
			assert.Equal(t, tt.partName, part.Name)
		})
	}
}

func TestExtract(t *testing.T) {
	parts, err := Walk(bytes.NewReader(reportEML))
	require.NoError(t, err)

	body, err := Extract(bytes.NewReader(reportEML), parts[1])
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\nfake report body\n%%EOF\n", string(body))

	text, err := Extract(bytes.NewReader(reportEML), parts[0])
	require.NoError(t, err)
	assert.Contains(t, string(text), "the report is attached.")
}

func TestExtractNestedMessage(t *testing.T) {
	parts, err := Walk(bytes.NewReader(nestedEML))
	require.NoError(t, err)

	nested, err := Extract(bytes.NewReader(nestedEML), parts[5])
	require.NoError(t, err)
	assert.Equal(t, "From: carol@example.org\n"+
		"To: juergen@example.org\n"+
		"Subject: Plans\n"+
		"\n"+
		"Original plans text.", string(nested))

	entity, err := message.Read(bytes.NewReader(nested))
	require.NoError(t, err)
	assert.Equal(t, "Plans", entity.Header.Get("Subject"))
}

func TestExtractSizesMatchWalk(t *testing.T) {
	parts, err := Walk(bytes.NewReader(nestedEML))
	require.NoError(t, err)

	for _, p := range parts {
		body, err := Extract(bytes.NewReader(nestedEML), p)
		require.NoError(t, err)
		assert.Equal(t, p.Size, int64(len(body)), "part %d", p.Index)
	}
}

func TestExtractKeepsCharset(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=x\r\n" +
		"\r\n" +
		"--x\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"Content-Disposition: attachment; filename=cafe.txt\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"Y2Fm6Qo=\r\n" +
		"--x--\r\n"

	parts, err := Walk(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, int64(5), parts[0].Size)
	assert.False(t, parts[0].Undecoded)

	body, err := Extract(strings.NewReader(raw), parts[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9, '\n'}, body)
}

func TestUndecodedParts(t *testing.T) {
	parts, err := Walk(bytes.NewReader(undecodedEML))
	require.NoError(t, err)
	require.Len(t, parts, 3)

	tests := []struct {
		name        string
		contentType string
		undecoded   bool
		content     string
	}{
		{
			name:        "unknown charset",
			contentType: "text/plain",
			undecoded:   true,
			content:     "qapla' batlh",
		},
		{
			name:        "unknown transfer encoding",
			contentType: "application/octet-stream",
			undecoded:   true,
			content:     "begin 644 data.bin\n#86)C\n`\nend",
		},
		{
			name:        "known charset",
			contentType: "text/plain",
			content:     "caf\xe9\n",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parts[i]
			assert.Equal(t, tt.contentType, p.ContentType)
			assert.Equal(t, tt.undecoded, p.Undecoded)

			body, err := Extract(bytes.NewReader(undecodedEML), p)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(body))
			assert.Equal(t, p.Size, int64(len(body)))
		})
	}
}

func TestExtractMissingPart(t *testing.T) {
	_, err := Extract(bytes.NewReader(reportEML), Part{Index: 9, Path: []int{9}})
	assert.ErrorIs(t, err, ErrPartNotFound)
}

func TestDispositionString(t *testing.T) {
	assert.Equal(t, "inline", Inline.String())
	assert.Equal(t, "attachment", Attachment.String())
}
