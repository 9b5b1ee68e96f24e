package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hickar/mailcore/internal/app/email"
)

const reportPDF = "%PDF-1.4\nfake report body\n%%EOF\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestPartsCommand(t *testing.T) {
	out, err := execute(t, "parts", "testdata/report.eml")
	require.NoError(t, err)

	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "application/pdf")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "attachment")
}

func TestAttachmentsCommand(t *testing.T) {
	out, err := execute(t, "attachments", "testdata/nested.eml")
	require.NoError(t, err)

	assert.Contains(t, out, "logo.png")
	assert.Contains(t, out, "inline-part-3")
	assert.Contains(t, out, "original.eml")
	assert.NotContains(t, out, "spacer.gif")
}

func TestExtractCommand(t *testing.T) {
	out, err := execute(t, "extract", "testdata/report.eml", "1")
	require.NoError(t, err)
	assert.Equal(t, reportPDF, out)

	out, err = execute(t, "extract", "--part", "testdata/nested.eml", "1")
	require.NoError(t, err)
	assert.Equal(t, "See the plans below.", out)

	_, err = execute(t, "extract", "testdata/report.eml", "2")
	assert.ErrorIs(t, err, email.ErrOutOfRange)

	_, err = execute(t, "extract", "testdata/report.eml")
	assert.Error(t, err)
}

func TestSaveCommand(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "copy.pdf")

	out, err := execute(t, "save", "testdata/report.eml", "1", dst)
	require.NoError(t, err)
	assert.Equal(t, dst+"\n", out)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, reportPDF, string(content))
}

func TestSaveCommandDefaultDestination(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("save_dir: "+dir+"\nfile_mode: \"0600\"\n"), 0o600))

	_, err := execute(t, "--config", cfgPath, "save", "testdata/report.eml", "1")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveCommandMissingAttachment(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "save", "testdata/report.eml", "3", filepath.Join(dir, "x"))
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "x"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNumericFileName(t *testing.T) {
	raw, err := os.ReadFile("testdata/report.eml")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123"), raw, 0o600))
	t.Chdir(dir)

	out, err := execute(t, "extract", "./123", "1")
	require.NoError(t, err)
	assert.Equal(t, reportPDF, out)

	_, err = execute(t, "extract", "123", "1")
	assert.Error(t, err)
}

func TestSelectedMessage(t *testing.T) {
	out, err := execute(t, "--mbox", "testdata/inbox.mbox", "--select", "1", "attachments")
	require.NoError(t, err)
	assert.Contains(t, out, "notes.txt")

	dst := filepath.Join(t.TempDir(), "notes.txt")
	_, err = execute(t, "--mbox", "testdata/inbox.mbox", "--select", "1", "save", "1", dst)
	require.NoError(t, err)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "remember the milk", string(content))
}

func TestNothingSelected(t *testing.T) {
	_, err := execute(t, "attachments")
	assert.ErrorIs(t, err, email.ErrNoMessage)

	_, err = execute(t, "--mbox", "testdata/inbox.mbox", "--select", "5", "parts")
	assert.ErrorIs(t, err, email.ErrNoMessage)

	_, err = execute(t, "list")
	assert.ErrorIs(t, err, email.ErrNoMessage)
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "--mbox", "testdata/inbox.mbox", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "Second")
	assert.Contains(t, out, "*")
}

func TestListCommandFilter(t *testing.T) {
	out, err := execute(t, "--mbox", "testdata/inbox.mbox", "list", "--filter", "ATTACHMENTS")
	require.NoError(t, err)
	assert.Contains(t, out, "Second")
	assert.NotContains(t, out, "First")

	_, err = execute(t, "--mbox", "testdata/inbox.mbox", "list", "--filter", "ATTACHMENTS &&")
	assert.Error(t, err)
}

func TestShowCommand(t *testing.T) {
	out, err := execute(t, "show", "testdata/nested.eml")
	require.NoError(t, err)

	assert.Contains(t, out, "Subject: Fwd: Pläne")
	assert.Contains(t, out, "See the plans below.")
	assert.Contains(t, out, "[1] logo.png")
}

func TestMissingFile(t *testing.T) {
	_, err := execute(t, "parts", "testdata/missing.eml")
	assert.ErrorIs(t, err, email.ErrDecode)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "config.yaml"), "parts", "testdata/report.eml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
