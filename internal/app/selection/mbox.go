package selection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/hickar/mailcore/internal/app/email"
)

// LoadMbox reads every entry of the mbox file at path into a List. Entries are
// named "<path>#<n>" with n starting at 1. An entry whose header cannot be
// parsed is kept as an inert message so indexes stay aligned with the file.
func LoadMbox(path string, loader *email.Loader, logger *slog.Logger) (*List, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	list, err := readMbox(path, file, loader, logger)
	if err != nil {
		_ = list.Close()
		return nil, err
	}

	logger.Info("mbox loaded", slog.String("path", path), slog.Int("messages", list.Len()))
	return list, nil
}

func readMbox(path string, r io.Reader, loader *email.Loader, logger *slog.Logger) (*List, error) {
	list := NewList()
	reader := mboxlib.NewReader(r)

	for idx := 1; ; idx++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return list, nil
			}
			return list, fmt.Errorf("mbox message %d: %w", idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return list, fmt.Errorf("read mbox message %d: %w", idx, err)
		}

		source := fmt.Sprintf("%s#%d", path, idx)
		m, err := loader.OpenBytes(source, raw)
		if err != nil {
			logger.Warn("mbox entry unreadable", slog.String("source", source), slog.Any("error", err))
		}
		list.Append(m)
	}
}
