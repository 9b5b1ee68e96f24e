package email

import (
	"log/slog"

	"github.com/hickar/mailcore/internal/pkg/kvstore"
)

type registryEntry struct {
	message *Message
	refs    int
}

// Registry shares one Message per path between its users and closes it when
// the last one releases it.
type Registry struct {
	loader  *Loader
	entries *kvstore.KVStore[string, *registryEntry]
	logger  *slog.Logger
}

func NewRegistry(loader *Loader, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Registry{
		loader:  loader,
		entries: kvstore.New[string, *registryEntry](),
		logger:  logger,
	}
}

// Acquire returns the message for path, opening it on first use, and takes a
// reference on it. Messages which fail to load are returned with their error
// but are not registered, so there is nothing to release.
func (r *Registry) Acquire(path string) (*Message, error) {
	var (
		m   *Message
		err error
	)

	r.entries.Update(path, func(entry *registryEntry, ok bool) (*registryEntry, bool) {
		if ok {
			entry.refs++
			m = entry.message
			return entry, true
		}

		m, err = r.loader.Open(path)
		if err != nil {
			return nil, false
		}
		return &registryEntry{message: m, refs: 1}, true
	})
	if err != nil {
		return m, err
	}

	r.logger.Debug("message acquired", slog.String("path", path))
	return m, nil
}

// Release drops a reference taken by Acquire and reports whether the message
// was closed as a result.
func (r *Registry) Release(path string) bool {
	var closing *Message

	r.entries.Update(path, func(entry *registryEntry, ok bool) (*registryEntry, bool) {
		if !ok {
			return nil, false
		}

		entry.refs--
		if entry.refs > 0 {
			return entry, true
		}

		closing = entry.message
		return nil, false
	})
	if closing == nil {
		return false
	}

	_ = closing.Close()
	r.logger.Debug("message released", slog.String("path", path))
	return true
}

// Paths returns the paths of the registered messages.
func (r *Registry) Paths() []string {
	return r.entries.Keys()
}

// Len returns the number of registered messages.
func (r *Registry) Len() int {
	return r.entries.Len()
}
