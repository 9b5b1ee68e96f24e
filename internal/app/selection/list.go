// Package selection provides the "currently selected message" sources used by
// the email package: a plain in-memory list and one backed by an mbox file.
package selection

import (
	"sync"

	"github.com/hickar/mailcore/internal/app/email"
)

// List is an ordered set of messages with a single selected index.
// It is safe for concurrent use.
type List struct {
	mu       sync.RWMutex
	messages []*email.Message
	selected int
}

var _ email.SelectionProvider = (*List)(nil)

func NewList(messages ...*email.Message) *List {
	return &List{messages: messages}
}

// Messages returns a copy of the list contents.
func (l *List) Messages() []*email.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*email.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *List) Selected() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.selected
}

// Select moves the selection to idx. Indexes outside the list are accepted;
// email.Current reports them as "nothing selected".
func (l *List) Select(idx int) {
	l.mu.Lock()
	l.selected = idx
	l.mu.Unlock()
}

func (l *List) Append(m *email.Message) {
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.messages)
}

// Close closes every message in the list and empties it.
func (l *List) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range l.messages {
		_ = m.Close()
	}
	l.messages = nil
	l.selected = 0

	return nil
}
