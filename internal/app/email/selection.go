package email

// SelectionProvider exposes the message list the user is browsing and the
// 0-based index of the selected entry.
type SelectionProvider interface {
	Messages() []*Message
	Selected() int
}

// Current returns the selected message. An empty list or an index outside
// the list yields false.
func Current(p SelectionProvider) (*Message, bool) {
	if p == nil {
		return nil, false
	}

	messages := p.Messages()
	selected := p.Selected()
	if selected < 0 || selected >= len(messages) {
		return nil, false
	}

	return messages[selected], true
}

// ForOperation resolves the message an operation applies to: the file at
// path when one is given, the current selection otherwise.
//
// A message opened from path belongs to the caller, who should Close it.
// A selected message stays owned by its provider.
func ForOperation(l *Loader, path string, p SelectionProvider) (*Message, error) {
	if path != "" {
		return l.Open(path)
	}

	m, ok := Current(p)
	if !ok {
		return nil, ErrNoMessage
	}
	return m, nil
}
