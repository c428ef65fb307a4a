// Package sessionmock provides in-memory doubles for the session
// lifecycle collaborators.
package sessionmock

import (
	"net/url"
	"sync"
)

type NavigatorOption func(*Navigator)

// Navigator records every navigation so tests can assert on history
// semantics (replacing vs. pushing).
type Navigator struct {
	mu       sync.Mutex
	current  *url.URL
	replaced []*url.URL
	assigned []*url.URL

	replaceErr error
	assignErr  error
}

func WithReplaceError(err error) NavigatorOption {
	return func(n *Navigator) { n.replaceErr = err }
}

func WithAssignError(err error) NavigatorOption {
	return func(n *Navigator) { n.assignErr = err }
}

// NewNavigator starts at the given raw URL; rawURL must parse.
func NewNavigator(rawURL string, opts ...NavigatorOption) *Navigator {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}

	n := &Navigator{current: u}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

func (n *Navigator) Location() *url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return nil
	}
	clone := *n.current
	return &clone
}

func (n *Navigator) Replace(u *url.URL) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.replaceErr != nil {
		return n.replaceErr
	}
	n.current = u
	n.replaced = append(n.replaced, u)
	return nil
}

func (n *Navigator) Assign(u *url.URL) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.assignErr != nil {
		return n.assignErr
	}
	n.current = u
	n.assigned = append(n.assigned, u)
	return nil
}

// Replaced returns every history-replacing navigation in order.
func (n *Navigator) Replaced() []*url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*url.URL(nil), n.replaced...)
}

// Assigned returns every history-pushing navigation in order.
func (n *Navigator) Assigned() []*url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*url.URL(nil), n.assigned...)
}
