// Package session implements the lifecycle of a QR-bootstrapped
// table-ordering session: ingestion of scanned credentials, transparent
// expiry monitoring, and session creation against the ordering API.
package session

import (
	"net/url"
	"sync"
)

// Navigator abstracts the navigation surface of the embedding context
// (a webview, a kiosk shell, a test double). Replace rewrites the
// current location without creating a history entry; Assign navigates
// and does.
type Navigator interface {
	Location() *url.URL
	Replace(u *url.URL) error
	Assign(u *url.URL) error
}

// URLNavigator is an in-process Navigator for shells that drive their
// own rendering surface. An optional change callback lets the shell
// mirror location updates into its webview; replaced reports whether the
// update must not create a history entry.
type URLNavigator struct {
	mu       sync.Mutex
	current  *url.URL
	onChange func(u *url.URL, replaced bool)
}

func NewURLNavigator(start *url.URL, onChange func(u *url.URL, replaced bool)) *URLNavigator {
	return &URLNavigator{
		current:  start,
		onChange: onChange,
	}
}

func (n *URLNavigator) Location() *url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}

	clone := *n.current
	return &clone
}

func (n *URLNavigator) Replace(u *url.URL) error {
	n.navigate(u, true)
	return nil
}

func (n *URLNavigator) Assign(u *url.URL) error {
	n.navigate(u, false)
	return nil
}

func (n *URLNavigator) navigate(u *url.URL, replaced bool) {
	n.mu.Lock()
	n.current = u
	onChange := n.onChange
	n.mu.Unlock()

	if onChange != nil {
		onChange(u, replaced)
	}
}
