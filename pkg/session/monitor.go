package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tabledine/session-manager/internal/serviceerr"
	"github.com/tabledine/session-manager/pkg/token"
)

const (
	// DefaultCheckInterval is how often the monitor re-evaluates the
	// session between wake events.
	DefaultCheckInterval = 2 * time.Minute
	// DefaultRefreshThreshold is how close to expiry a token must be
	// before the server is asked whether the session is still alive.
	DefaultRefreshThreshold = 5 * time.Minute
)

// Status is the outcome of a single expiry check.
type Status int

const (
	StatusNoToken Status = iota
	StatusValid
	StatusChecking
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusNoToken:
		return "no_token"
	case StatusValid:
		return "valid"
	case StatusChecking:
		return "checking"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Validity is the observable health of the current session.
type Validity struct {
	IsValid    bool
	IsChecking bool
	Err        error
}

// LivenessChecker confirms server-side whether a session the client
// believes exists is still considered active.
type LivenessChecker interface {
	SessionAlive(ctx context.Context, sessionToken string) (bool, error)
}

type MonitorOption func(*Monitor)

// WithClock injects the clock driving timers and expiry arithmetic.
func WithClock(c clockwork.Clock) MonitorOption {
	return func(m *Monitor) { m.clock = c }
}

func WithCheckInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.checkInterval = d }
}

func WithRefreshThreshold(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.refreshThreshold = d }
}

// WithAutoRedirect controls whether a hard expiry navigates to the
// tenant landing page. Enabled by default.
func WithAutoRedirect(enabled bool) MonitorOption {
	return func(m *Monitor) { m.autoRedirect = enabled }
}

// WithOnExpired registers a callback invoked after the session token has
// been cleared on a confirmed end of session.
func WithOnExpired(fn func(reason error)) MonitorOption {
	return func(m *Monitor) { m.onExpired = fn }
}

// Monitor keeps a table session alive transparently or terminates it
// cleanly. It never interrupts the diner over a transient network
// failure: only a confirmed end of session clears state and redirects.
type Monitor struct {
	tokens   *token.Store
	liveness LivenessChecker
	nav      Navigator
	clock    clockwork.Clock

	tenantSlug       string
	checkInterval    time.Duration
	refreshThreshold time.Duration
	autoRedirect     bool
	onExpired        func(reason error)

	checking atomic.Bool
	wake     chan struct{}

	mu       sync.Mutex
	validity Validity

	checks metric.Int64Counter
}

func NewMonitor(tokens *token.Store, liveness LivenessChecker, nav Navigator, tenantSlug string, opts ...MonitorOption) (*Monitor, error) {
	m := &Monitor{
		tokens:           tokens,
		liveness:         liveness,
		nav:              nav,
		clock:            clockwork.NewRealClock(),
		tenantSlug:       tenantSlug,
		checkInterval:    DefaultCheckInterval,
		refreshThreshold: DefaultRefreshThreshold,
		autoRedirect:     true,
		wake:             make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	meter := otel.Meter("tabledine/session-manager")

	var err error
	m.checks, err = meter.Int64Counter(
		"session.check_count",
		metric.WithDescription("Session expiry checks by outcome"),
		metric.WithUnit("check"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating check_count meter: %w", err)
	}

	return m, nil
}

// Run drives periodic checks until ctx is cancelled. The first check
// happens immediately; later ones fire on the ticker or on Wake. The
// ticker is released on return.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.checkInterval)
	defer ticker.Stop()

	m.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			m.Check(ctx)
		case <-m.wake:
			m.Check(ctx)
		}
	}
}

// Wake requests an immediate check, typically because the embedding
// surface regained visibility after the device was locked past the
// ticker period. Wakes coalesce; Wake never blocks.
func (m *Monitor) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Check runs one pass of the expiry state machine and reports the
// resulting status. Overlapping invocations are dropped so at most one
// liveness call is in flight at a time.
func (m *Monitor) Check(ctx context.Context) Status {
	if !m.checking.CompareAndSwap(false, true) {
		return StatusChecking
	}
	defer m.checking.Store(false)

	tok, ok := m.tokens.SessionToken()
	if !ok {
		m.setValidity(Validity{Err: serviceerr.ErrMissingCredential})
		m.count(ctx, StatusNoToken)
		return StatusNoToken
	}

	claims, err := token.DecodePayload(tok)
	if err != nil {
		// An undecodable token can never become valid.
		m.expire(ctx, fmt.Errorf("decoding session token: %w", err))
		m.count(ctx, StatusExpired)
		return StatusExpired
	}

	now := m.clock.Now()
	if claims.Expired(now) {
		m.expire(ctx, serviceerr.ErrSessionExpired)
		m.count(ctx, StatusExpired)
		return StatusExpired
	}

	if claims.ExpiresAt().Sub(now) > m.refreshThreshold {
		m.setValidity(Validity{IsValid: true})
		m.count(ctx, StatusValid)
		return StatusValid
	}

	previous := m.Validity()
	m.setValidity(Validity{IsValid: previous.IsValid, IsChecking: true})

	alive, err := m.liveness.SessionAlive(ctx, tok)
	if err != nil {
		// A transient transport failure never logs a diner out; the
		// session is assumed unchanged until the server confirms
		// otherwise.
		slogctx.Warn(ctx, "Liveness check failed, keeping the session", "error", err)
		m.setValidity(Validity{IsValid: previous.IsValid, Err: previous.Err})
		m.count(ctx, StatusValid)
		return StatusValid
	}

	if !alive {
		m.expire(ctx, serviceerr.ErrSessionEnded)
		m.count(ctx, StatusExpired)
		return StatusExpired
	}

	m.setValidity(Validity{IsValid: true})
	m.count(ctx, StatusValid)
	return StatusValid
}

// Validity returns a snapshot of the session health.
func (m *Monitor) Validity() Validity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validity
}

func (m *Monitor) setValidity(v Validity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validity = v
}

// expire clears the session token, notifies the expiry callback and, if
// enabled, redirects to the tenant landing page where a fresh QR scan
// starts the next session.
func (m *Monitor) expire(ctx context.Context, reason error) {
	m.tokens.ClearSessionToken()
	m.setValidity(Validity{Err: reason})

	slogctx.Info(ctx, "Session ended", "reason", reason.Error())

	if m.onExpired != nil {
		m.onExpired(reason)
	}

	if m.autoRedirect {
		m.redirectToLanding(ctx)
	}
}

func (m *Monitor) redirectToLanding(ctx context.Context) {
	if m.nav == nil || m.tenantSlug == "" {
		return
	}

	landing := &url.URL{Path: "/" + m.tenantSlug}
	if loc := m.nav.Location(); loc != nil {
		landing.Scheme = loc.Scheme
		landing.Host = loc.Host
	}

	if err := m.nav.Assign(landing); err != nil {
		slogctx.Warn(ctx, "Could not redirect to the landing page", "error", err)
	}
}

func (m *Monitor) count(ctx context.Context, outcome Status) {
	m.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome.String()),
	))
}
