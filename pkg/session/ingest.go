package session

import (
	"context"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tabledine/session-manager/pkg/token"
)

// tokenParam is the query parameter carrying the QR-issued token on the
// landing URL. It is stripped after ingestion; the table parameter stays.
const tokenParam = "token"

// Guard reconciles a freshly scanned (QR token, table ID) pair against
// the token store, exactly once per distinct pair per guard lifetime.
//
// A different QR token or table means a different physical dining
// context, so any previously issued session token is purged before the
// new pair is stored.
type Guard struct {
	tokens *token.Store
	nav    Navigator

	mu       sync.Mutex
	ingested map[string]struct{}
	redacted bool
}

func NewGuard(tokens *token.Store, nav Navigator) *Guard {
	return &Guard{
		tokens:   tokens,
		nav:      nav,
		ingested: make(map[string]struct{}),
	}
}

// Ingest records the observed pair. Repeated calls with the same pair
// are no-ops; a missing token or table ID (a guest without a scan) is
// ignored entirely.
func (g *Guard) Ingest(ctx context.Context, qrToken, tableID string) {
	if qrToken == "" || tableID == "" {
		return
	}

	g.mu.Lock()
	key := qrToken + "\x00" + tableID
	if _, seen := g.ingested[key]; seen {
		g.mu.Unlock()
		return
	}
	g.ingested[key] = struct{}{}

	currentQR, hadQR := g.tokens.QRToken()
	currentTable, hadTable := g.tokens.TableID()

	differentToken := hadQR && currentQR != qrToken
	differentTable := hadTable && currentTable != tableID
	if differentToken || differentTable {
		g.tokens.ClearSessionToken()
		slogctx.Info(ctx, "Cleared stale session token for a new dining context",
			"table_id", tableID, "table_changed", differentTable)
	}

	// Overwriting is safe even when nothing changed.
	g.tokens.SetQRToken(qrToken)
	g.tokens.SetTableID(tableID)

	redact := !g.redacted
	g.redacted = true
	g.mu.Unlock()

	// The pair is durably stored before the visible URL is rewritten.
	if redact {
		g.redactTokenParam(ctx)
	}
}

// redactTokenParam strips the token query parameter from the visible URL
// with a history-replacing navigation. Tokens left in the URL leak
// through browser history, Referer headers on third-party resources,
// and server access logs.
func (g *Guard) redactTokenParam(ctx context.Context) {
	if g.nav == nil {
		return
	}

	loc := g.nav.Location()
	if loc == nil {
		return
	}

	q := loc.Query()
	if !q.Has(tokenParam) {
		return
	}
	q.Del(tokenParam)

	redacted := *loc
	redacted.RawQuery = q.Encode()
	if err := g.nav.Replace(&redacted); err != nil {
		slogctx.Warn(ctx, "Could not strip the token from the visible URL", "error", err)
	}
}
