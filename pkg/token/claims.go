// Package token holds the credential set for an active table-ordering
// context and provides unverified inspection of session token payloads.
package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tabledine/session-manager/internal/serviceerr"
)

// Claims is the decoded, unverified payload of a session token. Decoding
// establishes freshness only, never authenticity; every privileged
// request is re-validated server-side.
type Claims struct {
	Expiry      int64       `json:"exp"`
	TableNumber json.Number `json:"tableNumber,omitempty"`
}

// DecodePayload extracts the payload of a session token without
// verifying its signature. A token without a payload segment, a payload
// that does not decode, and a payload without an exp claim all yield
// serviceerr.ErrMalformedToken; the caller never sees a panic.
func DecodePayload(tok string) (Claims, error) {
	segments := strings.Split(tok, ".")
	if len(segments) < 2 {
		return Claims{}, fmt.Errorf("%w: no payload segment", serviceerr.ErrMalformedToken)
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segments[1], "="))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: decoding base64url payload: %w", serviceerr.ErrMalformedToken, err)
	}

	unescaped, err := url.PathUnescape(string(raw))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: percent-decoding payload: %w", serviceerr.ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal([]byte(unescaped), &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: unmarshaling payload: %w", serviceerr.ErrMalformedToken, err)
	}

	if claims.Expiry <= 0 {
		return Claims{}, fmt.Errorf("%w: missing exp claim", serviceerr.ErrMalformedToken)
	}

	return claims, nil
}

// ExpiresAt returns the expiry instant carried by the claims.
func (c Claims) ExpiresAt() time.Time {
	return time.Unix(c.Expiry, 0)
}

// Expired reports whether the claims have expired at the given instant.
func (c Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt())
}
