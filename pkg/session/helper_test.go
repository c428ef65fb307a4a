package session_test

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"
)

// makeToken builds an unsigned session token whose payload expires at
// the given instant. The monitor never verifies signatures, so a static
// signature segment is enough.
func makeToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d,"tableNumber":"7"}`, expiry.Unix())))

	return header + "." + payload + ".sig"
}
