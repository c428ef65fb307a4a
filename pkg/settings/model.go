// Package settings caches tenant metadata and per-table context handed
// back when a table session starts, for reuse by surfaces outside the
// session lifecycle itself.
package settings

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Tenant is the metadata a tenant returns when a session starts.
// Settings carries the tenant-scoped feature configuration exactly as
// the server sent it.
type Tenant struct {
	Name     string         `json:"name"`
	Address  string         `json:"address,omitempty"`
	Image    string         `json:"image,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// DecodeSettings decodes the raw settings map into a typed struct using
// mapstructure field tags.
func (t Tenant) DecodeSettings(into any) error {
	if err := mapstructure.Decode(t.Settings, into); err != nil {
		return fmt.Errorf("decoding tenant settings: %w", err)
	}

	return nil
}

// TableContext is the cached view of the active session at a table. It
// is invalidated and rewritten whenever a new session is created so that
// later reads observe the current one.
type TableContext struct {
	TableID      string    `json:"table_id"`
	SessionToken string    `json:"session_token"`
	StartedAt    time.Time `json:"started_at"`
}
