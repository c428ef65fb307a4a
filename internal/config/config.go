// Package config defines the necessary types to configure the
// application. An example config file config.yaml is provided in the
// repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	API      API      `yaml:"api"`
	Table    Table    `yaml:"table"`
	Monitor  Monitor  `yaml:"monitor"`
	ValKey   ValKey   `yaml:"valkey"`
	Settings Settings `yaml:"settings"`
}

// API locates the table-ordering backend.
type API struct {
	BaseURL string        `yaml:"baseURL" default:"https://api.tabledine.app"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

// Table identifies the dining context this agent serves. QRToken is the
// credential scanned from the table's QR code; it comes from a source
// ref so it never sits in the config file itself.
type Table struct {
	TenantSlug        string              `yaml:"tenantSlug"`
	TableCode         string              `yaml:"tableCode"`
	PartySize         int                 `yaml:"partySize"`
	PreferredLanguage string              `yaml:"preferredLanguage"`
	QRToken           commoncfg.SourceRef `yaml:"qrToken"`
}

type Monitor struct {
	CheckInterval    time.Duration `yaml:"checkInterval" default:"2m"`
	RefreshThreshold time.Duration `yaml:"refreshThreshold" default:"5m"`
	AutoRedirect     bool          `yaml:"autoRedirect" default:"true"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix"`
}

// Settings selects the backend for the tenant settings cache.
type Settings struct {
	Backend string        `yaml:"backend" default:"memory"`
	TTL     time.Duration `yaml:"ttl" default:"12h"`
}
