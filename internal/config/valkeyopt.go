package config

import (
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"
)

// ClientOption resolves the source refs and builds the valkey client
// options.
func (v ValKey) ClientOption() (valkey.ClientOption, error) {
	host, err := commoncfg.LoadValueFromSourceRef(v.Host)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("loading valkey host: %w", err)
	}

	user, err := commoncfg.LoadValueFromSourceRef(v.User)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("loading valkey username: %w", err)
	}

	password, err := commoncfg.LoadValueFromSourceRef(v.Password)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("loading valkey password: %w", err)
	}

	return valkey.ClientOption{
		InitAddress: []string{string(host)},
		Username:    string(user),
		Password:    string(password),
	}, nil
}
