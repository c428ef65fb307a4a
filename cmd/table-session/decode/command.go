package decode

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tabledine/session-manager/pkg/token"
)

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a session token payload",
		Long:  "Decode prints the unverified payload of a session token. This inspects freshness only; no signature is checked.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			claims, err := token.DecodePayload(args[0])
			if err != nil {
				return fmt.Errorf("decoding token: %w", err)
			}

			out, err := yaml.Marshal(map[string]any{
				"exp":         claims.Expiry,
				"expiresAt":   claims.ExpiresAt().Format(time.RFC3339),
				"tableNumber": claims.TableNumber.String(),
			})
			if err != nil {
				return fmt.Errorf("encoding claims: %w", err)
			}

			_, _ = os.Stdout.Write(out)

			return nil
		},
	}
}
