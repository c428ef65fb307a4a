// Package business wires the session lifecycle components together for
// the table-session commands.
package business

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tabledine/session-manager/internal/config"
	"github.com/tabledine/session-manager/pkg/session"
	"github.com/tabledine/session-manager/pkg/settings"
	settingsmemory "github.com/tabledine/session-manager/pkg/settings/memory"
	settingsvalkey "github.com/tabledine/session-manager/pkg/settings/valkey"
	"github.com/tabledine/session-manager/pkg/token"
)

// StartMain creates one table session and prints the tenant metadata.
func StartMain(ctx context.Context, cfg *config.Config) error {
	deps, closeFn, err := initDeps(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the session manager: %w", err)
	}
	defer closeFn()

	result, err := deps.manager.Start(ctx, startRequest(cfg))
	if err != nil {
		return fmt.Errorf("starting a table session: %w", err)
	}

	out, err := yaml.Marshal(result.Tenant)
	if err != nil {
		return fmt.Errorf("encoding tenant metadata: %w", err)
	}

	_, _ = os.Stdout.Write(out)

	return nil
}

// WatchMain runs the agent loop: ingest the scanned QR credentials,
// ensure a session exists, then keep it monitored until shutdown.
func WatchMain(ctx context.Context, cfg *config.Config) error {
	deps, closeFn, err := initDeps(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the session manager: %w", err)
	}
	defer closeFn()

	qrToken, err := commoncfg.LoadValueFromSourceRef(cfg.Table.QRToken)
	if err != nil {
		return fmt.Errorf("loading the QR token: %w", err)
	}

	deps.guard.Ingest(ctx, string(qrToken), cfg.Table.TableCode)

	if _, ok := deps.tokens.SessionToken(); !ok {
		if _, err := deps.manager.Start(ctx, startRequest(cfg)); err != nil {
			return fmt.Errorf("starting a table session: %w", err)
		}
	}

	monitor, err := session.NewMonitor(
		deps.tokens,
		deps.manager,
		deps.nav,
		cfg.Table.TenantSlug,
		session.WithCheckInterval(cfg.Monitor.CheckInterval),
		session.WithRefreshThreshold(cfg.Monitor.RefreshThreshold),
		session.WithAutoRedirect(cfg.Monitor.AutoRedirect),
		session.WithOnExpired(func(reason error) {
			slogctx.Info(ctx, "Session ended, awaiting a fresh scan", "reason", reason.Error())
		}),
	)
	if err != nil {
		return fmt.Errorf("creating the expiry monitor: %w", err)
	}

	slogctx.Info(ctx, "Watching the table session",
		"tenant_slug", cfg.Table.TenantSlug, "table_code", cfg.Table.TableCode)

	return monitor.Run(ctx)
}

type deps struct {
	tokens  *token.Store
	manager *session.Manager
	guard   *session.Guard
	nav     session.Navigator
}

func initDeps(ctx context.Context, cfg *config.Config) (_ *deps, closeFn func(), _ error) {
	settingsRepo, closeFn, err := initSettingsRepository(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising the settings cache: %w", err)
	}

	tokens := token.NewStore()

	nav := session.NewURLNavigator(&url.URL{Path: "/" + cfg.Table.TenantSlug}, func(u *url.URL, replaced bool) {
		slogctx.Debug(ctx, "Navigated", "url", u.String(), "replaced", replaced)
	})

	manager, err := session.NewManager(cfg.API.BaseURL, tokens, settingsRepo, &http.Client{Timeout: cfg.API.Timeout})
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("creating the session manager: %w", err)
	}

	return &deps{
		tokens:  tokens,
		manager: manager,
		guard:   session.NewGuard(tokens, nav),
		nav:     nav,
	}, closeFn, nil
}

func initSettingsRepository(cfg *config.Config) (settings.Repository, func(), error) {
	switch cfg.Settings.Backend {
	case "", "memory":
		return settingsmemory.NewRepository(cfg.Settings.TTL), func() {}, nil
	case "valkey":
		valkeyClient, err := initValkeyClient(cfg)
		if err != nil {
			return nil, nil, err
		}

		return settingsvalkey.NewRepository(valkeyClient, cfg.ValKey.Prefix), valkeyClient.Close, nil
	default:
		return nil, nil, errors.New("unknown settings backend: " + cfg.Settings.Backend)
	}
}

func initValkeyClient(cfg *config.Config) (valkey.Client, error) {
	opt, err := cfg.ValKey.ClientOption()
	if err != nil {
		return nil, err
	}

	valkeyClient, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("creating a new valkey client: %w", err)
	}

	return valkeyClient, nil
}

func startRequest(cfg *config.Config) session.StartRequest {
	return session.StartRequest{
		TenantSlug:        cfg.Table.TenantSlug,
		TableCode:         cfg.Table.TableCode,
		PartySize:         cfg.Table.PartySize,
		PreferredLanguage: cfg.Table.PreferredLanguage,
	}
}
