package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tabledine/session-manager/internal/serviceerr"
	"github.com/tabledine/session-manager/pkg/settings"
	"github.com/tabledine/session-manager/pkg/token"
)

// StartRequest carries the diner-supplied parameters for creating a
// table session.
type StartRequest struct {
	TenantSlug        string
	TableCode         string
	PartySize         int
	PreferredLanguage string
}

// StartResult is the outcome of a successful session creation.
type StartResult struct {
	SessionToken string
	Tenant       settings.Tenant
}

type startPayload struct {
	TenantSlug        string `json:"tenant_slug"`
	TableCode         string `json:"table_code"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
	PartySize         int    `json:"party_size,omitempty"`
}

type startResponse struct {
	Success bool `json:"success"`
	Data    struct {
		SessionToken string          `json:"session_token"`
		Tenant       settings.Tenant `json:"tenant"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

type aliveResponse struct {
	Valid     bool   `json:"valid"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// Manager creates table sessions against the ordering API and answers
// liveness checks for the expiry monitor.
type Manager struct {
	tokens   *token.Store
	settings settings.Repository

	baseURL      *url.URL
	secureClient *http.Client
	tracer       trace.Tracer
}

func NewManager(apiBaseURL string, tokens *token.Store, settingsRepo settings.Repository, httpClient *http.Client) (*Manager, error) {
	baseURL, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Manager{
		tokens:       tokens,
		settings:     settingsRepo,
		baseURL:      baseURL,
		secureClient: httpClient,
		tracer:       otel.Tracer("tabledine/session-manager"),
	}, nil
}

// Start requests a new session token for the given tenant and table and
// persists the result: the token goes into the token store, the tenant
// metadata into the settings cache, and any stale table context is
// replaced so subsequent reads observe the just-created session.
//
// Nothing is mutated on failure, so the caller can always retry. Start
// does not retry by itself.
func (m *Manager) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	requestID := uuid.NewString()
	ctx = slogctx.With(ctx, "request_id", requestID, "tenant_slug", req.TenantSlug)

	ctx, span := m.tracer.Start(ctx, "session.start")
	defer span.End()

	if req.TenantSlug == "" || req.TableCode == "" {
		return StartResult{}, errors.New("tenant slug and table code are required")
	}

	body, err := json.Marshal(startPayload{
		TenantSlug:        req.TenantSlug,
		TableCode:         req.TableCode,
		PreferredLanguage: req.PreferredLanguage,
		PartySize:         req.PartySize,
	})
	if err != nil {
		return StartResult{}, fmt.Errorf("encoding session start request: %w", err)
	}

	u := m.baseURL.JoinPath("tables", "session", "start")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return StartResult{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	resp, err := m.secureClient.Do(httpReq)
	if err != nil {
		return StartResult{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StartResult{}, fmt.Errorf("session start failed with status: %d", resp.StatusCode)
	}

	var payload startResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return StartResult{}, fmt.Errorf("decoding response: %w", err)
	}

	if !payload.Success || payload.Data.SessionToken == "" {
		return StartResult{}, fmt.Errorf("server rejected session start: %s", payload.Message)
	}

	m.tokens.SetSessionToken(payload.Data.SessionToken)

	if m.settings != nil {
		if err := m.settings.StoreTenant(ctx, req.TenantSlug, payload.Data.Tenant); err != nil {
			slogctx.Warn(ctx, "Could not cache tenant settings", "error", err)
		}

		tc := settings.TableContext{
			TableID:      req.TableCode,
			SessionToken: payload.Data.SessionToken,
			StartedAt:    time.Now(),
		}
		if err := m.settings.StoreTableContext(ctx, req.TenantSlug, req.TableCode, tc); err != nil {
			slogctx.Warn(ctx, "Could not cache the table context", "error", err)
		}
	}

	slogctx.Info(ctx, "Started a table session", "table_code", req.TableCode)

	return StartResult{
		SessionToken: payload.Data.SessionToken,
		Tenant:       payload.Data.Tenant,
	}, nil
}

// SessionAlive reports whether the server still considers the session
// active. It implements LivenessChecker for the expiry monitor.
func (m *Manager) SessionAlive(ctx context.Context, sessionToken string) (bool, error) {
	if sessionToken == "" {
		return false, serviceerr.ErrMissingCredential
	}

	u := m.baseURL.JoinPath("tables", "session", sessionToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := m.secureClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("liveness check failed with status: %d", resp.StatusCode)
	}

	var payload aliveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}

	return payload.Valid, nil
}
