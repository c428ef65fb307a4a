package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledine/session-manager/internal/serviceerr"
	"github.com/tabledine/session-manager/pkg/session"
	"github.com/tabledine/session-manager/pkg/settings"
	settingsmock "github.com/tabledine/session-manager/pkg/settings/mock"
	"github.com/tabledine/session-manager/pkg/token"
)

// startBackend fakes the two session endpoints of the ordering API.
func startBackend(t *testing.T, startStatus int, startBody string, aliveStatus int, aliveBody string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/tables/session/start":
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Equal(t, "demo-bistro", payload["tenant_slug"])
			require.Equal(t, "T1", payload["table_code"])
			require.NotEmpty(t, r.Header.Get("X-Request-Id"))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(startStatus)
			_, _ = w.Write([]byte(startBody))
		case r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(aliveStatus)
			_, _ = w.Write([]byte(aliveBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestManager_Start(t *testing.T) {
	const successBody = `{
		"success": true,
		"data": {
			"session_token": "new-session-token",
			"tenant": {
				"name": "Demo Bistro",
				"address": "1 Main St",
				"settings": {"currency": "EUR"}
			}
		}
	}`

	tests := []struct {
		name        string
		startStatus int
		startBody   string
		req         session.StartRequest
		wantToken   string
		errAssert   assert.ErrorAssertionFunc
	}{
		{
			name:        "Success",
			startStatus: http.StatusOK,
			startBody:   successBody,
			req: session.StartRequest{
				TenantSlug:        "demo-bistro",
				TableCode:         "T1",
				PartySize:         2,
				PreferredLanguage: "en",
			},
			wantToken: "new-session-token",
			errAssert: assert.NoError,
		},
		{
			name:        "Server error",
			startStatus: http.StatusInternalServerError,
			startBody:   `{"success": false}`,
			req:         session.StartRequest{TenantSlug: "demo-bistro", TableCode: "T1"},
			errAssert:   assert.Error,
		},
		{
			name:        "Server rejects the request",
			startStatus: http.StatusOK,
			startBody:   `{"success": false, "message": "table occupied"}`,
			req:         session.StartRequest{TenantSlug: "demo-bistro", TableCode: "T1"},
			errAssert:   assert.Error,
		},
		{
			name:        "Missing session token in response",
			startStatus: http.StatusOK,
			startBody:   `{"success": true, "data": {}}`,
			req:         session.StartRequest{TenantSlug: "demo-bistro", TableCode: "T1"},
			errAssert:   assert.Error,
		},
		{
			name:      "Missing tenant slug",
			startBody: successBody,
			req:       session.StartRequest{TableCode: "T1"},
			errAssert: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startBackend(t, tt.startStatus, tt.startBody, http.StatusOK, `{"valid": true}`)
			defer server.Close()

			store := token.NewStore()
			repo := settingsmock.NewInMemRepository()

			manager, err := session.NewManager(server.URL, store, repo, server.Client())
			require.NoError(t, err)

			result, err := manager.Start(t.Context(), tt.req)

			tt.errAssert(t, err)

			got, hasSession := store.SessionToken()
			if err != nil {
				// No state mutation on failure; retry is always safe.
				assert.False(t, hasSession)
				_, tenantErr := repo.LoadTenant(t.Context(), tt.req.TenantSlug)
				assert.ErrorIs(t, tenantErr, serviceerr.ErrNotFound)
				return
			}

			assert.Equal(t, tt.wantToken, result.SessionToken)
			assert.Equal(t, tt.wantToken, got)

			tenant, err := repo.LoadTenant(t.Context(), tt.req.TenantSlug)
			require.NoError(t, err)
			assert.Equal(t, "Demo Bistro", tenant.Name)
			assert.Equal(t, "EUR", tenant.Settings["currency"])

			tc, err := repo.LoadTableContext(t.Context(), tt.req.TenantSlug, tt.req.TableCode)
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, tc.SessionToken)
			assert.False(t, tc.StartedAt.IsZero())
		})
	}
}

func TestManager_Start_ReplacesTableContext(t *testing.T) {
	server := startBackend(t, http.StatusOK, `{
		"success": true,
		"data": {"session_token": "new-session-token", "tenant": {"name": "Demo Bistro"}}
	}`, http.StatusOK, `{"valid": true}`)
	defer server.Close()

	store := token.NewStore()
	repo := settingsmock.NewInMemRepository(
		settingsmock.WithTableContext("demo-bistro", "T1", settings.TableContext{
			TableID:      "T1",
			SessionToken: "stale-session-token",
		}),
	)

	manager, err := session.NewManager(server.URL, store, repo, server.Client())
	require.NoError(t, err)

	_, err = manager.Start(t.Context(), session.StartRequest{TenantSlug: "demo-bistro", TableCode: "T1"})
	require.NoError(t, err)

	tc, err := repo.LoadTableContext(t.Context(), "demo-bistro", "T1")
	require.NoError(t, err)
	assert.Equal(t, "new-session-token", tc.SessionToken, "stale table context must be replaced")
}

func TestManager_SessionAlive(t *testing.T) {
	tests := []struct {
		name        string
		aliveStatus int
		aliveBody   string
		sessionTok  string
		wantAlive   bool
		errAssert   assert.ErrorAssertionFunc
	}{
		{
			name:        "Alive",
			aliveStatus: http.StatusOK,
			aliveBody:   `{"valid": true, "expiresAt": "2026-08-28T20:00:00Z"}`,
			sessionTok:  "session-token",
			wantAlive:   true,
			errAssert:   assert.NoError,
		},
		{
			name:        "Ended",
			aliveStatus: http.StatusOK,
			aliveBody:   `{"valid": false}`,
			sessionTok:  "session-token",
			wantAlive:   false,
			errAssert:   assert.NoError,
		},
		{
			name:        "Transport-level failure",
			aliveStatus: http.StatusBadGateway,
			aliveBody:   ``,
			sessionTok:  "session-token",
			wantAlive:   false,
			errAssert:   assert.Error,
		},
		{
			name:       "Missing token",
			sessionTok: "",
			errAssert:  assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startBackend(t, http.StatusOK, `{}`, tt.aliveStatus, tt.aliveBody)
			defer server.Close()

			manager, err := session.NewManager(server.URL, token.NewStore(), settingsmock.NewInMemRepository(), server.Client())
			require.NoError(t, err)

			alive, err := manager.SessionAlive(t.Context(), tt.sessionTok)

			tt.errAssert(t, err)
			assert.Equal(t, tt.wantAlive, alive)
		})
	}
}
