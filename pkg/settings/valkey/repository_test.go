package settingsvalkey_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/tabledine/session-manager/internal/dbtest/valkeytest"
	"github.com/tabledine/session-manager/internal/serviceerr"
	"github.com/tabledine/session-manager/pkg/settings"
	settingsvalkey "github.com/tabledine/session-manager/pkg/settings/valkey"
)

var client valkey.Client
var testTime time.Time

func init() {
	testTime = time.Now().Add(30 * 24 * time.Hour)

	// There's a little inconsistency with the timezone when RFC3339 is
	// parsed from a JSON object. So we do a workaround here
	t, _ := testTime.MarshalJSON()
	_ = testTime.UnmarshalJSON(t)
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	valkeyClient, _, terminate := valkeytest.Start(ctx)
	client = valkeyClient

	code := m.Run()
	terminate(ctx)

	os.Exit(code)
}

func prepareTenant(t *testing.T, prefix, slug string, tenant settings.Tenant) {
	t.Helper()

	key := fmt.Sprintf("%s:tenant:%s", prefix, slug)
	err := client.Do(t.Context(), client.B().Set().Key(key).Value(valkey.JSON(tenant)).Build()).Error()
	require.NoError(t, err, "inserting tenant")
}

func prepareTableContext(t *testing.T, prefix, slug string, tc settings.TableContext) {
	t.Helper()

	key := fmt.Sprintf("%s:tablecontext:%s:%s", prefix, slug, tc.TableID)
	err := client.Do(t.Context(), client.B().Set().Key(key).Value(valkey.JSON(tc)).Build()).Error()
	require.NoError(t, err, "inserting table context")
}

func TestRepository_LoadTenant(t *testing.T) {
	const prefix = "table-session-load-tenant-test"

	prepareTenant(t, prefix, "demo-bistro", settings.Tenant{
		Name:    "Demo Bistro",
		Address: "1 Main St",
		Settings: map[string]any{
			"currency": "EUR",
		},
	})

	tests := []struct {
		name       string
		slug       string
		wantTenant settings.Tenant
		assertErr  assert.ErrorAssertionFunc
	}{
		{
			name: "Select existing tenant",
			slug: "demo-bistro",
			wantTenant: settings.Tenant{
				Name:    "Demo Bistro",
				Address: "1 Main St",
				Settings: map[string]any{
					"currency": "EUR",
				},
			},
			assertErr: assert.NoError,
		},
		{
			name: "Error does not exist",
			slug: "does-not-exist",
			assertErr: func(t assert.TestingT, err error, msgAndArgs ...any) bool {
				return assert.ErrorIs(t, err, serviceerr.ErrNotFound, msgAndArgs...)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := settingsvalkey.NewRepository(client, prefix)

			gotTenant, err := r.LoadTenant(t.Context(), tt.slug)
			if !tt.assertErr(t, err, fmt.Sprintf("Repository.LoadTenant() error %v", err)) || err != nil {
				return
			}

			assert.Equal(t, tt.wantTenant, gotTenant, "Repository.LoadTenant()")
		})
	}
}

func TestRepository_StoreTenant(t *testing.T) {
	const prefix = "table-session-store-tenant-test"

	upsertTenant := settings.Tenant{
		Name:    "Upsert Bistro",
		Address: "2 Side St",
	}
	prepareTenant(t, prefix, "upsert-bistro", upsertTenant)

	tests := []struct {
		name      string
		slug      string
		tenant    settings.Tenant
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name: "Success",
			slug: "new-bistro",
			tenant: settings.Tenant{
				Name:    "New Bistro",
				Address: "3 High St",
			},
			assertErr: assert.NoError,
		},
		{
			name: "Upsert successfully",
			slug: "upsert-bistro",
			tenant: settings.Tenant{
				Name:    "Upsert Bistro",
				Address: "4 New Address Rd",
			},
			assertErr: assert.NoError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := settingsvalkey.NewRepository(client, prefix)
			err := r.StoreTenant(t.Context(), tt.slug, tt.tenant)
			if !tt.assertErr(t, err, fmt.Sprintf("Repository.StoreTenant() error %v", err)) || err != nil {
				return
			}

			tenant, err := r.LoadTenant(t.Context(), tt.slug)
			require.NoError(t, err)

			assert.Equal(t, tt.tenant, tenant, "Inserted tenant is not equal")
		})
	}
}

func TestRepository_TableContext(t *testing.T) {
	const prefix = "table-session-table-context-test"

	tc := settings.TableContext{
		TableID:      "T1",
		SessionToken: "session-token-one",
		StartedAt:    testTime,
	}

	r := settingsvalkey.NewRepository(client, prefix)
	require.NoError(t, r.StoreTableContext(t.Context(), "demo-bistro", "T1", tc))

	got, err := r.LoadTableContext(t.Context(), "demo-bistro", "T1")
	require.NoError(t, err)
	assert.Equal(t, tc, got, "Repository.LoadTableContext()")

	_, err = r.LoadTableContext(t.Context(), "other-bistro", "T1")
	assert.ErrorIs(t, err, serviceerr.ErrNotFound, "contexts are keyed per tenant")

	require.NoError(t, r.DeleteTableContext(t.Context(), "demo-bistro", "T1"))

	_, err = r.LoadTableContext(t.Context(), "demo-bistro", "T1")
	assert.ErrorIs(t, err, serviceerr.ErrNotFound, "context should not exist after deletion")
}

func TestRepository_ListTableContexts(t *testing.T) {
	const prefix = "table-session-list-table-contexts-test"

	prepareTableContext(t, prefix, "demo-bistro", settings.TableContext{
		TableID:      "T1",
		SessionToken: "session-token-one",
		StartedAt:    testTime,
	})
	prepareTableContext(t, prefix, "demo-bistro", settings.TableContext{
		TableID:      "T2",
		SessionToken: "session-token-two",
		StartedAt:    testTime,
	})
	prepareTableContext(t, prefix, "other-bistro", settings.TableContext{
		TableID:      "T1",
		SessionToken: "session-token-other",
		StartedAt:    testTime,
	})

	r := settingsvalkey.NewRepository(client, prefix)

	got, err := r.ListTableContexts(t.Context(), "demo-bistro")
	require.NoError(t, err)

	sort.Slice(got, func(i, j int) bool { return got[i].TableID < got[j].TableID })

	want := []settings.TableContext{
		{TableID: "T1", SessionToken: "session-token-one", StartedAt: testTime},
		{TableID: "T2", SessionToken: "session-token-two", StartedAt: testTime},
	}
	assert.Equal(t, want, got, "Repository.ListTableContexts()")
}
