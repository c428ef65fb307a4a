// Package settingsvalkey backs the settings cache with Valkey, for
// deployments where several agent processes share one tenant's cache.
package settingsvalkey

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/tabledine/session-manager/pkg/settings"
)

const objectTypeTenant = "tenant"
const objectTypeTableContext = "tablecontext"

type Repository struct {
	store *store
}

func NewRepository(valkeyClient valkey.Client, prefix string) *Repository {
	return &Repository{
		store: newStore(valkeyClient, prefix),
	}
}

func (r *Repository) LoadTenant(ctx context.Context, slug string) (tenant settings.Tenant, _ error) {
	if err := r.store.Get(ctx, objectTypeTenant, slug, &tenant); err != nil {
		return settings.Tenant{}, fmt.Errorf("getting tenant from store: %w", err)
	}

	return tenant, nil
}

func (r *Repository) StoreTenant(ctx context.Context, slug string, tenant settings.Tenant) error {
	if err := r.store.Set(ctx, objectTypeTenant, slug, tenant); err != nil {
		return fmt.Errorf("setting tenant into storage: %w", err)
	}

	return nil
}

func (r *Repository) LoadTableContext(ctx context.Context, slug, tableID string) (tc settings.TableContext, _ error) {
	if err := r.store.Get(ctx, objectTypeTableContext, tableContextID(slug, tableID), &tc); err != nil {
		return settings.TableContext{}, fmt.Errorf("getting table context from store: %w", err)
	}

	return tc, nil
}

func (r *Repository) StoreTableContext(ctx context.Context, slug, tableID string, tc settings.TableContext) error {
	if err := r.store.Set(ctx, objectTypeTableContext, tableContextID(slug, tableID), tc); err != nil {
		return fmt.Errorf("setting table context into storage: %w", err)
	}

	return nil
}

func (r *Repository) DeleteTableContext(ctx context.Context, slug, tableID string) error {
	if err := r.store.Destroy(ctx, objectTypeTableContext, tableContextID(slug, tableID)); err != nil {
		return fmt.Errorf("deleting table context from store: %w", err)
	}

	return nil
}

// ListTableContexts returns every cached table context for a tenant.
func (r *Repository) ListTableContexts(ctx context.Context, slug string) ([]settings.TableContext, error) {
	var contexts []settings.TableContext
	if err := getStoreObjects(ctx, r.store, objectTypeTableContext, slug+":*", &contexts); err != nil {
		return nil, fmt.Errorf("getting table contexts from store: %w", err)
	}

	return contexts, nil
}

func tableContextID(slug, tableID string) string {
	return slug + ":" + tableID
}
