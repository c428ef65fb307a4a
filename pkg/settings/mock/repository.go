package settingsmock

import (
	"context"

	"github.com/tabledine/session-manager/internal/serviceerr"
	"github.com/tabledine/session-manager/pkg/settings"
)

type RepositoryOption func(*Repository)

type Repository struct {
	tenants  map[string]settings.Tenant
	contexts map[string]settings.TableContext

	loadTenantErr, storeTenantErr                     error
	loadContextErr, storeContextErr, deleteContextErr error
}

func WithTenant(slug string, tenant settings.Tenant) RepositoryOption {
	return func(r *Repository) { r.tenants[slug] = tenant }
}

func WithTableContext(slug, tableID string, tc settings.TableContext) RepositoryOption {
	return func(r *Repository) { r.contexts[contextKey(slug, tableID)] = tc }
}

func WithStoreTenantError(err error) RepositoryOption {
	return func(r *Repository) { r.storeTenantErr = err }
}

func WithStoreTableContextError(err error) RepositoryOption {
	return func(r *Repository) { r.storeContextErr = err }
}

func WithDeleteTableContextError(err error) RepositoryOption {
	return func(r *Repository) { r.deleteContextErr = err }
}

var _ = settings.Repository(&Repository{})

func NewInMemRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		tenants:  make(map[string]settings.Tenant),
		contexts: make(map[string]settings.TableContext),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Repository) LoadTenant(_ context.Context, slug string) (settings.Tenant, error) {
	if r.loadTenantErr != nil {
		return settings.Tenant{}, r.loadTenantErr
	}
	if tenant, ok := r.tenants[slug]; ok {
		return tenant, nil
	}
	return settings.Tenant{}, serviceerr.ErrNotFound
}

func (r *Repository) StoreTenant(_ context.Context, slug string, tenant settings.Tenant) error {
	if r.storeTenantErr != nil {
		return r.storeTenantErr
	}
	r.tenants[slug] = tenant
	return nil
}

func (r *Repository) LoadTableContext(_ context.Context, slug, tableID string) (settings.TableContext, error) {
	if r.loadContextErr != nil {
		return settings.TableContext{}, r.loadContextErr
	}
	if tc, ok := r.contexts[contextKey(slug, tableID)]; ok {
		return tc, nil
	}
	return settings.TableContext{}, serviceerr.ErrNotFound
}

func (r *Repository) StoreTableContext(_ context.Context, slug, tableID string, tc settings.TableContext) error {
	if r.storeContextErr != nil {
		return r.storeContextErr
	}
	r.contexts[contextKey(slug, tableID)] = tc
	return nil
}

func (r *Repository) DeleteTableContext(_ context.Context, slug, tableID string) error {
	if r.deleteContextErr != nil {
		return r.deleteContextErr
	}
	if _, ok := r.contexts[contextKey(slug, tableID)]; !ok {
		return serviceerr.ErrNotFound
	}
	delete(r.contexts, contextKey(slug, tableID))
	return nil
}

func contextKey(slug, tableID string) string {
	return slug + ":" + tableID
}
