package settingsmemory

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tabledine/session-manager/internal/serviceerr"
	"github.com/tabledine/session-manager/pkg/settings"
)

// Repository is an in-process settings cache with a TTL. It is the
// default backend for single-context deployments.
type Repository struct {
	cache *gocache.Cache
}

func NewRepository(ttl time.Duration) *Repository {
	return &Repository{
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *Repository) LoadTenant(_ context.Context, slug string) (settings.Tenant, error) {
	v, ok := r.cache.Get(tenantKey(slug))
	if !ok {
		return settings.Tenant{}, fmt.Errorf("tenant %q: %w", slug, serviceerr.ErrNotFound)
	}

	tenant, ok := v.(settings.Tenant)
	if !ok {
		return settings.Tenant{}, fmt.Errorf("tenant %q holds an unexpected type: %w", slug, serviceerr.ErrNotFound)
	}

	return tenant, nil
}

func (r *Repository) StoreTenant(_ context.Context, slug string, tenant settings.Tenant) error {
	r.cache.Set(tenantKey(slug), tenant, gocache.DefaultExpiration)
	return nil
}

func (r *Repository) LoadTableContext(_ context.Context, slug, tableID string) (settings.TableContext, error) {
	v, ok := r.cache.Get(tableContextKey(slug, tableID))
	if !ok {
		return settings.TableContext{}, fmt.Errorf("table context %q/%q: %w", slug, tableID, serviceerr.ErrNotFound)
	}

	tc, ok := v.(settings.TableContext)
	if !ok {
		return settings.TableContext{}, fmt.Errorf("table context %q/%q holds an unexpected type: %w", slug, tableID, serviceerr.ErrNotFound)
	}

	return tc, nil
}

func (r *Repository) StoreTableContext(_ context.Context, slug, tableID string, tc settings.TableContext) error {
	r.cache.Set(tableContextKey(slug, tableID), tc, gocache.DefaultExpiration)
	return nil
}

func (r *Repository) DeleteTableContext(_ context.Context, slug, tableID string) error {
	r.cache.Delete(tableContextKey(slug, tableID))
	return nil
}

func tenantKey(slug string) string {
	return "tenant:" + slug
}

func tableContextKey(slug, tableID string) string {
	return "tablecontext:" + slug + ":" + tableID
}
