package settings

import "context"

type Repository interface {
	// Tenant operations
	LoadTenant(ctx context.Context, slug string) (Tenant, error)
	StoreTenant(ctx context.Context, slug string, tenant Tenant) error
	// Table context operations
	LoadTableContext(ctx context.Context, slug, tableID string) (TableContext, error)
	StoreTableContext(ctx context.Context, slug, tableID string, tc TableContext) error
	DeleteTableContext(ctx context.Context, slug, tableID string) error
}
