package query

import (
	"context"

	"github.com/goliatone/go-tenants/core"
)

// ReadingService is the slice of the tenant manager the query handlers need:
// read-only registry access plus request identification.
type ReadingService interface {
	GetTenant(id string) (*core.TenantContext, bool)
	GetAllTenants() []*core.TenantContext
	GetStats() core.RegistryStats
	TenantIDFromRequest(req core.RequestDescriptor) string
}

type GetTenantQuery struct {
	service ReadingService
}

func NewGetTenantQuery(service ReadingService) *GetTenantQuery {
	return &GetTenantQuery{service: service}
}

func (q *GetTenantQuery) Query(ctx context.Context, msg GetTenantMessage) (*core.TenantContext, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: tenant service is required")
	}
	tenant, ok := q.service.GetTenant(msg.ID)
	if !ok {
		return nil, queryNotFoundError("query: tenant not found: " + msg.ID)
	}
	return tenant, nil
}

type ListTenantsQuery struct {
	service ReadingService
}

func NewListTenantsQuery(service ReadingService) *ListTenantsQuery {
	return &ListTenantsQuery{service: service}
}

func (q *ListTenantsQuery) Query(ctx context.Context, msg ListTenantsMessage) ([]*core.TenantContext, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: tenant service is required")
	}
	tenants := q.service.GetAllTenants()
	if !msg.ActiveOnly {
		return tenants, nil
	}
	active := make([]*core.TenantContext, 0, len(tenants))
	for _, tenant := range tenants {
		if tenant.Active() {
			active = append(active, tenant)
		}
	}
	return active, nil
}

type GetStatsQuery struct {
	service ReadingService
}

func NewGetStatsQuery(service ReadingService) *GetStatsQuery {
	return &GetStatsQuery{service: service}
}

func (q *GetStatsQuery) Query(ctx context.Context, msg GetStatsMessage) (core.RegistryStats, error) {
	if q == nil || q.service == nil {
		return core.RegistryStats{}, queryDependencyError("query: tenant service is required")
	}
	return q.service.GetStats(), nil
}

type ResolveTenantIDQuery struct {
	service ReadingService
}

func NewResolveTenantIDQuery(service ReadingService) *ResolveTenantIDQuery {
	return &ResolveTenantIDQuery{service: service}
}

func (q *ResolveTenantIDQuery) Query(ctx context.Context, msg ResolveTenantIDMessage) (string, error) {
	if q == nil || q.service == nil {
		return "", queryDependencyError("query: tenant service is required")
	}
	return q.service.TenantIDFromRequest(msg.Request), nil
}
