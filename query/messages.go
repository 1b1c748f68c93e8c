package query

import (
	"strings"

	"github.com/goliatone/go-tenants/core"
)

const (
	TypeGetTenant       = "tenants.query.get"
	TypeListTenants     = "tenants.query.list"
	TypeGetStats        = "tenants.query.stats"
	TypeResolveTenantID = "tenants.query.resolve_id"
)

type GetTenantMessage struct {
	ID string
}

func (GetTenantMessage) Type() string { return TypeGetTenant }

func (m GetTenantMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return queryInvalidInputError("query: tenant id is required")
	}
	return nil
}

type ListTenantsMessage struct {
	ActiveOnly bool
}

func (ListTenantsMessage) Type() string { return TypeListTenants }

func (ListTenantsMessage) Validate() error { return nil }

type GetStatsMessage struct{}

func (GetStatsMessage) Type() string { return TypeGetStats }

func (GetStatsMessage) Validate() error { return nil }

// ResolveTenantIDMessage always validates: an empty descriptor simply
// resolves to the default tenant.
type ResolveTenantIDMessage struct {
	Request core.RequestDescriptor
}

func (ResolveTenantIDMessage) Type() string { return TypeResolveTenantID }

func (ResolveTenantIDMessage) Validate() error { return nil }
