package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tenants/core"
)

var (
	_ gocmd.Querier[GetTenantMessage, *core.TenantContext]     = (*GetTenantQuery)(nil)
	_ gocmd.Querier[ListTenantsMessage, []*core.TenantContext] = (*ListTenantsQuery)(nil)
	_ gocmd.Querier[GetStatsMessage, core.RegistryStats]       = (*GetStatsQuery)(nil)
	_ gocmd.Querier[ResolveTenantIDMessage, string]            = (*ResolveTenantIDQuery)(nil)
)
