package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[LoadTenantMessage]     = (*LoadTenantCommand)(nil)
	_ gocmd.Commander[LoadAllTenantsMessage] = (*LoadAllTenantsCommand)(nil)
	_ gocmd.Commander[ReloadTenantMessage]   = (*ReloadTenantCommand)(nil)
	_ gocmd.Commander[UnloadTenantMessage]   = (*UnloadTenantCommand)(nil)
)
