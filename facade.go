package tenants

import (
	"fmt"

	tenantscommand "github.com/goliatone/go-tenants/command"
	"github.com/goliatone/go-tenants/core"
	tenantsquery "github.com/goliatone/go-tenants/query"
)

// CommandQueryService is what the facade needs from the tenant manager: the
// mutating operations and the read side. *core.Service satisfies it.
type CommandQueryService interface {
	tenantscommand.MutatingService
	tenantsquery.ReadingService
}

type Commands struct {
	LoadTenant     *tenantscommand.LoadTenantCommand
	LoadAllTenants *tenantscommand.LoadAllTenantsCommand
	ReloadTenant   *tenantscommand.ReloadTenantCommand
	UnloadTenant   *tenantscommand.UnloadTenantCommand
}

type Queries struct {
	GetTenant       *tenantsquery.GetTenantQuery
	ListTenants     *tenantsquery.ListTenantsQuery
	GetStats        *tenantsquery.GetStatsQuery
	ResolveTenantID *tenantsquery.ResolveTenantIDQuery
}

// Facade bundles the command and query handlers around one manager and one
// host application.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService, host core.HostApp) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("tenants: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		LoadTenant:     tenantscommand.NewLoadTenantCommand(service, host),
		LoadAllTenants: tenantscommand.NewLoadAllTenantsCommand(service, host),
		ReloadTenant:   tenantscommand.NewReloadTenantCommand(service, host),
		UnloadTenant:   tenantscommand.NewUnloadTenantCommand(service),
	}
	facade.queries = Queries{
		GetTenant:       tenantsquery.NewGetTenantQuery(service),
		ListTenants:     tenantsquery.NewListTenantsQuery(service),
		GetStats:        tenantsquery.NewGetStatsQuery(service),
		ResolveTenantID: tenantsquery.NewResolveTenantIDQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*core.Service)(nil)
