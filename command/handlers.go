package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tenants/core"
)

// MutatingService is the slice of the tenant manager the command handlers
// need: the operations that change registry state.
type MutatingService interface {
	LoadTenant(ctx context.Context, host core.HostApp, source core.Source, explicitID string) (*core.TenantContext, error)
	LoadAllTenants(ctx context.Context, host core.HostApp) (core.LoadAllResult, error)
	ReloadTenant(ctx context.Context, host core.HostApp, id string) (*core.TenantContext, error)
	UnloadTenant(ctx context.Context, id string) bool
}

type LoadTenantCommand struct {
	service MutatingService
	host    core.HostApp
}

func NewLoadTenantCommand(service MutatingService, host core.HostApp) *LoadTenantCommand {
	return &LoadTenantCommand{service: service, host: host}
}

func (c *LoadTenantCommand) Execute(ctx context.Context, msg LoadTenantMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tenant service is required")
	}
	tenant, err := c.service.LoadTenant(ctx, c.host, msg.Source, msg.ID)
	if err != nil {
		return err
	}
	storeResult(ctx, tenant)
	return nil
}

type LoadAllTenantsCommand struct {
	service MutatingService
	host    core.HostApp
}

func NewLoadAllTenantsCommand(service MutatingService, host core.HostApp) *LoadAllTenantsCommand {
	return &LoadAllTenantsCommand{service: service, host: host}
}

func (c *LoadAllTenantsCommand) Execute(ctx context.Context, msg LoadAllTenantsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tenant service is required")
	}
	out, err := c.service.LoadAllTenants(ctx, c.host)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReloadTenantCommand struct {
	service MutatingService
	host    core.HostApp
}

func NewReloadTenantCommand(service MutatingService, host core.HostApp) *ReloadTenantCommand {
	return &ReloadTenantCommand{service: service, host: host}
}

func (c *ReloadTenantCommand) Execute(ctx context.Context, msg ReloadTenantMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tenant service is required")
	}
	tenant, err := c.service.ReloadTenant(ctx, c.host, msg.ID)
	if err != nil {
		return err
	}
	storeResult(ctx, tenant)
	return nil
}

type UnloadTenantCommand struct {
	service MutatingService
}

func NewUnloadTenantCommand(service MutatingService) *UnloadTenantCommand {
	return &UnloadTenantCommand{service: service}
}

func (c *UnloadTenantCommand) Execute(ctx context.Context, msg UnloadTenantMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tenant service is required")
	}
	storeResult(ctx, c.service.UnloadTenant(ctx, msg.ID))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
