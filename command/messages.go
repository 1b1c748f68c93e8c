package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-tenants/core"
)

const (
	TypeLoadTenant     = "tenants.command.load"
	TypeLoadAllTenants = "tenants.command.load_all"
	TypeReloadTenant   = "tenants.command.reload"
	TypeUnloadTenant   = "tenants.command.unload"
)

type LoadTenantMessage struct {
	Source core.Source
	ID     string
}

func (LoadTenantMessage) Type() string { return TypeLoadTenant }

func (m LoadTenantMessage) Validate() error {
	if strings.TrimSpace(m.Source.Locator) == "" {
		return commandInvalidInputError("command: source locator is required")
	}
	if strings.TrimSpace(m.ID) != "" {
		if _, err := core.ValidateIdentifier(m.ID); err != nil {
			return commandInvalidInputError(fmt.Sprintf("command: %v", err))
		}
	}
	return nil
}

type LoadAllTenantsMessage struct{}

func (LoadAllTenantsMessage) Type() string { return TypeLoadAllTenants }

func (LoadAllTenantsMessage) Validate() error { return nil }

type ReloadTenantMessage struct {
	ID string
}

func (ReloadTenantMessage) Type() string { return TypeReloadTenant }

func (m ReloadTenantMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: tenant id is required")
	}
	return nil
}

type UnloadTenantMessage struct {
	ID string
}

func (UnloadTenantMessage) Type() string { return TypeUnloadTenant }

func (m UnloadTenantMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: tenant id is required")
	}
	return nil
}
