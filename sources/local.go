// Package sources holds the source adapters: the strategies that know how to
// probe, configure, and load a tenant from a concrete origin. Local tenants
// live as directories under the tenants root; package tenants resolve through
// the module registry.
package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-tenants/core"
)

const (
	configDirName   = "config"
	schemasDirName  = "schemas"
	servicesDirName = "services"
	pluginsDirName  = "plugins"
	routesDirName   = "routes"
)

// Local loads tenants from directories under the resolver's base root. The
// directory layout is conventional: config/, schemas/, services/, plugins/,
// and routes/ subdirectories, each optional.
type Local struct {
	paths     core.PathResolver
	resources core.ResourceLoader
	logger    core.Logger
}

// LocalOption mutates the adapter during construction.
type LocalOption func(*Local)

func WithLocalLogger(logger core.Logger) LocalOption {
	return func(a *Local) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewLocal(paths core.PathResolver, resources core.ResourceLoader, options ...LocalOption) (*Local, error) {
	if paths == nil {
		return nil, errors.New("sources: path resolver is required")
	}
	if resources == nil {
		return nil, errors.New("sources: resource loader is required")
	}
	adapter := &Local{paths: paths, resources: resources}
	for _, option := range options {
		if option != nil {
			option(adapter)
		}
	}
	return adapter, nil
}

func (a *Local) Kind() string {
	return core.SourceKindLocal
}

// Probe accepts locators that resolve to an existing directory under the
// base root.
func (a *Local) Probe(ctx context.Context, source core.Source) bool {
	if a == nil {
		return false
	}
	return a.paths.Exists(source.Locator, false)
}

// LoadConfig merges the tenant's config/ files over the provided defaults.
func (a *Local) LoadConfig(ctx context.Context, source core.Source, defaults core.TenantConfig) (core.TenantConfig, error) {
	if a == nil {
		return nil, errors.New("sources: local adapter is required")
	}
	dir, err := a.paths.Resolve(source.Locator)
	if err != nil {
		return nil, fmt.Errorf("sources: local config %s: %w", source.Locator, err)
	}
	return a.resources.LoadConfig(ctx, filepath.Join(dir, configDirName), defaults)
}

// LoadResources loads the tenant's resource groups in their fixed order:
// schemas, then services, then the plugin directories, then routes. Each
// subdirectory under plugins/ is one plugin and fails independently. Route
// bundles register under "/" + tenant id.
func (a *Local) LoadResources(ctx context.Context, host core.HostApp, tenant *core.TenantContext) error {
	if a == nil {
		return errors.New("sources: local adapter is required")
	}
	if host == nil {
		return errors.New("sources: host is required")
	}
	if tenant == nil {
		return errors.New("sources: tenant context is required")
	}

	dir, err := a.paths.Resolve(tenant.Source().Locator)
	if err != nil {
		return fmt.Errorf("sources: local resources %s: %w", tenant.ID(), err)
	}

	schemasDir := filepath.Join(dir, schemasDirName)
	count, err := a.resources.LoadSchemas(ctx, host, schemasDir)
	if err != nil {
		return fmt.Errorf("sources: schemas %s: %w", tenant.ID(), err)
	}
	if count > 0 {
		tenant.AddSchemaOrigin(schemasDir)
	}

	services, err := a.resources.LoadServices(ctx, host, filepath.Join(dir, servicesDirName), tenant.Config())
	if err != nil {
		return fmt.Errorf("sources: services %s: %w", tenant.ID(), err)
	}
	tenant.SetServices(services)

	loadPluginDirs(ctx, a.resources, a.logger, host, tenant, filepath.Join(dir, pluginsDirName))

	prefix := "/" + tenant.ID()
	registered, err := a.resources.LoadRoutes(ctx, host, filepath.Join(dir, routesDirName), prefix)
	if err != nil {
		return fmt.Errorf("sources: routes %s: %w", tenant.ID(), err)
	}
	if registered {
		tenant.AddRouteOrigin(prefix)
	}
	return nil
}

// loadPluginDirs loads every plugin subdirectory under root as an independent
// plugin. A failed or empty subdirectory is logged and skipped; loaded plugins
// are recorded on the tenant by directory name.
func loadPluginDirs(ctx context.Context, resources core.ResourceLoader, logger core.Logger, host core.HostApp, tenant *core.TenantContext, root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	options := map[string]any{
		"tenant_id": tenant.ID(),
		"config":    map[string]any(tenant.Config()),
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		loaded, err := resources.LoadPlugin(ctx, host, filepath.Join(root, entry.Name()), options)
		if err != nil {
			if logger != nil {
				logger.Warn("tenant plugin skipped", "tenant_id", tenant.ID(), "plugin", entry.Name(), "error", err)
			}
			continue
		}
		if loaded {
			tenant.AddPlugin(entry.Name())
		}
	}
}

var _ core.SourceAdapter = (*Local)(nil)
