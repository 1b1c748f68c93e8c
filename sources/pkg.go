package sources

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-tenants/core"
)

// Package loads tenants published as installed packages. The locator is a
// module specifier; resolution happens through the module registry, and the
// package's on-disk root, when it has one, is marked trusted so its internal
// resource files pass the path boundary.
type Package struct {
	paths     core.PathResolver
	resources core.ResourceLoader
	modules   core.ModuleResolver
	prefix    string
	logger    core.Logger
}

// PackageOption mutates the adapter during construction.
type PackageOption func(*Package)

func WithPackageLogger(logger core.Logger) PackageOption {
	return func(a *Package) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPackagePrefix sets the naming prefix stripped when deriving tenant ids
// from package specifiers.
func WithPackagePrefix(prefix string) PackageOption {
	return func(a *Package) {
		a.prefix = strings.TrimSpace(prefix)
	}
}

func NewPackage(modules core.ModuleResolver, paths core.PathResolver, resources core.ResourceLoader, options ...PackageOption) (*Package, error) {
	if modules == nil {
		return nil, errors.New("sources: module resolver is required")
	}
	if paths == nil {
		return nil, errors.New("sources: path resolver is required")
	}
	if resources == nil {
		return nil, errors.New("sources: resource loader is required")
	}
	adapter := &Package{modules: modules, paths: paths, resources: resources}
	for _, option := range options {
		if option != nil {
			option(adapter)
		}
	}
	return adapter, nil
}

func (a *Package) Kind() string {
	return core.SourceKindPackage
}

// Probe accepts locators the module registry can resolve.
func (a *Package) Probe(ctx context.Context, source core.Source) bool {
	if a == nil {
		return false
	}
	_, err := a.modules.Resolve(ctx, source.Locator)
	return err == nil
}

// DeriveName derives the tenant id from the package specifier: the last path
// segment with the package prefix stripped.
func (a *Package) DeriveName(ctx context.Context, source core.Source) string {
	if a == nil {
		return ""
	}
	base := source.Locator
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if a.prefix != "" {
		base = strings.TrimPrefix(base, a.prefix)
	}
	return strings.TrimSpace(base)
}

// LoadConfig layers, from weakest to strongest: defaults, the package's
// exported config, then the config/ files under the package root. Resolving
// the package also marks its root trusted.
func (a *Package) LoadConfig(ctx context.Context, source core.Source, defaults core.TenantConfig) (core.TenantConfig, error) {
	if a == nil {
		return nil, errors.New("sources: package adapter is required")
	}
	location, export, err := a.resolve(ctx, source.Locator)
	if err != nil {
		return nil, err
	}

	base := defaults
	if len(export.Config) > 0 {
		merged, err := core.GoOptionsResolver{}.Resolve(defaults, core.TenantConfig(export.Config))
		if err != nil {
			return nil, fmt.Errorf("sources: package config merge %s: %w", source.Locator, err)
		}
		base = merged
	}
	if location.Root == "" {
		return base.Clone(), nil
	}
	return a.resources.LoadConfig(ctx, filepath.Join(location.Root, configDirName), base)
}

// LoadResources registers the package's primary unit, then loads the
// conventional resource directories under the package root the same way the
// local adapter does, plugin subdirectories included. The root was marked
// trusted during config loading, so those directories resolve.
func (a *Package) LoadResources(ctx context.Context, host core.HostApp, tenant *core.TenantContext) error {
	if a == nil {
		return errors.New("sources: package adapter is required")
	}
	if host == nil {
		return errors.New("sources: host is required")
	}
	if tenant == nil {
		return errors.New("sources: tenant context is required")
	}

	locator := tenant.Source().Locator
	location, export, err := a.resolve(ctx, locator)
	if err != nil {
		return err
	}

	if export.Unit != nil {
		options := map[string]any{
			"tenant_id": tenant.ID(),
			"config":    map[string]any(tenant.Config()),
		}
		if err := host.Register(ctx, export.Unit, options); err != nil {
			return fmt.Errorf("sources: package unit %s: %w", locator, err)
		}
		tenant.AddPlugin(locator)
	}

	if export.Routes != nil {
		prefix := "/" + tenant.ID()
		if err := host.RegisterRoutes(ctx, prefix, export.Routes); err != nil {
			return fmt.Errorf("sources: package routes %s: %w", locator, err)
		}
		tenant.AddRouteOrigin(prefix)
	}

	if location.Root == "" {
		return nil
	}

	schemasDir := filepath.Join(location.Root, schemasDirName)
	count, err := a.resources.LoadSchemas(ctx, host, schemasDir)
	if err != nil {
		return fmt.Errorf("sources: package schemas %s: %w", locator, err)
	}
	if count > 0 {
		tenant.AddSchemaOrigin(schemasDir)
	}

	services, err := a.resources.LoadServices(ctx, host, filepath.Join(location.Root, servicesDirName), tenant.Config())
	if err != nil {
		return fmt.Errorf("sources: package services %s: %w", locator, err)
	}
	if len(services) > 0 {
		tenant.SetServices(services)
	}

	loadPluginDirs(ctx, a.resources, a.logger, host, tenant, filepath.Join(location.Root, pluginsDirName))

	prefix := "/" + tenant.ID()
	registered, err := a.resources.LoadRoutes(ctx, host, filepath.Join(location.Root, routesDirName), prefix)
	if err != nil {
		return fmt.Errorf("sources: package route manifests %s: %w", locator, err)
	}
	if registered {
		tenant.AddRouteOrigin(prefix)
	}
	return nil
}

func (a *Package) resolve(ctx context.Context, locator string) (core.ModuleLocation, core.ModuleExport, error) {
	location, err := a.modules.Resolve(ctx, locator)
	if err != nil {
		return core.ModuleLocation{}, core.ModuleExport{}, fmt.Errorf("sources: package resolve %s: %w", locator, err)
	}
	if location.Root != "" {
		a.paths.AddTrustedRoot(location.Root)
	}
	export, err := a.modules.Load(ctx, location)
	if err != nil {
		return core.ModuleLocation{}, core.ModuleExport{}, fmt.Errorf("sources: package load %s: %w", locator, err)
	}
	return location, export, nil
}

var _ core.SourceAdapter = (*Package)(nil)
