// Package tenants loads, registers, and resolves application tenants at
// runtime. Tenants are discovered from local directories or installed
// packages, built through source adapters, and tracked in a bounded registry
// keyed by validated identifiers. The core package holds the contracts; this
// package wires the default implementations together.
package tenants

import (
	"fmt"

	"github.com/goliatone/go-tenants/core"
	"github.com/goliatone/go-tenants/identity"
	"github.com/goliatone/go-tenants/loader"
	"github.com/goliatone/go-tenants/paths"
	"github.com/goliatone/go-tenants/sources"
)

type Config = core.Config

type IdentityConfig = core.IdentityConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type TenantConfig = core.TenantConfig
type TenantContext = core.TenantContext
type Snapshot = core.Snapshot
type Source = core.Source
type RequestDescriptor = core.RequestDescriptor
type RegistryStats = core.RegistryStats
type LoadAllResult = core.LoadAllResult

type HostApp = core.HostApp
type ModuleResolver = core.ModuleResolver
type ModuleExport = core.ModuleExport
type ModuleLocation = core.ModuleLocation
type Unit = core.Unit
type ServiceFactory = core.ServiceFactory
type IdentityStrategy = core.IdentityStrategy
type SourceAdapter = core.SourceAdapter

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorFactory     = core.WithErrorFactory
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithConfigResolver   = core.WithConfigResolver
	WithRegistry         = core.WithRegistry
	WithPathResolver     = core.WithPathResolver
	WithModuleResolver   = core.WithModuleResolver
	WithResourceLoader   = core.WithResourceLoader
	WithUnitLoader       = core.WithUnitLoader
	WithAdapters         = core.WithAdapters
	WithIdentityStrategy = core.WithIdentityStrategy
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

// Setup builds a manager with the default wiring: a path resolver rooted at
// the configured tenants root, cached resource and unit loaders, the package
// and local source adapters (probed in that order), and the conventional
// identification chain. Caller options apply last and override any default.
func Setup(cfg Config, moduleResolver core.ModuleResolver, opts ...Option) (*Service, error) {
	if moduleResolver == nil {
		return nil, fmt.Errorf("tenants: module resolver is required")
	}
	if cfg.TenantsRoot == "" {
		cfg.TenantsRoot = DefaultConfig().TenantsRoot
	}

	pathResolver, err := paths.New(cfg.TenantsRoot)
	if err != nil {
		return nil, fmt.Errorf("tenants: path resolver: %w", err)
	}
	units, err := loader.NewUnits(moduleResolver, loader.WithUnitsCacheSize(cfg.CacheSize))
	if err != nil {
		return nil, fmt.Errorf("tenants: unit loader: %w", err)
	}
	resources, err := loader.NewResource(moduleResolver,
		loader.WithCacheSize(cfg.CacheSize),
		loader.WithUnits(units))
	if err != nil {
		return nil, fmt.Errorf("tenants: resource loader: %w", err)
	}
	packageAdapter, err := sources.NewPackage(moduleResolver, pathResolver, resources,
		sources.WithPackagePrefix(cfg.PackagePrefix))
	if err != nil {
		return nil, fmt.Errorf("tenants: package adapter: %w", err)
	}
	localAdapter, err := sources.NewLocal(pathResolver, resources)
	if err != nil {
		return nil, fmt.Errorf("tenants: local adapter: %w", err)
	}

	defaults := []Option{
		WithPathResolver(pathResolver),
		WithModuleResolver(moduleResolver),
		WithResourceLoader(resources),
		WithUnitLoader(units),
		WithAdapters(packageAdapter, localAdapter),
		WithIdentityStrategy(identity.Default(cfg.Identity.Header, cfg.Identity.ReservedSegments)),
	}
	return core.NewService(cfg, append(defaults, opts...)...)
}
