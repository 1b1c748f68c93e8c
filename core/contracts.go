package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Unit is a registrable capability unit. The host invokes it once per
// registration; repeated registrations of the same unit carry fresh options.
type Unit func(ctx context.Context, host HostApp, options map[string]any) error

// ServiceFactory builds a tenant-scoped service instance from the host data
// store and the resolved tenant configuration.
type ServiceFactory func(store any, cfg TenantConfig) (any, error)

// ModuleLocation is the resolved position of a module. Root is the absolute
// module root for package-sourced modules and empty otherwise.
type ModuleLocation struct {
	Specifier string
	Key       string
	Root      string
}

// ModuleExport is the primary export of a loaded module. Exactly which field
// is populated depends on what the module publishes: a registrable unit, a
// constructible service, or a plain value. Package-sourced modules may also
// carry a config sub-map and a routes bundle.
type ModuleExport struct {
	Name      string
	Unit      Unit
	Construct ServiceFactory
	Value     any
	Config    map[string]any
	Routes    any
}

// ModuleResolver is the module-resolution port. Implementations map string
// specifiers to loadable module locations; the static in-process
// implementation lives in the modules package.
type ModuleResolver interface {
	Resolve(ctx context.Context, specifier string) (ModuleLocation, error)
	Load(ctx context.Context, location ModuleLocation) (ModuleExport, error)
}

// HostApp is the abstract host application tenants register against.
type HostApp interface {
	Register(ctx context.Context, unit Unit, options map[string]any) error
	RegisterSchema(ctx context.Context, schema map[string]any) error
	RegisterRoutes(ctx context.Context, prefix string, routes any) error
	DataStore() any
}

// PathResolver guards the filesystem boundary: relative paths resolve against
// a fixed base root, and absolute prefixes registered as trusted bypass the
// traversal check.
type PathResolver interface {
	Root() string
	Resolve(path string) (string, error)
	AddTrustedRoot(path string)
	IsTrusted(path string) bool
	Exists(path string, allowTrusted bool) bool
}

// ResourceLoader loads and caches the per-tenant resource groups. Loads are
// partial-failure tolerant: a bad file is logged and skipped, never aborting
// its siblings.
type ResourceLoader interface {
	LoadConfig(ctx context.Context, dir string, defaults TenantConfig) (TenantConfig, error)
	LoadSchemas(ctx context.Context, host HostApp, dir string) (int, error)
	LoadServices(ctx context.Context, host HostApp, dir string, cfg TenantConfig) (map[string]any, error)
	LoadPlugin(ctx context.Context, host HostApp, dir string, options map[string]any) (bool, error)
	LoadRoutes(ctx context.Context, host HostApp, dir string, prefix string) (bool, error)
}

// UnitLoader loads named capability units, deduplicating by cache key across
// repeated registrations.
type UnitLoader interface {
	LoadLocal(ctx context.Context, host HostApp, name string, options map[string]any) UnitResult
	LoadExternal(ctx context.Context, host HostApp, name string, options map[string]any) UnitResult
	LoadManyLocal(ctx context.Context, host HostApp, specs []UnitSpec) BatchResult
	LoadManyExternal(ctx context.Context, host HostApp, specs []UnitSpec) BatchResult
}

// SourceAdapter is the source-specific strategy for probing, configuring, and
// loading a tenant. Adapters mutate the tenant context only during the build
// phase, before the context is registered.
type SourceAdapter interface {
	Kind() string
	Probe(ctx context.Context, source Source) bool
	LoadConfig(ctx context.Context, source Source, defaults TenantConfig) (TenantConfig, error)
	LoadResources(ctx context.Context, host HostApp, tenant *TenantContext) error
}

// IdentityStrategy maps an inbound request descriptor to a candidate tenant
// id. An empty candidate means "no match"; errors are treated as misses by
// the registry.
type IdentityStrategy interface {
	TenantID(req RequestDescriptor) (string, error)
}

// Registry is the bounded identifier to tenant-context mapping.
type Registry interface {
	Register(tenant *TenantContext) error
	Unregister(id string) bool
	Get(id string) (*TenantContext, bool)
	List() []*TenantContext
	Size() int
	SetStrategy(strategy IdentityStrategy)
	TenantIDFromRequest(req RequestDescriptor) string
	Stats() RegistryStats
}

// MetricsRecorder receives operational counters and histograms. The nop
// implementation is the default.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// MaintenanceMessage describes a host-scheduled tenant maintenance run, used
// by the go-job adapter to bridge explicit reloads into a scheduler.
type MaintenanceMessage struct {
	JobID          string
	TenantID       string
	Parameters     map[string]any
	IdempotencyKey string
}
