package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

// Service is the tenant manager facade: it orchestrates the factory, the
// registry, and the unit loader for boot, reload, unload, and stats. The
// registry is rebuilt from source on every process start; nothing persists.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	configResolver  TenantConfigResolver
	registry        Registry
	pathResolver    PathResolver
	moduleResolver  ModuleResolver
	resourceLoader  ResourceLoader
	unitLoader      UnitLoader
	factory         *Factory
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	ConfigResolver  TenantConfigResolver
	Registry        Registry
	PathResolver    PathResolver
	ModuleResolver  ModuleResolver
	ResourceLoader  ResourceLoader
	UnitLoader      UnitLoader
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("tenants", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("tenants"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.configResolver == nil {
		builder.configResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := resolveServiceConfig(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.registry == nil {
		builder.registry = NewTenantRegistry(finalConfig.MaxTenants, finalConfig.DefaultTenant)
	}
	if builder.strategy != nil {
		builder.registry.SetStrategy(builder.strategy)
	}

	service := &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		configResolver:  builder.configResolver,
		registry:        builder.registry,
		pathResolver:    builder.pathResolver,
		moduleResolver:  builder.moduleResolver,
		resourceLoader:  builder.resourceLoader,
		unitLoader:      builder.unitLoader,
	}
	service.factory = NewFactory(builder.adapters, builder.configResolver, logger)
	return service, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// resolveServiceConfig merges the engine configuration layers: package
// defaults, provider-loaded values, then runtime overrides.
func resolveServiceConfig(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.DefaultTenant) != "" {
		layer["default_tenant"] = cfg.DefaultTenant
	}
	if includeZero || cfg.MaxTenants != 0 {
		layer["max_tenants"] = cfg.MaxTenants
	}
	if includeZero || strings.TrimSpace(cfg.TenantsRoot) != "" {
		layer["tenants_root"] = cfg.TenantsRoot
	}
	if includeZero || strings.TrimSpace(cfg.PackagePrefix) != "" {
		layer["package_prefix"] = cfg.PackagePrefix
	}
	if includeZero || len(cfg.Packages) > 0 {
		layer["packages"] = append([]string(nil), cfg.Packages...)
	}
	if includeZero || cfg.CacheSize != 0 {
		layer["cache_size"] = cfg.CacheSize
	}
	identity := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Identity.Header) != "" {
		identity["header"] = cfg.Identity.Header
	}
	if includeZero || len(cfg.Identity.ReservedSegments) > 0 {
		identity["reserved_segments"] = append([]string(nil), cfg.Identity.ReservedSegments...)
	}
	if len(identity) > 0 {
		layer["identity"] = identity
	}
	return layer
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Registry() Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		ConfigResolver:  s.configResolver,
		Registry:        s.registry,
		PathResolver:    s.pathResolver,
		ModuleResolver:  s.moduleResolver,
		ResourceLoader:  s.resourceLoader,
		UnitLoader:      s.unitLoader,
	}
}

// LoadAllTenants enumerates every declared source and builds each tenant
// independently: package specifiers first (declared dependencies filtered by
// the package prefix), then subdirectories of the local tenants root. A
// single failed build is counted and skipped, never aborting the scan.
// Sources are processed strictly sequentially so logging order and the
// capacity check stay deterministic.
func (s *Service) LoadAllTenants(ctx context.Context, host HostApp) (LoadAllResult, error) {
	startedAt := time.Now()
	result := LoadAllResult{}
	if s == nil {
		return result, fmt.Errorf("core: service is required")
	}

	for _, specifier := range s.packageSpecifiers() {
		tenant, err := s.buildAndRegister(ctx, host, Source{Locator: specifier}, "")
		if err != nil || tenant == nil {
			result.Failed++
			continue
		}
		result.Package++
	}

	for _, dir := range s.localTenantDirs() {
		tenant, err := s.buildAndRegister(ctx, host, Source{Locator: dir}, "")
		if err != nil || tenant == nil {
			result.Failed++
			continue
		}
		result.Local++
	}

	s.observeOperation(ctx, startedAt, "tenant.load_all", nil, map[string]any{
		"local":   result.Local,
		"package": result.Package,
		"failed":  result.Failed,
	})
	return result, nil
}

// LoadTenant builds and registers a single tenant. A nil context with nil
// error means the build was deliberately skipped (inactive or soft-failed).
func (s *Service) LoadTenant(ctx context.Context, host HostApp, source Source, explicitID string) (*TenantContext, error) {
	startedAt := time.Now()
	if s == nil {
		return nil, fmt.Errorf("core: service is required")
	}
	tenant, err := s.buildAndRegister(ctx, host, source, explicitID)
	s.observeOperation(ctx, startedAt, "tenant.load", err, map[string]any{
		"tenant_id": tenant.ID(),
		"source":    source.Locator,
	})
	if err != nil {
		return nil, mapBuildError(s.errorMapper, err)
	}
	return tenant, nil
}

// ReloadTenant rebuilds a registered tenant from its originally recorded
// source. The old entry is unregistered before the rebuilt one registers, so
// a concurrent lookup during that window observes "not found"; the gap is
// accepted behavior, not a transactional swap.
func (s *Service) ReloadTenant(ctx context.Context, host HostApp, id string) (*TenantContext, error) {
	startedAt := time.Now()
	if s == nil {
		return nil, fmt.Errorf("core: service is required")
	}
	current, ok := s.registry.Get(strings.TrimSpace(id))
	if !ok {
		err := fmt.Errorf("core: tenant %q: %w", id, ErrTenantNotFound)
		s.observeOperation(ctx, startedAt, "tenant.reload", err, map[string]any{"tenant_id": id})
		return nil, mapBuildError(s.errorMapper, err)
	}

	source := current.Source()
	s.registry.Unregister(current.ID())

	tenant, err := s.buildAndRegister(ctx, host, source, current.ID())
	if err == nil && tenant == nil {
		err = fmt.Errorf("core: tenant %q rebuild skipped", current.ID())
	}
	s.observeOperation(ctx, startedAt, "tenant.reload", err, map[string]any{
		"tenant_id": current.ID(),
		"source":    source.Locator,
	})
	if err != nil {
		return nil, mapBuildError(s.errorMapper, err)
	}
	return tenant, nil
}

func (s *Service) UnloadTenant(ctx context.Context, id string) bool {
	startedAt := time.Now()
	if s == nil {
		return false
	}
	removed := s.registry.Unregister(strings.TrimSpace(id))
	s.observeOperation(ctx, startedAt, "tenant.unload", nil, map[string]any{
		"tenant_id": id,
		"removed":   removed,
	})
	return removed
}

func (s *Service) GetTenant(id string) (*TenantContext, bool) {
	if s == nil {
		return nil, false
	}
	return s.registry.Get(id)
}

func (s *Service) GetAllTenants() []*TenantContext {
	if s == nil {
		return nil
	}
	return s.registry.List()
}

func (s *Service) GetStats() RegistryStats {
	if s == nil {
		return RegistryStats{}
	}
	return s.registry.Stats()
}

func (s *Service) TenantIDFromRequest(req RequestDescriptor) string {
	if s == nil {
		return ""
	}
	return s.registry.TenantIDFromRequest(req)
}

func (s *Service) buildAndRegister(ctx context.Context, host HostApp, source Source, explicitID string) (*TenantContext, error) {
	tenant, err := s.factory.Build(ctx, host, source, explicitID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, nil
	}
	if err := s.registry.Register(tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) packageSpecifiers() []string {
	prefix := strings.TrimSpace(s.config.PackagePrefix)
	specifiers := make([]string, 0, len(s.config.Packages))
	for _, pkg := range s.config.Packages {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(packageBase(pkg), prefix) {
			continue
		}
		specifiers = append(specifiers, pkg)
	}
	sort.Strings(specifiers)
	return specifiers
}

func (s *Service) localTenantDirs() []string {
	root := strings.TrimSpace(s.config.TenantsRoot)
	if root == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		s.logWarn(context.Background(), "tenants root scan failed", map[string]any{
			"root":  root,
			"error": err.Error(),
		})
		return nil
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirs = append(dirs, filepath.Join(root, entry.Name()))
	}
	sort.Strings(dirs)
	return dirs
}

func packageBase(specifier string) string {
	specifier = strings.TrimRight(specifier, "/")
	if idx := strings.LastIndex(specifier, "/"); idx >= 0 {
		return specifier[idx+1:]
	}
	return specifier
}
