// Package loader reads the per-tenant resource groups from disk: config
// layers, schema documents, service manifests, plugin entry points, and route
// bundles. Parsed files are cached by path and invalidated on modification,
// so tenant reloads reparse only what changed.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-tenants/core"
)

const DefaultCacheSize = 256

// pluginEntryNames are the manifest names probed, in order, by LoadPlugin.
var pluginEntryNames = []string{"plugin.yaml", "plugin.yml", "plugin.json"}

type cacheEntry struct {
	modTime time.Time
	size    int64
	data    map[string]any
}

// Resource loads tenant resource directories. Each Load method tolerates
// partial failure: an unparseable or incomplete file is logged and skipped,
// never fatal for the directory.
type Resource struct {
	modules  core.ModuleResolver
	resolver core.TenantConfigResolver
	units    core.UnitLoader
	logger   core.Logger
	cache    *lru.Cache[string, cacheEntry]
}

// ResourceOption mutates the loader during construction.
type ResourceOption func(*Resource)

func WithResourceLogger(logger core.Logger) ResourceOption {
	return func(r *Resource) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithUnits routes plugin registration through the shared unit loader, so a
// unit used by many tenants is resolved once and re-registered per tenant.
func WithUnits(units core.UnitLoader) ResourceOption {
	return func(r *Resource) {
		if units != nil {
			r.units = units
		}
	}
}

func WithConfigResolver(resolver core.TenantConfigResolver) ResourceOption {
	return func(r *Resource) {
		if resolver != nil {
			r.resolver = resolver
		}
	}
}

// WithCacheSize bounds the parsed-file cache. Values below one fall back to
// the default.
func WithCacheSize(size int) ResourceOption {
	return func(r *Resource) {
		if size > 0 {
			cache, err := lru.New[string, cacheEntry](size)
			if err == nil {
				r.cache = cache
			}
		}
	}
}

func NewResource(modules core.ModuleResolver, options ...ResourceOption) (*Resource, error) {
	if modules == nil {
		return nil, errors.New("loader: module resolver is required")
	}
	cache, err := lru.New[string, cacheEntry](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("loader: cache init failed: %w", err)
	}
	loader := &Resource{
		modules:  modules,
		resolver: core.GoOptionsResolver{},
		cache:    cache,
	}
	for _, option := range options {
		if option != nil {
			option(loader)
		}
	}
	return loader, nil
}

// LoadConfig merges the config files under dir over the provided defaults.
// Files merge in lexicographic name order; a missing directory yields the
// defaults unchanged.
func (r *Resource) LoadConfig(ctx context.Context, dir string, defaults core.TenantConfig) (core.TenantConfig, error) {
	if r == nil {
		return nil, errors.New("loader: resource loader is required")
	}
	files, err := r.listParseable(dir)
	if err != nil {
		return defaults.Clone(), nil
	}

	layers := make([]core.TenantConfig, 0, len(files))
	for _, path := range files {
		data, err := r.parseFile(path)
		if err != nil {
			r.warn("tenant config file skipped", "path", path, "error", err)
			continue
		}
		layers = append(layers, core.TenantConfig(data))
	}
	return r.resolver.Resolve(defaults, layers...)
}

// LoadSchemas registers every schema document under dir with the host and
// returns how many were accepted. Documents without a non-empty "$id" are
// skipped.
func (r *Resource) LoadSchemas(ctx context.Context, host core.HostApp, dir string) (int, error) {
	if r == nil {
		return 0, errors.New("loader: resource loader is required")
	}
	if host == nil {
		return 0, errors.New("loader: host is required")
	}
	files, err := r.listParseable(dir)
	if err != nil {
		return 0, nil
	}

	registered := 0
	for _, path := range files {
		data, err := r.parseFile(path)
		if err != nil {
			r.warn("tenant schema file skipped", "path", path, "error", err)
			continue
		}
		id, _ := data["$id"].(string)
		if strings.TrimSpace(id) == "" {
			r.warn("tenant schema missing $id", "path", path)
			continue
		}
		if err := host.RegisterSchema(ctx, data); err != nil {
			r.warn("tenant schema registration failed", "path", path, "schema_id", id, "error", err)
			continue
		}
		registered++
	}
	return registered, nil
}

// LoadServices instantiates the services described by the manifests under
// dir. Each manifest names a module; the module's constructor receives the
// host data store and the resolved tenant configuration.
func (r *Resource) LoadServices(ctx context.Context, host core.HostApp, dir string, cfg core.TenantConfig) (map[string]any, error) {
	if r == nil {
		return nil, errors.New("loader: resource loader is required")
	}
	if host == nil {
		return nil, errors.New("loader: host is required")
	}
	services := make(map[string]any)
	files, err := r.listParseable(dir)
	if err != nil {
		return services, nil
	}

	for _, path := range files {
		spec, err := r.parseManifest(path)
		if err != nil {
			r.warn("tenant service manifest skipped", "path", path, "error", err)
			continue
		}
		export, err := r.loadModule(ctx, spec.Module)
		if err != nil {
			r.warn("tenant service module unavailable", "path", path, "module", spec.Module, "error", err)
			continue
		}

		var instance any
		switch {
		case export.Construct != nil:
			instance, err = export.Construct(host.DataStore(), cfg)
			if err != nil {
				r.warn("tenant service construction failed", "path", path, "module", spec.Module, "error", err)
				continue
			}
		case export.Value != nil:
			instance = export.Value
		default:
			r.warn("tenant service module exports nothing constructible", "path", path, "module", spec.Module)
			continue
		}

		name := spec.Name
		if name == "" {
			name = export.Name
		}
		if name == "" {
			name = spec.Module
		}
		services[name] = instance
	}
	return services, nil
}

// LoadPlugin loads the plugin entry manifest under dir, if one exists, and
// registers the named unit with the host. A missing, unparseable, or
// non-invocable entry is a soft miss: logged and reported as false, never an
// error, so one broken plugin cannot take its tenant down.
func (r *Resource) LoadPlugin(ctx context.Context, host core.HostApp, dir string, options map[string]any) (bool, error) {
	if r == nil {
		return false, errors.New("loader: resource loader is required")
	}
	if host == nil {
		return false, errors.New("loader: host is required")
	}

	var path string
	for _, name := range pluginEntryNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			path = candidate
			break
		}
	}
	if path == "" {
		return false, nil
	}

	spec, err := r.parseManifest(path)
	if err != nil {
		r.warn("tenant plugin manifest skipped", "path", path, "error", err)
		return false, nil
	}
	merged := mergeOptions(options, spec.Options)

	if r.units != nil {
		result := r.units.LoadLocal(ctx, host, spec.Module, merged)
		if result.Err != nil {
			r.warn("tenant plugin unit skipped", "path", path, "module", spec.Module, "error", result.Err)
			return false, nil
		}
		return result.Success, nil
	}

	export, err := r.loadModule(ctx, spec.Module)
	if err != nil {
		r.warn("tenant plugin module unavailable", "path", path, "module", spec.Module, "error", err)
		return false, nil
	}
	if export.Unit == nil {
		r.warn("tenant plugin module is not executable", "path", path, "module", spec.Module)
		return false, nil
	}
	if err := host.Register(ctx, export.Unit, merged); err != nil {
		r.warn("tenant plugin registration failed", "path", path, "module", spec.Module, "error", err)
		return false, nil
	}
	return true, nil
}

// LoadRoutes registers the route bundles described by the manifests under
// dir beneath the given prefix. Returns true when at least one bundle
// registered.
func (r *Resource) LoadRoutes(ctx context.Context, host core.HostApp, dir string, prefix string) (bool, error) {
	if r == nil {
		return false, errors.New("loader: resource loader is required")
	}
	if host == nil {
		return false, errors.New("loader: host is required")
	}
	files, err := r.listParseable(dir)
	if err != nil {
		return false, nil
	}

	registered := false
	for _, path := range files {
		spec, err := r.parseManifest(path)
		if err != nil {
			r.warn("tenant route manifest skipped", "path", path, "error", err)
			continue
		}
		export, err := r.loadModule(ctx, spec.Module)
		if err != nil {
			r.warn("tenant route module unavailable", "path", path, "module", spec.Module, "error", err)
			continue
		}
		routes := export.Routes
		if routes == nil {
			routes = export.Value
		}
		if routes == nil {
			r.warn("tenant route module exports no routes", "path", path, "module", spec.Module)
			continue
		}
		if err := host.RegisterRoutes(ctx, prefix, routes); err != nil {
			r.warn("tenant route registration failed", "path", path, "module", spec.Module, "error", err)
			continue
		}
		registered = true
	}
	return registered, nil
}

type manifest struct {
	Name    string
	Module  string
	Options map[string]any
}

func (r *Resource) parseManifest(path string) (manifest, error) {
	data, err := r.parseFile(path)
	if err != nil {
		return manifest{}, err
	}
	spec := manifest{}
	if name, ok := data["name"].(string); ok {
		spec.Name = strings.TrimSpace(name)
	}
	if module, ok := data["module"].(string); ok {
		spec.Module = strings.TrimSpace(module)
	}
	if options, ok := data["options"].(map[string]any); ok {
		spec.Options = options
	}
	if spec.Module == "" {
		return manifest{}, errors.New("manifest has no module key")
	}
	return spec, nil
}

func (r *Resource) loadModule(ctx context.Context, specifier string) (core.ModuleExport, error) {
	location, err := r.modules.Resolve(ctx, specifier)
	if err != nil {
		return core.ModuleExport{}, err
	}
	return r.modules.Load(ctx, location)
}

// parseFile parses a yaml or json file into a map, reusing the cached result
// while the file's size and modification time are unchanged.
func (r *Resource) parseFile(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if entry, ok := r.cache.Get(path); ok {
		if entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			return map[string]any(core.TenantConfig(entry.data).Clone()), nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = k.Load(rawbytes.Provider(raw), kyaml.Parser())
	case ".json":
		err = k.Load(rawbytes.Provider(raw), kjson.Parser())
	default:
		return nil, fmt.Errorf("unsupported file type %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	data := k.Raw()
	r.cache.Add(path, cacheEntry{modTime: info.ModTime(), size: info.Size(), data: data})
	return map[string]any(core.TenantConfig(data).Clone()), nil
}

// listParseable returns the parseable files directly under dir, sorted by
// name. Missing directories surface as an error so callers can treat them as
// empty.
func (r *Resource) listParseable(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *Resource) warn(message string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Warn(message, args...)
}

func mergeOptions(base map[string]any, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overlay {
		merged[key] = value
	}
	return merged
}

var _ core.ResourceLoader = (*Resource)(nil)
