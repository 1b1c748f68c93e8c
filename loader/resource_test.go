package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-tenants/core"
	"github.com/goliatone/go-tenants/modules"
)

type fakeHost struct {
	units   []map[string]any
	schemas []map[string]any
	routes  []struct {
		prefix string
		routes any
	}
	store       any
	registerErr error
}

func (h *fakeHost) Register(ctx context.Context, unit core.Unit, options map[string]any) error {
	if h.registerErr != nil {
		return h.registerErr
	}
	h.units = append(h.units, options)
	if unit != nil {
		return unit(ctx, h, options)
	}
	return nil
}

func (h *fakeHost) RegisterSchema(ctx context.Context, schema map[string]any) error {
	h.schemas = append(h.schemas, schema)
	return nil
}

func (h *fakeHost) RegisterRoutes(ctx context.Context, prefix string, routes any) error {
	h.routes = append(h.routes, struct {
		prefix string
		routes any
	}{prefix, routes})
	return nil
}

func (h *fakeHost) DataStore() any { return h.store }

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newResource(t *testing.T, reg *modules.Registry) *Resource {
	t.Helper()
	loader, err := NewResource(reg)
	if err != nil {
		t.Fatalf("NewResource returned error: %v", err)
	}
	return loader
}

func TestLoadConfigMergesSortedLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10-base.yaml", "name: acme\nfeatures:\n  billing: true\n")
	writeFile(t, dir, "20-override.json", `{"features": {"billing": false, "reports": true}}`)

	loader := newResource(t, modules.NewRegistry())
	cfg, err := loader.LoadConfig(context.Background(), dir, core.TenantConfig{"id": "acme"})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg["id"] != "acme" {
		t.Fatalf("defaults lost: %v", cfg)
	}
	if cfg["name"] != "acme" {
		t.Fatalf("base layer lost: %v", cfg)
	}
	features, ok := cfg["features"].(map[string]any)
	if !ok {
		t.Fatalf("features not a map: %v", cfg["features"])
	}
	if features["billing"] != false {
		t.Fatalf("later layer must win: %v", features)
	}
	if features["reports"] != true {
		t.Fatalf("deep merge must keep sibling keys: %v", features)
	}
}

func TestLoadConfigMissingDirReturnsDefaults(t *testing.T) {
	loader := newResource(t, modules.NewRegistry())
	defaults := core.TenantConfig{"id": "acme", "active": true}

	cfg, err := loader.LoadConfig(context.Background(), filepath.Join(t.TempDir(), "absent"), defaults)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg["id"] != "acme" || cfg["active"] != true {
		t.Fatalf("expected defaults, got %v", cfg)
	}
}

func TestLoadConfigSkipsUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", "{not json")
	writeFile(t, dir, "good.yaml", "name: acme\n")

	loader := newResource(t, modules.NewRegistry())
	cfg, err := loader.LoadConfig(context.Background(), dir, core.TenantConfig{})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg["name"] != "acme" {
		t.Fatalf("valid file must still merge: %v", cfg)
	}
}

func TestLoadSchemasRequiresID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.yaml", "$id: user\ntype: object\n")
	writeFile(t, dir, "anonymous.yaml", "type: object\n")

	host := &fakeHost{}
	loader := newResource(t, modules.NewRegistry())
	count, err := loader.LoadSchemas(context.Background(), host, dir)
	if err != nil {
		t.Fatalf("LoadSchemas returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 schema, got %d", count)
	}
	if len(host.schemas) != 1 || host.schemas[0]["$id"] != "user" {
		t.Fatalf("unexpected registered schemas: %v", host.schemas)
	}
}

func TestLoadServicesConstructsFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "billing.yaml", "name: billing\nmodule: billing-svc\n")

	reg := modules.NewRegistry()
	var seenStore any
	var seenCfg core.TenantConfig
	if err := reg.Register("billing-svc", func(ctx context.Context) (core.ModuleExport, error) {
		return core.ModuleExport{Construct: func(store any, cfg core.TenantConfig) (any, error) {
			seenStore = store
			seenCfg = cfg
			return "billing-instance", nil
		}}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	host := &fakeHost{store: "db"}
	loader := newResource(t, reg)
	services, err := loader.LoadServices(context.Background(), host, dir, core.TenantConfig{"id": "acme"})
	if err != nil {
		t.Fatalf("LoadServices returned error: %v", err)
	}
	if services["billing"] != "billing-instance" {
		t.Fatalf("unexpected services %v", services)
	}
	if seenStore != "db" {
		t.Fatalf("constructor must receive host data store, got %v", seenStore)
	}
	if seenCfg.ID() != "acme" {
		t.Fatalf("constructor must receive tenant config, got %v", seenCfg)
	}
}

func TestLoadServicesSkipsUnknownModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ghost.yaml", "name: ghost\nmodule: not-registered\n")
	writeFile(t, dir, "value.yaml", "name: static\nmodule: static-svc\n")

	reg := modules.NewRegistry()
	if err := reg.Register("static-svc", func(ctx context.Context) (core.ModuleExport, error) {
		return core.ModuleExport{Value: 42}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	loader := newResource(t, reg)
	services, err := loader.LoadServices(context.Background(), &fakeHost{}, dir, core.TenantConfig{})
	if err != nil {
		t.Fatalf("LoadServices returned error: %v", err)
	}
	if len(services) != 1 || services["static"] != 42 {
		t.Fatalf("expected only the resolvable service, got %v", services)
	}
}

func TestLoadPluginRegistersUnit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plugin.yaml", "module: audit\noptions:\n  level: verbose\n")

	reg := modules.NewRegistry()
	invoked := false
	if err := reg.Register("audit", func(ctx context.Context) (core.ModuleExport, error) {
		return core.ModuleExport{Unit: func(ctx context.Context, host core.HostApp, options map[string]any) error {
			invoked = true
			return nil
		}}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	host := &fakeHost{}
	loader := newResource(t, reg)
	loaded, err := loader.LoadPlugin(context.Background(), host, dir, map[string]any{"tenant": "acme"})
	if err != nil {
		t.Fatalf("LoadPlugin returned error: %v", err)
	}
	if !loaded {
		t.Fatal("expected plugin to load")
	}
	if !invoked {
		t.Fatal("expected unit to run through host.Register")
	}
	if len(host.units) != 1 {
		t.Fatalf("expected one registration, got %d", len(host.units))
	}
	opts := host.units[0]
	if opts["tenant"] != "acme" || opts["level"] != "verbose" {
		t.Fatalf("manifest options must merge over caller options: %v", opts)
	}
}

func TestLoadPluginAbsentEntry(t *testing.T) {
	loader := newResource(t, modules.NewRegistry())
	loaded, err := loader.LoadPlugin(context.Background(), &fakeHost{}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("LoadPlugin returned error: %v", err)
	}
	if loaded {
		t.Fatal("expected no plugin")
	}
}

func TestLoadPluginNotExecutableIsSoftMiss(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plugin.yaml", "module: data-only\n")

	reg := modules.NewRegistry()
	if err := reg.Register("data-only", func(ctx context.Context) (core.ModuleExport, error) {
		return core.ModuleExport{Value: "not a unit"}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	host := &fakeHost{}
	loader := newResource(t, reg)
	loaded, err := loader.LoadPlugin(context.Background(), host, dir, nil)
	if err != nil {
		t.Fatalf("non-invocable plugin must not error, got %v", err)
	}
	if loaded {
		t.Fatal("non-invocable plugin must report not loaded")
	}
	if len(host.units) != 0 {
		t.Fatalf("nothing should register, got %d registrations", len(host.units))
	}
}

func TestLoadPluginBadManifestIsSoftMiss(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plugin.yaml", "name: nameless\n")

	host := &fakeHost{}
	loader := newResource(t, modules.NewRegistry())
	loaded, err := loader.LoadPlugin(context.Background(), host, dir, nil)
	if err != nil {
		t.Fatalf("manifest without module key must not error, got %v", err)
	}
	if loaded {
		t.Fatal("manifest without module key must report not loaded")
	}
	if len(host.units) != 0 {
		t.Fatalf("nothing should register, got %d registrations", len(host.units))
	}
}

func TestLoadPluginRoutesThroughUnitLoader(t *testing.T) {
	reg := modules.NewRegistry()
	resolutions := 0
	if err := reg.Register("audit", func(ctx context.Context) (core.ModuleExport, error) {
		resolutions++
		return core.ModuleExport{Unit: func(ctx context.Context, host core.HostApp, options map[string]any) error {
			return nil
		}}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	units, err := NewUnits(reg)
	if err != nil {
		t.Fatalf("NewUnits returned error: %v", err)
	}
	loader, err := NewResource(reg, WithUnits(units))
	if err != nil {
		t.Fatalf("NewResource returned error: %v", err)
	}

	host := &fakeHost{}
	for _, tenant := range []string{"acme", "globex"} {
		dir := t.TempDir()
		writeFile(t, dir, "plugin.yaml", "module: audit\n")
		loaded, err := loader.LoadPlugin(context.Background(), host, dir, map[string]any{"tenant_id": tenant})
		if err != nil {
			t.Fatalf("LoadPlugin(%s) returned error: %v", tenant, err)
		}
		if !loaded {
			t.Fatalf("expected plugin to load for %s", tenant)
		}
	}

	if len(host.units) != 2 {
		t.Fatalf("expected one registration per tenant, got %d", len(host.units))
	}
	if resolutions != 1 {
		t.Fatalf("unit loader must resolve the shared module once, got %d", resolutions)
	}
	if host.units[0]["tenant_id"] != "acme" || host.units[1]["tenant_id"] != "globex" {
		t.Fatalf("each registration must keep its caller options: %v", host.units)
	}
}

func TestLoadRoutesRegistersUnderPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "api.yaml", "module: api-routes\n")

	reg := modules.NewRegistry()
	bundle := map[string]string{"GET /users": "list"}
	if err := reg.Register("api-routes", func(ctx context.Context) (core.ModuleExport, error) {
		return core.ModuleExport{Routes: bundle}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	host := &fakeHost{}
	loader := newResource(t, reg)
	registered, err := loader.LoadRoutes(context.Background(), host, dir, "/acme")
	if err != nil {
		t.Fatalf("LoadRoutes returned error: %v", err)
	}
	if !registered {
		t.Fatal("expected routes to register")
	}
	if len(host.routes) != 1 || host.routes[0].prefix != "/acme" {
		t.Fatalf("unexpected route registrations: %v", host.routes)
	}
}

func TestParseFileCacheInvalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "name: before\n")

	loader := newResource(t, modules.NewRegistry())
	first, err := loader.parseFile(path)
	if err != nil {
		t.Fatalf("parseFile returned error: %v", err)
	}
	if first["name"] != "before" {
		t.Fatalf("unexpected parse %v", first)
	}

	// Push the modtime forward so the rewrite is observable even on
	// filesystems with coarse timestamps.
	if err := os.WriteFile(path, []byte("name: after\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	bumped := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, bumped, bumped); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	second, err := loader.parseFile(path)
	if err != nil {
		t.Fatalf("parseFile returned error: %v", err)
	}
	if second["name"] != "after" {
		t.Fatalf("expected cache invalidation, got %v", second)
	}
}

func TestParseFileCacheServesUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "name: first\n")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	loader := newResource(t, modules.NewRegistry())
	first, err := loader.parseFile(path)
	if err != nil {
		t.Fatalf("parseFile returned error: %v", err)
	}
	if first["name"] != "first" {
		t.Fatalf("unexpected parse %v", first)
	}

	// Rewrite with same-length contents and restore the original modtime so
	// the file stats identically. A reparse would surface the new contents.
	if err := os.WriteFile(path, []byte("name: other\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	second, err := loader.parseFile(path)
	if err != nil {
		t.Fatalf("parseFile returned error: %v", err)
	}
	if second["name"] != "first" {
		t.Fatalf("expected cached data without reparsing, got %v", second)
	}
}
