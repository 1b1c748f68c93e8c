package core

import (
	"testing"
)

func TestTenantConfig_ActiveDefaultsTrue(t *testing.T) {
	if !(TenantConfig{}).Active() {
		t.Fatalf("expected absent key to mean active")
	}
	if !(TenantConfig{"active": "yes"}).Active() {
		t.Fatalf("expected non-bool value to mean active")
	}
	if (TenantConfig{"active": false}).Active() {
		t.Fatalf("expected explicit false to deactivate")
	}
}

func TestTenantConfig_CloneIsDeep(t *testing.T) {
	original := TenantConfig{
		"id":   "acme",
		"meta": map[string]any{"region": "eu"},
		"tags": []any{"a", "b"},
	}
	clone := original.Clone()

	clone["meta"].(map[string]any)["region"] = "us"
	clone["tags"].([]any)[0] = "z"

	if original["meta"].(map[string]any)["region"] != "eu" {
		t.Fatalf("expected nested map to be copied")
	}
	if original["tags"].([]any)[0] != "a" {
		t.Fatalf("expected nested slice to be copied")
	}
}

func TestNewTenantContext_ValidatesAndStamps(t *testing.T) {
	if _, err := NewTenantContext("bad id", SourceKindLocal, nil); err == nil {
		t.Fatalf("expected invalid id to be rejected")
	}

	cfg := TenantConfig{"source": "tenants/acme", "active": false}
	tenant, err := NewTenantContext("acme", SourceKindLocal, cfg)
	if err != nil {
		t.Fatalf("new tenant context: %v", err)
	}
	if tenant.BuildID() == "" {
		t.Fatalf("expected a build id")
	}
	if tenant.Active() {
		t.Fatalf("expected active flag to follow config")
	}
	if tenant.Source().Locator != "tenants/acme" {
		t.Fatalf("expected source locator from config, got %q", tenant.Source().Locator)
	}

	rebuilt, err := NewTenantContext("acme", SourceKindLocal, cfg)
	if err != nil {
		t.Fatalf("rebuild tenant context: %v", err)
	}
	if rebuilt.BuildID() == tenant.BuildID() {
		t.Fatalf("expected distinct build ids per construction")
	}
}

func TestTenantContext_SnapshotSortsNames(t *testing.T) {
	tenant, err := NewTenantContext("acme", SourceKindLocal, TenantConfig{"name": "Acme"})
	if err != nil {
		t.Fatalf("new tenant context: %v", err)
	}
	tenant.SetServices(map[string]any{"zeta": 1, "alpha": 2})
	tenant.AddPlugin("mail")
	tenant.AddPlugin("audit")
	tenant.AddRouteOrigin("/acme")
	tenant.AddSchemaOrigin("tenants/acme/schemas")

	snapshot := tenant.Snapshot()
	if snapshot.ID != "acme" || snapshot.Kind != SourceKindLocal {
		t.Fatalf("unexpected identity fields: %+v", snapshot)
	}
	if len(snapshot.Services) != 2 || snapshot.Services[0] != "alpha" {
		t.Fatalf("expected sorted service names, got %v", snapshot.Services)
	}
	if len(snapshot.Plugins) != 2 || snapshot.Plugins[0] != "audit" {
		t.Fatalf("expected sorted plugin names, got %v", snapshot.Plugins)
	}
	if len(snapshot.Routes) != 1 || snapshot.Routes[0] != "/acme" {
		t.Fatalf("unexpected routes, got %v", snapshot.Routes)
	}
	if !tenant.HasPlugin("mail") {
		t.Fatalf("expected plugin membership")
	}
}

func TestRequestDescriptor_HeaderIsCaseInsensitive(t *testing.T) {
	req := RequestDescriptor{Headers: map[string]string{"x-tenant-id": " acme "}}
	if got := req.Header("X-Tenant-ID"); got != "acme" {
		t.Fatalf("expected trimmed case-insensitive lookup, got %q", got)
	}
	if got := req.Header("missing"); got != "" {
		t.Fatalf("expected empty value for absent header, got %q", got)
	}
}

func TestLoadAllResult_Tallies(t *testing.T) {
	result := LoadAllResult{Local: 2, Package: 1, Failed: 3}
	if result.Loaded() != 3 {
		t.Fatalf("expected 3 loaded, got %d", result.Loaded())
	}
	if !result.Any() {
		t.Fatalf("expected Any to report loads")
	}
	if (LoadAllResult{Failed: 5}).Any() {
		t.Fatalf("expected failures alone to not count as loaded")
	}
}
