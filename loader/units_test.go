package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-tenants/core"
	"github.com/goliatone/go-tenants/modules"
)

func registerUnit(t *testing.T, reg *modules.Registry, name string, counter *int) {
	t.Helper()
	if err := reg.Register(name, func(ctx context.Context) (core.ModuleExport, error) {
		if counter != nil {
			*counter++
		}
		return core.ModuleExport{Unit: func(ctx context.Context, host core.HostApp, options map[string]any) error {
			return nil
		}}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
}

func newUnits(t *testing.T, reg *modules.Registry) *Units {
	t.Helper()
	loader, err := NewUnits(reg)
	if err != nil {
		t.Fatalf("NewUnits returned error: %v", err)
	}
	return loader
}

func TestLoadLocalCachesResolution(t *testing.T) {
	reg := modules.NewRegistry()
	resolved := 0
	registerUnit(t, reg, "audit", &resolved)

	host := &fakeHost{}
	loader := newUnits(t, reg)

	first := loader.LoadLocal(context.Background(), host, "audit", map[string]any{"run": 1})
	if !first.Success || first.Cached {
		t.Fatalf("unexpected first result %+v", first)
	}

	second := loader.LoadLocal(context.Background(), host, "audit", map[string]any{"run": 2})
	if !second.Success || !second.Cached {
		t.Fatalf("unexpected second result %+v", second)
	}
	if resolved != 1 {
		t.Fatalf("expected one resolution, got %d", resolved)
	}
	if len(host.units) != 2 {
		t.Fatalf("cache hits must still register, got %d registrations", len(host.units))
	}
	if host.units[1]["run"] != 2 {
		t.Fatalf("cache hit must use fresh options: %v", host.units[1])
	}
}

func TestLocalAndExternalScopesAreDistinct(t *testing.T) {
	reg := modules.NewRegistry()
	resolved := 0
	registerUnit(t, reg, "audit", &resolved)

	loader := newUnits(t, reg)
	host := &fakeHost{}

	if result := loader.LoadLocal(context.Background(), host, "audit", nil); !result.Success {
		t.Fatalf("local load failed: %+v", result)
	}
	if result := loader.LoadExternal(context.Background(), host, "audit", nil); !result.Success || result.Cached {
		t.Fatalf("external scope must not hit the local cache entry: %+v", result)
	}
	if resolved != 2 {
		t.Fatalf("expected separate resolution per scope, got %d", resolved)
	}
}

func TestLoadUnknownUnit(t *testing.T) {
	loader := newUnits(t, modules.NewRegistry())
	result := loader.LoadLocal(context.Background(), &fakeHost{}, "ghost", nil)
	if result.Success {
		t.Fatal("expected failure for unknown unit")
	}
	if !errors.Is(result.Err, modules.ErrModuleNotRegistered) {
		t.Fatalf("expected ErrModuleNotRegistered, got %v", result.Err)
	}
}

func TestLoadNonExecutableModule(t *testing.T) {
	reg := modules.NewRegistry()
	if err := reg.Register("data", func(ctx context.Context) (core.ModuleExport, error) {
		return core.ModuleExport{Value: "just data"}, nil
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	loader := newUnits(t, reg)
	result := loader.LoadExternal(context.Background(), &fakeHost{}, "data", nil)
	if result.Success {
		t.Fatal("expected failure for non-executable module")
	}
	if !errors.Is(result.Err, core.ErrNotExecutable) {
		t.Fatalf("expected ErrNotExecutable, got %v", result.Err)
	}
}

func TestLoadRejectsInvalidUnitName(t *testing.T) {
	reg := modules.NewRegistry()
	resolved := 0
	registerUnit(t, reg, "audit", &resolved)

	loader := newUnits(t, reg)
	host := &fakeHost{}

	for _, name := range []string{"", "   ", "../audit", "audit/log", "audit.log"} {
		result := loader.LoadLocal(context.Background(), host, name, nil)
		if result.Success {
			t.Fatalf("expected failure for name %q", name)
		}
		if !errors.Is(result.Err, core.ErrInvalidIdentifier) {
			t.Fatalf("expected ErrInvalidIdentifier for %q, got %v", name, result.Err)
		}
	}
	if resolved != 0 {
		t.Fatalf("invalid names must never resolve, got %d resolutions", resolved)
	}
	if len(host.units) != 0 {
		t.Fatalf("invalid names must never register, got %d registrations", len(host.units))
	}
}

func TestLoadManyNeverFailsFast(t *testing.T) {
	reg := modules.NewRegistry()
	registerUnit(t, reg, "first", nil)
	registerUnit(t, reg, "third", nil)

	loader := newUnits(t, reg)
	batch := loader.LoadManyLocal(context.Background(), &fakeHost{}, []core.UnitSpec{
		{Name: "first"},
		{Name: "missing"},
		{Name: "third"},
	})

	if batch.Total != 3 {
		t.Fatalf("unexpected total %d", batch.Total)
	}
	if batch.SuccessCount != 2 {
		t.Fatalf("expected 2 successes, got %d", batch.SuccessCount)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("expected a result per spec, got %d", len(batch.Results))
	}
	if batch.Results[1].Success || batch.Results[1].Err == nil {
		t.Fatalf("middle failure must be recorded: %+v", batch.Results[1])
	}
	if !batch.Results[2].Success {
		t.Fatalf("failure must not block later specs: %+v", batch.Results[2])
	}
}

func TestLoadRegistrationFailure(t *testing.T) {
	reg := modules.NewRegistry()
	registerUnit(t, reg, "audit", nil)

	loader := newUnits(t, reg)
	host := &fakeHost{registerErr: errors.New("host rejected")}
	result := loader.LoadLocal(context.Background(), host, "audit", nil)
	if result.Success {
		t.Fatal("expected failure when host rejects registration")
	}
}
