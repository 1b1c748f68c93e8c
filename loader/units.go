package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goliatone/go-tenants/core"
)

const (
	localScope    = "local"
	externalScope = "pkg"
)

// Units loads named capability units through the module resolver and
// deduplicates resolution by scoped cache key. A cache hit still registers
// the unit with the host using the caller's fresh options; only resolution
// and loading are skipped.
type Units struct {
	modules core.ModuleResolver
	logger  core.Logger
	cache   *lru.Cache[string, core.Unit]
}

// UnitsOption mutates the loader during construction.
type UnitsOption func(*Units)

func WithUnitsLogger(logger core.Logger) UnitsOption {
	return func(u *Units) {
		if logger != nil {
			u.logger = logger
		}
	}
}

func WithUnitsCacheSize(size int) UnitsOption {
	return func(u *Units) {
		if size > 0 {
			cache, err := lru.New[string, core.Unit](size)
			if err == nil {
				u.cache = cache
			}
		}
	}
}

func NewUnits(modules core.ModuleResolver, options ...UnitsOption) (*Units, error) {
	if modules == nil {
		return nil, errors.New("loader: module resolver is required")
	}
	cache, err := lru.New[string, core.Unit](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("loader: cache init failed: %w", err)
	}
	loader := &Units{modules: modules, cache: cache}
	for _, option := range options {
		if option != nil {
			option(loader)
		}
	}
	return loader, nil
}

// LoadLocal loads a unit shipped with the tenant itself.
func (u *Units) LoadLocal(ctx context.Context, host core.HostApp, name string, options map[string]any) core.UnitResult {
	return u.load(ctx, host, localScope, name, options)
}

// LoadExternal loads a unit provided by an installed package.
func (u *Units) LoadExternal(ctx context.Context, host core.HostApp, name string, options map[string]any) core.UnitResult {
	return u.load(ctx, host, externalScope, name, options)
}

// LoadManyLocal loads units sequentially; a failed unit never blocks the
// rest of the batch.
func (u *Units) LoadManyLocal(ctx context.Context, host core.HostApp, specs []core.UnitSpec) core.BatchResult {
	return u.loadMany(ctx, host, localScope, specs)
}

func (u *Units) LoadManyExternal(ctx context.Context, host core.HostApp, specs []core.UnitSpec) core.BatchResult {
	return u.loadMany(ctx, host, externalScope, specs)
}

func (u *Units) loadMany(ctx context.Context, host core.HostApp, scope string, specs []core.UnitSpec) core.BatchResult {
	batch := core.BatchResult{Total: len(specs), Results: make([]core.UnitResult, 0, len(specs))}
	for _, spec := range specs {
		result := u.load(ctx, host, scope, spec.Name, spec.Options)
		if result.Success {
			batch.SuccessCount++
		}
		batch.Results = append(batch.Results, result)
	}
	return batch
}

func (u *Units) load(ctx context.Context, host core.HostApp, scope string, name string, options map[string]any) core.UnitResult {
	result := core.UnitResult{Name: strings.TrimSpace(name)}
	if u == nil {
		result.Err = errors.New("loader: unit loader is required")
		return result
	}
	if host == nil {
		result.Err = errors.New("loader: host is required")
		return result
	}
	name, err := core.ValidateIdentifier(result.Name)
	if err != nil {
		result.Err = fmt.Errorf("loader: unit name %q: %w", result.Name, err)
		return result
	}
	result.Name = name

	key := scope + ":" + result.Name
	unit, cached := u.cache.Get(key)
	if !cached {
		loaded, err := u.resolveUnit(ctx, result.Name)
		if err != nil {
			result.Err = err
			u.warn("tenant unit load failed", "unit", result.Name, "scope", scope, "error", err)
			return result
		}
		unit = loaded
		u.cache.Add(key, unit)
	}
	result.Cached = cached

	if err := host.Register(ctx, unit, options); err != nil {
		result.Err = fmt.Errorf("loader: unit registration %s: %w", result.Name, err)
		u.warn("tenant unit registration failed", "unit", result.Name, "scope", scope, "error", err)
		return result
	}
	result.Success = true
	return result
}

func (u *Units) resolveUnit(ctx context.Context, name string) (core.Unit, error) {
	location, err := u.modules.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	export, err := u.modules.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	if export.Unit == nil {
		return nil, fmt.Errorf("loader: unit %s: %w", name, core.ErrNotExecutable)
	}
	return export.Unit, nil
}

func (u *Units) warn(message string, args ...any) {
	if u == nil || u.logger == nil {
		return
	}
	u.logger.Warn(message, args...)
}

var _ core.UnitLoader = (*Units)(nil)
