package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Factory builds tenant contexts: it selects the first adapter that claims a
// source, merges configuration over the boot defaults, and delegates resource
// loading. Build failures are soft: they are logged and surfaced as a nil
// context so a batch boot never aborts on a single tenant.
type Factory struct {
	adapters []SourceAdapter
	resolver TenantConfigResolver
	logger   Logger
}

func NewFactory(adapters []SourceAdapter, resolver TenantConfigResolver, logger Logger) *Factory {
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	return &Factory{
		adapters: adapters,
		resolver: resolver,
		logger:   logger,
	}
}

// Build returns (nil, nil) when the merged config marks the tenant inactive
// or when resource loading fails: both are deliberate skips, not errors. A
// hard error is returned only when no adapter claims the source or the
// identifier is invalid.
func (f *Factory) Build(ctx context.Context, host HostApp, source Source, explicitID string) (*TenantContext, error) {
	if f == nil {
		return nil, fmt.Errorf("core: factory is required")
	}
	if source.IsZero() {
		return nil, fmt.Errorf("core: tenant source is required")
	}

	adapter := f.selectAdapter(ctx, source)
	if adapter == nil {
		return nil, fmt.Errorf("core: source %q: %w", source.Locator, ErrNoAdapter)
	}

	id, err := f.resolveID(ctx, adapter, source, explicitID)
	if err != nil {
		return nil, err
	}

	defaults := TenantConfig{
		"id":     id,
		"name":   id,
		"active": true,
		"source": source.Locator,
	}
	cfg, err := adapter.LoadConfig(ctx, source, defaults)
	if err != nil {
		f.logWarn("tenant config load failed", map[string]any{
			"tenant_id": id,
			"source":    source.Locator,
			"kind":      adapter.Kind(),
			"error":     err.Error(),
		})
		return nil, nil
	}
	if !cfg.Active() {
		f.logInfo("tenant inactive, skipping", map[string]any{
			"tenant_id": id,
			"source":    source.Locator,
		})
		return nil, nil
	}

	tenant, err := NewTenantContext(id, adapter.Kind(), cfg)
	if err != nil {
		return nil, err
	}

	if err := adapter.LoadResources(ctx, host, tenant); err != nil {
		f.logWarn("tenant resource load failed", map[string]any{
			"tenant_id": id,
			"source":    source.Locator,
			"kind":      adapter.Kind(),
			"error":     err.Error(),
		})
		return nil, nil
	}
	return tenant, nil
}

func (f *Factory) selectAdapter(ctx context.Context, source Source) SourceAdapter {
	for _, adapter := range f.adapters {
		if adapter == nil {
			continue
		}
		if adapter.Probe(ctx, source) {
			return adapter
		}
	}
	return nil
}

// resolveID applies the id precedence: explicit id, then a package-derived
// name, then the source basename. Whatever wins must validate.
func (f *Factory) resolveID(ctx context.Context, adapter SourceAdapter, source Source, explicitID string) (string, error) {
	candidate := strings.TrimSpace(explicitID)
	if candidate == "" {
		if namer, ok := adapter.(interface {
			DeriveName(ctx context.Context, source Source) string
		}); ok {
			candidate = strings.TrimSpace(namer.DeriveName(ctx, source))
		}
	}
	if candidate == "" {
		candidate = filepath.Base(strings.TrimRight(source.Locator, "/\\"))
	}
	return ValidateIdentifier(candidate)
}

func (f *Factory) logInfo(message string, fields map[string]any) {
	if f == nil || f.logger == nil {
		return
	}
	logger := f.logger
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		fieldsLogger.WithFields(cloneFields(fields)).Info(message)
		return
	}
	logger.Info(message, flattenFields(fields)...)
}

func (f *Factory) logWarn(message string, fields map[string]any) {
	if f == nil || f.logger == nil {
		return
	}
	logger := f.logger
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		fieldsLogger.WithFields(cloneFields(fields)).Warn(message)
		return
	}
	logger.Warn(message, flattenFields(fields)...)
}
