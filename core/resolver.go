package core

import (
	"fmt"
	"strconv"

	opts "github.com/goliatone/go-options"
)

// TenantConfigResolver merges configuration layers into a single
// TenantConfig. The merge must be deterministic: later layers override
// earlier keys deep-wise for maps and replace for slices.
type TenantConfigResolver interface {
	Resolve(defaults TenantConfig, layers ...TenantConfig) (TenantConfig, error)
}

// GoOptionsResolver implements the layered merge on the go-options stack:
// defaults at scope priority 0, each subsequent layer ten higher.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults TenantConfig, layers ...TenantConfig) (TenantConfig, error) {
	stackLayers := make([]opts.Layer[map[string]any], 0, len(layers)+1)
	stackLayers = append(stackLayers, opts.NewLayer(
		opts.NewScope("defaults", 0),
		map[string]any(defaults.Clone()),
		opts.WithSnapshotID[map[string]any]("defaults"),
	))
	for idx, layer := range layers {
		name := "layer_" + strconv.Itoa(idx)
		stackLayers = append(stackLayers, opts.NewLayer(
			opts.NewScope(name, (idx+1)*10),
			map[string]any(layer.Clone()),
			opts.WithSnapshotID[map[string]any](name),
		))
	}

	stack, err := opts.NewStack(stackLayers...)
	if err != nil {
		return TenantConfig{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return TenantConfig{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	return TenantConfig(merged.Value), nil
}

var _ TenantConfigResolver = GoOptionsResolver{}
