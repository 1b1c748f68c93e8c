package tenants

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-tenants/modules"
)

// ModuleRegistration is one module offered by a pack: the registry key, the
// factory behind it, and the optional on-disk root for package tenants.
type ModuleRegistration struct {
	Key     string
	Factory modules.Factory
	Root    string
}

// ModulePack is a named batch of module registrations, typically one per
// feature area a host application ships.
type ModulePack struct {
	Name    string
	Modules []ModuleRegistration
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

// ExtensionHooks collects module packs and command/query bundle factories
// from host extensions before the manager boots, then applies them in
// deterministic name order.
type ExtensionHooks struct {
	mu sync.RWMutex

	modulePacks map[string]ModulePack
	bundles     map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		modulePacks: map[string]ModulePack{},
		bundles:     map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterModulePack(pack ModulePack) error {
	if h == nil {
		return fmt.Errorf("tenants: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("tenants: module pack name is required")
	}
	if len(pack.Modules) == 0 {
		return fmt.Errorf("tenants: module pack %q has no modules", name)
	}
	for _, registration := range pack.Modules {
		if strings.TrimSpace(registration.Key) == "" {
			return fmt.Errorf("tenants: module pack %q contains a module without a key", name)
		}
		if registration.Factory == nil {
			return fmt.Errorf("tenants: module pack %q module %q has no factory", name, registration.Key)
		}
	}

	normalized := ModulePack{
		Name:    name,
		Modules: append([]ModuleRegistration(nil), pack.Modules...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.modulePacks[name]; exists {
		return fmt.Errorf("tenants: module pack %q already registered", name)
	}
	h.modulePacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("tenants: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tenants: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("tenants: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("tenants: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyModulePacks registers every collected module with the registry, packs
// in name order.
func (h *ExtensionHooks) ApplyModulePacks(registry *modules.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("tenants: module registry is required")
	}

	for _, pack := range h.ModulePacks() {
		for _, registration := range pack.Modules {
			var options []modules.EntryOption
			if registration.Root != "" {
				options = append(options, modules.WithRoot(registration.Root))
			}
			if err := registry.Register(registration.Key, registration.Factory, options...); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("tenants: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) ModulePacks() []ModulePack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.modulePacks))
	for name := range h.modulePacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ModulePack, 0, len(names))
	for _, name := range names {
		pack := h.modulePacks[name]
		out = append(out, ModulePack{
			Name:    pack.Name,
			Modules: append([]ModuleRegistration(nil), pack.Modules...),
		})
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
