package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TenantRegistry is the bounded identifier to context mapping. Registration
// beyond the capacity fails; re-registering an existing id is
// last-register-wins and does not grow the map, so reload works at capacity.
type TenantRegistry struct {
	mu         sync.RWMutex
	maxTenants int
	defaultID  string
	strategy   IdentityStrategy
	tenants    map[string]*TenantContext
}

func NewTenantRegistry(maxTenants int, defaultID string) *TenantRegistry {
	if maxTenants <= 0 {
		maxTenants = DefaultConfig().MaxTenants
	}
	defaultID = strings.TrimSpace(defaultID)
	if defaultID == "" {
		defaultID = DefaultConfig().DefaultTenant
	}
	return &TenantRegistry{
		maxTenants: maxTenants,
		defaultID:  defaultID,
		tenants:    make(map[string]*TenantContext),
	}
}

func (r *TenantRegistry) Register(tenant *TenantContext) error {
	if tenant == nil {
		return fmt.Errorf("core: tenant context is nil")
	}
	id := tenant.ID()
	if id == "" {
		return fmt.Errorf("core: tenant id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[id]; !exists && len(r.tenants) >= r.maxTenants {
		return fmt.Errorf("core: registry holds %d tenants: %w", len(r.tenants), ErrCapacityExceeded)
	}
	r.tenants[id] = tenant
	return nil
}

func (r *TenantRegistry) Unregister(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[id]; !ok {
		return false
	}
	delete(r.tenants, id)
	return true
}

func (r *TenantRegistry) Get(id string) (*TenantContext, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	tenant, ok := r.tenants[id]
	r.mu.RUnlock()
	return tenant, ok
}

func (r *TenantRegistry) List() []*TenantContext {
	r.mu.RLock()
	keys := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	tenants := make([]*TenantContext, 0, len(keys))
	for _, id := range keys {
		tenants = append(tenants, r.tenants[id])
	}
	r.mu.RUnlock()
	return tenants
}

func (r *TenantRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}

func (r *TenantRegistry) SetStrategy(strategy IdentityStrategy) {
	r.mu.Lock()
	r.strategy = strategy
	r.mu.Unlock()
}

// TenantIDFromRequest delegates to the active strategy. A strategy error or
// an empty candidate falls back to the default id rather than propagating.
func (r *TenantRegistry) TenantIDFromRequest(req RequestDescriptor) string {
	r.mu.RLock()
	strategy := r.strategy
	defaultID := r.defaultID
	r.mu.RUnlock()
	if strategy == nil {
		return defaultID
	}
	candidate, err := strategy.TenantID(req)
	if err != nil {
		return defaultID
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return defaultID
	}
	return candidate
}

func (r *TenantRegistry) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

func (r *TenantRegistry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := RegistryStats{
		Total:  len(r.tenants),
		ByKind: map[string]int{},
	}
	for _, tenant := range r.tenants {
		if tenant.Active() {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if kind := tenant.Kind(); kind != "" {
			stats.ByKind[kind]++
		}
		stats.Services += tenant.ServiceCount()
	}
	return stats
}
