package core

import (
	"fmt"
	"strings"
)

type IdentityConfig struct {
	Header           string   `koanf:"header" mapstructure:"header"`
	ReservedSegments []string `koanf:"reserved_segments" mapstructure:"reserved_segments"`
}

type Config struct {
	DefaultTenant string         `koanf:"default_tenant" mapstructure:"default_tenant"`
	MaxTenants    int            `koanf:"max_tenants" mapstructure:"max_tenants"`
	TenantsRoot   string         `koanf:"tenants_root" mapstructure:"tenants_root"`
	PackagePrefix string         `koanf:"package_prefix" mapstructure:"package_prefix"`
	Packages      []string       `koanf:"packages" mapstructure:"packages"`
	CacheSize     int            `koanf:"cache_size" mapstructure:"cache_size"`
	Identity      IdentityConfig `koanf:"identity" mapstructure:"identity"`
}

func DefaultConfig() Config {
	return Config{
		DefaultTenant: "default",
		MaxTenants:    100,
		TenantsRoot:   "tenants",
		PackagePrefix: "tenant-",
		CacheSize:     256,
		Identity: IdentityConfig{
			Header:           "X-Tenant-ID",
			ReservedSegments: []string{"api", "health", "metrics", "admin", "static"},
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DefaultTenant) == "" {
		return fmt.Errorf("core: default_tenant is required")
	}
	if _, err := ValidateIdentifier(c.DefaultTenant); err != nil {
		return fmt.Errorf("core: default_tenant is not a valid identifier: %w", err)
	}
	if c.MaxTenants <= 0 {
		return fmt.Errorf("core: max_tenants must be > 0")
	}
	if strings.TrimSpace(c.TenantsRoot) == "" {
		return fmt.Errorf("core: tenants_root is required")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("core: cache_size must be > 0")
	}
	return nil
}
