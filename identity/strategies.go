// Package identity maps inbound request descriptors to candidate tenant ids.
// Strategies return an empty candidate for "no match"; the registry treats
// both misses and errors as a fall-through to the default tenant.
package identity

import (
	"strings"

	"github.com/goliatone/go-tenants/core"
)

// DefaultHeader is the header consulted when none is configured.
const DefaultHeader = "X-Tenant-ID"

// Host extracts the tenant id from the first subdomain label. Hosts with
// fewer than three labels (no subdomain) are misses.
type Host struct{}

func NewHost() Host {
	return Host{}
}

func (Host) TenantID(req core.RequestDescriptor) (string, error) {
	host := strings.TrimSpace(req.Host)
	if host == "" {
		return "", nil
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", nil
	}
	return strings.TrimSpace(labels[0]), nil
}

// Path extracts the tenant id from the first path segment. Segments on the
// reserved list are infrastructure routes, never tenant ids.
type Path struct {
	reserved map[string]struct{}
}

func NewPath(reserved []string) Path {
	set := make(map[string]struct{}, len(reserved))
	for _, segment := range reserved {
		segment = strings.TrimSpace(strings.ToLower(segment))
		if segment != "" {
			set[segment] = struct{}{}
		}
	}
	return Path{reserved: set}
}

func (p Path) TenantID(req core.RequestDescriptor) (string, error) {
	path := strings.TrimSpace(req.Path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", nil
	}
	segment := path
	if idx := strings.Index(path, "/"); idx >= 0 {
		segment = path[:idx]
	}
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "", nil
	}
	if _, ok := p.reserved[strings.ToLower(segment)]; ok {
		return "", nil
	}
	return segment, nil
}

// Header extracts the tenant id from a request header.
type Header struct {
	name string
}

func NewHeader(name string) Header {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultHeader
	}
	return Header{name: name}
}

func (h Header) TenantID(req core.RequestDescriptor) (string, error) {
	name := h.name
	if name == "" {
		name = DefaultHeader
	}
	return req.Header(name), nil
}

// Composite consults its strategies in order and returns the first candidate
// that passes identifier validation. Strategy errors and invalid candidates
// fall through to the next strategy.
type Composite struct {
	strategies []core.IdentityStrategy
}

func NewComposite(strategies ...core.IdentityStrategy) Composite {
	kept := make([]core.IdentityStrategy, 0, len(strategies))
	for _, strategy := range strategies {
		if strategy != nil {
			kept = append(kept, strategy)
		}
	}
	return Composite{strategies: kept}
}

// Default is the conventional chain: header, then host, then path.
func Default(header string, reservedSegments []string) Composite {
	return NewComposite(
		NewHeader(header),
		NewHost(),
		NewPath(reservedSegments),
	)
}

func (c Composite) TenantID(req core.RequestDescriptor) (string, error) {
	for _, strategy := range c.strategies {
		candidate, err := strategy.TenantID(req)
		if err != nil {
			continue
		}
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		validated, err := core.ValidateIdentifier(candidate)
		if err != nil {
			continue
		}
		return validated, nil
	}
	return "", nil
}

var (
	_ core.IdentityStrategy = Host{}
	_ core.IdentityStrategy = Path{}
	_ core.IdentityStrategy = Header{}
	_ core.IdentityStrategy = Composite{}
)
