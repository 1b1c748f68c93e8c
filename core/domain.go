package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SourceKindLocal   = "local"
	SourceKindPackage = "package"
)

// Source describes where a tenant bundle originates: a filesystem directory
// or a package specifier, depending on which adapter claims it.
type Source struct {
	Locator string
}

func (s Source) IsZero() bool {
	return strings.TrimSpace(s.Locator) == ""
}

// TenantConfig is the merged tenant configuration. Later layers override
// earlier keys deep-wise for maps and replace for slices; the merge itself is
// performed by TenantConfigResolver.
type TenantConfig map[string]any

func (c TenantConfig) ID() string {
	return readConfigString(c, "id")
}

func (c TenantConfig) Name() string {
	return readConfigString(c, "name")
}

func (c TenantConfig) SourceLocator() string {
	return readConfigString(c, "source")
}

// Active defaults to true when the key is absent; only an explicit false
// marks the tenant as a deliberate skip.
func (c TenantConfig) Active() bool {
	value, ok := c["active"]
	if !ok {
		return true
	}
	active, ok := value.(bool)
	if !ok {
		return true
	}
	return active
}

func (c TenantConfig) Clone() TenantConfig {
	if len(c) == 0 {
		return TenantConfig{}
	}
	out := make(TenantConfig, len(c))
	for key, value := range c {
		out[key] = cloneConfigValue(value)
	}
	return out
}

func cloneConfigValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = cloneConfigValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, nested := range typed {
			out[idx] = cloneConfigValue(nested)
		}
		return out
	default:
		return value
	}
}

func readConfigString(c TenantConfig, key string) string {
	value, ok := c[key]
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}

// TenantContext is the per-tenant record of loaded services, plugins, routes,
// and schemas. The id is validated and immutable after construction; the
// registry owns the context once registered, and adapters mutate it only
// during the build phase.
type TenantContext struct {
	id        string
	buildID   string
	kind      string
	config    TenantConfig
	services  map[string]any
	plugins   map[string]struct{}
	routes    map[string]struct{}
	schemas   map[string]struct{}
	active    bool
	createdAt time.Time
}

func NewTenantContext(id string, kind string, cfg TenantConfig) (*TenantContext, error) {
	validated, err := ValidateIdentifier(id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = TenantConfig{}
	}
	return &TenantContext{
		id:        validated,
		buildID:   uuid.NewString(),
		kind:      strings.TrimSpace(kind),
		config:    cfg,
		services:  map[string]any{},
		plugins:   map[string]struct{}{},
		routes:    map[string]struct{}{},
		schemas:   map[string]struct{}{},
		active:    cfg.Active(),
		createdAt: time.Now().UTC(),
	}, nil
}

func (t *TenantContext) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

func (t *TenantContext) BuildID() string {
	if t == nil {
		return ""
	}
	return t.buildID
}

func (t *TenantContext) Kind() string {
	if t == nil {
		return ""
	}
	return t.kind
}

func (t *TenantContext) Config() TenantConfig {
	if t == nil {
		return TenantConfig{}
	}
	return t.config
}

func (t *TenantContext) Source() Source {
	if t == nil {
		return Source{}
	}
	return Source{Locator: t.config.SourceLocator()}
}

func (t *TenantContext) Active() bool {
	if t == nil {
		return false
	}
	return t.active
}

func (t *TenantContext) CreatedAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.createdAt
}

func (t *TenantContext) SetServices(services map[string]any) {
	if t == nil {
		return
	}
	if services == nil {
		services = map[string]any{}
	}
	t.services = services
}

func (t *TenantContext) Service(name string) (any, bool) {
	if t == nil {
		return nil, false
	}
	service, ok := t.services[strings.TrimSpace(name)]
	return service, ok
}

func (t *TenantContext) ServiceCount() int {
	if t == nil {
		return 0
	}
	return len(t.services)
}

func (t *TenantContext) AddPlugin(name string) {
	if t == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	t.plugins[name] = struct{}{}
}

func (t *TenantContext) HasPlugin(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.plugins[strings.TrimSpace(name)]
	return ok
}

func (t *TenantContext) AddRouteOrigin(prefix string) {
	if t == nil {
		return
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return
	}
	t.routes[prefix] = struct{}{}
}

func (t *TenantContext) AddSchemaOrigin(path string) {
	if t == nil {
		return
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	t.schemas[path] = struct{}{}
}

// Snapshot is the introspection shape exposed to the surrounding server.
type Snapshot struct {
	ID        string         `json:"id"`
	BuildID   string         `json:"build_id"`
	Kind      string         `json:"type"`
	Config    map[string]any `json:"config"`
	Services  []string       `json:"services"`
	Plugins   []string       `json:"plugins"`
	Routes    []string       `json:"routes"`
	Schemas   []string       `json:"schemas"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}

func (t *TenantContext) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	services := make([]string, 0, len(t.services))
	for name := range t.services {
		services = append(services, name)
	}
	sort.Strings(services)
	return Snapshot{
		ID:        t.id,
		BuildID:   t.buildID,
		Kind:      t.kind,
		Config:    t.config.Clone(),
		Services:  services,
		Plugins:   sortedSet(t.plugins),
		Routes:    sortedSet(t.routes),
		Schemas:   sortedSet(t.schemas),
		Active:    t.active,
		CreatedAt: t.createdAt,
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// RequestDescriptor is the transport-agnostic shape identification strategies
// operate on. Header lookups are case-insensitive.
type RequestDescriptor struct {
	Host    string
	Path    string
	Headers map[string]string
}

func (r RequestDescriptor) Header(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for key, value := range r.Headers {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// RegistryStats summarizes the registry contents.
type RegistryStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByKind   map[string]int `json:"by_kind"`
	Services int            `json:"services"`
}

// LoadAllResult tallies a batch boot: how many tenants loaded per source kind
// and how many builds failed or were skipped.
type LoadAllResult struct {
	Local   int `json:"local"`
	Package int `json:"package"`
	Failed  int `json:"failed"`
}

func (r LoadAllResult) Loaded() int {
	return r.Local + r.Package
}

func (r LoadAllResult) Any() bool {
	return r.Loaded() > 0
}

// UnitSpec names a capability unit and its per-registration options.
type UnitSpec struct {
	Name    string
	Options map[string]any
}

// UnitResult reports a single unit load attempt.
type UnitResult struct {
	Name    string
	Success bool
	Cached  bool
	Err     error
}

// BatchResult aggregates sequential unit loads; one unit's failure never
// blocks the rest.
type BatchResult struct {
	SuccessCount int
	Total        int
	Results      []UnitResult
}
