// Package core contains the canonical tenant domain contracts, entities, and
// orchestration logic. Lower-level packages (paths, loader, sources, identity,
// modules) must depend on this package; core must not depend on source-specific
// or transport-specific adapters.
package core
