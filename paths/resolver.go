// Package paths guards the filesystem boundary for tenant sources: relative
// paths resolve against a fixed base root, and absolute prefixes registered
// as trusted (package roots verified through module resolution) bypass the
// traversal check.
package paths

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tenants/core"
)

var ErrTraversalRejected = errors.New("paths: resolved path outside base root")

type TraversalError struct {
	Path  string
	Cause error
}

func (e *TraversalError) Error() string {
	if e == nil {
		return ErrTraversalRejected.Error()
	}
	return ErrTraversalRejected.Error() + ": " + e.Path
}

func (e *TraversalError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return ErrTraversalRejected
	}
	return errors.Join(ErrTraversalRejected, e.Cause)
}

func (e *TraversalError) ToTenantError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(core.TenantErrorPathTraversal)
}

func traversalRejected(path string) error {
	return &TraversalError{Path: path}
}

// Resolver resolves paths against a base root and maintains the trusted-root
// set. Trusted roots and the base root are fields of the instance, never
// process globals, so independent resolvers can coexist in one process.
type Resolver struct {
	root    string
	mu      sync.RWMutex
	trusted []string
}

func New(root string) (*Resolver, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("paths: base root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

func (r *Resolver) Root() string {
	if r == nil {
		return ""
	}
	return r.root
}

// Resolve joins a relative path to the base root. Absolute inputs pass
// through unchanged. The result must lie under the base root or under a
// trusted root; anything else is a traversal rejection.
func (r *Resolver) Resolve(path string) (string, error) {
	if r == nil {
		return "", errors.New("paths: resolver is required")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("paths: path is required")
	}

	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(r.root, path))
	}

	if r.isUnder(abs, r.root) || r.IsTrusted(abs) {
		return abs, nil
	}
	return "", traversalRejected(abs)
}

// AddTrustedRoot registers an absolute prefix exempt from the traversal
// check. Non-absolute inputs are ignored.
func (r *Resolver) AddTrustedRoot(path string) {
	if r == nil {
		return
	}
	path = strings.TrimSpace(path)
	if path == "" || !filepath.IsAbs(path) {
		return
	}
	cleaned := filepath.Clean(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.trusted {
		if existing == cleaned {
			return
		}
	}
	r.trusted = append(r.trusted, cleaned)
}

func (r *Resolver) IsTrusted(path string) bool {
	if r == nil {
		return false
	}
	cleaned := filepath.Clean(strings.TrimSpace(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, root := range r.trusted {
		if r.isUnder(cleaned, root) {
			return true
		}
	}
	return false
}

// Exists probes a path for existence. With allowTrusted the probe accepts
// paths under trusted roots; without it only the base root boundary applies.
func (r *Resolver) Exists(path string, allowTrusted bool) bool {
	if r == nil {
		return false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}

	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(r.root, path))
	}

	if !r.isUnder(abs, r.root) {
		if !allowTrusted || !r.IsTrusted(abs) {
			return false
		}
	}
	_, err := os.Stat(abs)
	return err == nil
}

func (r *Resolver) isUnder(path string, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

var _ core.PathResolver = (*Resolver)(nil)
