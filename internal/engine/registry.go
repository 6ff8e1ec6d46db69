// Package engine holds the capability registry that maps engine keys to the
// code modules backing them. Catalog rows live in the database; this registry
// is how a key like "social" finds the module that reacts to installs.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Installable is implemented by engine modules that want lifecycle hooks when
// a community installs or deactivates them. Hooks run after the
// CommunityEngine row change is persisted.
type Installable interface {
	// Key is the stable catalog key the module serves.
	Key() string
	// OnInstall runs when a community activates the engine.
	OnInstall(ctx context.Context, tx *gorm.DB, communityID uuid.UUID) error
	// OnDeactivate runs when a community deactivates the engine. Content is
	// left in place; modules use this for cleanup of transient state only.
	OnDeactivate(ctx context.Context, tx *gorm.DB, communityID uuid.UUID) error
}

// Registry maps engine keys to their capability modules.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Installable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Installable)}
}

// Register adds a module. Duplicate keys are a wiring bug and return an error.
func (r *Registry) Register(m Installable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := m.Key()
	if _, exists := r.modules[key]; exists {
		return fmt.Errorf("engine module %q already registered", key)
	}
	r.modules[key] = m
	return nil
}

// Lookup returns the module for a key. Catalog engines without a code module
// are valid; they simply have no hooks.
func (r *Registry) Lookup(key string) (Installable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[key]
	return m, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.modules))
	for k := range r.modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RunInstallHook invokes the module hook for key, if one is registered.
func (r *Registry) RunInstallHook(ctx context.Context, tx *gorm.DB, key string, communityID uuid.UUID) error {
	if m, ok := r.Lookup(key); ok {
		return m.OnInstall(ctx, tx, communityID)
	}
	return nil
}

// RunDeactivateHook invokes the module hook for key, if one is registered.
func (r *Registry) RunDeactivateHook(ctx context.Context, tx *gorm.DB, key string, communityID uuid.UUID) error {
	if m, ok := r.Lookup(key); ok {
		return m.OnDeactivate(ctx, tx, communityID)
	}
	return nil
}
