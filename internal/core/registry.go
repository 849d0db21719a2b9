package core

import (
	"fmt"
	"sort"
	"sync"
)

// LayoutInfo describes a registered layout for listings.
type LayoutInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// LayoutDefinition binds a layout key to its classifier and emitter
// constructors. Both are built once per run from the located header.
type LayoutDefinition struct {
	Info          LayoutInfo
	NewClassifier func(spec SourceSpec, h *Header) (Classifier, error)
	NewEmitter    func(spec SourceSpec, h *Header) (EmitFunc, []Column, error)
}

var (
	registry   = make(map[string]LayoutDefinition)
	registryMu sync.RWMutex
)

// Register adds a layout definition to the registry.
// Panics if a layout with the same key is already registered.
func Register(def LayoutDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("layout already registered: %s", def.Info.Key))
	}
	if def.NewClassifier == nil || def.NewEmitter == nil {
		panic(fmt.Sprintf("layout %s: classifier and emitter constructors are required", def.Info.Key))
	}

	registry[def.Info.Key] = def
}

// Get returns a layout definition by key.
// Returns false if not found.
func Get(key string) (LayoutDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an ErrUnknownLayout error for missing keys.
func Lookup(key string) (LayoutDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return LayoutDefinition{}, fmt.Errorf("%w: %q", ErrUnknownLayout, key)
	}
	return def, nil
}

// All returns all registered layout definitions sorted by key.
func All() []LayoutDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]LayoutDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Keys returns the registered layout keys, sorted.
func Keys() []string {
	defs := All()
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Info.Key
	}
	return keys
}

// LayoutCount returns the number of registered layouts.
func LayoutCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered layouts.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]LayoutDefinition)
}
