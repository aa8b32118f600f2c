package warehouse

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Warehouse)
)

// Register adds a warehouse factory to the registry.
// Called by warehouse implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Warehouse) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a warehouse factory by dialect name.
func Get(name string) (func(*slog.Logger) Warehouse, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a warehouse for the configured dialect. The logger is handed
// to the warehouse constructor (nil uses a discard logger).
func New(cfg Config, logger *slog.Logger) (Warehouse, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("warehouse type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownWarehouseError{
			Type:      cfg.Type,
			Available: List(),
		}
	}
	return factory(logger), nil
}

// List returns all registered dialect names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a dialect is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownWarehouseError is returned when an unknown dialect is requested.
type UnknownWarehouseError struct {
	Type      string
	Available []string
}

func (e *UnknownWarehouseError) Error() string {
	return fmt.Sprintf("unknown warehouse type %q\nAvailable warehouses: %v\nHint: Check your target.type in sqlchain.yaml", e.Type, e.Available)
}
