package metadata

import (
	"fmt"
	"sync"
)

// Registry holds the process-wide API description for introspection queries.
// It is write-once: registered at application startup, read-only afterwards.
type Registry struct {
	mu   sync.RWMutex
	desc *APIDescription
}

var globalRegistry = &Registry{}

// Register installs the API description in the global registry. Registering
// twice is an error; the registry never changes after startup.
func Register(desc *APIDescription) error {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if globalRegistry.desc != nil {
		return fmt.Errorf("api description already registered")
	}
	globalRegistry.desc = desc
	return nil
}

// Registered returns the registered API description, or nil if none has
// been registered.
func Registered() *APIDescription {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return globalRegistry.desc
}

// Reset clears the registry (used for testing)
func Reset() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.desc = nil
}
