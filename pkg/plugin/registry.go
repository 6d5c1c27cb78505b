package plugin

import "sync"

// Factory builds a fresh Plugin instance for a registered library name.
type Factory func() Plugin

var (
	factoryMu sync.Mutex
	factories = make(map[string]Factory)
)

// Register makes a plugin factory available under libraryName for the
// gateway to resolve when a config row names it — standing in for dynamic
// symbol resolution. Intended to be called from an init in the package
// implementing a given plugin, mirroring database/sql.Register.
func Register(libraryName string, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[libraryName] = factory
}

func lookupFactory(libraryName string) (Factory, bool) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	f, ok := factories[libraryName]
	return f, ok
}
