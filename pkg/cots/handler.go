package cots

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler tracks one product through its editor's information channel.
//
// A fresh handler starts from the product defaults of its editor. GetOrigin
// refreshes the product with the most up-to-date information from the
// channel; Fetch retrieves the installer of the version currently described
// by the product.
type Handler interface {
	// Product returns the product tracked by this handler. The returned
	// pointer is the handler's own state; seeding it from a catalog bucket
	// restores a previously saved product.
	Product() *Product

	// GetOrigin queries the editor channel and updates the product in place
	// with the latest available version. sinceVersion is the version of the
	// deployed product, for channels whose request carries it. On failure
	// the product is left unchanged.
	GetOrigin(ctx context.Context, sinceVersion string) error

	// Fetch downloads the installer of the current product version into dir.
	Fetch(ctx context.Context, dir string) error

	// IsUpdate reports whether the handler's product is an update of the
	// deployed product. A version that cannot be compared is not an update.
	IsUpdate(deployed *Product) bool
}

// Factory builds a fresh handler.
type Factory func() Handler

var (
	handlersMu sync.RWMutex
	handlers   = make(map[string]Factory)
)

// Register makes a handler available under its qualified name, following
// the "cots.<module>.<Name>Handler" convention. It panics when the name is
// already taken, like database/sql drivers do.
func Register(qualname string, factory Factory) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	if factory == nil {
		panic("cots: Register factory is nil")
	}
	if _, dup := handlers[qualname]; dup {
		panic(fmt.Sprintf("cots: Register called twice for handler %q", qualname))
	}
	handlers[qualname] = factory
}

// Get returns a fresh handler instance for the qualified name.
func Get(qualname string) (Handler, error) {
	handlersMu.RLock()
	factory, ok := handlers[qualname]
	handlersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no handler registered under %q (known handlers: %v)",
			qualname, Handlers())
	}
	return factory(), nil
}

// Handlers returns the sorted qualified names of the registered handlers.
func Handlers() []string {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
