package transport

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Config holds backend-independent construction parameters. Backends read
// what they understand and forward the rest untouched.
type Config struct {
	// Timeout is the default connect/read timeout pair for requests that
	// do not override it.
	Timeout Timeout

	// Headers are the session's initial default headers.
	Headers map[string]string

	// Logger receives transport-level diagnostics. Nil means no logging.
	Logger *slog.Logger

	// Backend carries backend-specific construction options.
	Backend map[string]any
}

// Factory constructs a Session from a Config.
type Factory func(cfg Config) (Session, error)

var (
	regMu     sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a backend factory under the given name. Backend packages
// call this from init(); registering a duplicate name panics because it is
// a programming error, not a runtime condition.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()

	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("transport: backend %q registered twice", name))
	}

	factories[name] = f
}

// New constructs a session using the named backend. Requesting a backend
// that was never registered is a configuration error, never a silent
// fallback to some other backend.
func New(name string, cfg Config) (Session, error) {
	regMu.RLock()
	f, ok := factories[name]
	regMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("transport: unknown backend %q (registered: %v)", name, Backends())
	}

	return f(cfg)
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	regMu.RLock()
	defer regMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
