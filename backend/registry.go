package backend

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Well-known processor names.
const (
	// NameSoftware is the pure Go in-process processor.
	NameSoftware = "software"

	// NameRPC is the out-of-process websocket processor.
	NameRPC = "rpc"
)

// ProcessorFactory creates a new processor instance.
type ProcessorFactory func() Processor

var (
	registryMu sync.RWMutex
	processors = make(map[string]ProcessorFactory)

	// Priority order for processor selection (first available wins).
	// RPC > Software (RPC is the accelerated peer, Software is the
	// guaranteed fallback).
	processorPriority = []string{NameRPC, NameSoftware}
)

// Register registers a processor factory with the given name. If a
// processor with the same name is already registered, it is replaced.
func Register(name string, factory ProcessorFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	processors[name] = factory
}

// Unregister removes a processor from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(processors, name)
}

// Available returns the registered processor names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(processors))
	for name := range processors {
		names = append(names, name)
	}
	return names
}

// Get returns a processor instance by name, or nil if not registered.
func Get(name string) Processor {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := processors[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available processor based on priority.
// The software processor registers itself at init, so Default never
// returns nil in a normal build.
func Default() Processor {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range processorPriority {
		if factory, ok := processors[name]; ok {
			if p := factory(); p != nil {
				return p
			}
		}
	}
	for _, factory := range processors {
		if p := factory(); p != nil {
			return p
		}
	}
	return nil
}

// loggerPtr stores the package logger, shared with the engine via
// SetLogger. Defaults to a discard logger.
var loggerPtr atomic.Pointer[slog.Logger]

// SetLogger configures logging for backend processors. The engine's
// SetLogger propagates here; direct use is only needed when the
// backend package is used standalone.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loggerPtr.Store(l)
}

// logger returns the package logger.
func logger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
