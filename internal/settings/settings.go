// Package settings wraps the host's named-flag storage behind a small
// accessor. Lookup misses degrade to defaults with a warning; callers
// that cannot proceed without a value use Require and get a hard error.
package settings

import (
	"fmt"
	"log"
	"strconv"
	"sync"
)

// Source is the host settings boundary: one opaque string per
// (namespace, key) pair.
type Source interface {
	Get(namespace, key string) (string, bool)
}

// Accessor adds typed reads and miss handling on top of a Source.
type Accessor struct {
	source Source
	logger *log.Logger
}

// NewAccessor wraps a source. A nil logger falls back to the default.
func NewAccessor(source Source, logger *log.Logger) *Accessor {
	if logger == nil {
		logger = log.Default()
	}
	return &Accessor{source: source, logger: logger}
}

// Bool reads a boolean flag, returning def and logging a warning when
// the key is missing or malformed.
func (a *Accessor) Bool(namespace, key string, def bool) bool {
	raw, ok := a.source.Get(namespace, key)
	if !ok {
		a.logger.Printf("settings: missing %s.%s, using default %v", namespace, key, def)
		return def
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		a.logger.Printf("settings: malformed %s.%s=%q, using default %v", namespace, key, raw, def)
		return def
	}
	return value
}

// String reads a string flag, returning def with a warning on a miss.
func (a *Accessor) String(namespace, key, def string) string {
	raw, ok := a.source.Get(namespace, key)
	if !ok {
		a.logger.Printf("settings: missing %s.%s, using default %q", namespace, key, def)
		return def
	}
	return raw
}

// Require reads a setting the caller cannot proceed without.
func (a *Accessor) Require(namespace, key string) (string, error) {
	raw, ok := a.source.Get(namespace, key)
	if !ok {
		return "", fmt.Errorf("settings: required setting %s.%s is not registered", namespace, key)
	}
	return raw, nil
}

// Static is an in-memory Source for tests and defaults.
type Static struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStatic builds an empty static source.
func NewStatic() *Static {
	return &Static{values: make(map[string]string)}
}

// Set stores a value.
func (s *Static) Set(namespace, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[namespace+"."+key] = value
}

// Get implements Source.
func (s *Static) Get(namespace, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[namespace+"."+key]
	return value, ok
}
