// Package override holds user-supplied literals that outrank token document
// values. The set is a flat tokenName -> literal map persisted as JSON at a
// single well-known path and loaded at start-up.
package override

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/pubsub"
)

// Wildcard is the change token reported for bulk operations.
const Wildcard = "*"

// Change identifies which override changed. Token is "*" for bulk replace
// and bulk clear so dependents know to re-resolve everything.
type Change struct {
	Token string
}

// Store is the override layer. All mutations persist synchronously and
// publish a Change before returning.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	broker *pubsub.Broker[Change]
}

// NewStore opens the override store backed by the JSON file at path,
// loading any persisted overrides.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]string),
		broker: pubsub.NewBroker[Change](),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewInMemory returns a store with no backing file, for tests and previews.
func NewInMemory() *Store {
	return &Store{
		values: make(map[string]string),
		broker: pubsub.NewBroker[Change](),
	}
}

func (s *Store) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path) //nolint:gosec // G304: path comes from user config
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading overrides: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return fmt.Errorf("parsing overrides %s: %w", s.path, err)
	}
	log.Debug(log.CatOverride, "loaded overrides", "count", len(s.values), "path", s.path)
	return nil
}

// save persists the current map. Callers must hold the lock.
func (s *Store) save() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		log.ErrorErr(log.CatOverride, "marshaling overrides", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		log.ErrorErr(log.CatOverride, "creating overrides dir", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil { //nolint:gosec // G306: overrides are not sensitive
		log.ErrorErr(log.CatOverride, "writing overrides", err)
	}
}

// Get returns the override literal for a token identity, if set.
func (s *Store) Get(tokenName string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[tokenName]
	return v, ok
}

// Set writes a single override and persists immediately.
func (s *Store) Set(tokenName, literal string) {
	s.mu.Lock()
	s.values[tokenName] = literal
	s.save()
	s.mu.Unlock()

	s.broker.Publish(pubsub.OverrideSetEvent, Change{Token: tokenName})
}

// Delete removes a single override.
func (s *Store) Delete(tokenName string) {
	s.mu.Lock()
	_, existed := s.values[tokenName]
	delete(s.values, tokenName)
	if existed {
		s.save()
	}
	s.mu.Unlock()

	if existed {
		s.broker.Publish(pubsub.OverrideClearedEvent, Change{Token: tokenName})
	}
}

// Clear removes the named overrides (or every override when called with no
// names) and reports a wildcard change.
func (s *Store) Clear(tokenNames ...string) {
	s.mu.Lock()
	if len(tokenNames) == 0 {
		s.values = make(map[string]string)
	} else {
		for _, name := range tokenNames {
			delete(s.values, name)
		}
	}
	s.save()
	s.mu.Unlock()

	s.broker.Publish(pubsub.OverrideClearedEvent, Change{Token: Wildcard})
}

// All returns a copy of the current override map.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// ReplaceAll swaps the full override map, e.g. when loading a saved set,
// and reports a wildcard change.
func (s *Store) ReplaceAll(values map[string]string) {
	s.mu.Lock()
	s.values = make(map[string]string, len(values))
	for k, v := range values {
		s.values[k] = v
	}
	s.save()
	s.mu.Unlock()

	s.broker.Publish(pubsub.OverrideReplacedEvent, Change{Token: Wildcard})
}

// Len returns the number of overrides currently set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Subscribe returns a channel of override changes. The subscription ends
// when ctx is cancelled.
func (s *Store) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return s.broker.Subscribe(ctx)
}

// Close shuts down the change broker.
func (s *Store) Close() {
	s.broker.Close()
}
