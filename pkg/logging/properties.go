package logging

import (
	"os"
	"sync"
)

// PropertyStore holds the process-wide properties merged into every log
// event. A fresh store starts with MachineName and ProcessId.
type PropertyStore struct {
	mu    sync.RWMutex
	props Properties
}

func NewPropertyStore() *PropertyStore {
	return &PropertyStore{props: defaultProperties()}
}

func defaultProperties() Properties {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return Properties{
		"MachineName": hostname,
		"ProcessId":   os.Getpid(),
	}
}

// Snapshot returns a copy of the current properties. Mutating the store
// afterwards never changes an event built from an earlier snapshot.
func (ps *PropertyStore) Snapshot() Properties {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.props.Copy()
}

// Set replaces all properties with a copy of props.
func (ps *PropertyStore) Set(props Properties) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.props = props.Copy()
}

// Merge adds props on top of the current set, overwriting on collision.
func (ps *PropertyStore) Merge(props Properties) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for key, value := range props {
		ps.props[key] = value
	}
}

// Reset restores the default properties.
func (ps *PropertyStore) Reset() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.props = defaultProperties()
}

// Clear removes all properties, defaults included.
func (ps *PropertyStore) Clear() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.props = Properties{}
}
