// Package cache stores downloaded node attachments so repeated lookups skip
// the document store. Backends: process memory, Redis and Badger.
package cache

import (
	"context"
	"net/url"
	"sync"
)

// AttachmentKey identifies one attachment of one node. Backends that need a
// flat string use String, which escapes both parts so ids containing "/"
// cannot collide.
type AttachmentKey struct {
	NodeID string
	Name   string
}

// String renders the key as "<node>/<attachment>".
func (k AttachmentKey) String() string {
	return url.PathEscape(k.NodeID) + "/" + url.PathEscape(k.Name)
}

// Cache is the attachment store consulted before every download.
type Cache interface {
	Get(ctx context.Context, key AttachmentKey) ([]byte, bool, error)
	Set(ctx context.Context, key AttachmentKey, value []byte) error
	Delete(ctx context.Context, keys ...AttachmentKey) error
}

// Memory is the default process-wide backend.
type Memory struct {
	mu      sync.RWMutex
	entries map[AttachmentKey][]byte
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[AttachmentKey][]byte)}
}

// Get returns a copy of the cached payload.
func (m *Memory) Get(_ context.Context, key AttachmentKey) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key AttachmentKey, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes the keys; missing keys are ignored.
func (m *Memory) Delete(_ context.Context, keys ...AttachmentKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// Len reports the number of cached attachments.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
