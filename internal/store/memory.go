package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Store. Documents are kept in their generic JSON
// form, so callers get the same encode/decode behavior as with remote drivers.
type Memory struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{root: make(map[string]any)}
}

func (m *Memory) Get(ctx context.Context, path string, dst any) (bool, error) {
	segments, err := splitPath(path)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	node, ok := m.lookup(segments)
	var data []byte
	if ok {
		data, err = json.Marshal(node)
	}
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

func (m *Memory) Put(ctx context.Context, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	generic, err := normalize(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if generic == nil {
		m.remove(segments)
		return nil
	}
	parent := m.ensureParent(segments)
	parent[segments[len(segments)-1]] = generic
	return nil
}

func (m *Memory) Patch(ctx context.Context, path string, fields map[string]any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	generic, err := normalize(fields)
	if err != nil {
		return err
	}
	patch, _ := generic.(map[string]any)

	m.mu.Lock()
	defer m.mu.Unlock()

	parent := m.ensureParent(segments)
	leaf := segments[len(segments)-1]
	doc, ok := parent[leaf].(map[string]any)
	if !ok {
		doc = make(map[string]any)
		parent[leaf] = doc
	}
	for k, v := range patch {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(segments)
	return nil
}

func (m *Memory) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]json.RawMessage)
	node, ok := m.lookup(segments)
	if !ok {
		return out, nil
	}
	children, ok := node.(map[string]any)
	if !ok {
		return out, nil
	}
	for k, v := range children {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = data
	}
	return out, nil
}

func (m *Memory) lookup(segments []string) (any, bool) {
	var node any = m.root
	for _, s := range segments {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = obj[s]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// ensureParent walks to the parent of the last segment, replacing scalars
// with objects on the way like Firebase does.
func (m *Memory) ensureParent(segments []string) map[string]any {
	node := m.root
	for _, s := range segments[:len(segments)-1] {
		next, ok := node[s].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[s] = next
		}
		node = next
	}
	return node
}

func (m *Memory) remove(segments []string) {
	node := m.root
	for _, s := range segments[:len(segments)-1] {
		next, ok := node[s].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	delete(node, segments[len(segments)-1])
}
