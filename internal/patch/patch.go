// Package patch builds JSON merge patches that contain only the fields a
// caller explicitly set.
package patch

import (
	"encoding/json"
	"errors"
)

var ErrEmpty = errors.New("patch has no fields")

type Builder struct {
	doc map[string]any
}

func New() *Builder {
	return &Builder{doc: map[string]any{}}
}

// Set places value at path, creating intermediate objects.
func (b *Builder) Set(value any, path ...string) *Builder {
	if len(path) == 0 {
		return b
	}
	m := b.doc
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
	return b
}

// SetOptional sets path only when value is non-nil.
func (b *Builder) SetOptional(value *string, path ...string) *Builder {
	if value == nil {
		return b
	}
	return b.Set(*value, path...)
}

func (b *Builder) Empty() bool {
	return len(b.doc) == 0
}

// Bytes encodes the patch. An empty patch is an error so that callers never
// send a no-op request.
func (b *Builder) Bytes() ([]byte, error) {
	if b.Empty() {
		return nil, ErrEmpty
	}
	return json.Marshal(b.doc)
}

// State returns the patch that sets a workspace's declared state.
func State(state string) *Builder {
	return New().Set(state, "spec", "state")
}

// Resources returns the patch that updates CPU and/or memory.
func Resources(cpu, memory *string) *Builder {
	return New().
		SetOptional(cpu, "spec", "resource", "cpu").
		SetOptional(memory, "spec", "resource", "memory")
}
