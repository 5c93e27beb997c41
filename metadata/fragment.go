// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"fmt"
	"sort"
	"sync"

	"github.com/canonical/sqlcmd/sqlerr"
)

// FragmentRegistry holds the named SQL fragments that commands can include.
// It is safe for concurrent use.
type FragmentRegistry struct {
	mu        sync.RWMutex
	fragments map[string]string
}

func NewFragmentRegistry() *FragmentRegistry {
	return &FragmentRegistry{fragments: make(map[string]string)}
}

// Add registers a fragment. Names are unique.
func (r *FragmentRegistry) Add(name string, content string) error {
	if name == "" {
		return fmt.Errorf("sql fragment has no name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fragments[name]; ok {
		return fmt.Errorf("%w: sql fragment %q", sqlerr.ErrDuplicateConfig, name)
	}
	r.fragments[name] = content
	return nil
}

// Fragment returns the content of the named fragment.
func (r *FragmentRegistry) Fragment(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	content, ok := r.fragments[name]
	return content, ok
}

// Names returns the names of all fragments, sorted.
func (r *FragmentRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fragments))
	for name := range r.fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
