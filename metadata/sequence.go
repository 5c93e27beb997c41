// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"sort"
	"strings"
	"sync"
)

// Sequence is a database sequence used to generate keys.
type Sequence struct {
	Name      string
	Schema    string
	Start     int64
	Increment int
	Cache     int
}

// SequenceRegistry holds the sequences known to an engine. It is safe for
// concurrent use.
type SequenceRegistry struct {
	sequences sync.Map
}

func NewSequenceRegistry() *SequenceRegistry {
	return &SequenceRegistry{}
}

// Register adds seq unless a sequence with the same name is already known.
// The first registration wins; Register reports whether seq was added.
func (r *SequenceRegistry) Register(seq *Sequence) bool {
	_, loaded := r.sequences.LoadOrStore(strings.ToLower(seq.Name), seq)
	return !loaded
}

// Sequence returns the sequence with the given name, ignoring case.
func (r *SequenceRegistry) Sequence(name string) (*Sequence, bool) {
	v, ok := r.sequences.Load(strings.ToLower(name))
	if !ok {
		return nil, false
	}
	return v.(*Sequence), true
}

// Sequences returns all registered sequences sorted by name.
func (r *SequenceRegistry) Sequences() []*Sequence {
	var seqs []*Sequence
	r.sequences.Range(func(_, v any) bool {
		seqs = append(seqs, v.(*Sequence))
		return true
	})
	sort.Slice(seqs, func(i, j int) bool {
		return seqs[i].Name < seqs[j].Name
	})
	return seqs
}
