// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/canonical/sqlcmd/metadata"
	"github.com/canonical/sqlcmd/params"
)

// Lengths of the UUID text forms.
const (
	// HexLength is the length of the 32 hex digits with no separators.
	HexLength = 32
	// CanonicalLength is the length of the hyphenated form.
	CanonicalLength = 36
	// BracedLength is the length of the hyphenated form in braces.
	BracedLength = 38
)

// DefaultUUIDLength is the length of generated keys when none is configured.
const DefaultUUIDLength = BracedLength

// UUIDGenerator generates random (version 4) UUID keys.
type UUIDGenerator struct {
	length int
}

var _ metadata.Expression = (*UUIDGenerator)(nil)

// NewUUIDGenerator returns a generator of UUIDs of the given text length,
// which must be 32, 36 or 38.
func NewUUIDGenerator(length int) (*UUIDGenerator, error) {
	switch length {
	case HexLength, CanonicalLength, BracedLength:
		return &UUIDGenerator{length: length}, nil
	}
	return nil, fmt.Errorf("invalid uuid length %d, expected %d, %d or %d", length, HexLength, CanonicalLength, BracedLength)
}

// Length returns the length of the generated values.
func (g *UUIDGenerator) Length() int {
	return g.length
}

// Generate returns a new UUID in the text form of the generator.
func (g *UUIDGenerator) Generate() string {
	s := uuid.NewString()
	switch g.length {
	case HexLength:
		return strings.ReplaceAll(s, "-", "")
	case CanonicalLength:
		return s
	}
	return "{" + s + "}"
}

func (g *UUIDGenerator) Value(*metadata.FieldMapping, *params.Entity) (any, error) {
	return g.Generate(), nil
}
