// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"fmt"
	"strings"
)

// ColumnType is the SQL type of a column.
type ColumnType int

const (
	UnknownType ColumnType = iota
	SmallInt
	Integer
	BigInt
	Decimal
	Real
	Boolean
	Char
	VarChar
	Text
	Timestamp
	Blob
)

var columnTypeNames = map[ColumnType]string{
	UnknownType: "UNKNOWN",
	SmallInt:    "SMALLINT",
	Integer:     "INTEGER",
	BigInt:      "BIGINT",
	Decimal:     "DECIMAL",
	Real:        "REAL",
	Boolean:     "BOOLEAN",
	Char:        "CHAR",
	VarChar:     "VARCHAR",
	Text:        "TEXT",
	Timestamp:   "TIMESTAMP",
	Blob:        "BLOB",
}

func (t ColumnType) String() string {
	if s, ok := columnTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// IsInteger reports whether t holds whole numbers.
func (t ColumnType) IsInteger() bool {
	return t == SmallInt || t == Integer || t == BigInt
}

// IsString reports whether t holds character data.
func (t ColumnType) IsString() bool {
	return t == Char || t == VarChar || t == Text
}

// ParseColumnType returns the column type with the given SQL name. Common
// aliases such as INT and STRING are accepted.
func ParseColumnType(s string) (ColumnType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "INT", "INT4", "MEDIUMINT":
		return Integer, nil
	case "INT2", "TINYINT":
		return SmallInt, nil
	case "INT8":
		return BigInt, nil
	case "STRING", "CHARACTER VARYING":
		return VarChar, nil
	case "CHARACTER":
		return Char, nil
	case "NUMERIC":
		return Decimal, nil
	case "FLOAT", "DOUBLE", "DOUBLE PRECISION":
		return Real, nil
	case "BOOL":
		return Boolean, nil
	case "DATETIME", "DATE", "TIME":
		return Timestamp, nil
	case "BYTEA", "BINARY", "VARBINARY":
		return Blob, nil
	}
	for t, n := range columnTypeNames {
		if t != UnknownType && n == name {
			return t, nil
		}
	}
	return UnknownType, fmt.Errorf("unknown column type %q", s)
}

// Column is the database column of a field.
type Column struct {
	Name string
	Type ColumnType
	// Length is the maximum length of character columns, 0 when unset.
	Length        int
	Nullable      bool
	AutoIncrement bool
}
