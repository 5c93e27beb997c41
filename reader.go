// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/jmoiron/sqlx"
)

// ErrNoRows is returned by readers that need a row when the query returned
// none.
var ErrNoRows = sql.ErrNoRows

// RowReader consumes the rows of a query. The rows are closed by the command.
type RowReader interface {
	ReadRows(rows *sql.Rows) error
}

// RowReaderFunc is a RowReader backed by a function.
type RowReaderFunc func(rows *sql.Rows) error

func (f RowReaderFunc) ReadRows(rows *sql.Rows) error {
	return f(rows)
}

// Scalar returns a reader that scans the first column of the first row into
// dest. It returns ErrNoRows if there is no row.
func Scalar(dest any) RowReader {
	return RowReaderFunc(func(rows *sql.Rows) error {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return ErrNoRows
		}
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		ptrs := make([]any, len(cols))
		ptrs[0] = dest
		for i := 1; i < len(ptrs); i++ {
			ptrs[i] = new(any)
		}
		return rows.Scan(ptrs...)
	})
}

// Maps returns a reader that appends every row to dest as a map from column
// name to value. Byte slices are stored as strings.
func Maps(dest *[]map[string]any) RowReader {
	return RowReaderFunc(func(rows *sql.Rows) error {
		for rows.Next() {
			m := map[string]any{}
			if err := sqlx.MapScan(rows, m); err != nil {
				return err
			}
			for k, v := range m {
				if b, ok := v.([]byte); ok {
					m[k] = string(b)
				}
			}
			*dest = append(*dest, m)
		}
		return nil
	})
}

// Structs returns a reader that appends every row to the slice pointed to by
// slicePtr. The slice elements are structs or pointers to structs whose
// fields are matched to columns by their `db` tag or lower case name.
func Structs(slicePtr any) RowReader {
	return RowReaderFunc(func(rows *sql.Rows) error {
		ptrVal := reflect.ValueOf(slicePtr)
		if ptrVal.Kind() != reflect.Pointer {
			return fmt.Errorf("need pointer to slice, got %s", ptrVal.Kind())
		}
		if ptrVal.IsNil() {
			return fmt.Errorf("need pointer to slice, got nil")
		}
		sliceVal := ptrVal.Elem()
		if sliceVal.Kind() != reflect.Slice {
			return fmt.Errorf("need pointer to slice, got pointer to %s", sliceVal.Kind())
		}
		elemType := sliceVal.Type().Elem()
		if elemType.Kind() == reflect.Pointer {
			elemType = elemType.Elem()
		}
		if elemType.Kind() != reflect.Struct {
			return fmt.Errorf("need slice of structs, got slice of %s", sliceVal.Type().Elem().Kind())
		}
		return sqlx.StructScan(rows, slicePtr)
	})
}
