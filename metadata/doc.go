// Package metadata describes how entities map to tables: their fields and
// columns, how keys are generated, and the registries of sequences and SQL
// fragments shared by an engine.
package metadata
