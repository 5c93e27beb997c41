// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"strings"
	"sync"

	"github.com/canonical/sqlcmd/metadata"
)

// insertCache caches the insert commands of each entity. An entity has one
// insert command for every set of fields it is inserted with. The key is the
// entity name followed by the field names in declaration order.
//
// The mutex must be locked when accessing the commands map.
type insertCache struct {
	commands map[string]*Command
	mutex    sync.RWMutex
}

func newInsertCache() *insertCache {
	return &insertCache{commands: map[string]*Command{}}
}

func insertCacheKey(em *metadata.EntityMapping, fields []*metadata.FieldMapping) string {
	var b strings.Builder
	b.WriteString(em.Name)
	for _, f := range fields {
		b.WriteByte(0)
		b.WriteString(f.Name)
	}
	return b.String()
}

// command returns the insert command of em writing the given fields. It is
// created and prepared on first use.
func (ic *insertCache) command(e *Engine, em *metadata.EntityMapping, fields []*metadata.FieldMapping) (*Command, error) {
	key := insertCacheKey(em, fields)
	ic.mutex.RLock()
	cmd, ok := ic.commands[key]
	ic.mutex.RUnlock()
	if ok {
		return cmd, nil
	}

	cmd = e.NewCommand("insert "+em.Name, "", insertSQL(e.dialect, em, fields))
	if err := cmd.Prepare(); err != nil {
		return nil, err
	}
	ic.mutex.Lock()
	defer ic.mutex.Unlock()
	// Check if a command has been added by someone else since we last
	// checked.
	if alt, ok := ic.commands[key]; ok {
		return alt, nil
	}
	ic.commands[key] = cmd
	return cmd, nil
}

func (ic *insertCache) len() int {
	ic.mutex.RLock()
	defer ic.mutex.RUnlock()
	return len(ic.commands)
}
