// Package sink persists the transformed sales table.
//
// A sink fully replaces the destination table inside one transaction: the
// table is dropped, recreated from the table's column schema and loaded. The
// connection is opened for the call and closed before it returns, so nothing
// is shared between runs.
//
// Drivers register themselves at init time:
//
//	sink.Register("sqlite", openSQLite)
//
// and are selected by name with [Open].
package sink

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/salesetl/internal/core"
)

// Writer replaces a destination table with the contents of a SalesTable.
type Writer interface {
	// Replace drops table if it exists, recreates it and loads t, atomically.
	Replace(ctx context.Context, table string, t *core.SalesTable) error

	// Driver returns the registered driver name.
	Driver() string
}

// OpenFunc builds a Writer for a driver-specific destination string.
// It must not connect; connections are made per Replace call.
type OpenFunc func(dsn string) (Writer, error)

var (
	registry   = make(map[string]OpenFunc)
	registryMu sync.RWMutex
)

// Register adds a driver to the registry.
// Panics if a driver with the same name is already registered.
func Register(driver string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[driver]; exists {
		panic(fmt.Sprintf("sink driver already registered: %s", driver))
	}
	registry[driver] = open
}

// Open returns a Writer for the named driver.
func Open(driver, dsn string) (Writer, error) {
	registryMu.RLock()
	open, ok := registry[strings.ToLower(driver)]
	registryMu.RUnlock()

	if !ok {
		return nil, core.NewStageError(core.StageSink, core.CodeSinkOpen, "", 0,
			fmt.Errorf("unknown sink driver %q (registered: %s)", driver, strings.Join(Drivers(), ", ")))
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, core.NewStageError(core.StageSink, core.CodeSinkOpen, "", 0,
			fmt.Errorf("%s: empty destination", driver))
	}
	return open(dsn)
}

// Drivers returns all registered driver names, sorted alphabetically.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tableNameRegex accepts plain unquoted SQL identifiers.
var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateTableName rejects destination names that would need quoting.
func ValidateTableName(name string) error {
	if !tableNameRegex.MatchString(name) {
		return core.NewStageError(core.StageSink, core.CodeInvalidTable, "", 0,
			fmt.Errorf("%w: %q", core.ErrInvalidTable, name))
	}
	return nil
}

// quoteIdent quotes a column name for SQL, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnDefs renders "name TYPE" pairs using typeOf for each column.
func columnDefs(cols []core.Column, typeOf func(core.FieldType) string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c.Name) + " " + typeOf(c.Type)
	}
	return strings.Join(defs, ", ")
}

// columnNames returns the names of cols.
func columnNames(cols []core.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func writeError(source string, err error) error {
	return core.NewStageError(core.StageSink, core.CodeSinkWrite, source, 0, err)
}

func openError(source string, err error) error {
	return core.NewStageError(core.StageSink, core.CodeSinkOpen, source, 0, err)
}
