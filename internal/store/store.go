// Package store writes normalized tables to a relational destination.
//
// Two engines are supported: SQLite through sqlx with the pure-Go
// modernc.org/sqlite driver, and PostgreSQL through a pgx pool using the COPY
// protocol. Both apply the table's write policy inside one transaction, so a
// failed run leaves the destination as it was.
package store

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/exportsync/internal/core"
)

// idColumn is the surrogate key added to tables written with the append
// policy.
const idColumn = "id"

// quoteIdent quotes an SQL identifier with double quotes, which both engines
// accept. Export labels such as "Rok izr." need quoting.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnDefs renders the column list of a CREATE TABLE statement.
func columnDefs(t *core.Table, textType, numericType, idDef string) (string, error) {
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", t.Name)
	}

	defs := make([]string, 0, len(t.Columns)+1)
	if t.Policy == core.PolicyAppend {
		defs = append(defs, quoteIdent(idColumn)+" "+idDef)
	}
	for _, c := range t.Columns {
		if t.Policy == core.PolicyAppend && c.Name == idColumn {
			return "", fmt.Errorf("table %s: column %q collides with the surrogate key", t.Name, idColumn)
		}
		typ := textType
		if c.Type == core.FieldNumeric {
			typ = numericType
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
	}
	return strings.Join(defs, ", "), nil
}
