package sqlsink

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported driver names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

type dialect struct {
	name string
	// numbered placeholders ($1, $2, ...) instead of ?.
	numbered bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case Postgres:
		return dialect{name: Postgres, numbered: true}, nil
	case SQLite:
		return dialect{name: SQLite}, nil
	default:
		return dialect{}, fmt.Errorf("sqlsink: unsupported driver %q", driver)
	}
}

// rebind rewrites ? placeholders for the dialect.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
