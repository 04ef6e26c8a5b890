package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var tableDDL = map[string]string{
	DriverSQLite: `
CREATE TABLE IF NOT EXISTS url (
  id         INTEGER   PRIMARY KEY AUTOINCREMENT,
  short_url  TEXT      NOT NULL,
  long_url   TEXT      NOT NULL,
  alias      TEXT      NOT NULL,
  created_at TIMESTAMP NOT NULL
);`,
	DriverPostgres: `
CREATE TABLE IF NOT EXISTS url (
  id         BIGINT      GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  short_url  TEXT        NOT NULL,
  long_url   TEXT        NOT NULL,
  alias      TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
}

// Both dialects accept the same index statements.
const (
	uniqueAliasIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS url_alias_key ON url (alias);`
	plainAliasIndexDDL  = `CREATE INDEX IF NOT EXISTS url_alias_idx ON url (alias);`
)

// migrate creates the url table and its alias index. With uniqueAlias the
// index is UNIQUE and concurrent registrations of one alias cannot both win.
func migrate(ctx context.Context, s *Store, uniqueAlias bool) error {
	ddl, ok := tableDDL[s.driver]
	if !ok {
		return fmt.Errorf("unsupported driver %q", s.driver)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create url table: %w", err)
	}

	index := plainAliasIndexDDL
	if uniqueAlias {
		index = uniqueAliasIndexDDL
	}
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create alias index: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $1..$n for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
