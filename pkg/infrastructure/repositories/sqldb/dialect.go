// Package sqldb implements every repository on database/sql. SQL Server,
// PostgreSQL and SQLite differ only in their Dialect.
package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported driver names
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "pgx"
	DriverSQLite    = "sqlite"
)

type placeholderStyle int

const (
	atParam placeholderStyle = iota
	dollarParam
	questionParam
)

// Dialect renders the vendor-specific parts of a statement
type Dialect struct {
	Driver      string
	placeholder placeholderStyle
	bracketed   bool
	limitOffset bool
}

// DialectFor returns the dialect of a driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLServer, "mssql":
		return Dialect{Driver: DriverSQLServer, placeholder: atParam, bracketed: true}, nil
	case DriverPostgres, "postgres":
		return Dialect{Driver: DriverPostgres, placeholder: dollarParam}, nil
	case DriverSQLite:
		return Dialect{Driver: DriverSQLite, placeholder: questionParam, limitOffset: true}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q (expected %s, %s or %s)",
			driver, DriverSQLServer, DriverPostgres, DriverSQLite)
	}
}

// Placeholder renders the n-th bind parameter, counting from 1
func (d Dialect) Placeholder(n int) string {
	switch d.placeholder {
	case atParam:
		return "@p" + strconv.Itoa(n)
	case dollarParam:
		return "$" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Placeholders renders count parameters starting at n, comma separated
func (d Dialect) Placeholders(n, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.Placeholder(n + i)
	}
	return strings.Join(parts, ", ")
}

// Quote quotes an identifier. Dotted names are quoted per part.
func (d Dialect) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if d.bracketed {
			parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
		} else {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
		}
	}
	return strings.Join(parts, ".")
}

// QuoteAll quotes a list of identifiers, comma separated
func (d Dialect) QuoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = d.Quote(id)
	}
	return strings.Join(quoted, ", ")
}

// Paginate renders the pagination clause using parameters starting at n and
// returns the arguments in the order the clause binds them. The statement
// must already carry an ORDER BY.
func (d Dialect) Paginate(n, offset, limit int) (string, []any) {
	if d.limitOffset {
		return fmt.Sprintf("LIMIT %s OFFSET %s", d.Placeholder(n), d.Placeholder(n+1)), []any{limit, offset}
	}
	return fmt.Sprintf("OFFSET %s ROWS FETCH NEXT %s ROWS ONLY", d.Placeholder(n), d.Placeholder(n+1)), []any{offset, limit}
}

// Substring renders a 1-based substring expression
func (d Dialect) Substring(expr string, length int) string {
	if d.Driver == DriverSQLite {
		return fmt.Sprintf("substr(%s, 1, %d)", expr, length)
	}
	return fmt.Sprintf("SUBSTRING(%s, 1, %d)", expr, length)
}

// binaryCollation compares SQL Server strings byte for byte
const binaryCollation = "Latin1_General_BIN"

// CaseSensitiveEquals renders left = right compared case-sensitively. SQL
// Server columns default to a case-insensitive collation, so its comparison
// is forced to a binary one. PostgreSQL and SQLite compare text exactly.
func (d Dialect) CaseSensitiveEquals(left, right string) string {
	if d.Driver == DriverSQLServer {
		return fmt.Sprintf("%s COLLATE %s = %s", left, binaryCollation, right)
	}
	return fmt.Sprintf("%s = %s", left, right)
}
