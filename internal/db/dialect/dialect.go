// Package dialect provides SQL fragment helpers for SQLite/PostgreSQL portability.
package dialect

import "strings"

const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
)

// IsPostgres returns true if the driver is PostgreSQL (pgx).
func IsPostgres(driver string) bool {
	return driver == PGX
}

// Like returns the case-insensitive LIKE operator for the driver.
//
//	SQLite:   LIKE (case-insensitive for ASCII by default)
//	Postgres: ILIKE
func Like(driver string) string {
	if IsPostgres(driver) {
		return "ILIKE"
	}
	return "LIKE"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching q anywhere in the value.
// Use it together with ESCAPE '\'.
func ContainsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
