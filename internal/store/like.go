package store

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards in s so they match literally under
// ESCAPE '\' (the default escape character in PostgreSQL).
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern builds a LIKE pattern matching any value that contains s.
// Wildcards in s match literally; use with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}
