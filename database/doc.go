// Package database is the backing store behind the generic repository: Bun
// connection management for mysql, postgres and sqlite, configuration and
// environment overrides, per-operation sessions, SQL error classification,
// logging and query hooks.
package database
