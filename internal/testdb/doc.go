// Package testdb provides utilities specifically for database testing: it
// opens migrated SQLite and PostgreSQL databases and wraps test bodies in
// transactions that are rolled back afterwards.
package testdb
