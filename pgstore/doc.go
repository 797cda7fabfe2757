// Package pgstore provides PostgreSQL-backed implementations of the
// authkit persistence interfaces, built on database/sql with the lib/pq
// driver.
package pgstore
