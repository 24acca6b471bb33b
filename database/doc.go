// Package database provides connection management for MySQL, PostgreSQL and
// SQLite, the model registry, migrations, SQL seed files, query logging,
// health checks and driver error classification, built on top of Bun.
package database
