// Package sqlkv implements store.Backend on a single SQL table. The same
// queries run against SQLite (mattn/go-sqlite3) for a local durable file and
// PostgreSQL (pgx stdlib driver) for a shared database; sqlx rebinds the
// placeholders per dialect and goose applies the embedded schema on open.
package sqlkv
