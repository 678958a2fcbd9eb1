// Package datastore opens the optional SQL database and Redis connections
// that beacon health-checks and publishes alerts to. Supported SQL drivers
// are "postgres" (lib/pq) and "sqlite3" (mattn/go-sqlite3).
package datastore
