// Package repository defines the data access interfaces for checksmtp.
//
// Persistence is optional: only the run history uses it, and only when
// enabled in the config or with -db. The implementation is in the sqlite
// subpackage.
//
// # RunStore Interface
//
// RunStore saves finished runs and reads them back as domain.RunRecord
// values, newest first.
//
// # SQLite Implementation
//
// The sqlite implementation uses the pure-Go modernc.org/sqlite driver with
// WAL mode. Each run is one row in runs plus one row per recorded port in
// port_results, written in a single transaction.
//
// # Testing
//
// The sqlite store is tested with in-memory databases.
package repository
