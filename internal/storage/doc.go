// Package storage is the record store the pipeline polls for unsent notices.
//
// Two backends sit behind Store:
//   - "postgres": the production table, reached through a pgx pool
//   - "sqlite": an embedded database with the same table, for local runs and tests
//
// Both page unsent records by id (keyset) so a cycle never revisits a record
// it skipped, and both mark records sent idempotently.
package storage
