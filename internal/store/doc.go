// Package store persists matching results and caches fetched encyclopedia
// pages in a SQLite database under the data directory.
//
// The schema is embedded and versioned. Opening a database written by a
// different schema version fails with ErrSchemaMismatch rather than trying
// to migrate; delete the database to start over. Writes retry briefly when
// SQLite reports the database as busy, since CLI runs may overlap with a
// `show` reading the same file.
package store
