// Package store persists the catalog snapshot and synchronization records in
// SQLite.
//
// Store implements both catalog.Repository and syncstate.Repository over a
// single WAL-mode database. Assets are kept as JSON documents; records are
// first-class rows so status queries stay cheap. Deleting an asset runs the
// registered pre-delete hooks first so the bridge can mark the linked record
// for orphan removal.
package store
