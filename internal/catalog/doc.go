// Package catalog persists program records, the number registry, and the
// append-only resolution audit log in a single SQLite database.
package catalog
