// Package storage persists the candidate snapshot from the previous run so
// the CLI can show which matches are newly discovered.
package storage
