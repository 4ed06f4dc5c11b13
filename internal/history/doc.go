// Package history keeps the bounded list of recently opened media files.
//
// History is the in-memory most-recently-used list; Store persists a
// History of paths to disk so the list survives across runs.
package history
