// Package todo owns the task list and its persisted mirror.
//
// A Store holds an ordered Collection of Task values in memory and writes the
// whole collection to one key of a storage.Storage slot after every change.
// The slot payload is a compact JSON array:
//
//	[
//	  {"id":"0192f1c4-...","text":"buy milk","completed":false,"createdAt":1729240000000}
//	]
//
// # Reading
//
// Load never fails hard. A missing key yields an empty list. A payload that
// does not parse, or that violates the embedded JSON Schema, is logged and
// yields an empty list together with a StorageError of kind ReadCorrupt.
// Unreachable storage yields an empty list and kind Unavailable.
//
// createdAt is accepted as milliseconds since the epoch, a numeric string,
// or an RFC 3339 string. Records that repeat an earlier id are dropped.
//
// # Writing
//
// Save, Add, Toggle and Remove keep the in-memory change even when the write
// fails; the returned StorageError (kind Unavailable or WriteFailure) is for
// the caller to present. Encoding is deterministic, so saving an unchanged
// list twice produces identical bytes.
//
// # Ordering
//
// Insertion order is display order. With WithSortOnLoad the list is stably
// sorted by createdAt after each Load.
package todo
