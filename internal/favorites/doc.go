// Package favorites implements the Favorites Store: the device-local set of
// favorite game ids plus the timestamp of its last change.
//
// The record is persisted through the Storage Port under Key as
//
//	{"favorites": [3, 7], "lastModified": "2024-01-02T03:04:05.000Z"}
//
// Older clients wrote a bare list ([3, "7"]); it is still read, with string
// ids coerced to integers. LastModified drives last-write-wins reconciliation
// against the server copy (see package reconcile).
package favorites
