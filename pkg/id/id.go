// Package id mints identifiers for accounts, instruments, orders,
// trades and positions.
package id

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID string. ULIDs are time-sortable, so rows
// keyed by them cluster by creation time in sqlite indexes. ulid.Make
// is safe for concurrent use and monotonic within a millisecond,
// which keeps IDs generated back to back in order.
func New() string {
	return ulid.Make().String()
}
