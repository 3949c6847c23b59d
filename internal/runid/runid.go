// Package runid assigns a single globally-sortable identifier to the
// current process, attached to every log line so operators can tell
// one run's lines from another's across restarts and log rotation.
//
// Grounded on runZeroInc-sockstats' cmd/exporter_example2 use of
// github.com/rs/xid (xid.New().String()) to tag individual
// connections; here the same identifier scheme tags the process as a
// whole, generated once at startup.
package runid

import "github.com/rs/xid"

// current is generated once, at package init, and never changes for
// the life of the process.
var current = xid.New().String()

// Current returns this process's run identifier.
func Current() string {
	return current
}
