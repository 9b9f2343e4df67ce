// Package fs holds the ambient plumbing shared by the dbxclient
// packages: config, logging and small io helpers.
package fs

import (
	"io"
)

// CheckClose is a utility function used to check the return from
// Close in a defer statement.
func CheckClose(c io.Closer, err *error) {
	cerr := c.Close()
	if *err == nil {
		*err = cerr
	}
}
