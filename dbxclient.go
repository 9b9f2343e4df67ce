// Command line client for the Dropbox HTTP API v2
package main

import (
	"github.com/rclone/dbxclient/cmd"
	_ "github.com/rclone/dbxclient/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
