// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/rclone/dbxclient/cmd"
	_ "github.com/rclone/dbxclient/cmd/about"
	_ "github.com/rclone/dbxclient/cmd/authorize"
	_ "github.com/rclone/dbxclient/cmd/cat"
	_ "github.com/rclone/dbxclient/cmd/copyto"
	_ "github.com/rclone/dbxclient/cmd/delete"
	_ "github.com/rclone/dbxclient/cmd/link"
	_ "github.com/rclone/dbxclient/cmd/ls"
	_ "github.com/rclone/dbxclient/cmd/mkdir"
	_ "github.com/rclone/dbxclient/cmd/moveto"
	_ "github.com/rclone/dbxclient/cmd/put"
	_ "github.com/rclone/dbxclient/cmd/rcat"
	_ "github.com/rclone/dbxclient/cmd/tree"
	_ "github.com/rclone/dbxclient/cmd/version"
)
