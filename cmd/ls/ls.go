// Package ls provides the ls command.
package ls

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/go-units"
	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/dropbox"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/spf13/cobra"
)

// Globals
var (
	recursive = false
	human     = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&recursive, "recursive", "R", recursive, "List folders recursively")
	cmdFlags.BoolVarP(&human, "human-readable", "", human, "Print sizes in human readable format")
}

var commandDefinition = &cobra.Command{
	Use:   "ls [path]",
	Short: `List the files and folders in the path with size and path.`,
	Long: `
Lists the files and folders in the path. Files are shown with their
size, folders with a "-" and a trailing "/".

    $ dbxclient ls /work
           60 /work/file2.txt
            - /work/sub/

Use -R to list the contents of sub folders too.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		cmd.Run(false, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			return list(ctx, c, path, recursive, os.Stdout)
		})
	},
}

// lister is the part of dropbox.Client used by list
type lister interface {
	ListFolder(ctx context.Context, path string, recursive bool) (*api.ListFolderResult, error)
	ListFolderContinue(ctx context.Context, cursor string) (*api.ListFolderResult, error)
}

// list writes the entries at path to out, following the cursor until
// there are no more
func list(ctx context.Context, c lister, path string, recursive bool, out io.Writer) error {
	result, err := c.ListFolder(ctx, path, recursive)
	if err != nil {
		return err
	}
	for {
		for i := range result.Entries {
			entry := &result.Entries[i]
			name := entry.PathDisplay
			if name == "" {
				name = entry.Name
			}
			switch {
			case entry.IsDir():
				_, err = fmt.Fprintf(out, "%9s %s/\n", "-", name)
			case entry.Tag == api.TagDeleted:
				continue
			case human:
				_, err = fmt.Fprintf(out, "%9s %s\n", units.BytesSize(float64(entry.Size)), name)
			default:
				_, err = fmt.Fprintf(out, "%9d %s\n", entry.Size, name)
			}
			if err != nil {
				return err
			}
		}
		if !result.HasMore {
			return nil
		}
		result, err = c.ListFolderContinue(ctx, result.Cursor)
		if err != nil {
			return err
		}
	}
}

// Check the client satisfies the interface
var _ lister = (*dropbox.Client)(nil)
