// Package copyto provides the copyto command.
package copyto

import (
	"context"

	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/fs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "copyto source dest",
	Short: `Copy a file or folder within Dropbox.`,
	Long: `
Copy the file or folder at source to dest on the server. Nothing is
downloaded.

    dbxclient copyto /work/report.pdf /archive/report-2021.pdf
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Run(true, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			md, err := c.Copy(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fs.Infof(md.PathDisplay, "Copied from %q", args[0])
			return nil
		})
	},
}
