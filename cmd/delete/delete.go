// Package delete provides the delete command.
package delete

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
	Use:   "delete path",
	Short: `Remove the file or folder at path.`,
	Long: `
Remove the file or folder at path. Folders are removed along with
everything in them.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(true, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			md, err := c.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			fs.Infof(md.PathDisplay, "Deleted")
			return nil
		})
	},
}
