// Package moveto provides the moveto command.
package moveto

import (
	"context"

	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/fs"
	"github.com/spf13/cobra"
)

var autorename = false

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&autorename, "autorename", "", autorename, "Rename the destination if it already exists")
}

var commandDefinition = &cobra.Command{
	Use:   "moveto source dest",
	Short: `Move or rename a file or folder within Dropbox.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Run(true, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			md, err := c.Move(ctx, args[0], args[1], autorename)
			if err != nil {
				return err
			}
			fs.Infof(md.PathDisplay, "Moved from %q", args[0])
			return nil
		})
	},
}
