// Package mkdir provides the mkdir command.
package mkdir

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
	Use:   "mkdir path",
	Short: `Make the folder if it doesn't already exist.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(true, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			md, err := c.CreateFolder(ctx, args[0])
			if err != nil {
				return err
			}
			fs.Infof(md.PathDisplay, "Made folder")
			return nil
		})
	},
}
