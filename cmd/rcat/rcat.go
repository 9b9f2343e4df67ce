// Package rcat provides the rcat command.
package rcat

import (
	"context"
	"os"

	"github.com/docker/go-units"
	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/lib/readers"
	"github.com/spf13/cobra"
)

var overwrite = false

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&overwrite, "overwrite", "", overwrite, "Overwrite an existing file instead of failing")
}

var commandDefinition = &cobra.Command{
	Use:   "rcat dest",
	Short: `Copies standard input to a file in Dropbox.`,
	Long: `
dbxclient rcat reads from standard input (stdin) and copies it to a
single file in Dropbox.

    echo "hello world" | dbxclient rcat /path/to/file

The data is always sent through an upload session in chunks of
--chunk-size. Since standard input can only be read once a failed
chunk can't be retried. If you need to transfer a lot of data, you're
better off saving it locally and then using ` + "`dbxclient put`" + `.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)

		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			fs.Errorf(nil, "nothing to read from standard input (stdin).")
			os.Exit(1)
		}

		cmd.Run(false, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			mode := api.WriteModeAdd
			if overwrite {
				mode = api.WriteModeOverwrite
			}
			in := readers.NewCountingReader(os.Stdin)
			md, err := c.UploadChunked(ctx, args[0], in, mode, 0)
			if err != nil {
				return err
			}
			fs.Infof(md.PathDisplay, "Uploaded %s", units.BytesSize(float64(in.BytesRead())))
			return nil
		})
	},
}
