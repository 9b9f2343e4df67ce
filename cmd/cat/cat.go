// Package cat provides the cat command.
package cat

import (
	"context"
	"io"
	"io/ioutil"
	"os"

	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/fs"
	"github.com/spf13/cobra"
)

// Globals
var (
	count   = int64(-1)
	discard = false
	zip     = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.Int64VarP(&count, "count", "", count, "Only print N characters")
	cmdFlags.BoolVarP(&discard, "discard", "", discard, "Discard the output instead of printing")
	cmdFlags.BoolVarP(&zip, "zip", "", zip, "Download a folder as a zip file")
}

var commandDefinition = &cobra.Command{
	Use:   "cat path",
	Short: `Sends a file to stdout.`,
	Long: `
Sends the contents of a file in Dropbox to standard output.

    dbxclient cat /path/to/file

Use --zip to download a whole folder as a zip file

    dbxclient cat --zip /path/to/folder > folder.zip
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		var w io.Writer = os.Stdout
		if discard {
			w = ioutil.Discard
		}
		cmd.Run(false, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			download := c.Download
			if zip {
				download = c.DownloadZip
			}
			in, err := download(ctx, args[0])
			if err != nil {
				return err
			}
			return copyOut(w, in, count)
		})
	},
}

// copyOut copies in to w, stopping after count bytes if count >= 0,
// and closes in
func copyOut(w io.Writer, in io.ReadCloser, count int64) (err error) {
	defer fs.CheckClose(in, &err)
	if count >= 0 {
		_, err = io.CopyN(w, in, count)
		if err == io.EOF {
			err = nil
		}
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
