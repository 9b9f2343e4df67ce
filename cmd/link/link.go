// Package link provides the link command.
package link

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/dropbox"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/spf13/cobra"
)

// Globals
var (
	visibility = ""
	password   = ""
	expire     time.Duration
	temporary  = false
	copyLink   = false
)

// writeClipboard puts text on the system clipboard
var writeClipboard = clipboard.WriteAll

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&visibility, "visibility", "", visibility, "Visibility of the link: public, team_only or password")
	cmdFlags.StringVarP(&password, "password", "", password, "Password for the link (needs --visibility password)")
	cmdFlags.DurationVarP(&expire, "expire", "", expire, "Make the link expire after this long")
	cmdFlags.BoolVarP(&temporary, "temporary", "", temporary, "Make a temporary download link valid for four hours instead")
	cmdFlags.BoolVarP(&copyLink, "copy", "", copyLink, "Copy the link to the clipboard too")
}

var commandDefinition = &cobra.Command{
	Use:   "link path",
	Short: `Generate a public link to a file or folder.`,
	Long: `
Create or retrieve a shared link to the file or folder at path.

    dbxclient link /work/report.pdf
    https://www.dropbox.com/s/xxxxx/report.pdf?dl=0

If the path already has a shared link it is printed. The settings are
only applied to new links.

Use --temporary to get a direct download link to a file which expires
after four hours.

Use --copy to put the link on the clipboard as well as printing it.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(true, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			var url string
			if temporary {
				url, err = c.GetTemporaryLink(ctx, args[0])
			} else {
				url, err = link(ctx, c, args[0], settings(time.Now()))
			}
			if err != nil {
				return err
			}
			return output(os.Stdout, url)
		})
	},
}

// output prints url and copies it to the clipboard if --copy is set
func output(out io.Writer, url string) error {
	if _, err := fmt.Fprintln(out, url); err != nil {
		return err
	}
	if !copyLink {
		return nil
	}
	if err := writeClipboard(url); err != nil {
		return errors.Wrap(err, "failed to copy link to clipboard")
	}
	fs.Debugf(nil, "Copied link to clipboard")
	return nil
}

// settings makes the shared link settings from the flags
func settings(now time.Time) *api.SharedLinkSettings {
	s := &api.SharedLinkSettings{
		RequestedVisibility: visibility,
		LinkPassword:        password,
	}
	if expire > 0 {
		expires := now.Add(expire).UTC().Truncate(time.Second)
		s.Expires = &expires
	}
	return s
}

// linker is the part of dropbox.Client used by link
type linker interface {
	CreateSharedLinkWithSettings(ctx context.Context, path string, settings *api.SharedLinkSettings) (*api.SharedLinkMetadata, error)
	ListSharedLinks(ctx context.Context, path string, directOnly bool, cursor string) ([]api.SharedLinkMetadata, error)
}

var _ linker = (*dropbox.Client)(nil)

// link creates a shared link to path or returns the existing one
func link(ctx context.Context, c linker, path string, settings *api.SharedLinkSettings) (string, error) {
	md, err := c.CreateSharedLinkWithSettings(ctx, path, settings)
	if err == nil {
		return md.URL, nil
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || !apiErr.HasPrefix("shared_link_already_exists") {
		return "", err
	}
	fs.Debugf(path, "Shared link already exists - looking it up")
	links, err := c.ListSharedLinks(ctx, path, true, "")
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", errors.New("shared link already exists but couldn't be found")
	}
	return links[0].URL, nil
}
