// Package authorize provides the authorize command.
package authorize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fshttp"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var noBrowser = false

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&noBrowser, "no-browser", "", noBrowser, "Don't open the authorization page in a browser")
}

var commandDefinition = &cobra.Command{
	Use:   "authorize",
	Short: `Get a refresh token for the app and save it in the token file.`,
	Long: `
Runs the OAuth2 code flow for the app given by --app-key and
--app-secret. The Dropbox authorization page is opened in a browser
(or printed with --no-browser); after allowing access paste the code it
shows. The resulting token, which carries a refresh token, is written
to --token-file for later commands to use and renew.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(false, command, func(ctx context.Context) error {
			config, err := cmd.OAuthConfig()
			if err != nil {
				return err
			}
			openURL := open.Start
			if noBrowser {
				openURL = nil
			}
			ctx = context.WithValue(ctx, oauth2.HTTPClient, fshttp.NewClient(ctx))
			tok, err := authorize(ctx, config, os.Stdin, os.Stderr, openURL)
			if err != nil {
				return err
			}
			path, err := cmd.SaveTokenFile(tok)
			if err != nil {
				return err
			}
			fs.Logf(nil, "Saved token to %q", path)
			return nil
		})
	},
}

// authorize shows the user the authorization page and exchanges the
// code they paste into in for a token
//
// openURL, if not nil, is used to open the page in a browser. If it
// fails the URL is still printed to out.
func authorize(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer, openURL func(string) error) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("", oauth2.SetAuthURLParam("token_access_type", "offline"))
	if openURL != nil {
		if err := openURL(authURL); err != nil {
			fs.Debugf(nil, "Failed to open browser: %v", err)
		}
	}
	_, _ = fmt.Fprintf(out, "Go to the following link and allow access:\n\n%s\n\nEnter the code: ", authURL)
	code, err := bufio.NewReader(in).ReadString('\n')
	code = strings.TrimSpace(code)
	if code == "" {
		if err == nil || err == io.EOF {
			err = errors.New("no code entered")
		}
		return nil, err
	}
	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange code for token")
	}
	if tok.RefreshToken == "" {
		fs.Logf(nil, "Token has no refresh token so it can't be renewed")
	}
	return tok, nil
}
