// Package about provides the about command.
package about

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/spf13/cobra"
)

var jsonOutput = false

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&jsonOutput, "json", "", jsonOutput, "Format output as JSON")
}

var commandDefinition = &cobra.Command{
	Use:   "about",
	Short: `Show the Dropbox account the credentials belong to.`,
	Long: `
Prints the account name, email, type and root namespace of the
current user.

    $ dbxclient about
    Name:      Jane Doe
    Email:     jane@example.com
    Account:   dbid:AAxxxx
    Type:      basic
    Namespace: 1234567
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(true, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			account, err := c.GetAccountInfo(ctx)
			if err != nil {
				return err
			}
			return show(os.Stdout, account, jsonOutput)
		})
	},
}

func show(out io.Writer, account *api.FullAccount, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "\t")
		return enc.Encode(account)
	}
	_, err := fmt.Fprintf(out, "Name:      %s\nEmail:     %s\nAccount:   %s\nType:      %s\nNamespace: %s\n",
		account.Name.DisplayName, account.Email, account.AccountID, account.AccountType.Tag, account.RootInfo.RootNamespaceID)
	return err
}
