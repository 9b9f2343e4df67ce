package dropbox

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
)

// GetAccountInfo returns the account of the authenticated user
func (c *Client) GetAccountInfo(ctx context.Context) (*api.FullAccount, error) {
	var account api.FullAccount
	if err := c.RPCRequest(ctx, "users/get_current_account", nil, &account); err != nil {
		return nil, errors.Wrap(err, "get account info failed")
	}
	return &account, nil
}

// RevokeToken disables the access token in use
func (c *Client) RevokeToken(ctx context.Context) error {
	return c.RPCRequest(ctx, "auth/token/revoke", nil, nil)
}
