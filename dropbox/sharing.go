package dropbox

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
)

// CreateSharedLinkWithSettings makes a shared link for path
//
// settings may be nil to get the default visibility.
func (c *Client) CreateSharedLinkWithSettings(ctx context.Context, path string, settings *api.SharedLinkSettings) (*api.SharedLinkMetadata, error) {
	arg := api.CreateSharedLinkArg{
		Path: NormalizePath(path),
	}
	if !settings.IsEmpty() {
		arg.Settings = settings
	}
	var result api.SharedLinkMetadata
	if err := c.RPCRequest(ctx, "sharing/create_shared_link_with_settings", &arg, &result); err != nil {
		return nil, errors.Wrap(err, "create shared link failed")
	}
	return &result, nil
}

// ListSharedLinks lists shared links
//
// With an empty path all the user's shared links are listed,
// otherwise those giving access to path. directOnly restricts them to
// links to path itself.
func (c *Client) ListSharedLinks(ctx context.Context, path string, directOnly bool, cursor string) ([]api.SharedLinkMetadata, error) {
	arg := api.ListSharedLinksArg{
		Cursor:     cursor,
		DirectOnly: directOnly,
	}
	if path != "" {
		arg.Path = NormalizePath(path)
	}
	var result api.ListSharedLinksResult
	if err := c.RPCRequest(ctx, "sharing/list_shared_links", &arg, &result); err != nil {
		return nil, errors.Wrap(err, "list shared links failed")
	}
	return result.Links, nil
}
