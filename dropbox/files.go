package dropbox

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/lib/rest"
)

// Copy copies a file or folder, with all its contents, to toPath
func (c *Client) Copy(ctx context.Context, fromPath, toPath string) (*api.Metadata, error) {
	arg := api.RelocationArg{
		FromPath: NormalizePath(fromPath),
		ToPath:   NormalizePath(toPath),
	}
	var result api.RelocationResult
	if err := c.RPCRequest(ctx, "files/copy_v2", &arg, &result); err != nil {
		return nil, errors.Wrap(err, "copy failed")
	}
	return &result.Metadata, nil
}

// Move moves a file or folder, with all its contents, to toPath
func (c *Client) Move(ctx context.Context, fromPath, toPath string, autorename bool) (*api.Metadata, error) {
	arg := api.RelocationArg{
		FromPath:   NormalizePath(fromPath),
		ToPath:     NormalizePath(toPath),
		Autorename: autorename,
	}
	var result api.RelocationResult
	if err := c.RPCRequest(ctx, "files/move_v2", &arg, &result); err != nil {
		return nil, errors.Wrap(err, "move failed")
	}
	return &result.Metadata, nil
}

// CreateFolder makes a folder at path
func (c *Client) CreateFolder(ctx context.Context, path string) (*api.Metadata, error) {
	var metadata api.Metadata
	if err := c.RPCRequest(ctx, "files/create_folder", &api.PathArg{Path: NormalizePath(path)}, &metadata); err != nil {
		return nil, errors.Wrap(err, "create folder failed")
	}
	metadata.Tag = api.TagFolder
	return &metadata, nil
}

// Delete removes the file or folder at path. Folders are removed
// with all their contents.
func (c *Client) Delete(ctx context.Context, path string) (*api.Metadata, error) {
	var metadata api.Metadata
	if err := c.RPCRequest(ctx, "files/delete", &api.PathArg{Path: NormalizePath(path)}, &metadata); err != nil {
		return nil, errors.Wrap(err, "delete failed")
	}
	return &metadata, nil
}

// GetMetadata returns the metadata for the file or folder at path
func (c *Client) GetMetadata(ctx context.Context, path string) (*api.Metadata, error) {
	var metadata api.Metadata
	if err := c.RPCRequest(ctx, "files/get_metadata", &api.PathArg{Path: NormalizePath(path)}, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// GetTemporaryLink returns a link to stream the file at path which
// lasts for four hours
func (c *Client) GetTemporaryLink(ctx context.Context, path string) (string, error) {
	var result api.GetTemporaryLinkResult
	if err := c.RPCRequest(ctx, "files/get_temporary_link", &api.PathArg{Path: NormalizePath(path)}, &result); err != nil {
		return "", errors.Wrap(err, "get temporary link failed")
	}
	return result.Link, nil
}

// ListFolder lists the folder at path. Use ListFolderContinue with
// the cursor while HasMore is set.
func (c *Client) ListFolder(ctx context.Context, path string, recursive bool) (*api.ListFolderResult, error) {
	arg := api.ListFolderArg{
		Path:      NormalizePath(path),
		Recursive: recursive,
	}
	var result api.ListFolderResult
	if err := c.RPCRequest(ctx, "files/list_folder", &arg, &result); err != nil {
		return nil, errors.Wrap(err, "list folder failed")
	}
	return &result, nil
}

// ListFolderContinue fetches the next page of a listing
func (c *Client) ListFolderContinue(ctx context.Context, cursor string) (*api.ListFolderResult, error) {
	var result api.ListFolderResult
	if err := c.RPCRequest(ctx, "files/list_folder/continue", &api.ListFolderContinueArg{Cursor: cursor}, &result); err != nil {
		return nil, errors.Wrap(err, "list folder continue failed")
	}
	return &result, nil
}

// Search searches for files and folders matching query
func (c *Client) Search(ctx context.Context, query string, includeHighlights bool) (*api.SearchResult, error) {
	arg := api.SearchArg{
		Query:             query,
		IncludeHighlights: includeHighlights,
	}
	var result api.SearchResult
	if err := c.RPCRequest(ctx, "files/search_v2", &arg, &result); err != nil {
		return nil, errors.Wrap(err, "search failed")
	}
	return &result, nil
}

// download calls a download style content endpoint returning the body
func (c *Client) download(ctx context.Context, endpoint string, args interface{}) (io.ReadCloser, error) {
	resp, err := c.ContentRequest(ctx, endpoint, args, nil, 0)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Download returns the contents of the file at path. The caller must
// close it.
func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	return c.download(ctx, "files/download", &api.PathArg{Path: NormalizePath(path)})
}

// DownloadZip returns the folder at path as a zip file. The caller
// must close it.
func (c *Client) DownloadZip(ctx context.Context, path string) (io.ReadCloser, error) {
	return c.download(ctx, "files/download_zip", &api.PathArg{Path: NormalizePath(path)})
}

// GetThumbnail returns a thumbnail of the image at path
func (c *Client) GetThumbnail(ctx context.Context, path string, format api.ThumbnailFormat, size api.ThumbnailSize) ([]byte, error) {
	if format == "" {
		format = api.ThumbnailFormatJPEG
	}
	if size == "" {
		size = api.ThumbnailSizeW64H64
	}
	arg := api.ThumbnailArg{
		Path:   NormalizePath(path),
		Format: format,
		Size:   size,
	}
	resp, err := c.ContentRequest(ctx, "files/get_thumbnail", &arg, nil, 0)
	if err != nil {
		return nil, errors.Wrap(err, "get thumbnail failed")
	}
	return rest.ReadBody(resp)
}
