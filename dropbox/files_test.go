package dropbox

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"
	"testing"

	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endpointFake answers each endpoint with a fixed JSON body or raw
// bytes for content downloads
func endpointFake(responses map[string]string) *fakeDropbox {
	f := newFakeDropbox()
	f.handle = func(w http.ResponseWriter, r *http.Request, body []byte) {
		endpoint := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[1]
		response, ok := responses[endpoint]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(response))
	}
	return f
}

// lastBody returns the JSON body of the last RPC call
func lastBody(t *testing.T, f *fakeDropbox) map[string]interface{} {
	reqs := f.recorded()
	require.NotEmpty(t, reqs)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	return body
}

func TestCopyMove(t *testing.T) {
	f := endpointFake(map[string]string{
		"files/copy_v2": `{"metadata": {".tag": "file", "name": "b.txt", "path_display": "/b.txt", "size": 5}}`,
		"files/move_v2": `{"metadata": {".tag": "folder", "name": "d", "path_display": "/d"}}`,
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	md, err := c.Copy(ctx, "a.txt", "/b.txt/")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", md.Name)
	assert.False(t, md.IsDir())
	assert.Equal(t, map[string]interface{}{"from_path": "/a.txt", "to_path": "/b.txt"}, lastBody(t, f))

	md, err = c.Move(ctx, "/c", "d", true)
	require.NoError(t, err)
	assert.True(t, md.IsDir())
	assert.Equal(t, map[string]interface{}{"from_path": "/c", "to_path": "/d", "autorename": true}, lastBody(t, f))
}

func TestCreateFolderDelete(t *testing.T) {
	f := endpointFake(map[string]string{
		"files/create_folder": `{"name": "new", "path_display": "/new", "id": "id:1"}`,
		"files/delete":        `{".tag": "file", "name": "old.txt", "path_display": "/old.txt"}`,
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	md, err := c.CreateFolder(ctx, "new/")
	require.NoError(t, err)
	assert.Equal(t, api.TagFolder, md.Tag)
	assert.Equal(t, "id:1", md.ID)
	assert.Equal(t, map[string]interface{}{"path": "/new"}, lastBody(t, f))

	md, err = c.Delete(ctx, "old.txt")
	require.NoError(t, err)
	assert.Equal(t, "old.txt", md.Name)
	assert.Equal(t, map[string]interface{}{"path": "/old.txt"}, lastBody(t, f))

	_, err = c.Delete(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"path": ""}, lastBody(t, f))
}

func TestGetMetadataAndLinks(t *testing.T) {
	f := endpointFake(map[string]string{
		"files/get_metadata":       `{".tag": "file", "name": "a.txt", "size": 12, "content_hash": "abc"}`,
		"files/get_temporary_link": `{"metadata": {".tag": "file", "name": "a.txt"}, "link": "https://dl.example.com/a.txt"}`,
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	md, err := c.GetMetadata(ctx, "id:abc")
	require.NoError(t, err)
	assert.Equal(t, int64(12), md.Size)
	assert.Equal(t, "abc", md.ContentHash)
	assert.Equal(t, map[string]interface{}{"path": "id:abc"}, lastBody(t, f))

	link, err := c.GetTemporaryLink(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "https://dl.example.com/a.txt", link)
}

func TestListFolderSearch(t *testing.T) {
	f := endpointFake(map[string]string{
		"files/list_folder":          `{"entries": [{".tag": "file", "name": "a"}, {".tag": "folder", "name": "b"}], "cursor": "c1", "has_more": true}`,
		"files/list_folder/continue": `{"entries": [{".tag": "file", "name": "c"}], "cursor": "c2", "has_more": false}`,
		"files/search_v2":            `{"matches": [{"metadata": {".tag": "metadata", "metadata": {".tag": "file", "name": "match.txt"}}}], "has_more": false}`,
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	result, err := c.ListFolder(ctx, "/", true)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.True(t, result.Entries[1].IsDir())
	assert.True(t, result.HasMore)
	assert.Equal(t, map[string]interface{}{"path": "", "recursive": true}, lastBody(t, f))

	result, err = c.ListFolderContinue(ctx, result.Cursor)
	require.NoError(t, err)
	assert.Equal(t, "c2", result.Cursor)
	assert.False(t, result.HasMore)
	assert.Equal(t, map[string]interface{}{"cursor": "c1"}, lastBody(t, f))

	found, err := c.Search(ctx, "match", true)
	require.NoError(t, err)
	require.Len(t, found.Matches, 1)
	assert.Equal(t, "match.txt", found.Matches[0].Metadata.Metadata.Name)
	assert.Equal(t, map[string]interface{}{"query": "match", "include_highlights": true}, lastBody(t, f))
}

func TestDownload(t *testing.T) {
	f := endpointFake(map[string]string{
		"files/download":      "file contents",
		"files/download_zip":  "PK zip",
		"files/get_thumbnail": "\xff\xd8 jpeg",
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	rc, err := c.Download(ctx, "dir/a.txt")
	require.NoError(t, err)
	data, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "file contents", string(data))

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "content", reqs[0].Host)
	assert.Empty(t, reqs[0].Body)
	assert.Equal(t, "", reqs[0].Header.Get("Content-Type"))
	var arg api.PathArg
	reqs[0].arg(t, &arg)
	assert.Equal(t, "/dir/a.txt", arg.Path)

	rc, err = c.DownloadZip(ctx, "/dir")
	require.NoError(t, err)
	data, err = ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "PK zip", string(data))

	thumb, err := c.GetThumbnail(ctx, "/img.png", "", "")
	require.NoError(t, err)
	assert.Equal(t, "\xff\xd8 jpeg", string(thumb))
	reqs = f.recorded()
	var thumbArg api.ThumbnailArg
	reqs[len(reqs)-1].arg(t, &thumbArg)
	assert.Equal(t, api.ThumbnailArg{Path: "/img.png", Format: api.ThumbnailFormatJPEG, Size: api.ThumbnailSizeW64H64}, thumbArg)

	_, err = c.GetThumbnail(ctx, "/img.png", api.ThumbnailFormatPNG, api.ThumbnailSizeW640H480)
	require.NoError(t, err)
	reqs = f.recorded()
	reqs[len(reqs)-1].arg(t, &thumbArg)
	assert.Equal(t, api.ThumbnailFormatPNG, thumbArg.Format)
	assert.Equal(t, api.ThumbnailSizeW640H480, thumbArg.Size)
}

func TestDownloadNotFound(t *testing.T) {
	f := newFakeDropbox()
	f.fail("files/download", http.StatusConflict, `{"error_summary": "path/not_found/...", "error": {".tag": "path"}}`)
	c := newTestClient(t, f)
	_, err := c.Download(context.Background(), "/missing")
	require.Error(t, err)
	assert.Equal(t, "path/not_found/...", err.Error())
}

func TestSharedLinks(t *testing.T) {
	f := endpointFake(map[string]string{
		"sharing/create_shared_link_with_settings": `{".tag": "file", "url": "https://www.dropbox.com/s/abc/a.txt?dl=0", "name": "a.txt"}`,
		"sharing/list_shared_links":                `{"links": [{".tag": "file", "url": "https://www.dropbox.com/s/abc/a.txt?dl=0", "name": "a.txt"}], "has_more": false}`,
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	link, err := c.CreateSharedLinkWithSettings(ctx, "a.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://www.dropbox.com/s/abc/a.txt?dl=0", link.URL)
	assert.Equal(t, map[string]interface{}{"path": "/a.txt"}, lastBody(t, f))

	_, err = c.CreateSharedLinkWithSettings(ctx, "a.txt", &api.SharedLinkSettings{})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"path": "/a.txt"}, lastBody(t, f))

	_, err = c.CreateSharedLinkWithSettings(ctx, "a.txt", &api.SharedLinkSettings{RequestedVisibility: "public"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"path":     "/a.txt",
		"settings": map[string]interface{}{"requested_visibility": "public"},
	}, lastBody(t, f))

	links, err := c.ListSharedLinks(ctx, "a.txt", true, "")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "a.txt", links[0].Name)
	assert.Equal(t, map[string]interface{}{"path": "/a.txt", "direct_only": true}, lastBody(t, f))

	_, err = c.ListSharedLinks(ctx, "", false, "cur")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"cursor": "cur", "direct_only": false}, lastBody(t, f))
}

func TestUsers(t *testing.T) {
	f := endpointFake(map[string]string{
		"users/get_current_account": `{"account_id": "dbid:1", "name": {"display_name": "Test User"}, "email": "test@example.com", "account_type": {".tag": "basic"}, "root_info": {".tag": "user", "root_namespace_id": "7", "home_namespace_id": "7"}}`,
		"auth/token/revoke":         `null`,
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	account, err := c.GetAccountInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dbid:1", account.AccountID)
	assert.Equal(t, "Test User", account.Name.DisplayName)
	assert.Equal(t, "basic", account.AccountType.Tag)
	assert.Equal(t, "7", account.RootInfo.RootNamespaceID)

	require.NoError(t, c.RevokeToken(ctx))

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	for _, req := range reqs {
		assert.Equal(t, "api", req.Host)
		assert.Empty(t, req.Body)
	}
	assert.Equal(t, "auth/token/revoke", reqs[1].Endpoint)
}
