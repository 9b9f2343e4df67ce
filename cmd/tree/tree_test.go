package tree

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/a8m/tree"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister serves pages in turn, the cursor naming the next page
type fakeLister struct {
	pages     []api.ListFolderResult
	path      string
	recursive bool
	err       error
}

func (l *fakeLister) ListFolder(ctx context.Context, path string, recursive bool) (*api.ListFolderResult, error) {
	l.path, l.recursive = path, recursive
	if l.err != nil {
		return nil, l.err
	}
	return &l.pages[0], nil
}

func (l *fakeLister) ListFolderContinue(ctx context.Context, cursor string) (*api.ListFolderResult, error) {
	for i := range l.pages {
		if l.pages[i].Cursor == cursor && i+1 < len(l.pages) {
			return &l.pages[i+1], nil
		}
	}
	return nil, errors.New("bad cursor")
}

func workLister() *fakeLister {
	return &fakeLister{pages: []api.ListFolderResult{
		{
			Entries: []api.Metadata{
				{Tag: api.TagFolder, Name: "Work", PathLower: "/work", PathDisplay: "/Work"},
				{Tag: api.TagFolder, Name: "sub", PathLower: "/work/sub", PathDisplay: "/Work/sub"},
				{Tag: api.TagFile, Name: "file1.txt", PathLower: "/work/file1.txt", PathDisplay: "/Work/file1.txt", Size: 60},
			},
			Cursor:  "page1",
			HasMore: true,
		},
		{
			Entries: []api.Metadata{
				{Tag: api.TagFile, Name: "File3.txt", PathLower: "/work/sub/file3.txt", PathDisplay: "/Work/sub/File3.txt", Size: 3},
				{Tag: api.TagDeleted, Name: "gone.txt", PathLower: "/work/gone.txt"},
			},
			Cursor: "page2",
		},
	}}
}

func TestTree(t *testing.T) {
	l := workLister()
	var out bytes.Buffer
	require.NoError(t, Tree(context.Background(), l, "/Work/", &out, &tree.Options{}))
	assert.Equal(t, "/Work/", l.path)
	assert.True(t, l.recursive)
	assert.Equal(t, `/
├── file1.txt
└── sub
    └── File3.txt

1 directories, 2 files
`, out.String())
}

func TestTreeLevel(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Tree(context.Background(), workLister(), "/work", &out, &tree.Options{DeepLevel: 1}))
	assert.Equal(t, `/
├── file1.txt
└── sub

1 directories, 1 files
`, out.String())
}

func TestTreeRoot(t *testing.T) {
	l := &fakeLister{pages: []api.ListFolderResult{{
		Entries: []api.Metadata{
			{Tag: api.TagFile, Name: "b.txt", PathLower: "/b.txt"},
			{Tag: api.TagFolder, Name: "a", PathLower: "/a"},
			{Tag: api.TagFile, Name: "c.txt", PathLower: "/a/c.txt"},
		},
	}}}
	var out bytes.Buffer
	require.NoError(t, Tree(context.Background(), l, "", &out, &tree.Options{DirsOnly: true}))
	assert.Equal(t, `/
└── a

1 directories
`, out.String())
}

func TestTreeErrors(t *testing.T) {
	var out bytes.Buffer
	err := Tree(context.Background(), &fakeLister{err: errors.New("boom")}, "/x", &out, &tree.Options{})
	assert.EqualError(t, err, "boom")

	err = Tree(context.Background(), workLister(), "id:abc", &out, &tree.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use a path")
	assert.Equal(t, "", out.String())
}

func TestDirTree(t *testing.T) {
	dirs, err := newDirTree(context.Background(), workLister(), "/work")
	require.NoError(t, err)

	fi, err := dirs.Stat("/")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	fi, err = dirs.Stat("/SUB/file3.txt")
	require.NoError(t, err)
	assert.Equal(t, "File3.txt", fi.Name())
	assert.Equal(t, int64(3), fi.Size())
	assert.False(t, fi.IsDir())

	_, err = dirs.Stat("/gone.txt")
	assert.Error(t, err)

	names, err := dirs.ReadDir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub", "file1.txt"}, names)

	names, err = dirs.ReadDir("/sub")
	require.NoError(t, err)
	assert.Equal(t, []string{"File3.txt"}, names)

	_, err = dirs.ReadDir("/file1.txt")
	assert.Error(t, err)
}
