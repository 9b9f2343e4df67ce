// Package tree provides the tree command.
package tree

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/a8m/tree"
	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/dropbox"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/spf13/cobra"
)

var (
	opts     tree.Options
	noReport bool
	sort     string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	flags := commandDefinition.Flags()
	// List
	flags.BoolVarP(&opts.DirsOnly, "dirs-only", "d", false, "List directories only")
	flags.BoolVarP(&opts.FullPath, "full-path", "", false, "Print the full path prefix for each file")
	flags.BoolVarP(&noReport, "noreport", "", false, "Turn off file/directory count at end of tree listing")
	flags.IntVarP(&opts.DeepLevel, "level", "", 0, "Descend only level directories deep")
	// Files
	flags.BoolVarP(&opts.ByteSize, "size", "s", false, "Print the size in bytes of each file")
	flags.BoolVarP(&opts.UnitSize, "human", "", false, "Print the size in a more human readable way")
	flags.BoolVarP(&opts.Quotes, "quote", "Q", false, "Quote filenames with double quotes")
	flags.BoolVarP(&opts.LastMod, "modtime", "D", false, "Print the date of last modification")
	// Sort
	flags.BoolVarP(&opts.NoSort, "unsorted", "U", false, "Leave files unsorted")
	flags.BoolVarP(&opts.ModSort, "sort-modtime", "t", false, "Sort files by last modification time")
	flags.BoolVarP(&opts.ReverSort, "sort-reverse", "r", false, "Reverse the order of the sort")
	flags.BoolVarP(&opts.DirSort, "dirsfirst", "", false, "List directories before files (-U disables)")
	flags.StringVarP(&sort, "sort", "", "", "Select sort: name,version,size,mtime")
	// Graphics
	flags.BoolVarP(&opts.NoIndent, "noindent", "i", false, "Don't print indentation lines")
	flags.BoolVarP(&opts.Colorize, "color", "C", false, "Turn colorization on always")
}

var commandDefinition = &cobra.Command{
	Use:   "tree [path]",
	Short: `List the contents of a folder in a tree like fashion.`,
	Long: `
Lists the contents of a Dropbox folder in a similar way to the unix
tree command.

    $ dbxclient tree /work
    /
    ├── file1.txt
    ├── file2.txt
    └── sub
        ├── file3.txt
        └── file4.txt

    1 directories, 4 files

The whole folder is listed with one recursive listing before anything
is printed. The path must be a plain path, not an id or namespace
reference.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		root := ""
		if len(args) > 0 {
			root = args[0]
		}
		opts.VerSort = opts.VerSort || sort == "version"
		opts.ModSort = opts.ModSort || sort == "mtime"
		opts.NameSort = sort == "name"
		opts.SizeSort = sort == "size"
		cmd.Run(false, command, func(ctx context.Context) error {
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			return Tree(ctx, c, root, os.Stdout, &opts)
		})
	},
}

// lister is the part of dropbox.Client used by Tree
type lister interface {
	ListFolder(ctx context.Context, path string, recursive bool) (*api.ListFolderResult, error)
	ListFolderContinue(ctx context.Context, cursor string) (*api.ListFolderResult, error)
}

var _ lister = (*dropbox.Client)(nil)

// Tree lists root recursively and prints it to out
func Tree(ctx context.Context, c lister, root string, out io.Writer, opts *tree.Options) error {
	dirs, err := newDirTree(ctx, c, root)
	if err != nil {
		return err
	}
	opts.Fs = dirs
	opts.OutFile = out
	inf := tree.New("/")
	nd, nf := inf.Visit(opts)
	inf.Print(opts)
	if !noReport {
		footer := fmt.Sprintf("\n%d directories", nd)
		if !opts.DirsOnly {
			footer += fmt.Sprintf(", %d files", nf)
		}
		_, err = fmt.Fprintln(out, footer)
	}
	return err
}

// dirTree holds a recursive listing keyed by lower case path
// relative to the listed folder, "/" being the folder itself
type dirTree struct {
	entries  map[string]*api.Metadata
	children map[string][]string // names in each folder
}

// newDirTree reads the whole of root with one recursive listing
func newDirTree(ctx context.Context, c lister, root string) (*dirTree, error) {
	rootLower := strings.ToLower(dropbox.NormalizePath(root))
	if rootLower != "" && !strings.HasPrefix(rootLower, "/") {
		return nil, errors.Errorf("can't make a tree of %q: use a path", root)
	}
	dirs := &dirTree{
		entries:  map[string]*api.Metadata{},
		children: map[string][]string{"/": nil},
	}
	result, err := c.ListFolder(ctx, root, true)
	if err != nil {
		return nil, err
	}
	for {
		for i := range result.Entries {
			dirs.add(rootLower, &result.Entries[i])
		}
		if !result.HasMore {
			fs.Debugf(root, "Listed %d entries", len(dirs.entries))
			return dirs, nil
		}
		result, err = c.ListFolderContinue(ctx, result.Cursor)
		if err != nil {
			return nil, err
		}
	}
}

func (dirs *dirTree) add(rootLower string, entry *api.Metadata) {
	if entry.Tag == api.TagDeleted {
		return
	}
	var rel string
	switch {
	case rootLower == "":
		rel = entry.PathLower
	case strings.HasPrefix(entry.PathLower, rootLower+"/"):
		rel = entry.PathLower[len(rootLower):]
	default:
		// the folder itself
		return
	}
	dirs.entries[rel] = entry
	if entry.IsDir() {
		if _, ok := dirs.children[rel]; !ok {
			dirs.children[rel] = nil
		}
	}
	parent := path.Dir(rel)
	dirs.children[parent] = append(dirs.children[parent], entry.Name)
}

// key turns a path from the tree library into a map key
func key(p string) string {
	p = strings.ToLower(filepath.ToSlash(p))
	if p == "" {
		return "/"
	}
	return p
}

// Stat returns info about the file or folder at p
func (dirs *dirTree) Stat(p string) (os.FileInfo, error) {
	k := key(p)
	if k == "/" {
		return &fileInfo{&api.Metadata{Tag: api.TagFolder, Name: "/"}}, nil
	}
	entry, ok := dirs.entries[k]
	if !ok {
		return nil, errors.Errorf("couldn't find %q in listing", p)
	}
	return &fileInfo{entry}, nil
}

// ReadDir returns the names in the folder at p
func (dirs *dirTree) ReadDir(p string) ([]string, error) {
	names, ok := dirs.children[key(p)]
	if !ok {
		return nil, errors.Errorf("couldn't find folder %q in listing", p)
	}
	return names, nil
}

// fileInfo maps api.Metadata into an os.FileInfo
type fileInfo struct {
	entry *api.Metadata
}

func (fi *fileInfo) Name() string { return fi.entry.Name }

func (fi *fileInfo) Size() int64 { return fi.entry.Size }

func (fi *fileInfo) Mode() os.FileMode {
	if fi.IsDir() {
		return os.ModeDir | 0777
	}
	return 0666
}

func (fi *fileInfo) ModTime() time.Time {
	if fi.entry.ServerModified != nil {
		return *fi.entry.ServerModified
	}
	return time.Time{}
}

func (fi *fileInfo) IsDir() bool { return fi.entry.IsDir() }

func (fi *fileInfo) Sys() interface{} { return nil }

// check interfaces
var (
	_ tree.Fs     = (*dirTree)(nil)
	_ os.FileInfo = (*fileInfo)(nil)
)
