// Package put provides the put command.
package put

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/cmd"
	"github.com/rclone/dbxclient/dropbox"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/lib/pacer"
	"github.com/rclone/dbxclient/lib/readers"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Globals
var (
	overwrite  = false
	autorename = false
	chunked    = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&overwrite, "overwrite", "", overwrite, "Overwrite existing files instead of failing")
	cmdFlags.BoolVarP(&autorename, "autorename", "", autorename, "Rename the upload if it conflicts with an existing file")
	cmdFlags.BoolVarP(&chunked, "chunked", "", chunked, "Always use an upload session, even for small files")
}

var commandDefinition = &cobra.Command{
	Use:   "put source [source...] dest",
	Short: `Upload local files to Dropbox.`,
	Long: `
Upload one or more local files to Dropbox.

    dbxclient put report.pdf /work/report.pdf
    dbxclient put *.jpg /photos/

If more than one source is given, or the destination ends in "/", the
destination is a folder and each file keeps its name.

Use "-" as the source to upload standard input. Files bigger than
--chunk-size and standard input are sent in chunks through an upload
session. Up to --transfers files are uploaded at once.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, len(args), command, args)
		sources, remote := args[:len(args)-1], args[len(args)-1]
		retry := true
		for _, src := range sources {
			if src == "-" {
				retry = false
			}
		}
		cmd.Run(retry, command, func(ctx context.Context) error {
			transfers, err := destinations(sources, remote)
			if err != nil {
				return err
			}
			c, err := cmd.NewClient(ctx)
			if err != nil {
				return err
			}
			return putAll(ctx, c, transfers, fs.GetConfig(ctx).Transfers)
		})
	},
}

// transfer is a local source and where it goes in Dropbox
type transfer struct {
	src string
	dst string
}

// destinations works out where each of the sources should go
func destinations(sources []string, remote string) ([]transfer, error) {
	toDir := len(sources) > 1 || remote == "" || strings.HasSuffix(remote, "/")
	var out []transfer
	for _, src := range sources {
		dst := remote
		if toDir {
			if src == "-" {
				return nil, errors.New("can't upload standard input into a folder: give a file name")
			}
			dst = path.Join("/", remote, filepath.Base(src))
		}
		out = append(out, transfer{src: src, dst: dropbox.NormalizePath(dst)})
	}
	return out, nil
}

func mode() api.WriteMode {
	if overwrite {
		return api.WriteModeOverwrite
	}
	return api.WriteModeAdd
}

// putAll uploads the transfers, running up to n at once
func putAll(ctx context.Context, c *dropbox.Client, transfers []transfer, n int) error {
	tokens := pacer.NewTokenDispenser(n)
	g, gCtx := errgroup.WithContext(ctx)
	for _, t := range transfers {
		t := t
		if tokens.Get(gCtx) != nil {
			break
		}
		g.Go(func() error {
			defer tokens.Put()
			return upload(gCtx, c, t)
		})
	}
	return g.Wait()
}

// upload sends a single file or standard input
func upload(ctx context.Context, c *dropbox.Client, t transfer) (err error) {
	var md *api.Metadata
	if t.src == "-" {
		in := readers.NewCountingReader(os.Stdin)
		md, err = c.Upload(ctx, t.dst, in, mode(), autorename)
		if err != nil {
			return errors.Wrap(err, "failed to upload standard input")
		}
		fs.Infof(md.PathDisplay, "Uploaded %s from standard input", units.BytesSize(float64(in.BytesRead())))
		return nil
	}
	fd, err := os.Open(t.src)
	if err != nil {
		return err
	}
	defer fs.CheckClose(fd, &err)
	fi, err := fd.Stat()
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return errors.Errorf("%q is a directory", t.src)
	}
	if chunked {
		md, err = c.UploadChunked(ctx, t.dst, fd, mode(), 0)
	} else {
		md, err = c.Upload(ctx, t.dst, fd, mode(), autorename)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to upload %q", t.src)
	}
	fs.Infof(md.PathDisplay, "Uploaded %s", units.BytesSize(float64(md.Size)))
	return nil
}
