package dropbox

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fserrors"
	"github.com/rclone/dbxclient/lib/readers"
	"github.com/rclone/dbxclient/lib/rest"
)

// contentSource is the data being uploaded along with what we know
// about it
type contentSource interface {
	io.Reader
	// Seekable is true if the source can be put back to an earlier
	// position
	Seekable() bool
	// Position is the number of bytes read from the source so far
	Position() int64
	// SeekTo puts the source back to a value returned by Position
	SeekTo(pos int64) error
	// Size returns the number of bytes left to read if known
	Size() (int64, bool)
	// EOF returns true if there is nothing more to read
	EOF() (bool, error)
}

// newContentSource classifies in
//
// Named pipes and readers which can't seek are read on demand. Any
// other io.ReadSeeker is treated as seekable, with its size found by
// seeking to the end if possible.
func newContentSource(in io.Reader) (contentSource, error) {
	if f, ok := in.(*os.File); ok {
		fi, err := f.Stat()
		if err == nil && fi.Mode()&os.ModeNamedPipe != 0 {
			return newPipeSource(in), nil
		}
	}
	rs, ok := in.(io.ReadSeeker)
	if !ok {
		return newPipeSource(in), nil
	}
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return newPipeSource(in), nil
	}
	src := &seekSource{in: rs, start: start, pos: start}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return src, nil
	}
	if _, err = rs.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to seek back to start of source")
	}
	src.end = end
	src.sizeKnown = true
	return src, nil
}

// seekSource is a source which can be rewound
type seekSource struct {
	in        io.ReadSeeker
	start     int64 // position when the upload started
	pos       int64 // current position
	end       int64 // end of the source if sizeKnown
	sizeKnown bool
}

func (s *seekSource) Read(p []byte) (n int, err error) {
	n, err = s.in.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *seekSource) Seekable() bool {
	return true
}

func (s *seekSource) Position() int64 {
	return s.pos - s.start
}

func (s *seekSource) SeekTo(pos int64) error {
	abs, err := s.in.Seek(s.start+pos, io.SeekStart)
	if err != nil {
		return err
	}
	s.pos = abs
	return nil
}

func (s *seekSource) Size() (int64, bool) {
	if !s.sizeKnown {
		return 0, false
	}
	return s.end - s.pos, true
}

func (s *seekSource) EOF() (bool, error) {
	if s.sizeKnown {
		return s.pos >= s.end, nil
	}
	var b [1]byte
	n, err := s.in.Read(b[:])
	if n > 0 {
		_, seekErr := s.in.Seek(s.pos, io.SeekStart)
		return false, seekErr
	}
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// pipeSource is a source which can only be read once
type pipeSource struct {
	in  *bufio.Reader
	pos int64
}

func newPipeSource(in io.Reader) *pipeSource {
	return &pipeSource{in: bufio.NewReader(in)}
}

func (s *pipeSource) Read(p []byte) (n int, err error) {
	n, err = s.in.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *pipeSource) Seekable() bool {
	return false
}

func (s *pipeSource) Position() int64 {
	return s.pos
}

func (s *pipeSource) SeekTo(pos int64) error {
	if pos == s.pos {
		return nil
	}
	return readers.ErrCantSeek
}

func (s *pipeSource) Size() (int64, bool) {
	return 0, false
}

func (s *pipeSource) EOF() (bool, error) {
	_, err := s.in.Peek(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// shouldChunk decides whether src needs an upload session
//
// Pipes and sources of unknown size always do. Otherwise only sources
// bigger than threshold do.
func shouldChunk(src contentSource, threshold int64) bool {
	if !src.Seekable() {
		return true
	}
	size, ok := src.Size()
	if !ok {
		return true
	}
	return size > threshold
}

// chunkSizeFor returns the chunk size to use for a request for
// chunkSize. Zero or negative means use the client maximum.
func (c *Client) chunkSizeFor(chunkSize int64) int64 {
	if chunkSize <= 0 || chunkSize > c.maxChunkSize {
		return c.maxChunkSize
	}
	return chunkSize
}

// Upload uploads in to path
//
// Sources bigger than the client's maximum chunk size, pipes and
// sources of unknown size are sent with an upload session. Anything
// else is sent in a single files/upload call.
//
// in is read from its current position and is not closed.
func (c *Client) Upload(ctx context.Context, path string, in io.Reader, mode api.WriteMode, autorename bool) (*api.Metadata, error) {
	src, err := newContentSource(in)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = api.WriteModeAdd
	}
	commit := api.CommitInfo{
		Path:       path,
		Mode:       mode,
		Autorename: autorename,
	}
	if shouldChunk(src, c.maxChunkSize) {
		return c.uploadChunked(ctx, src, commit, c.maxChunkSize)
	}
	size, _ := src.Size()
	arg := api.UploadArg{
		Path:       NormalizePath(path),
		Mode:       mode,
		Autorename: autorename,
	}
	var body io.Reader = src
	if rs, ok := in.(io.ReadSeeker); ok {
		// keep the ReadSeeker so the body can be replayed
		body = rs
	}
	var metadata api.Metadata
	err = c.contentRequestJSON(ctx, "files/upload", &arg, body, size, &metadata)
	if err != nil {
		return nil, errors.Wrap(err, "upload failed")
	}
	metadata.Tag = api.TagFile
	return &metadata, nil
}

// UploadBytes uploads data to path
func (c *Client) UploadBytes(ctx context.Context, path string, data []byte, mode api.WriteMode, autorename bool) (*api.Metadata, error) {
	return c.Upload(ctx, path, bytes.NewReader(data), mode, autorename)
}

// UploadChunked uploads in to path using an upload session
//
// chunkSize is capped at the client's maximum chunk size. Zero or
// negative means use the maximum.
//
// Chunks of seekable sources are retried as configured by
// WithMaxUploadChunkRetries. Chunks of pipes are tried once.
func (c *Client) UploadChunked(ctx context.Context, path string, in io.Reader, mode api.WriteMode, chunkSize int64) (*api.Metadata, error) {
	src, err := newContentSource(in)
	if err != nil {
		return nil, err
	}
	return c.uploadChunked(ctx, src, api.CommitInfo{Path: path, Mode: mode}, chunkSize)
}

// uploadChunked runs the upload session protocol
//
// All the data is sent by start and append so finish is always sent
// without a body.
func (c *Client) uploadChunked(ctx context.Context, src contentSource, commit api.CommitInfo, chunkSize int64) (*api.Metadata, error) {
	chunkSize = c.chunkSizeFor(chunkSize)
	buf := make([]byte, chunkSize)

	fs.Debugf(c, "%q: starting upload session with %d byte chunks", commit.Path, chunkSize)
	cursor, err := c.uploadChunk(ctx, src, buf, nil)
	if err != nil {
		return nil, errors.Wrap(err, "upload session start")
	}
	fs.Debugf(c, "%q: upload session %q started, offset %d", commit.Path, cursor.SessionID, cursor.Offset)

	for {
		eof, err := src.EOF()
		if err != nil {
			return nil, fserrors.NoRetryError(errors.Wrap(err, "failed to read source"))
		}
		if eof {
			break
		}
		cursor, err = c.uploadChunk(ctx, src, buf, &cursor)
		if err != nil {
			return nil, errors.Wrap(err, "upload session append")
		}
		fs.Debugf(c, "%q: appended to upload session, offset %d", commit.Path, cursor.Offset)
	}

	metadata, err := c.UploadSessionFinish(ctx, nil, cursor, commit)
	if err != nil {
		return nil, errors.Wrap(err, "upload session finish")
	}
	fs.Debugf(c, "%q: upload session finished, %d bytes", commit.Path, cursor.Offset)
	return metadata, nil
}

// uploadChunk reads the next chunk from src into buf and sends it,
// starting a session if cursor is nil or appending to it otherwise
//
// Failed attempts are retried after putting src back to where the
// chunk started, but only if src is seekable.
func (c *Client) uploadChunk(ctx context.Context, src contentSource, buf []byte, cursor *api.UploadSessionCursor) (api.UploadSessionCursor, error) {
	tries := 1
	if src.Seekable() {
		tries += c.maxUploadChunkRetries
	}
	pos := src.Position()
	var (
		result  api.UploadSessionCursor
		attempt = 0
	)
	err := c.pacer.CallN(ctx, tries, func() (bool, error) {
		attempt++
		if attempt > 1 {
			fs.Debugf(c, "Retrying chunk at offset %d (try %d/%d)", pos, attempt, tries)
			if err := src.SeekTo(pos); err != nil {
				return false, fserrors.NoRetryError(errors.Wrap(err, "failed to rewind source"))
			}
		}
		n, err := readers.ReadChunk(ctx, src, buf)
		if err != nil {
			if fserrors.ContextError(ctx, &err) {
				return false, err
			}
			return false, fserrors.NoRetryError(errors.Wrap(err, "failed to read source"))
		}
		chunk := buf[:n]
		if cursor == nil {
			result, err = c.UploadSessionStart(ctx, chunk, false)
		} else {
			result, err = c.UploadSessionAppend(ctx, chunk, *cursor, false)
		}
		return shouldRetry(ctx, err)
	})
	return result, err
}

// UploadSessionStart starts an upload session with contents as the
// first data
//
// The returned cursor has its offset set to len(contents).
func (c *Client) UploadSessionStart(ctx context.Context, contents []byte, close bool) (api.UploadSessionCursor, error) {
	var result api.UploadSessionStartResult
	err := c.contentRequestJSON(ctx, "files/upload_session/start", &api.UploadSessionStartArg{Close: close}, bytes.NewReader(contents), int64(len(contents)), &result)
	if err != nil {
		return api.UploadSessionCursor{}, err
	}
	if result.SessionID == "" {
		return api.UploadSessionCursor{}, fserrors.NoRetryError(errors.New("upload session start returned no session id"))
	}
	return api.UploadSessionCursor{
		SessionID: result.SessionID,
		Offset:    int64(len(contents)),
	}, nil
}

// UploadSessionAppend appends contents to the session at cursor
//
// It returns the cursor advanced by len(contents).
func (c *Client) UploadSessionAppend(ctx context.Context, contents []byte, cursor api.UploadSessionCursor, close bool) (api.UploadSessionCursor, error) {
	arg := api.UploadSessionAppendArg{
		Cursor: cursor,
		Close:  close,
	}
	resp, err := c.ContentRequest(ctx, "files/upload_session/append_v2", &arg, bytes.NewReader(contents), int64(len(contents)))
	if err != nil {
		return cursor, err
	}
	if _, err = rest.ReadBody(resp); err != nil {
		return cursor, err
	}
	cursor.Offset += int64(len(contents))
	return cursor, nil
}

// UploadSessionFinish sends any remaining contents and saves the
// session to commit.Path
func (c *Client) UploadSessionFinish(ctx context.Context, contents []byte, cursor api.UploadSessionCursor, commit api.CommitInfo) (*api.Metadata, error) {
	commit.Path = NormalizePath(commit.Path)
	if commit.Mode == "" {
		commit.Mode = api.WriteModeAdd
	}
	arg := api.UploadSessionFinishArg{
		Cursor: cursor,
		Commit: commit,
	}
	var body io.Reader
	if len(contents) > 0 {
		body = bytes.NewReader(contents)
	}
	var metadata api.Metadata
	err := c.contentRequestJSON(ctx, "files/upload_session/finish", &arg, body, int64(len(contents)), &metadata)
	if err != nil {
		return nil, err
	}
	metadata.Tag = api.TagFile
	return &metadata, nil
}
