package dropbox

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"
	"time"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs/fserrors"
	"github.com/rclone/dbxclient/lib/readers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionData = "0123456789abcdefghijkl" // 22 bytes

// noEndSeeker is a ReadSeeker which can't find its end
type noEndSeeker struct {
	*bytes.Reader
}

func (r noEndSeeker) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekEnd {
		return 0, errors.New("can't seek to end")
	}
	return r.Reader.Seek(offset, whence)
}

// failingReader returns its data then err
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// sessionCall is a summary of an upload session request
type sessionCall struct {
	Endpoint string
	Offset   int64
	Length   int
}

// sessionCalls summarises the upload requests f has seen
func sessionCalls(t *testing.T, f *fakeDropbox) []sessionCall {
	var out []sessionCall
	for _, req := range f.recorded() {
		var arg struct {
			Cursor api.UploadSessionCursor `json:"cursor"`
		}
		if req.Header.Get("Dropbox-API-Arg") != "" {
			req.arg(t, &arg)
		}
		out = append(out, sessionCall{
			Endpoint: req.Endpoint,
			Offset:   arg.Cursor.Offset,
			Length:   len(req.Body),
		})
	}
	return out
}

func TestNewContentSource(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		src, err := newContentSource(bytes.NewReader([]byte(sessionData)))
		require.NoError(t, err)
		assert.True(t, src.Seekable())
		size, ok := src.Size()
		assert.True(t, ok)
		assert.Equal(t, int64(22), size)
		assert.Equal(t, int64(0), src.Position())
	})

	t.Run("part read", func(t *testing.T) {
		r := bytes.NewReader([]byte(sessionData))
		_, err := r.Seek(10, io.SeekStart)
		require.NoError(t, err)
		src, err := newContentSource(r)
		require.NoError(t, err)
		size, ok := src.Size()
		assert.True(t, ok)
		assert.Equal(t, int64(12), size)

		buf := make([]byte, 4)
		_, err = io.ReadFull(src, buf)
		require.NoError(t, err)
		assert.Equal(t, "abcd", string(buf))
		assert.Equal(t, int64(4), src.Position())
		size, _ = src.Size()
		assert.Equal(t, int64(8), size)

		require.NoError(t, src.SeekTo(0))
		_, err = io.ReadFull(src, buf)
		require.NoError(t, err)
		assert.Equal(t, "abcd", string(buf))
	})

	t.Run("no end", func(t *testing.T) {
		src, err := newContentSource(noEndSeeker{bytes.NewReader([]byte("ab"))})
		require.NoError(t, err)
		assert.True(t, src.Seekable())
		_, ok := src.Size()
		assert.False(t, ok)

		eof, err := src.EOF()
		require.NoError(t, err)
		assert.False(t, eof)
		b, err := ioutil.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, "ab", string(b))
		eof, err = src.EOF()
		require.NoError(t, err)
		assert.True(t, eof)
	})

	t.Run("pipe", func(t *testing.T) {
		for _, in := range []io.Reader{
			readers.NoSeeker{Reader: bytes.NewReader([]byte("ab"))},
			iotest.OneByteReader(bytes.NewReader([]byte("ab"))),
		} {
			src, err := newContentSource(in)
			require.NoError(t, err)
			assert.False(t, src.Seekable())
			_, ok := src.Size()
			assert.False(t, ok)

			eof, err := src.EOF()
			require.NoError(t, err)
			assert.False(t, eof)
			b, err := ioutil.ReadAll(src)
			require.NoError(t, err)
			assert.Equal(t, "ab", string(b))
			assert.Equal(t, int64(2), src.Position())
			assert.NoError(t, src.SeekTo(2))
			assert.Equal(t, readers.ErrCantSeek, src.SeekTo(0))
			eof, err = src.EOF()
			require.NoError(t, err)
			assert.True(t, eof)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.bin")
		require.NoError(t, ioutil.WriteFile(path, []byte(sessionData), 0600))
		fd, err := os.Open(path)
		require.NoError(t, err)
		defer func() { _ = fd.Close() }()
		src, err := newContentSource(fd)
		require.NoError(t, err)
		assert.True(t, src.Seekable())
		size, ok := src.Size()
		assert.True(t, ok)
		assert.Equal(t, int64(22), size)
	})
}

func TestShouldChunk(t *testing.T) {
	newSrc := func(in io.Reader) contentSource {
		src, err := newContentSource(in)
		require.NoError(t, err)
		return src
	}
	assert.False(t, shouldChunk(newSrc(bytes.NewReader(make([]byte, 6))), 6))
	assert.True(t, shouldChunk(newSrc(bytes.NewReader(make([]byte, 7))), 6))
	assert.False(t, shouldChunk(newSrc(bytes.NewReader(nil)), 6))
	assert.True(t, shouldChunk(newSrc(readers.NoSeeker{Reader: bytes.NewReader(nil)}), 6))
	assert.True(t, shouldChunk(newSrc(noEndSeeker{bytes.NewReader(nil)}), 6))
}

func TestChunkSizeFor(t *testing.T) {
	c := New(context.Background(), WithMaxChunkSize(100))
	assert.Equal(t, int64(100), c.chunkSizeFor(0))
	assert.Equal(t, int64(100), c.chunkSizeFor(-1))
	assert.Equal(t, int64(1), c.chunkSizeFor(1))
	assert.Equal(t, int64(60), c.chunkSizeFor(60))
	assert.Equal(t, int64(100), c.chunkSizeFor(100))
	assert.Equal(t, int64(100), c.chunkSizeFor(101))
}

func TestUploadChunked(t *testing.T) {
	f := newFakeDropbox()
	c := newTestClient(t, f)
	ctx := context.Background()

	md, err := c.UploadChunked(ctx, "dir/file.bin/", bytes.NewReader([]byte(sessionData)), "", 6)
	require.NoError(t, err)
	assert.Equal(t, api.TagFile, md.Tag)
	assert.Equal(t, "file.bin", md.Name)
	assert.Equal(t, int64(22), md.Size)

	assert.Equal(t, []sessionCall{
		{"files/upload_session/start", 0, 6},
		{"files/upload_session/append_v2", 6, 6},
		{"files/upload_session/append_v2", 12, 6},
		{"files/upload_session/append_v2", 18, 4},
		{"files/upload_session/finish", 22, 0},
	}, sessionCalls(t, f))

	reqs := f.recorded()
	var arg api.UploadSessionFinishArg
	reqs[len(reqs)-1].arg(t, &arg)
	assert.Equal(t, "session-1", arg.Cursor.SessionID)
	assert.Equal(t, api.CommitInfo{Path: "/dir/file.bin", Mode: api.WriteModeAdd}, arg.Commit)

	var startArg api.UploadSessionStartArg
	reqs[0].arg(t, &startArg)
	assert.False(t, startArg.Close)

	data, ok := f.file("/dir/file.bin")
	require.True(t, ok)
	assert.Equal(t, sessionData, string(data))
}

func TestUploadChunkedShapes(t *testing.T) {
	ctx := context.Background()
	for _, test := range []struct {
		name      string
		in        func() io.Reader
		size      int
		chunkSize int64
		want      []sessionCall
	}{
		{
			name:      "exact multiple",
			in:        func() io.Reader { return bytes.NewReader([]byte(sessionData[:18])) },
			size:      18,
			chunkSize: 6,
			want: []sessionCall{
				{"files/upload_session/start", 0, 6},
				{"files/upload_session/append_v2", 6, 6},
				{"files/upload_session/append_v2", 12, 6},
				{"files/upload_session/finish", 18, 0},
			},
		},
		{
			name:      "smaller than a chunk",
			in:        func() io.Reader { return bytes.NewReader([]byte(sessionData[:5])) },
			size:      5,
			chunkSize: 6,
			want: []sessionCall{
				{"files/upload_session/start", 0, 5},
				{"files/upload_session/finish", 5, 0},
			},
		},
		{
			name:      "empty pipe",
			in:        func() io.Reader { return readers.NoSeeker{Reader: bytes.NewReader(nil)} },
			size:      0,
			chunkSize: 6,
			want: []sessionCall{
				{"files/upload_session/start", 0, 0},
				{"files/upload_session/finish", 0, 0},
			},
		},
		{
			name:      "short reads from pipe",
			in:        func() io.Reader { return iotest.OneByteReader(bytes.NewReader([]byte(sessionData))) },
			size:      22,
			chunkSize: 6,
			want: []sessionCall{
				{"files/upload_session/start", 0, 6},
				{"files/upload_session/append_v2", 6, 6},
				{"files/upload_session/append_v2", 12, 6},
				{"files/upload_session/append_v2", 18, 4},
				{"files/upload_session/finish", 22, 0},
			},
		},
		{
			name:      "unknown size",
			in:        func() io.Reader { return noEndSeeker{bytes.NewReader([]byte(sessionData))} },
			size:      22,
			chunkSize: 10,
			want: []sessionCall{
				{"files/upload_session/start", 0, 10},
				{"files/upload_session/append_v2", 10, 10},
				{"files/upload_session/append_v2", 20, 2},
				{"files/upload_session/finish", 22, 0},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := newFakeDropbox()
			c := newTestClient(t, f)
			md, err := c.UploadChunked(ctx, "/out.bin", test.in(), api.WriteModeOverwrite, test.chunkSize)
			require.NoError(t, err)
			assert.Equal(t, int64(test.size), md.Size)
			assert.Equal(t, test.want, sessionCalls(t, f))
			data, ok := f.file("/out.bin")
			require.True(t, ok)
			assert.Equal(t, sessionData[:test.size], string(data))
		})
	}
}

func TestUploadChunkedCapsChunkSize(t *testing.T) {
	f := newFakeDropbox()
	c := newTestClient(t, f, WithMaxChunkSize(8))
	_, err := c.UploadChunked(context.Background(), "/a", bytes.NewReader([]byte(sessionData)), "", 100)
	require.NoError(t, err)
	assert.Equal(t, []sessionCall{
		{"files/upload_session/start", 0, 8},
		{"files/upload_session/append_v2", 8, 8},
		{"files/upload_session/append_v2", 16, 6},
		{"files/upload_session/finish", 22, 0},
	}, sessionCalls(t, f))
}

func TestUploadChunkedFromOffset(t *testing.T) {
	f := newFakeDropbox()
	c := newTestClient(t, f, WithMaxUploadChunkRetries(1))
	f.fail("files/upload_session/append_v2", http.StatusServiceUnavailable, "busy")

	r := bytes.NewReader([]byte(sessionData))
	_, err := r.Seek(4, io.SeekStart)
	require.NoError(t, err)
	md, err := c.UploadChunked(context.Background(), "/tail", r, "", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(18), md.Size)
	data, ok := f.file("/tail")
	require.True(t, ok)
	assert.Equal(t, sessionData[4:], string(data))
}

func TestUploadChunkRetries(t *testing.T) {
	ctx := context.Background()

	t.Run("seekable retried", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(2))
		f.fail("files/upload_session/start", http.StatusInternalServerError, "oops")
		f.fail("files/upload_session/append_v2", http.StatusServiceUnavailable, "busy")
		f.fail("files/upload_session/append_v2", http.StatusTooManyRequests, "slow down")

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		require.NoError(t, err)
		assert.Equal(t, []sessionCall{
			{"files/upload_session/start", 0, 6},
			{"files/upload_session/start", 0, 6},
			{"files/upload_session/append_v2", 6, 6},
			{"files/upload_session/append_v2", 6, 6},
			{"files/upload_session/append_v2", 6, 6},
			{"files/upload_session/append_v2", 12, 6},
			{"files/upload_session/append_v2", 18, 4},
			{"files/upload_session/finish", 22, 0},
		}, sessionCalls(t, f))
		data, ok := f.file("/r")
		require.True(t, ok)
		assert.Equal(t, sessionData, string(data))
	})

	t.Run("any 5xx retried", func(t *testing.T) {
		for _, status := range []int{http.StatusNotImplemented, http.StatusInsufficientStorage, 520} {
			f := newFakeDropbox()
			c := newTestClient(t, f, WithMaxUploadChunkRetries(2))
			f.fail("files/upload_session/append_v2", status, "server trouble")

			_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
			require.NoError(t, err, "status %d", status)
			calls := sessionCalls(t, f)
			require.True(t, len(calls) >= 3, "status %d", status)
			assert.Equal(t, sessionCall{"files/upload_session/append_v2", 6, 6}, calls[1], "status %d", status)
			assert.Equal(t, sessionCall{"files/upload_session/append_v2", 6, 6}, calls[2], "status %d", status)
			data, ok := f.file("/r")
			require.True(t, ok)
			assert.Equal(t, sessionData, string(data), "status %d", status)
		}
	})

	t.Run("retry after honoured", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(2))
		f.failWith("files/upload_session/append_v2", injectedError{
			status: http.StatusTooManyRequests,
			body:   `{"error_summary": "too_many_requests/"}`,
			header: http.Header{"Retry-After": {"1"}},
		})

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		require.NoError(t, err)
		reqs := f.recorded()
		require.True(t, len(reqs) >= 3)
		require.Equal(t, "files/upload_session/append_v2", reqs[1].Endpoint)
		require.Equal(t, "files/upload_session/append_v2", reqs[2].Endpoint)
		gap := reqs[2].At.Sub(reqs[1].At)
		assert.True(t, gap >= 900*time.Millisecond, "retried after %v", gap)
		data, ok := f.file("/r")
		require.True(t, ok)
		assert.Equal(t, sessionData, string(data))
	})

	t.Run("connection dropped retried", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(2))
		f.failWith("files/upload_session/append_v2", injectedError{drop: true})

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		require.NoError(t, err)
		assert.Equal(t, []sessionCall{
			{"files/upload_session/start", 0, 6},
			{"files/upload_session/append_v2", 6, 6},
			{"files/upload_session/append_v2", 6, 6},
			{"files/upload_session/append_v2", 12, 6},
			{"files/upload_session/append_v2", 18, 4},
			{"files/upload_session/finish", 22, 0},
		}, sessionCalls(t, f))
		data, ok := f.file("/r")
		require.True(t, ok)
		assert.Equal(t, sessionData, string(data))
	})

	t.Run("retries exhausted", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(2))
		f.fail("files/upload_session/append_v2", http.StatusServiceUnavailable, "busy 1")
		f.fail("files/upload_session/append_v2", http.StatusServiceUnavailable, "busy 2")
		f.fail("files/upload_session/append_v2", http.StatusServiceUnavailable, "busy 3")

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		var httpErr *api.HTTPError
		require.True(t, errors.As(err, &httpErr), "got %v", err)
		assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
		assert.Equal(t, "busy 3", httpErr.Body)
		assert.Contains(t, err.Error(), "upload session append")
		assert.Equal(t, []string{
			"files/upload_session/start",
			"files/upload_session/append_v2",
			"files/upload_session/append_v2",
			"files/upload_session/append_v2",
		}, f.endpoints())
	})

	t.Run("no retries configured", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f)
		f.fail("files/upload_session/start", http.StatusServiceUnavailable, "busy")

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload session start")
		assert.Equal(t, []string{"files/upload_session/start"}, f.endpoints())
	})

	t.Run("pipe not retried", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(3))
		f.fail("files/upload_session/append_v2", http.StatusServiceUnavailable, "busy")

		in := readers.NoSeeker{Reader: bytes.NewReader([]byte(sessionData))}
		_, err := c.UploadChunked(ctx, "/r", in, "", 6)
		var httpErr *api.HTTPError
		require.True(t, errors.As(err, &httpErr), "got %v", err)
		assert.Equal(t, []string{
			"files/upload_session/start",
			"files/upload_session/append_v2",
		}, f.endpoints())
	})

	t.Run("endpoint error not retried", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(3))
		f.fail("files/upload_session/append_v2", http.StatusConflict, `{"error_summary": "lookup_failed/closed/", "error": {".tag": "lookup_failed"}}`)

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		var apiErr *api.Error
		require.True(t, errors.As(err, &apiErr), "got %v", err)
		assert.True(t, apiErr.HasPrefix("lookup_failed/closed/"))
		assert.Len(t, f.endpoints(), 2)
	})

	t.Run("finish not retried", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(3))
		f.fail("files/upload_session/finish", http.StatusServiceUnavailable, "busy")

		_, err := c.UploadChunked(ctx, "/r", bytes.NewReader([]byte(sessionData)), "", 100)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload session finish")
		assert.Equal(t, []string{
			"files/upload_session/start",
			"files/upload_session/finish",
		}, f.endpoints())
	})
}

func TestUploadChunkedSourceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxUploadChunkRetries(3))
		in := &failingReader{data: []byte(sessionData[:8]), err: iotest.ErrTimeout}
		_, err := c.UploadChunked(ctx, "/r", in, "", 6)
		require.Error(t, err)
		assert.True(t, errors.Is(err, iotest.ErrTimeout), "got %v", err)
		assert.True(t, fserrors.IsNoRetryError(err))
		_, ok := f.file("/r")
		assert.False(t, ok)
		for _, endpoint := range f.endpoints() {
			assert.NotEqual(t, "files/upload_session/finish", endpoint)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.UploadChunked(cancelled, "/r", bytes.NewReader([]byte(sessionData)), "", 6)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
		assert.Empty(t, f.endpoints())
	})
}

func TestUploadRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("small goes in one call", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxChunkSize(22))
		md, err := c.Upload(ctx, "small.txt", bytes.NewReader([]byte(sessionData)), api.WriteModeOverwrite, true)
		require.NoError(t, err)
		assert.Equal(t, api.TagFile, md.Tag)
		assert.Equal(t, int64(22), md.Size)

		reqs := f.recorded()
		require.Len(t, reqs, 1)
		assert.Equal(t, "files/upload", reqs[0].Endpoint)
		var arg api.UploadArg
		reqs[0].arg(t, &arg)
		assert.Equal(t, api.UploadArg{Path: "/small.txt", Mode: api.WriteModeOverwrite, Autorename: true}, arg)
		assert.Equal(t, sessionData, string(reqs[0].Body))
	})

	t.Run("default mode", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f)
		_, err := c.UploadBytes(ctx, "/b", []byte("b"), "", false)
		require.NoError(t, err)
		reqs := f.recorded()
		require.Len(t, reqs, 1)
		var arg api.UploadArg
		reqs[0].arg(t, &arg)
		assert.Equal(t, api.WriteModeAdd, arg.Mode)
	})

	t.Run("big uses a session", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f, WithMaxChunkSize(6))
		_, err := c.Upload(ctx, "big.bin", bytes.NewReader([]byte(sessionData)), "", true)
		require.NoError(t, err)
		calls := sessionCalls(t, f)
		require.Len(t, calls, 5)
		assert.Equal(t, "files/upload_session/start", calls[0].Endpoint)
		assert.Equal(t, "files/upload_session/finish", calls[4].Endpoint)

		reqs := f.recorded()
		var arg api.UploadSessionFinishArg
		reqs[len(reqs)-1].arg(t, &arg)
		assert.Equal(t, api.CommitInfo{Path: "/big.bin", Mode: api.WriteModeAdd, Autorename: true}, arg.Commit)
	})

	t.Run("pipe uses a session", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f)
		_, err := c.Upload(ctx, "/p", readers.NoSeeker{Reader: bytes.NewReader([]byte("tiny"))}, "", false)
		require.NoError(t, err)
		assert.Equal(t, []sessionCall{
			{"files/upload_session/start", 0, 4},
			{"files/upload_session/finish", 4, 0},
		}, sessionCalls(t, f))
	})

	t.Run("error", func(t *testing.T) {
		f := newFakeDropbox()
		c := newTestClient(t, f)
		f.fail("files/upload", http.StatusConflict, `{"error_summary": "path/insufficient_space/", "error": {".tag": "path"}}`)
		_, err := c.UploadBytes(ctx, "/full", []byte("x"), "", false)
		var apiErr *api.Error
		require.True(t, errors.As(err, &apiErr), "got %v", err)
		assert.Equal(t, "path", apiErr.Code)
	})
}

func TestUploadSessionCalls(t *testing.T) {
	f := newFakeDropbox()
	c := newTestClient(t, f)
	ctx := context.Background()

	cursor, err := c.UploadSessionStart(ctx, []byte("abc"), false)
	require.NoError(t, err)
	assert.Equal(t, api.UploadSessionCursor{SessionID: "session-1", Offset: 3}, cursor)

	cursor, err = c.UploadSessionAppend(ctx, []byte("de"), cursor, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cursor.Offset)

	_, err = c.UploadSessionAppend(ctx, []byte("zz"), api.UploadSessionCursor{SessionID: "session-1", Offset: 1}, false)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.True(t, apiErr.HasPrefix("lookup_failed/incorrect_offset/"))

	md, err := c.UploadSessionFinish(ctx, []byte("f"), cursor, api.CommitInfo{Path: "x/y.txt", Mute: true})
	require.NoError(t, err)
	assert.Equal(t, api.TagFile, md.Tag)
	assert.Equal(t, int64(6), md.Size)

	reqs := f.recorded()
	var arg api.UploadSessionFinishArg
	reqs[len(reqs)-1].arg(t, &arg)
	assert.Equal(t, api.CommitInfo{Path: "/x/y.txt", Mode: api.WriteModeAdd, Mute: true}, arg.Commit)
	assert.Equal(t, "application/octet-stream", reqs[len(reqs)-1].Header.Get("Content-Type"))

	data, ok := f.file("/x/y.txt")
	require.True(t, ok)
	assert.Equal(t, "abcdef", string(data))
}

func TestUploadSessionStartNoSessionID(t *testing.T) {
	f := newFakeDropbox()
	f.fail("files/upload_session/start", http.StatusOK, `{}`)
	c := newTestClient(t, f)
	_, err := c.UploadSessionStart(context.Background(), []byte("abc"), true)
	require.Error(t, err)
	assert.True(t, fserrors.IsNoRetryError(err))
}
