package readers

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoCloser(t *testing.T) {
	assert.Nil(t, NoCloser(nil))

	r := strings.NewReader("potato")
	assert.Equal(t, r, NoCloser(r))

	rc := ioutil.NopCloser(bytes.NewBufferString("potato"))
	nc := NoCloser(rc)
	_, canClose := nc.(io.Closer)
	assert.False(t, canClose)
	b, err := ioutil.ReadAll(nc)
	require.NoError(t, err)
	assert.Equal(t, "potato", string(b))
}

func TestNoSeeker(t *testing.T) {
	ns := NoSeeker{strings.NewReader("potato")}
	_, err := ns.Seek(0, io.SeekCurrent)
	assert.Equal(t, ErrCantSeek, err)
	b, err := ioutil.ReadAll(ns)
	require.NoError(t, err)
	assert.Equal(t, "potato", string(b))
}

func TestCountingReader(t *testing.T) {
	cr := NewCountingReader(iotest.HalfReader(strings.NewReader("0123456789")))
	assert.Equal(t, int64(0), cr.BytesRead())
	buf := make([]byte, 4)
	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), cr.BytesRead())
	b, err := ioutil.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "23456789", string(b))
	assert.Equal(t, int64(10), cr.BytesRead())
}
