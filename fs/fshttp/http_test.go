package fshttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rclone/dbxclient/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanAuth(t *testing.T) {
	for _, test := range []struct {
		in   string
		want string
	}{
		{"", ""},
		{"floo", "floo"},
		{"Authorization: ", "Authorization: "},
		{"Authorization: \n", "Authorization: \n"},
		{"Authorization: A", "Authorization: X"},
		{"Authorization: A\n", "Authorization: X\n"},
		{"Authorization: AAAA", "Authorization: XXXX"},
		{"Authorization: AAAA\n", "Authorization: XXXX\n"},
		{"Authorization: AAAAA", "Authorization: XXXX"},
		{"Authorization: AAAAA\n", "Authorization: XXXX\n"},
		{"Authorization: AAAAAAAAA\nPotato: Help\n", "Authorization: XXXX\nPotato: Help\n"},
		{"Sausage: 1\nAuthorization: AAAAAAAAA\nPotato: Help\n", "Sausage: 1\nAuthorization: XXXX\nPotato: Help\n"},
	} {
		got := string(cleanAuth([]byte(test.in), authBufs[0]))
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestCleanAuths(t *testing.T) {
	for _, test := range []struct {
		in   string
		want string
	}{
		{"", ""},
		{"floo", "floo"},
		{"Authorization: Bearer sl.AAAAAAAAA\nPotato: Help\n", "Authorization: XXXX\nPotato: Help\n"},
		{"Dropbox-Api-Select-User: dbmid:AAAAAAAAA\nPotato: Help\n", "Dropbox-Api-Select-User: XXXX\nPotato: Help\n"},
		{"Dropbox-Api-Select-User: dbmid:AAAAAAAAA\nAuthorization: Basic AAAAAAAAA\nPotato: Help\n", "Dropbox-Api-Select-User: XXXX\nAuthorization: XXXX\nPotato: Help\n"},
	} {
		got := string(cleanAuths([]byte(test.in)))
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestTransportUserAgentAndMetrics(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dbxclient-test/1.0", r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprintln(w, "ok")
	}))
	defer ts.Close()

	ctx, ci := fs.AddConfig(context.Background())
	ci.UserAgent = "dbxclient-test/1.0"
	ci.Dump = fs.DumpHeaders

	oldMetrics := DefaultMetrics
	defer func() { DefaultMetrics = oldMetrics }()
	DefaultMetrics = NewMetrics("test")
	require.Len(t, DefaultMetrics.Collectors(), 2)

	client := NewClient(ctx)
	_, isTransport := client.Transport.(*Transport)
	require.True(t, isTransport)

	for _, path := range []string{"/ok", "/ok", "/missing"} {
		resp, err := client.Get(ts.URL + path)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(DefaultMetrics.StatusCode.WithLabelValues(u.Host, "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(DefaultMetrics.StatusCode.WithLabelValues(u.Host, "GET", "404")))
}

func TestStartHTTPTokenBucket(t *testing.T) {
	ctx, ci := fs.AddConfig(context.Background())
	ci.TPSLimit = 10
	ci.TPSLimitBurst = 0
	StartHTTPTokenBucket(ctx)
	bucket := getTPSBucket()
	require.NotNil(t, bucket)
	assert.Equal(t, 1, bucket.Burst())

	ci.TPSLimit = 0
	StartHTTPTokenBucket(ctx)
	assert.Nil(t, getTPSBucket())
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.Nil(t, m.Collectors())
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	m.onResponse(req, nil, 0)
}
