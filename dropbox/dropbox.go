// Package dropbox is a client for the Dropbox HTTP API v2
//
// It turns method calls into RPC calls (JSON in, JSON out) against
// api.dropboxapi.com and content calls (arguments in a header, binary
// body) against content.dropboxapi.com. Large or streamed uploads go
// through an upload session which sends the data in bounded chunks.
package dropbox

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rclone/dbxclient/fs/fshttp"
	"github.com/rclone/dbxclient/lib/pacer"
	"github.com/rclone/dbxclient/lib/rest"
	"golang.org/x/text/unicode/norm"
)

// Constants
const (
	// MaxChunkSize is the largest body a single content call may carry
	MaxChunkSize = 150 * 1024 * 1024
	// DefaultAPIURL is the root for RPC endpoints
	DefaultAPIURL = "https://api.dropboxapi.com/2/"
	// DefaultContentURL is the root for content endpoints
	DefaultContentURL = "https://content.dropboxapi.com/2/"
	minSleep          = 10 * time.Millisecond
	maxSleep          = 2 * time.Second
	decayConstant     = 2 // bigger for slower decay, exponential
)

// Client talks to the Dropbox API
//
// A Client holds no per upload state so it may be used for
// concurrent calls.
type Client struct {
	mu                    sync.RWMutex  // protects tokenProvider and namespaceID
	tokenProvider         TokenProvider // nil if not using bearer tokens
	namespaceID           string
	appKey                string
	appSecret             string
	teamMemberID          string
	httpClient            *http.Client
	srv                   *rest.Client
	pacer                 *pacer.Pacer
	apiURL                string
	contentURL            string
	maxChunkSize          int64
	maxUploadChunkRetries int
}

// Option configures a Client
type Option func(*Client)

// WithAccessToken authenticates every call with a fixed bearer token
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.tokenProvider = NewStaticTokenProvider(token)
	}
}

// WithAppCredentials authenticates with HTTP basic auth using the app
// key and secret. This is only used when there is no token provider.
func WithAppCredentials(appKey, appSecret string) Option {
	return func(c *Client) {
		c.appKey = appKey
		c.appSecret = appSecret
	}
}

// WithTokenProvider supplies bearer tokens from tp. If tp is a
// RefreshableTokenProvider failed calls may be retried once after a
// refresh.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) {
		c.tokenProvider = tp
	}
}

// WithHTTPClient sets the http.Client used for all calls
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMaxChunkSize sets the size above which uploads use an upload
// session and the size of each chunk. It is clamped to
// [1, MaxChunkSize].
func WithMaxChunkSize(size int64) Option {
	return func(c *Client) {
		c.maxChunkSize = clampChunkSize(size)
	}
}

// WithMaxUploadChunkRetries sets how many times a failed chunk of a
// seekable source is sent again
func WithMaxUploadChunkRetries(retries int) Option {
	return func(c *Client) {
		if retries < 0 {
			retries = 0
		}
		c.maxUploadChunkRetries = retries
	}
}

// WithTeamMemberID acts as the given member of a Dropbox Business team
func WithTeamMemberID(id string) Option {
	return func(c *Client) {
		c.teamMemberID = id
	}
}

// WithNamespaceID resolves paths relative to the given namespace
func WithNamespaceID(id string) Option {
	return func(c *Client) {
		c.namespaceID = id
	}
}

// WithRootURLs overrides the roots of the RPC and content endpoints.
// Both should end in "/".
func WithRootURLs(apiURL, contentURL string) Option {
	return func(c *Client) {
		c.apiURL = apiURL
		c.contentURL = contentURL
	}
}

// WithPacer sets the pacer used to space out chunk retries
func WithPacer(p *pacer.Pacer) Option {
	return func(c *Client) {
		c.pacer = p
	}
}

// clampChunkSize limits size to [1, MaxChunkSize]
func clampChunkSize(size int64) int64 {
	if size < 1 {
		return 1
	}
	if size > MaxChunkSize {
		return MaxChunkSize
	}
	return size
}

// New makes a Client from the options passed in
//
// Unless WithHTTPClient is used the client is built from the config
// in ctx by fshttp.
func New(ctx context.Context, options ...Option) *Client {
	c := &Client{
		apiURL:       DefaultAPIURL,
		contentURL:   DefaultContentURL,
		maxChunkSize: MaxChunkSize,
	}
	for _, option := range options {
		option(c)
	}
	if c.httpClient == nil {
		c.httpClient = fshttp.NewClient(ctx)
	}
	if c.pacer == nil {
		c.pacer = pacer.New(pacer.MinSleep(minSleep), pacer.MaxSleep(maxSleep), pacer.DecayConstant(decayConstant))
	}
	c.srv = rest.NewClient(c.httpClient).SetRoot(c.apiURL)
	c.srv.SetErrorHandler(errorHandler)
	c.srv.SetSigner(c.signRequest)
	if c.appKey != "" && c.appSecret != "" {
		c.srv.SetUserPass(c.appKey, c.appSecret)
	}
	return c
}

// String converts this Client to a string for logging
func (c *Client) String() string {
	return "dropbox"
}

// MaxChunkSize returns the upload threshold and chunk size in use
func (c *Client) MaxChunkSize() int64 {
	return c.maxChunkSize
}

// AccessToken returns the current bearer token
//
// It returns an empty string if the client isn't using a token
// provider.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	tp := c.getTokenProvider()
	if tp == nil {
		return "", nil
	}
	return tp.Token(ctx)
}

// SetAccessToken replaces the token provider with a fixed token
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.tokenProvider = NewStaticTokenProvider(token)
	c.mu.Unlock()
}

// SetNamespaceID resolves paths relative to the given namespace for
// all calls made from now on
func (c *Client) SetNamespaceID(id string) {
	c.mu.Lock()
	c.namespaceID = id
	c.mu.Unlock()
}

func (c *Client) getTokenProvider() TokenProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenProvider
}

// pathPassThrough matches paths which are already ids, revisions or
// namespace relative
var pathPassThrough = regexp.MustCompile(`^id:.*|^rev:.*|^(ns:[0-9]+(/.*)?)`)

// NormalizePath turns p into the form the API expects
//
// Ids ("id:..."), revisions ("rev:...") and namespace paths
// ("ns:123/...") are returned unchanged. Otherwise leading and
// trailing slashes are removed and a single leading slash added. The
// root is "".
//
// Names are put into Unicode NFC, the form Dropbox stores them in, so
// a name typed on macOS (NFD) finds the same file.
func NormalizePath(p string) string {
	if pathPassThrough.MatchString(p) {
		return p
	}
	p = norm.NFC.String(strings.Trim(p, "/"))
	if p == "" {
		return ""
	}
	return "/" + p
}
