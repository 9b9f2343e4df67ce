package dropbox

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fserrors"
	"golang.org/x/oauth2"
)

// TokenProvider supplies the bearer token for each call
//
// Implementations must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// RefreshableTokenProvider is a TokenProvider which can renew its
// token when a call is rejected
type RefreshableTokenProvider interface {
	TokenProvider
	// Refresh is called with the error from a call which failed with
	// a 4xx status. It returns true if the token was renewed and the
	// call should be made again.
	Refresh(ctx context.Context, err error) bool
}

// StaticTokenProvider always returns the same token
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider makes a TokenProvider for a fixed token
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token returns the token
func (tp *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	return tp.token, nil
}

// Endpoint is the Dropbox OAuth2 endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.dropbox.com/oauth2/authorize",
	TokenURL:  "https://api.dropboxapi.com/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// OAuth2TokenProvider supplies short lived access tokens, renewing
// them with a refresh token
type OAuth2TokenProvider struct {
	mu        sync.Mutex
	config    *oauth2.Config
	token     *oauth2.Token
	client    *http.Client // used to fetch tokens, may be nil
	onRefresh func(*oauth2.Token)
}

// NewOAuth2TokenProvider makes a RefreshableTokenProvider from an
// oauth2 config and an initial token. The token must carry a refresh
// token for refreshes to work.
//
// If client is not nil it is used to fetch new tokens.
func NewOAuth2TokenProvider(config *oauth2.Config, token *oauth2.Token, client *http.Client) *OAuth2TokenProvider {
	if token == nil {
		token = new(oauth2.Token)
	}
	return &OAuth2TokenProvider{
		config: config,
		token:  token,
		client: client,
	}
}

// OnRefresh sets a function to be called with each new token so it
// can be persisted
func (tp *OAuth2TokenProvider) OnRefresh(fn func(*oauth2.Token)) {
	tp.mu.Lock()
	tp.onRefresh = fn
	tp.mu.Unlock()
}

// oauthContext returns a context with our HTTP Client baked in for oauth2
func (tp *OAuth2TokenProvider) oauthContext(ctx context.Context) context.Context {
	if tp.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, tp.client)
}

// Token returns a valid access token, fetching a new one if the
// current one has expired
//
// The fetch is made with ctx, so a token source is never kept beyond
// the call which needed it.
func (tp *OAuth2TokenProvider) Token(ctx context.Context) (string, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.token.Valid() && tp.token.RefreshToken == "" {
		if tp.token.AccessToken == "" {
			return "", fserrors.FatalError(errors.New("no access token and no refresh token"))
		}
		return "", fserrors.FatalError(errors.New("token expired and there's no refresh token"))
	}
	if tp.token.Valid() {
		return tp.token.AccessToken, nil
	}
	token, err := tp.config.TokenSource(tp.oauthContext(ctx), tp.token).Token()
	if err != nil {
		return "", errors.Wrap(err, "couldn't fetch token")
	}
	if token.AccessToken != tp.token.AccessToken {
		fs.Debugf(tp, "Fetched new access token, expires %v", token.Expiry)
		if tp.onRefresh != nil {
			tp.onRefresh(token)
		}
	}
	tp.token = token
	return token.AccessToken, nil
}

// Refresh expires the current token so the next call to Token fetches
// a new one
//
// It only does this for 401 Unauthorized and when there is a refresh
// token to use.
func (tp *OAuth2TokenProvider) Refresh(ctx context.Context, err error) bool {
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		return false
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.token.RefreshToken == "" {
		return false
	}
	fs.Debugf(tp, "Token rejected, expiring it so it is refreshed")
	expired := *tp.token
	expired.Expiry = time.Now().Add(-time.Hour)
	tp.token = &expired
	return true
}

// String converts this provider to a string for logging
func (tp *OAuth2TokenProvider) String() string {
	return "oauth2"
}

// Check interfaces satisfied
var (
	_ TokenProvider            = (*StaticTokenProvider)(nil)
	_ RefreshableTokenProvider = (*OAuth2TokenProvider)(nil)
)
