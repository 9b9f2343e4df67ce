package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fshttp"
	"github.com/rclone/dbxclient/lib/env"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"
)

// TokenEnvVar is the environment variable read for an access token if
// --token isn't set
const TokenEnvVar = "DROPBOX_ACCESS_TOKEN"

// Auth flags
var (
	token        string
	tokenFile    = "~/.config/dbxclient/token.json"
	appKey       string
	appSecret    string
	teamMemberID string
	namespaceID  string
)

var errorNoCredentials = errors.New("no credentials: use --token, $" + TokenEnvVar + ", --token-file or --app-key and --app-secret")

func addAuthFlags(pf *pflag.FlagSet) {
	pf.StringVar(&token, "token", token, "Dropbox access token (default $"+TokenEnvVar+")")
	pf.StringVar(&tokenFile, "token-file", tokenFile, "File holding an access token or an OAuth2 token as JSON. "+env.ShellExpandHelp)
	pf.StringVar(&appKey, "app-key", appKey, "Dropbox app key")
	pf.StringVar(&appSecret, "app-secret", appSecret, "Dropbox app secret")
	pf.StringVar(&teamMemberID, "team-member-id", teamMemberID, "Act as this member of a Dropbox Business team")
	pf.StringVar(&namespaceID, "namespace-id", namespaceID, "Resolve paths relative to this namespace")
}

// NewClient makes a dropbox.Client from the command line flags
func NewClient(ctx context.Context) (*dropbox.Client, error) {
	ci := fs.GetConfig(ctx)
	var options []dropbox.Option
	if ci.ChunkSize > 0 {
		options = append(options, dropbox.WithMaxChunkSize(int64(ci.ChunkSize)))
	}
	options = append(options, dropbox.WithMaxUploadChunkRetries(ci.UploadRetries))
	if teamMemberID != "" {
		options = append(options, dropbox.WithTeamMemberID(teamMemberID))
	}
	if namespaceID != "" {
		options = append(options, dropbox.WithNamespaceID(namespaceID))
	}
	if appKey != "" && appSecret != "" {
		options = append(options, dropbox.WithAppCredentials(appKey, appSecret))
	}
	tp, err := newTokenProvider(ctx)
	if err != nil {
		return nil, err
	}
	if tp != nil {
		options = append(options, dropbox.WithTokenProvider(tp))
	} else if appKey == "" || appSecret == "" {
		return nil, errorNoCredentials
	}
	return dropbox.New(ctx, options...), nil
}

// newTokenProvider returns the token provider chosen by the flags or
// nil if there isn't a token
func newTokenProvider(ctx context.Context) (dropbox.TokenProvider, error) {
	accessToken := token
	if accessToken == "" {
		accessToken = env.Lookup(TokenEnvVar)
	}
	if accessToken != "" {
		return dropbox.NewStaticTokenProvider(accessToken), nil
	}
	if tokenFile == "" {
		return nil, nil
	}
	path := env.ShellExpand(tokenFile)
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		fs.Debugf(nil, "No token file at %q", path)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token file")
	}
	return parseTokenFile(ctx, path, data)
}

// parseTokenFile makes a token provider from the contents of a token
// file
//
// The file either holds a bare access token or an OAuth2 token as
// JSON. A JSON token with a refresh token is renewed using the app
// key and secret and saved back to path when it changes.
func parseTokenFile(ctx context.Context, path string, data []byte) (dropbox.TokenProvider, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Errorf("token file %q is empty", path)
	}
	if data[0] != '{' {
		return dropbox.NewStaticTokenProvider(string(data)), nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrapf(err, "failed to parse token file %q", path)
	}
	if tok.RefreshToken == "" {
		if tok.AccessToken == "" {
			return nil, errors.Errorf("token file %q has no access_token", path)
		}
		return dropbox.NewStaticTokenProvider(tok.AccessToken), nil
	}
	config, err := OAuthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "can't refresh the token in the token file")
	}
	tp := dropbox.NewOAuth2TokenProvider(config, &tok, fshttp.NewClient(ctx))
	tp.OnRefresh(func(newToken *oauth2.Token) {
		if err := saveToken(path, newToken); err != nil {
			fs.Errorf(nil, "Failed to save refreshed token: %v", err)
			return
		}
		fs.Debugf(nil, "Saved refreshed token to %q", path)
	})
	return tp, nil
}

// OAuthConfig returns the OAuth2 config for the app given by
// --app-key and --app-secret
func OAuthConfig() (*oauth2.Config, error) {
	if appKey == "" || appSecret == "" {
		return nil, errors.New("--app-key and --app-secret are needed")
	}
	return &oauth2.Config{
		ClientID:     appKey,
		ClientSecret: appSecret,
		Endpoint:     dropbox.Endpoint,
	}, nil
}

// SaveTokenFile writes tok to the --token-file, making its folder if
// needed, and returns the path written
func SaveTokenFile(tok *oauth2.Token) (string, error) {
	if tokenFile == "" {
		return "", errors.New("--token-file is empty")
	}
	path := env.ShellExpand(tokenFile)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", errors.Wrap(err, "failed to make token file folder")
	}
	if err := saveToken(path, tok); err != nil {
		return "", errors.Wrap(err, "failed to save token")
	}
	return path, nil
}

// saveToken writes tok to path as JSON, replacing the file atomically
func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "\t")
	if err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(path), ".token-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
