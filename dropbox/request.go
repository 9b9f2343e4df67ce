package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fserrors"
	"github.com/rclone/dbxclient/lib/readers"
	"github.com/rclone/dbxclient/lib/rest"
)

// shouldRetry returns a boolean as to whether this err deserves to be
// retried. It returns the err as a convenience
func shouldRetry(ctx context.Context, err error) (bool, error) {
	if fserrors.ContextError(ctx, &err) {
		return false, err
	}
	if err == nil {
		return false, nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return false, err
	}
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return fserrors.IsRetryError(httpErr), err
	}
	return fserrors.ShouldRetry(err), err
}

// ShouldRetry returns true if the operation which failed with err is
// worth trying again
func ShouldRetry(ctx context.Context, err error) bool {
	retry, _ := shouldRetry(ctx, err)
	return retry
}

// errorHandler parses a non 2xx response into an error
//
// 400 and 409 carry an endpoint error from Dropbox. Anything else is
// returned as an *api.HTTPError.
func errorHandler(resp *http.Response) error {
	body, err := rest.ReadBody(resp)
	if err != nil {
		return errors.Wrap(err, "error reading error out of body")
	}
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusConflict:
		return api.NewError(resp.StatusCode, body)
	}
	return &api.HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
		RetryAt:    parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as
// an HTTP date
func parseRetryAfter(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Now().Add(time.Duration(seconds) * time.Second)
	}
	if when, err := http.ParseTime(value); err == nil {
		return when
	}
	return time.Time{}
}

// signRequest adds the authentication and routing headers to req
func (c *Client) signRequest(req *http.Request) error {
	c.mu.RLock()
	tp := c.tokenProvider
	namespaceID := c.namespaceID
	c.mu.RUnlock()
	if tp != nil {
		token, err := tp.Token(req.Context())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.teamMemberID != "" {
		req.Header["Dropbox-API-Select-User"] = []string{c.teamMemberID}
	}
	if namespaceID != "" {
		pathRoot, err := json.Marshal(api.PathRoot{Tag: "namespace_id", NamespaceID: namespaceID})
		if err != nil {
			return err
		}
		req.Header["Dropbox-API-Path-Root"] = []string{string(pathRoot)}
	}
	return nil
}

// endpointURL splits an endpoint of the form "subdomain::endpoint"
// returning the root URL to use and the endpoint path
func (c *Client) endpointURL(subdomain, endpoint string) (rootURL, path string) {
	if parts := strings.Split(endpoint, "::"); len(parts) == 2 {
		subdomain, endpoint = parts[0], parts[1]
	}
	switch subdomain {
	case "api":
		rootURL = c.apiURL
	case "content":
		rootURL = c.contentURL
	default:
		rootURL = fmt.Sprintf("https://%s.dropboxapi.com/2/", subdomain)
	}
	return rootURL, endpoint
}

// headerSafeJSON encodes v as JSON with every non ASCII character
// escaped so it can be sent in an HTTP header
func headerSafeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, r := range string(b) {
		if r < 0x7f {
			out.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&out, `\u%04x`, u)
		}
	}
	return out.String(), nil
}

// isEmptyParams returns true if params should not be sent as a body
func isEmptyParams(params interface{}) bool {
	if params == nil {
		return true
	}
	v := reflect.ValueOf(params)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// call runs the request, renewing the token and making the call
// once more if the token provider asks for it
func (c *Client) call(ctx context.Context, opts *rest.Opts, request interface{}) (resp *http.Response, err error) {
	tp := c.getTokenProvider()
	refresher, canRefresh := tp.(RefreshableTokenProvider)
	var rewind func() error
	if canRefresh && opts.Body != nil {
		opts = opts.Copy()
		rewind, opts.Body = replayable(opts.Body)
	}
	refreshed := false
	for {
		resp, err = c.srv.CallJSON(ctx, opts, request, nil)
		if err == nil || refreshed || !canRefresh {
			return resp, err
		}
		if resp == nil || resp.StatusCode < 400 || resp.StatusCode > 499 {
			return resp, err
		}
		if !refresher.Refresh(ctx, err) {
			return resp, err
		}
		refreshed = true
		if rewind != nil {
			if rewindErr := rewind(); rewindErr != nil {
				fs.Debugf(c, "Can't replay request body after token refresh: %v", rewindErr)
				return resp, err
			}
		}
		fs.Debugf(c, "Retrying %s after token refresh", opts.Path)
	}
}

// replayable returns a body which can be sent again along with the
// function which puts it back to the start
func replayable(body io.Reader) (rewind func() error, out io.Reader) {
	if seeker, ok := body.(io.Seeker); ok {
		start, err := seeker.Seek(0, io.SeekCurrent)
		if err == nil {
			return func() error {
				_, err := seeker.Seek(start, io.SeekStart)
				return err
			}, body
		}
	}
	rr := readers.NewRepeatableReader(body)
	return func() error {
		rr.Rewind()
		return nil
	}, rr
}

// RPCRequest calls an RPC endpoint such as "files/get_metadata"
//
// params are sent as the JSON body unless they are nil or empty in
// which case no body is sent. The JSON response is decoded into
// result if it is not nil. An empty or null response leaves result
// untouched.
func (c *Client) RPCRequest(ctx context.Context, endpoint string, params interface{}, result interface{}) error {
	rootURL, path := c.endpointURL("api", endpoint)
	opts := rest.Opts{
		Method:  "POST",
		RootURL: rootURL,
		Path:    path,
	}
	var request interface{}
	if !isEmptyParams(params) {
		request = params
	}
	resp, err := c.call(ctx, &opts, request)
	if err != nil {
		return err
	}
	body, err := rest.ReadBody(resp)
	if err != nil {
		return errors.Wrapf(err, "failed to read response from %s", endpoint)
	}
	body = bytes.TrimSpace(body)
	if result == nil || len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(body, result), "failed to decode response from %s", endpoint)
}

// ContentRequest calls a content endpoint such as "files/upload"
//
// args are sent JSON encoded in the Dropbox-API-Arg header. body, if
// not nil, is sent with Content-Length size, or with chunked encoding
// if size is negative.
//
// The caller must close the body of the response returned.
func (c *Client) ContentRequest(ctx context.Context, endpoint string, args interface{}, body io.Reader, size int64) (*http.Response, error) {
	arg, err := headerSafeJSON(args)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode Dropbox-API-Arg")
	}
	rootURL, path := c.endpointURL("content", endpoint)
	opts := rest.Opts{
		Method:       "POST",
		RootURL:      rootURL,
		Path:         path,
		ExtraHeaders: map[string]string{"*Dropbox-API-Arg": arg},
	}
	if body == nil {
		size = 0
	}
	if size >= 0 {
		opts.ContentLength = &size
	}
	if body != nil && size != 0 {
		opts.Body = body
		opts.ContentType = "application/octet-stream"
	}
	return c.call(ctx, &opts, nil)
}

// contentRequestJSON calls a content endpoint and decodes the JSON
// response into result
func (c *Client) contentRequestJSON(ctx context.Context, endpoint string, args interface{}, body io.Reader, size int64, result interface{}) error {
	resp, err := c.ContentRequest(ctx, endpoint, args, body, size)
	if err != nil {
		return err
	}
	return errors.Wrapf(rest.DecodeJSON(resp, result), "failed to decode response from %s", endpoint)
}
