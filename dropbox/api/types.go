// Package api has type definitions for the Dropbox HTTP API v2
//
// Only the parts of the API used by dbxclient are described here.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Types of things in Metadata
const (
	TagFile    = "file"
	TagFolder  = "folder"
	TagDeleted = "deleted"
)

// WriteMode selects what happens when a file already exists at the
// destination of an upload
type WriteMode string

// Write modes understood by the upload endpoints
const (
	WriteModeAdd       WriteMode = "add"
	WriteModeOverwrite WriteMode = "overwrite"
)

// ThumbnailFormat is the image format of a thumbnail
type ThumbnailFormat string

// Thumbnail formats
const (
	ThumbnailFormatJPEG ThumbnailFormat = "jpeg"
	ThumbnailFormatPNG  ThumbnailFormat = "png"
)

// ThumbnailSize is the bounding box of a thumbnail
type ThumbnailSize string

// Thumbnail sizes
const (
	ThumbnailSizeW32H32    ThumbnailSize = "w32h32"
	ThumbnailSizeW64H64    ThumbnailSize = "w64h64"
	ThumbnailSizeW128H128  ThumbnailSize = "w128h128"
	ThumbnailSizeW256H256  ThumbnailSize = "w256h256"
	ThumbnailSizeW480H320  ThumbnailSize = "w480h320"
	ThumbnailSizeW640H480  ThumbnailSize = "w640h480"
	ThumbnailSizeW960H640  ThumbnailSize = "w960h640"
	ThumbnailSizeW1024H768 ThumbnailSize = "w1024h768"
)

// UploadSessionCursor identifies an upload session and the number of
// bytes the server has acknowledged so far
type UploadSessionCursor struct {
	SessionID string `json:"session_id"`
	Offset    int64  `json:"offset"`
}

// UploadSessionStartArg is the argument for files/upload_session/start
type UploadSessionStartArg struct {
	Close bool `json:"close"`
}

// UploadSessionStartResult is returned by files/upload_session/start
type UploadSessionStartResult struct {
	SessionID string `json:"session_id"`
}

// UploadSessionAppendArg is the argument for files/upload_session/append_v2
type UploadSessionAppendArg struct {
	Cursor UploadSessionCursor `json:"cursor"`
	Close  bool                `json:"close"`
}

// CommitInfo describes where an upload session is saved
type CommitInfo struct {
	Path       string    `json:"path"`
	Mode       WriteMode `json:"mode"`
	Autorename bool      `json:"autorename"`
	Mute       bool      `json:"mute"`
}

// UploadSessionFinishArg is the argument for files/upload_session/finish
type UploadSessionFinishArg struct {
	Cursor UploadSessionCursor `json:"cursor"`
	Commit CommitInfo          `json:"commit"`
}

// UploadArg is the argument for files/upload
type UploadArg struct {
	Path       string    `json:"path"`
	Mode       WriteMode `json:"mode"`
	Autorename bool      `json:"autorename"`
}

// PathArg is the argument for calls which take just a path
type PathArg struct {
	Path string `json:"path"`
}

// RelocationArg is the argument for files/copy_v2 and files/move_v2
type RelocationArg struct {
	FromPath   string `json:"from_path"`
	ToPath     string `json:"to_path"`
	Autorename bool   `json:"autorename,omitempty"`
}

// ListFolderArg is the argument for files/list_folder
type ListFolderArg struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// ListFolderContinueArg is the argument for files/list_folder/continue
type ListFolderContinueArg struct {
	Cursor string `json:"cursor"`
}

// SearchArg is the argument for files/search_v2
type SearchArg struct {
	Query             string `json:"query"`
	IncludeHighlights bool   `json:"include_highlights"`
}

// ThumbnailArg is the argument for files/get_thumbnail
type ThumbnailArg struct {
	Path   string          `json:"path"`
	Format ThumbnailFormat `json:"format"`
	Size   ThumbnailSize   `json:"size"`
}

// SharedLinkSettings are the optional settings for a new shared link
type SharedLinkSettings struct {
	RequestedVisibility string     `json:"requested_visibility,omitempty"`
	LinkPassword        string     `json:"link_password,omitempty"`
	Expires             *time.Time `json:"expires,omitempty"`
	Audience            string     `json:"audience,omitempty"`
	Access              string     `json:"access,omitempty"`
	AllowDownload       *bool      `json:"allow_download,omitempty"`
}

// IsEmpty returns true if no settings have been set
func (s *SharedLinkSettings) IsEmpty() bool {
	return s == nil || *s == SharedLinkSettings{}
}

// CreateSharedLinkArg is the argument for
// sharing/create_shared_link_with_settings
type CreateSharedLinkArg struct {
	Path     string              `json:"path"`
	Settings *SharedLinkSettings `json:"settings,omitempty"`
}

// ListSharedLinksArg is the argument for sharing/list_shared_links
type ListSharedLinksArg struct {
	Path       string `json:"path,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
	DirectOnly bool   `json:"direct_only"`
}

// Metadata describes a file, folder or deleted entry
type Metadata struct {
	Tag            string     `json:".tag"`
	Name           string     `json:"name"`
	ID             string     `json:"id,omitempty"`
	PathLower      string     `json:"path_lower,omitempty"`
	PathDisplay    string     `json:"path_display,omitempty"`
	ClientModified *time.Time `json:"client_modified,omitempty"`
	ServerModified *time.Time `json:"server_modified,omitempty"`
	Rev            string     `json:"rev,omitempty"`
	Size           int64      `json:"size,omitempty"`
	ContentHash    string     `json:"content_hash,omitempty"`
	IsDownloadable *bool      `json:"is_downloadable,omitempty"`
}

// IsDir returns true if the Metadata describes a folder
func (m *Metadata) IsDir() bool {
	return m.Tag == TagFolder
}

// RelocationResult is returned by files/copy_v2 and files/move_v2
type RelocationResult struct {
	Metadata Metadata `json:"metadata"`
}

// CreateFolderResult is returned by files/create_folder_v2
type CreateFolderResult struct {
	Metadata Metadata `json:"metadata"`
}

// ListFolderResult is returned by files/list_folder and
// files/list_folder/continue
type ListFolderResult struct {
	Entries []Metadata `json:"entries"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

// HighlightSpan is part of a search match
type HighlightSpan struct {
	HighlightStr  string `json:"highlight_str"`
	IsHighlighted bool   `json:"is_highlighted"`
}

// MetadataV2 wraps a Metadata in a search match
type MetadataV2 struct {
	Tag      string   `json:".tag"`
	Metadata Metadata `json:"metadata"`
}

// SearchMatch is a single result of files/search_v2
type SearchMatch struct {
	Metadata       MetadataV2      `json:"metadata"`
	HighlightSpans []HighlightSpan `json:"highlight_spans,omitempty"`
}

// SearchResult is returned by files/search_v2
type SearchResult struct {
	Matches []SearchMatch `json:"matches"`
	HasMore bool          `json:"has_more"`
	Cursor  string        `json:"cursor,omitempty"`
}

// SharedLinkMetadata describes a shared link
type SharedLinkMetadata struct {
	Tag             string          `json:".tag"`
	URL             string          `json:"url"`
	Name            string          `json:"name"`
	ID              string          `json:"id,omitempty"`
	PathLower       string          `json:"path_lower,omitempty"`
	Expires         *time.Time      `json:"expires,omitempty"`
	LinkPermissions json.RawMessage `json:"link_permissions,omitempty"`
}

// ListSharedLinksResult is returned by sharing/list_shared_links
type ListSharedLinksResult struct {
	Links   []SharedLinkMetadata `json:"links"`
	HasMore bool                 `json:"has_more"`
	Cursor  string               `json:"cursor,omitempty"`
}

// GetTemporaryLinkResult is returned by files/get_temporary_link
type GetTemporaryLinkResult struct {
	Metadata Metadata `json:"metadata"`
	Link     string   `json:"link"`
}

// Name is the name of an account holder
type Name struct {
	GivenName       string `json:"given_name"`
	Surname         string `json:"surname"`
	FamiliarName    string `json:"familiar_name"`
	DisplayName     string `json:"display_name"`
	AbbreviatedName string `json:"abbreviated_name"`
}

// Tagged is a union value where only the tag is of interest
type Tagged struct {
	Tag string `json:".tag"`
}

// RootInfo describes the namespaces of an account
type RootInfo struct {
	Tag             string `json:".tag"`
	RootNamespaceID string `json:"root_namespace_id"`
	HomeNamespaceID string `json:"home_namespace_id"`
}

// FullAccount is returned by users/get_current_account
type FullAccount struct {
	AccountID     string   `json:"account_id"`
	Name          Name     `json:"name"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	Disabled      bool     `json:"disabled"`
	Country       string   `json:"country,omitempty"`
	Locale        string   `json:"locale"`
	ReferralLink  string   `json:"referral_link"`
	IsPaired      bool     `json:"is_paired"`
	AccountType   Tagged   `json:"account_type"`
	RootInfo      RootInfo `json:"root_info"`
}

// PathRoot is sent in the Dropbox-API-Path-Root header to select a
// namespace
type PathRoot struct {
	Tag         string `json:".tag"`
	NamespaceID string `json:"namespace_id"`
}

// Error is returned from Dropbox when an endpoint rejects a request
// with status 400 or 409
type Error struct {
	StatusCode int    // HTTP status code
	Code       string // the .tag of the error union, if any
	Summary    string // error_summary or the raw body
}

// errorBody is the JSON shape of an endpoint error
type errorBody struct {
	ErrorSummary string          `json:"error_summary"`
	Error        json.RawMessage `json:"error"`
}

// NewError makes an Error from the status code and body of a response
//
// A JSON body supplies the summary from error_summary and the code
// from the .tag of error. A body which isn't JSON is used as the
// summary verbatim.
func NewError(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Summary = eb.ErrorSummary
		var tag Tagged
		if len(eb.Error) > 0 && json.Unmarshal(eb.Error, &tag) == nil {
			e.Code = tag.Tag
		}
		return e
	}
	e.Summary = strings.TrimSpace(string(body))
	return e
}

// Error returns a string for the error and satisfies the error interface
func (e *Error) Error() string {
	if e.Summary != "" {
		return e.Summary
	}
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// HasPrefix returns true if the error summary starts with prefix,
// eg "path/not_found/"
func (e *Error) HasPrefix(prefix string) bool {
	return strings.HasPrefix(e.Summary, prefix)
}

// Check Error satisfies the error interface
var _ error = (*Error)(nil)

// HTTPError is returned for non 2xx responses other than 400 and 409
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	RetryAt    time.Time // from the Retry-After header, zero if absent
}

// Error returns a string for the error and satisfies the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d (%s) returned body: %q", e.StatusCode, e.Status, e.Body)
}

// RetryAfter returns the time the server asked us to wait until
// before trying again, or the zero time.
func (e *HTTPError) RetryAfter() time.Time {
	return e.RetryAt
}

// Retry returns true for statuses worth trying again: 429 Too Many
// Requests and any 5xx
func (e *HTTPError) Retry() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Check HTTPError satisfies the error interface
var _ error = (*HTTPError)(nil)
