package fs

import (
	"context"
	"time"
)

// Version of dbxclient, overridden at link time
var Version = "v0.1.0-DEV"

// ConfigInfo is the client wide config
type ConfigInfo struct {
	LogLevel              LogLevel
	UseJSONLog            bool
	ConnectTimeout        time.Duration // Connect timeout
	Timeout               time.Duration // Data channel timeout
	ExpectContinueTimeout time.Duration
	Dump                  DumpFlags
	InsecureSkipVerify    bool // Skip server certificate verification
	TPSLimit              float64
	TPSLimitBurst         int
	UserAgent             string
	Transfers             int
	ChunkSize             SizeSuffix
	UploadRetries         int
}

// NewConfig creates a new config with everything set to the default
// value.
func NewConfig() *ConfigInfo {
	c := new(ConfigInfo)

	// Set any values which aren't the zero for the type
	c.LogLevel = LogLevelNotice
	c.Transfers = 4
	c.ConnectTimeout = 60 * time.Second
	c.Timeout = 5 * 60 * time.Second
	c.ExpectContinueTimeout = 1 * time.Second
	c.TPSLimitBurst = 1
	c.UserAgent = "dbxclient/" + Version
	c.ChunkSize = 4 * Mebi
	c.UploadRetries = 0
	return c
}

type configContextKeyType struct{}

// Context key for config
var configContextKey = configContextKeyType{}

// global config
var globalConfig = NewConfig()

// GetConfig returns the global or context sensitive context
func GetConfig(ctx context.Context) *ConfigInfo {
	if ctx == nil {
		return globalConfig
	}
	c := ctx.Value(configContextKey)
	if c == nil {
		return globalConfig
	}
	return c.(*ConfigInfo)
}

// AddConfig returns a mutable config structure based on a shallow
// copy of that found in ctx and returns a new context with that added
// to it.
func AddConfig(ctx context.Context) (context.Context, *ConfigInfo) {
	c := GetConfig(ctx)
	cCopy := new(ConfigInfo)
	*cCopy = *c
	newCtx := context.WithValue(ctx, configContextKey, cCopy)
	return newCtx, cCopy
}
