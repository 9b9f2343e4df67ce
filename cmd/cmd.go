// Package cmd implements the dbxclient command
//
// It is in a sub package so its internals can be re-used elsewhere
package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rclone/dbxclient/dropbox"
	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fserrors"
	"github.com/rclone/dbxclient/fs/fshttp"
	"github.com/rclone/dbxclient/lib/exitcode"
	"github.com/spf13/cobra"
)

// Globals
var (
	// Flags
	verbose         int
	quiet           bool
	version         bool
	retries         = 3
	retriesInterval time.Duration
	metricsAddr     string
	// Errors
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")
)

// Root is the main dbxclient command
var Root = &cobra.Command{
	Use:   "dbxclient",
	Short: "Work with files in Dropbox from the command line",
	Long: `
dbxclient talks to the Dropbox HTTP API v2. It uploads files of any
size, streaming large files and pipes in chunks through an upload
session, and can download, list, copy, move, delete and share them.

Authenticate with --token, the DROPBOX_ACCESS_TOKEN environment
variable or a token file. A token file holding an OAuth2 token with a
refresh token is renewed automatically when --app-key and
--app-secret are given.
`,
	Run: func(command *cobra.Command, args []string) {
		if version {
			ShowVersion()
			resolveExitCode(nil)
		}
		_ = command.Usage()
	},
}

func init() {
	ci := fs.GetConfig(context.Background())
	pf := Root.PersistentFlags()
	pf.CountVarP(&verbose, "verbose", "v", "Print lots more stuff (repeat for more)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Print as little stuff as possible")
	pf.Var(&ci.LogLevel, "log-level", "Log level DEBUG|INFO|NOTICE|ERROR")
	pf.BoolVar(&ci.UseJSONLog, "use-json-log", ci.UseJSONLog, "Use json log format")
	pf.Var(&ci.Dump, "dump", "List of items to dump from: "+fs.DumpFlagsList)
	pf.DurationVar(&ci.ConnectTimeout, "contimeout", ci.ConnectTimeout, "Connect timeout")
	pf.DurationVar(&ci.Timeout, "timeout", ci.Timeout, "IO idle timeout")
	pf.DurationVar(&ci.ExpectContinueTimeout, "expect-continue-timeout", ci.ExpectContinueTimeout, "Timeout when using expect / 100-continue in HTTP")
	pf.BoolVar(&ci.InsecureSkipVerify, "no-check-certificate", ci.InsecureSkipVerify, "Do not verify the server SSL certificate (insecure)")
	pf.Float64Var(&ci.TPSLimit, "tpslimit", ci.TPSLimit, "Limit HTTP transactions per second to this")
	pf.IntVar(&ci.TPSLimitBurst, "tpslimit-burst", ci.TPSLimitBurst, "Max burst of transactions for --tpslimit")
	pf.StringVar(&ci.UserAgent, "user-agent", ci.UserAgent, "Set the user-agent to a specified string")
	pf.IntVar(&ci.Transfers, "transfers", ci.Transfers, "Number of file transfers to run in parallel")
	pf.Var(&ci.ChunkSize, "chunk-size", "Uploads bigger than this use an upload session with chunks this size (max 150Mi)")
	pf.IntVar(&ci.UploadRetries, "upload-retries", ci.UploadRetries, "Retry a failed chunk of a seekable upload this many times")
	pf.IntVar(&retries, "retries", retries, "Retry operations this many times if they fail")
	pf.DurationVar(&retriesInterval, "retries-sleep", retriesInterval, "Interval between retrying operations if they fail, e.g 500ms, 60s, 5m (0 to disable)")
	pf.StringVar(&metricsAddr, "metrics-addr", metricsAddr, "Serve prometheus metrics on this address, e.g. localhost:9090")
	addAuthFlags(pf)
	Root.Flags().BoolVarP(&version, "version", "V", false, "Print the version number")
	cobra.OnInitialize(initConfig)
}

// ShowVersion prints the version to stdout
func ShowVersion() {
	fmt.Printf("dbxclient %s\n", fs.Version)
	fmt.Printf("- os/type: %s\n", runtime.GOOS)
	fmt.Printf("- os/arch: %s\n", runtime.GOARCH)
	fmt.Printf("- go/version: %s\n", runtime.Version())
}

// setLogLevel works out the log level from -v, -q and --log-level
func setLogLevel(ci *fs.ConfigInfo) {
	if flag := Root.PersistentFlags().Lookup("log-level"); flag != nil && flag.Changed {
		if verbose > 0 || quiet {
			fs.Errorf(nil, "Ignoring -v and -q as --log-level is set")
		}
		return
	}
	switch {
	case verbose >= 2:
		ci.LogLevel = fs.LogLevelDebug
	case verbose == 1:
		ci.LogLevel = fs.LogLevelInfo
	case quiet:
		ci.LogLevel = fs.LogLevelError
	}
}

// initConfig is run by cobra after initialising the flags
func initConfig() {
	ctx := context.Background()
	ci := fs.GetConfig(ctx)

	// Start the logger
	setLogLevel(ci)
	fs.InitLogging(ci, nil)

	// Start the metrics before any transports are made
	if metricsAddr != "" {
		startMetrics(metricsAddr)
	}

	// Start the transaction limiter
	fshttp.StartHTTPTokenBucket(ctx)

	// Write the args for debug purposes
	fs.Debugf("dbxclient", "Version %q starting with parameters %q", fs.Version, os.Args)
}

// Run the function with retries if required, then exit
//
// Only pass retry as true if f can be safely run again, for example
// it doesn't read from stdin.
func Run(retry bool, command *cobra.Command, f func(ctx context.Context) error) {
	ctx := context.Background()
	var err error
	for try := 1; try <= retries; try++ {
		err = f(ctx)
		if err == nil || !retry {
			if err == nil && try > 1 {
				fs.Errorf(nil, "Attempt %d/%d succeeded", try, retries)
			}
			break
		}
		if fserrors.IsFatalError(err) {
			fs.Errorf(nil, "Fatal error received - not attempting retries")
			break
		}
		if !dropbox.ShouldRetry(ctx, err) {
			fs.Errorf(nil, "Can't retry this error - not attempting retries")
			break
		}
		fs.Errorf(nil, "Attempt %d/%d failed with: %v", try, retries, err)
		if retryAfter := fserrors.RetryAfterErrorTime(err); !retryAfter.IsZero() {
			if d := time.Until(retryAfter); d > 0 {
				fs.Logf(nil, "Received retry after error - sleeping until %s (%v)", retryAfter.Format(time.RFC3339Nano), d)
				time.Sleep(d)
			}
		} else if retriesInterval > 0 && try < retries {
			time.Sleep(retriesInterval)
		}
	}
	fs.Debugf(nil, "%d go routines active", runtime.NumGoroutine())
	if err != nil {
		fs.Errorf(nil, "Failed to %s: %v", command.Name(), err)
	}
	resolveExitCode(err)
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, command *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = command.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", command.Name(), MinArgs, len(args), args)
		resolveExitCode(errorNotEnoughArguments)
	} else if len(args) > MaxArgs {
		_ = command.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", command.Name(), MaxArgs, len(args), args)
		resolveExitCode(errorTooManyArguments)
	}
}

// exitCode returns the process exit code for err
func exitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var apiErr *api.Error
	switch {
	case errors.Is(err, errorNotEnoughArguments), errors.Is(err, errorTooManyArguments):
		return exitcode.UsageError
	case errors.As(err, &apiErr) && strings.Contains(apiErr.Summary, "/not_found/"):
		return exitcode.FileNotFound
	case fserrors.IsFatalError(err):
		return exitcode.FatalError
	case fserrors.IsNoRetryError(err):
		return exitcode.NoRetryError
	case dropbox.ShouldRetry(context.Background(), err):
		return exitcode.RetryError
	}
	return exitcode.UncategorizedError
}

func resolveExitCode(err error) {
	os.Exit(exitCode(err))
}

// Main runs dbxclient interpreting flags and commands out of os.Args
func Main() {
	if err := Root.Execute(); err != nil {
		fs.Errorf(nil, "Fatal error: %v", err)
		os.Exit(exitcode.UsageError)
	}
}
