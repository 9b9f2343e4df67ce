// Package exitcode exports dbxclient's exit status numbers.
package exitcode

const (
	// Success is returned when the command finished without error.
	Success = iota
	// UsageError is returned when the arguments couldn't be parsed.
	UsageError
	// UncategorizedError is returned for any error not categorised otherwise.
	UncategorizedError
	// FileNotFound is returned when Dropbox reports the path doesn't exist.
	FileNotFound
	// RetryError is returned for temporary errors which ran out of retries.
	RetryError
	// NoRetryError is returned for errors which can't be retried, eg a failed read of stdin.
	NoRetryError
	// FatalError is returned for errors retrying won't fix, eg missing credentials.
	FatalError
)
