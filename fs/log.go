package fs

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogLevel describes dbxclient's logs.  These are a subset of the syslog log levels.
type LogLevel byte

// Log levels.  These are the syslog levels of which we only use a
// subset.
//
//	LOG_EMERG      system is unusable
//	LOG_ALERT      action must be taken immediately
//	LOG_CRIT       critical conditions
//	LOG_ERR        error conditions
//	LOG_WARNING    warning conditions
//	LOG_NOTICE     normal, but significant, condition
//	LOG_INFO       informational message
//	LOG_DEBUG      debug-level message
const (
	LogLevelEmergency LogLevel = iota
	LogLevelAlert
	LogLevelCritical
	LogLevelError // Error - can't be suppressed
	LogLevelWarning
	LogLevelNotice // Normal logging, -q suppresses
	LogLevelInfo   // Transfers, needs -v
	LogLevelDebug  // Debug level, needs -vv
)

var logLevelToString = []string{
	LogLevelEmergency: "EMERGENCY",
	LogLevelAlert:     "ALERT",
	LogLevelCritical:  "CRITICAL",
	LogLevelError:     "ERROR",
	LogLevelWarning:   "WARNING",
	LogLevelNotice:    "NOTICE",
	LogLevelInfo:      "INFO",
	LogLevelDebug:     "DEBUG",
}

// String turns a LogLevel into a string
func (l LogLevel) String() string {
	if l >= LogLevel(len(logLevelToString)) {
		return fmt.Sprintf("LogLevel(%d)", l)
	}
	return logLevelToString[l]
}

// Set a LogLevel
func (l *LogLevel) Set(s string) error {
	for n, name := range logLevelToString {
		if s != "" && name == s {
			*l = LogLevel(n)
			return nil
		}
	}
	return errors.Errorf("unknown log level %q", s)
}

// Type of the value
func (l *LogLevel) Type() string {
	return "string"
}

// logrusLevel maps a LogLevel onto the nearest logrus level
func (l LogLevel) logrusLevel() logrus.Level {
	switch {
	case l >= LogLevelDebug:
		return logrus.DebugLevel
	case l == LogLevelInfo:
		return logrus.InfoLevel
	case l == LogLevelNotice || l == LogLevelWarning:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// Logger is the logrus instance all log output is sent through.
//
// Level gating is done by LogLevel in the config so the logrus level
// is left wide open.
var Logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(textFormatter(false))
	return l
}

func textFormatter(colors bool) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		DisableColors:    !colors,
		ForceColors:      colors,
		FullTimestamp:    true,
		TimestampFormat:  "2006/01/02 15:04:05",
		DisableQuote:     true,
		PadLevelText:     true,
		QuoteEmptyFields: true,
	}
}

// logOutput returns the writer for text logs sent to f and whether
// they should be coloured. Only terminals get colour; elsewhere any
// escape codes are stripped.
func logOutput(f *os.File) (io.Writer, bool) {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return colorable.NewColorable(f), true
	}
	return colorable.NewNonColorable(f), false
}

// InitLogging sets up the Logger from the config passed in
//
// If out is nil logs go to standard error, coloured if it is a
// terminal.
func InitLogging(ci *ConfigInfo, out io.Writer) {
	if ci.UseJSONLog {
		if out == nil {
			out = os.Stderr
		}
		Logger.SetOutput(out)
		Logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	colors := false
	if out == nil {
		out, colors = logOutput(os.Stderr)
	}
	Logger.SetOutput(out)
	Logger.SetFormatter(textFormatter(colors))
}

// LogValueItem describes keyed item for a JSON log entry
type LogValueItem struct {
	key   string
	value interface{}
}

// LogValue should be used as an argument to any logging calls to
// augment the JSON output with more structured information.
//
// key is the dictionary parameter used to store value.
func LogValue(key string, value interface{}) LogValueItem {
	return LogValueItem{key: key, value: value}
}

// String returns the representation of value
func (j LogValueItem) String() string {
	if do, ok := j.value.(fmt.Stringer); ok {
		return do.String()
	}
	return fmt.Sprint(j.value)
}

// LogPrintf produces a log string from the arguments passed in
func LogPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	out := fmt.Sprintf(text, args...)
	fields := logrus.Fields{}
	if o != nil {
		fields["object"] = fmt.Sprintf("%v", o)
		fields["objectType"] = fmt.Sprintf("%T", o)
	}
	for _, arg := range args {
		if item, ok := arg.(LogValueItem); ok {
			fields[item.key] = item.value
		}
	}
	if o != nil && !GetConfig(context.TODO()).UseJSONLog {
		out = fmt.Sprintf("%v: %s", o, out)
		delete(fields, "object")
		delete(fields, "objectType")
	}
	Logger.WithFields(fields).Log(level.logrusLevel(), out)
}

// LogLevelPrintf writes logs at the given level
func LogLevelPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	if GetConfig(context.TODO()).LogLevel >= level {
		LogPrintf(level, o, text, args...)
	}
}

// Errorf writes error log output for this Object or Client.  It
// should always be seen by the user.
func Errorf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelError, o, text, args...)
}

// Logf writes log output for this Object or Client.  This should be
// considered to be Notice level logging.  It is the default level.
// Only use this for important things the user should see.
func Logf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelNotice, o, text, args...)
}

// Infof writes info on transfers for this Object or Client.  Use this
// level for logging transfers, deletions and things which should
// appear with the -v flag.
func Infof(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelInfo, o, text, args...)
}

// Debugf writes debugging output for this Object or Client.  Use this for
// debug only.  The user must have to specify -vv to see this.
func Debugf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelDebug, o, text, args...)
}
