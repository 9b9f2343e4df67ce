// Package env contains functions for dealing with environment variables
package env

import (
	"os"

	homedir "github.com/mitchellh/go-homedir"
)

// ShellExpandHelp describes what ShellExpand does for inclusion into help
const ShellExpandHelp = "Leading `~` is expanded as are environment variables such as `${XDG_CONFIG_HOME}`"

// ShellExpand replaces a leading "~" with the home directory and
// expands all environment variables afterwards.
func ShellExpand(s string) string {
	if s != "" {
		if s[0] == '~' {
			newS, err := homedir.Expand(s)
			if err == nil {
				s = newS
			}
		}
		s = os.ExpandEnv(s)
	}
	return s
}

// Lookup returns the first of the environment variables which is set
// and non empty, or "" if none are
func Lookup(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
