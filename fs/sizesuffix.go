package fs

import (
	"strconv"
	"strings"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
)

// SizeSuffix is an int64 with a friendly way of printing setting
//
// Values are parsed with binary multipliers so "4M" and "4MiB" both
// mean 4*1024*1024 bytes.
type SizeSuffix int64

// Common multipliers for SizeSuffix
const (
	SizeSuffixBase SizeSuffix = 1 << (iota * 10)
	Kibi
	Mebi
	Gibi
)

// String turns SizeSuffix into a string
func (x SizeSuffix) String() string {
	if x < 0 {
		return "off"
	}
	if x < Kibi {
		return strconv.FormatInt(int64(x), 10)
	}
	return strings.Replace(units.BytesSize(float64(x)), "iB", "i", 1)
}

// Set a SizeSuffix
func (x *SizeSuffix) Set(s string) error {
	if len(s) == 0 {
		return errors.New("empty string")
	}
	if strings.ToLower(s) == "off" {
		*x = -1
		return nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return errors.Wrapf(err, "bad size %q", s)
	}
	if n < 0 {
		return errors.Errorf("size can't be negative %q", s)
	}
	*x = SizeSuffix(n)
	return nil
}

// Type of the value
func (x *SizeSuffix) Type() string {
	return "SizeSuffix"
}
