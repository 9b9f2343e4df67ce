//go:build !plan9

package fserrors

import (
	"syscall"
)

func init() {
	retriableErrors = append(retriableErrors,
		syscall.EPIPE,
		syscall.ETIMEDOUT,
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EHOSTDOWN,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.ENETRESET,
		syscall.EAGAIN,
	)
}
