package registration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfig      = errors.New("form configuration error")
	ErrUnknownType = errors.New("unknown registration type")
	ErrUpstream    = errors.New("upstream failure")
	ErrUnresolved  = errors.New("unresolved answer keys")
)

type wrapError struct {
	sentinel error
	msg      string
	cause    error
}

func newError(sentinel error, msg string, cause error) error {
	return &wrapError{sentinel: sentinel, msg: msg, cause: cause}
}

func (err *wrapError) Error() string {
	msg := err.sentinel.Error()
	if err.msg != "" {
		msg += ": " + err.msg
	}
	if err.cause != nil {
		msg += ": " + err.cause.Error()
	}
	return msg
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.sentinel}
	}
	return []error{err.sentinel, err.cause}
}

// UnresolvedKeysError lists submitted keys that the live form page does not
// know, they would be silently dropped by the remote endpoint.
type UnresolvedKeysError struct {
	Keys []string
}

func (err *UnresolvedKeysError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolved.Error(), strings.Join(err.Keys, ", "))
}

func (err *UnresolvedKeysError) Is(target error) bool {
	return target == ErrUnresolved
}
