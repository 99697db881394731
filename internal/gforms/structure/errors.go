package structure

import (
	"errors"
)

var (
	ErrAPIError         = errors.New("forms api error")
	ErrCredentials      = errors.New("forms api credentials")
	ErrUnsupportedInput = errors.New("unsupported form item")
)

type wrapError struct {
	underlying error
	msg        string
	cause      error
}

var _ error = (*wrapError)(nil)

func newAPIError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrAPIError,
		msg:        msg,
		cause:      cause,
	}
}

func newCredentialsError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrCredentials,
		msg:        msg,
		cause:      cause,
	}
}

func (err *wrapError) Error() string {
	if err == nil {
		return "(*wrapError)(nil)"
	}
	message := err.underlying.Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.underlying}
	}
	return []error{err.underlying, err.cause}
}
