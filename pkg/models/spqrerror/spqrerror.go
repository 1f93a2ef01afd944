package spqrerror

import (
	"errors"
	"fmt"
)

const (
	SPQR_UNEXPECTED         = "SPQRU"
	SPQR_CONFIG_ERROR       = "SPQRG"
	SPQR_OBJECT_NOT_EXIST   = "SPQRN"
	SPQR_OBJECT_EXISTS      = "SPQRA"
	SPQR_SHARDMAP_NOT_EMPTY = "SPQRH"
	SPQR_STORE_ERROR        = "SPQRQ"
	SPQR_INVALID_REQUEST    = "SPQRI"
	SPQR_CONNECTION_ERROR   = "SPQRO"
)

var existingErrorCodeMap = map[string]string{
	SPQR_CONFIG_ERROR:       "Configuration error",
	SPQR_OBJECT_NOT_EXIST:   "Object not found",
	SPQR_OBJECT_EXISTS:      "Object already exists",
	SPQR_SHARDMAP_NOT_EMPTY: "Shard map has shards",
	SPQR_STORE_ERROR:        "Store error",
	SPQR_INVALID_REQUEST:    "Invalid input",
	SPQR_CONNECTION_ERROR:   "Connection error",
}

// Sentinels for errors.Is. They match any SpqrError carrying the same code.
var (
	ErrConfiguration = &SpqrError{ErrorCode: SPQR_CONFIG_ERROR}
	ErrNotFound      = &SpqrError{ErrorCode: SPQR_OBJECT_NOT_EXIST}
	ErrStore         = &SpqrError{ErrorCode: SPQR_STORE_ERROR}
	ErrInput         = &SpqrError{ErrorCode: SPQR_INVALID_REQUEST}
)

// GetMessageByCode returns the human readable name of an error code.
func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &SpqrError{}

type SpqrError struct {
	Err error

	ErrorCode string
	ErrHint   string

	cause error
}

// New creates a new SpqrError with the given error code and message.
//
// Parameters:
//   - errorCode: The error code of the error.
//   - errorMsg: The error message.
//
// Returns:
//   - *SpqrError: The created SpqrError.
func New(errorCode string, errorMsg string) *SpqrError {
	return &SpqrError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

// Newf creates a new SpqrError with the given error code and formatted message.
func Newf(errorCode string, format string, a ...any) *SpqrError {
	return &SpqrError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

// Wrap attaches an error code and a context message to cause. The message of the
// resulting error is "msg: cause", so the underlying failure stays visible.
func Wrap(errorCode string, cause error, msg string) *SpqrError {
	return &SpqrError{
		Err:       fmt.Errorf("%s: %w", msg, cause),
		ErrorCode: errorCode,
		cause:     cause,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(errorCode string, cause error, format string, a ...any) *SpqrError {
	return Wrap(errorCode, cause, fmt.Sprintf(format, a...))
}

func (er *SpqrError) Error() string {
	if er.Err == nil {
		return GetMessageByCode(er.ErrorCode)
	}
	return er.Err.Error()
}

func (er *SpqrError) Unwrap() error {
	return er.cause
}

// Is reports whether target is a SpqrError with the same code. It lets callers use the
// package sentinels with errors.Is.
func (er *SpqrError) Is(target error) bool {
	t, ok := target.(*SpqrError)
	if !ok {
		return false
	}
	return t.ErrorCode == er.ErrorCode
}

// Cause returns the wrapped error, or nil.
func (er *SpqrError) Cause() error {
	return er.cause
}

// Kind returns the human readable name of the error code.
func (er *SpqrError) Kind() string {
	return GetMessageByCode(er.ErrorCode)
}

// HasCode reports whether err is, or wraps, a SpqrError with the given code. Only the
// outermost SpqrError in the chain is considered.
func HasCode(err error, code string) bool {
	var se *SpqrError
	if !errors.As(err, &se) {
		return false
	}
	return se.ErrorCode == code
}

// CodeOf returns the code of the outermost SpqrError in the chain, or SPQR_UNEXPECTED.
func CodeOf(err error) string {
	var se *SpqrError
	if !errors.As(err, &se) {
		return SPQR_UNEXPECTED
	}
	return se.ErrorCode
}
