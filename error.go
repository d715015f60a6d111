package eventscrape

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These are meant to be generic codes that the HTTP boundary can translate
// into status codes. Any non-application error is treated as EINTERNAL.
const (
	EINVALID       = "invalid"       // malformed input or unfetchable page
	EUNAUTHORIZED  = "unauthorized"  // API key rejected or misconfigured
	EUNPROCESSABLE = "unprocessable" // content filtered or response unparseable
	ERATELIMIT     = "rate_limit"    // client exceeded the request budget
	EUNAVAILABLE   = "unavailable"   // upstream LLM failure after retries
	EINTERNAL      = "internal"      // anything uncategorized
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract the machine-readable code and a
// human-readable message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message. Must never embed credentials.
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("eventscrape error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Code()
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
