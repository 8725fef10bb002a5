package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Reason codes the bridge inspects. Anything else is passed through verbatim.
const (
	ReasonTransport            = "transport"
	ReasonUnknown              = "unknown"
	ReasonVideoNotFound        = "videoNotFound"
	ReasonCaptionNotFound      = "captionNotFound"
	ReasonPlaylistNotFound     = "playlistNotFound"
	ReasonPlaylistItemNotFound = "playlistItemNotFound"
	ReasonNotFound             = "notFound"
	ReasonQuotaExceeded        = "quotaExceeded"
	ReasonRateLimitExceeded    = "rateLimitExceeded"
)

// Error is the structured failure every Publisher call reports.
type Error struct {
	Reason     string
	Message    string
	StatusCode int
	Raw        string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	reason := e.Reason
	if reason == "" {
		reason = ReasonUnknown
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", reason, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", reason, e.Message)
}

// NewError builds a structured error with the given reason.
func NewError(reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

// AsError extracts the structured error from err.
func AsError(err error) (*Error, bool) {
	var remoteErr *Error
	if errors.As(err, &remoteErr) && remoteErr != nil {
		return remoteErr, true
	}
	return nil, false
}

// ReasonOf returns the reason code carried by err. Errors that did not come from
// the remote boundary report "internal".
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	if remoteErr, ok := AsError(err); ok {
		if remoteErr.Reason == "" {
			return ReasonUnknown
		}
		return remoteErr.Reason
	}
	return "internal"
}

// IsNotFound reports whether err means the remote object is already gone.
func IsNotFound(err error) bool {
	remoteErr, ok := AsError(err)
	if !ok {
		return false
	}
	switch remoteErr.Reason {
	case ReasonVideoNotFound, ReasonCaptionNotFound, ReasonPlaylistNotFound, ReasonPlaylistItemNotFound, ReasonNotFound:
		return true
	}
	return remoteErr.StatusCode == http.StatusNotFound
}

// IsTransport reports whether err failed before the service produced a response.
func IsTransport(err error) bool {
	remoteErr, ok := AsError(err)
	return ok && remoteErr.Reason == ReasonTransport
}

// IsRetryable reports whether a read call failing with err may be repeated.
func IsRetryable(err error) bool {
	remoteErr, ok := AsError(err)
	if !ok {
		return false
	}
	if remoteErr.Reason == ReasonTransport || strings.EqualFold(remoteErr.Reason, ReasonRateLimitExceeded) {
		return true
	}
	return remoteErr.StatusCode >= 500
}
