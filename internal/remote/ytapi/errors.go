package ytapi

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"ytbridge/internal/remote"
)

// Reason codes produced by the adapter itself.
const (
	ReasonNoCredentials = "noCredentials"
	ReasonAuth          = "authError"
)

// classify converts any error returned by the API client into *remote.Error.
// Errors without an HTTP response are transport failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := remote.AsError(err); ok {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		out := &remote.Error{
			Message:    apiErr.Message,
			StatusCode: apiErr.Code,
			Raw:        apiErr.Body,
		}
		for _, item := range apiErr.Errors {
			if item.Reason == "" {
				continue
			}
			out.Reason = item.Reason
			if out.Message == "" {
				out.Message = item.Message
			}
			break
		}
		if out.Message == "" {
			out.Message = http.StatusText(apiErr.Code)
		}
		return out
	}

	var authErr *oauth2.RetrieveError
	if errors.As(err, &authErr) {
		out := &remote.Error{Reason: ReasonAuth, Message: authErr.Error(), Raw: string(authErr.Body)}
		if authErr.Response != nil {
			out.StatusCode = authErr.Response.StatusCode
		}
		return out
	}

	return &remote.Error{Reason: remote.ReasonTransport, Message: err.Error()}
}
