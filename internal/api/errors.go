package api

import (
	"errors"
)

// MsgUnreachable is shown for transport failures.
const MsgUnreachable = "Unable to reach the server. Please check your connection and try again."

// UserMessage returns the text to show for err: the server message for
// business failures, a fixed line for transport failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnauthorized) {
		return ErrUnauthorized.Error()
	}
	var ctErr *ContentTypeError
	if errors.As(err, &ctErr) {
		return ctErr.Error()
	}
	var trErr *TransportError
	if errors.As(err, &trErr) {
		return MsgUnreachable
	}
	return err.Error()
}
