package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
)

// errorBody is the shape of the remote's error responses. Detail is either a
// string or a list of field failures.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// classify is the inbound interception point. It runs exactly once per
// response and returns nil for success statuses.
func (c *Client) classify(ctx context.Context, method, path string, status int, body []byte) *perrors.APIError {
	if status >= 200 && status < 300 {
		return nil
	}

	cause := fmt.Errorf("%s %s: %s", method, path, http.StatusText(status))
	var apiErr *perrors.APIError

	switch {
	case status == http.StatusUnauthorized:
		apiErr = perrors.New(perrors.KindUnauthorized, status)
		c.emitInvalidated(ctx)
	case status == http.StatusForbidden:
		apiErr = perrors.New(perrors.KindForbidden, status)
	case status == http.StatusNotFound:
		apiErr = perrors.New(perrors.KindNotFound, status)
	case status == http.StatusUnprocessableEntity:
		apiErr = validationError(status, body)
	case status >= 500:
		apiErr = perrors.New(perrors.KindServerError, status)
	default:
		msg := remoteDetail(body)
		if msg == "" {
			msg = http.StatusText(status)
		}
		apiErr = &perrors.APIError{Kind: perrors.KindRequestFailed, StatusCode: status, Message: msg}
	}

	apiErr.Err = cause
	return apiErr
}

func validationError(status int, body []byte) *perrors.APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return perrors.Validation(status, nil)
	}

	var fields []perrors.FieldError
	if err := json.Unmarshal(eb.Detail, &fields); err == nil {
		return perrors.Validation(status, fields)
	}

	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err == nil && detail != "" {
		return &perrors.APIError{Kind: perrors.KindValidationFailed, StatusCode: status, Message: detail}
	}
	return perrors.Validation(status, nil)
}

// remoteDetail extracts a human readable message from an error body: the
// string form of "detail", then "message".
func remoteDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	var detail string
	if len(eb.Detail) > 0 && json.Unmarshal(eb.Detail, &detail) == nil && detail != "" {
		return detail
	}
	return eb.Message
}
