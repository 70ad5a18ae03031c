package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// downstreamError covers the two error bodies the backend can produce: our own
// {"error":{"code","message"}} envelope and the Spring Boot default
// {"status","error","message","path"} body.
type downstreamError struct {
	Envelope *envelopeError
	Message  string
	Reason   string
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (d *downstreamError) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if msg, ok := raw["message"]; ok {
		_ = json.Unmarshal(msg, &d.Message)
	}
	if e, ok := raw["error"]; ok {
		var env envelopeError
		if json.Unmarshal(e, &env) == nil {
			d.Envelope = &env
			return nil
		}
		_ = json.Unmarshal(e, &d.Reason)
	}
	return nil
}

func (d *downstreamError) text() string {
	switch {
	case d.Envelope != nil && d.Envelope.Message != "":
		return d.Envelope.Message
	case d.Message != "":
		return d.Message
	default:
		return d.Reason
	}
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError. The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.NetworkFailure(serviceName, fmt.Errorf("status %d, read body: %w", resp.StatusCode, err))
	}

	message := strings.TrimSpace(string(bodyBytes))
	var downstream downstreamError
	if json.Unmarshal(bodyBytes, &downstream) == nil {
		if text := downstream.text(); text != "" {
			message = text
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return mapDownstreamError(resp.StatusCode, message, serviceName)
}

// mapDownstreamError translates a backend status code into the failure kinds
// the comparer exposes: client mistakes stay 4xx, anything else becomes a
// network failure the shopper can retry.
func mapDownstreamError(status int, message, serviceName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound, status == http.StatusGone:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualifiedMsg,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Unauthorized(qualifiedMsg)
	default:
		return apperrors.NetworkFailure(serviceName, fmt.Errorf("status %d: %s", status, message))
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
