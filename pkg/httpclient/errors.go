package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// downstreamErrorResponse covers the error body shapes returned by the
// storefront's collaborators: the {"error":{code,message}} envelope, the
// recommendation API's {"detail": "..."} and the flat {"error": "..."}.
type downstreamErrorResponse struct {
	Error  json.RawMessage `json:"error"`
	Detail any             `json:"detail"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError keyed on the status code. The message is taken from
// the first recognised body shape, falling back to the raw body text.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	code, message := extractMessage(bodyBytes)
	return mapDownstreamError(resp.StatusCode, code, message, serviceName)
}

// extractMessage pulls a human-readable message out of an error body.
func extractMessage(body []byte) (code, message string) {
	var downstream downstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil {
		if len(downstream.Error) > 0 {
			var se envelopeError
			if json.Unmarshal(downstream.Error, &se) == nil && se.Message != "" {
				return se.Code, se.Message
			}
			var flat string
			if json.Unmarshal(downstream.Error, &flat) == nil && flat != "" {
				return "", flat
			}
		}
		if s, ok := downstream.Detail.(string); ok && s != "" {
			return "", s
		}
	}
	// json-server-auth answers with a bare JSON string or plain text.
	var bare string
	if json.Unmarshal(body, &bare) == nil && bare != "" {
		return "", bare
	}
	return "", strings.TrimSpace(string(body))
}

// mapDownstreamError translates a downstream service's HTTP status code and
// error code into an AppError that preserves the error semantics.
func mapDownstreamError(status int, code, message, serviceName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch status {
	case http.StatusNotFound:
		return apperrors.NotFoundMessage(qualifiedMsg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualifiedMsg)
	case http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualifiedMsg, nil)
	}
	switch {
	case status >= 500:
		return apperrors.TransportFailure(qualifiedMsg,
			fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message))
	default:
		return apperrors.TransportFailure(qualifiedMsg,
			fmt.Errorf("%s unexpected status %d", serviceName, status))
	}
}

// TranslateError maps an error returned by Do into an AppError. A
// *StatusError is mapped like a response with that status, an open breaker
// becomes SERVICE_UNAVAILABLE and anything else is a transport failure.
// AppErrors pass through unchanged.
func TranslateError(err error, serviceName string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var se *StatusError
	if errors.As(err, &se) {
		code, message := extractMessage([]byte(se.Body))
		return mapDownstreamError(se.StatusCode, code, message, serviceName)
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.ServiceUnavailable(serviceName+": circuit open", err)
	}
	return apperrors.TransportFailure(fmt.Sprintf("%s: request failed", serviceName), err)
}
