package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/cinefeed/internal/shared"
)

// APIError reports a non-2xx response from a metadata or video-search endpoint.
type APIError struct {
	Service    string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return shared.ErrAPIRequest.Error()
	}
	msg := fmt.Sprintf("%s API error (status %d) %s", e.Service, e.StatusCode, e.Endpoint)
	if m := strings.TrimSpace(e.Message); m != "" {
		msg += ": " + m
	}
	return msg
}

// Is matches [shared.ErrAPIRequest], [shared.ErrNotFound] for 404s,
// and [shared.ErrNotAuthenticated] for 401s.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case shared.ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IdentityError is a rejection reported by the identity provider.
//
// Code carries the provider's error code (e.g. EMAIL_EXISTS, INVALID_LOGIN_CREDENTIALS)
// and Message the optional human readable detail.
type IdentityError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *IdentityError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider error: %s", e.Code)
	}
	return fmt.Sprintf("identity provider error: %s: %s", e.Code, e.Message)
}

// Is matches [shared.ErrAuthFailed] and, for malformed submissions, [shared.ErrInvalidInput].
func (e *IdentityError) Is(target error) bool {
	switch target {
	case shared.ErrAuthFailed:
		return true
	case shared.ErrInvalidInput:
		switch e.Code {
		case "INVALID_EMAIL", "MISSING_PASSWORD", "MISSING_EMAIL", "WEAK_PASSWORD":
			return true
		}
	}
	return false
}

// parseIdentityMessage splits "CODE : detail" provider messages.
func parseIdentityMessage(status int, raw string) *IdentityError {
	code, detail, _ := strings.Cut(raw, " : ")
	code = strings.TrimSpace(code)
	if code == "" {
		code = http.StatusText(status)
	}
	return &IdentityError{StatusCode: status, Code: code, Message: strings.TrimSpace(detail)}
}
