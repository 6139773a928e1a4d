package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured indicates the provider has no credential.
	ErrNotConfigured = errors.New("score provider not configured")
	// ErrTimeout indicates the upstream call exceeded the evaluation deadline.
	ErrTimeout = errors.New("score provider timed out")
	// ErrRateLimited indicates the upstream rejected the call with HTTP 429.
	ErrRateLimited = errors.New("score provider rate limited")
	// ErrInvalidCredential indicates the upstream rejected the credential.
	ErrInvalidCredential = errors.New("score provider rejected credential")
	// ErrUpstream covers every other transport or upstream failure.
	ErrUpstream = errors.New("score provider upstream failure")
	// ErrEmptyResponse indicates a successful call that carried no text.
	ErrEmptyResponse = errors.New("score provider returned empty response")
	// ErrMalformedResponse indicates text that could not be normalized into a result.
	ErrMalformedResponse = errors.New("score provider returned malformed response")
)

// ProviderError carries upstream context for a failed provider call.
// It unwraps to one of the package sentinels.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	RetryAfter string
	Kind       error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RetryAfter != "" {
		b.WriteString("; retry after ")
		b.WriteString(e.RetryAfter)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// classifyStatus maps an upstream HTTP status into a ProviderError.
func classifyStatus(provider string, status int, message, retryAfter string) *ProviderError {
	kind := ErrUpstream
	switch status {
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusUnauthorized:
		kind = ErrInvalidCredential
	}

	if kind != ErrRateLimited {
		retryAfter = ""
	}

	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Message:    strings.TrimSpace(message),
		RetryAfter: strings.TrimSpace(retryAfter),
		Kind:       kind,
	}
}

func upstreamError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Message: err.Error(), Kind: ErrUpstream}
}
