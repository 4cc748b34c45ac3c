package main

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCode        = errors.New("missing or invalid authorization code")
	ErrInvalidCredentials = errors.New("authorization code exchange returned no usable token")
	ErrNotAuthenticated   = errors.New("no credential held for provider")
	ErrMissingAccessToken = errors.New("caller did not supply an access token")
)

type FailureKind int

const (
	Unauthorized FailureKind = iota + 1
	UpstreamRejected
	Unknown
)

func (k FailureKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case UpstreamRejected:
		return "upstream_rejected"
	default:
		return "unknown"
	}
}

// ProviderError is the only error a provider's CreateEvent returns.
// Message is safe to show to the caller; Err is for the server log.
type ProviderError struct {
	Provider string
	Kind     FailureKind
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
