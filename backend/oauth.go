package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// exchangeCode trades a one-time authorization code for a credential. A
// rejected code and a token response without an access token both count as
// invalid credentials; anything else is an internal failure.
func exchangeCode(ctx context.Context, conf *oauth2.Config, client *http.Client, provider, code string) (*TokenCredential, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	token, err := conf.Exchange(oauthContext(ctx, client), code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && codeRejected(retrieveErr) {
			return nil, fmt.Errorf("%s rejected code (%s): %w", provider, retrieveErr.ErrorCode, ErrInvalidCredentials)
		}
		// x/oauth2 (checked against v0.23.0) reports a 2xx token response
		// without access_token only as this plain error, with no type to
		// match on. TestGoogleExchangeCode pins the wording.
		if strings.Contains(err.Error(), "server response missing access_token") {
			return nil, fmt.Errorf("%s: %w", provider, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s token exchange: %w", provider, err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", provider, ErrInvalidCredentials)
	}

	return newTokenCredential(provider, token), nil
}

// codeRejected tells a refused code or client apart from a token endpoint
// that is down or throttling; only the former is the caller's fault.
func codeRejected(err *oauth2.RetrieveError) bool {
	switch err.ErrorCode {
	case "invalid_grant", "invalid_client", "invalid_request", "unauthorized_client", "unsupported_grant_type", "invalid_scope":
		return true
	}
	if err.Response == nil {
		return false
	}
	status := err.Response.StatusCode
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func oauthContext(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

func checkOAuthConfig(provider string, conf *oauth2.Config) error {
	if conf.ClientID == "" || conf.RedirectURL == "" || conf.Endpoint.AuthURL == "" {
		return fmt.Errorf("%s oauth client is not configured", provider)
	}
	return nil
}
