package main

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	Google    string = "google"
	Microsoft string = "microsoft"
)

// TokenCredential is the outcome of a successful authorization-code exchange.
type TokenCredential struct {
	Provider     string     `json:"provider"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	Expiry       *time.Time `json:"expiry,omitempty"`
}

func newTokenCredential(provider string, token *oauth2.Token) *TokenCredential {
	cred := &TokenCredential{
		Provider:     provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		cred.Expiry = &expiry
	}
	return cred
}

func (c *TokenCredential) OAuth2Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.Expiry != nil {
		token.Expiry = *c.Expiry
	}
	return token
}
