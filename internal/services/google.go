// Google OAuth client used for federated sign-in
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/cinefeed/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// GoogleOAuth wraps the OAuth2 authorization code flow whose id token is handed to the identity provider.
type GoogleOAuth struct {
	config *oauth2.Config
}

// NewGoogleOAuth creates the OAuth client from credentials (client_id, client_secret, redirect_uri).
func NewGoogleOAuth(credentials map[string]string) (*GoogleOAuth, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}

	return &GoogleOAuth{config: config}, nil
}

// Config exposes the underlying OAuth2 configuration to the callback server.
func (g *GoogleOAuth) Config() *oauth2.Config {
	return g.config
}

// SetEndpoint overrides the provider endpoints.
func (g *GoogleOAuth) SetEndpoint(authURL, tokenURL string) {
	g.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
}

// AuthURL returns the consent page URL for state.
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for a token.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// IDToken extracts the OpenID Connect id token from an exchanged token.
func IDToken(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", fmt.Errorf("%w: no token", shared.ErrAuthFailed)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", fmt.Errorf("%w: token response has no id_token", shared.ErrAuthFailed)
	}
	return idToken, nil
}
