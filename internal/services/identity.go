// Firebase Authentication REST implementation of [IdentityProvider]
//
// Endpoints based on https://firebase.google.com/docs/reference/rest/auth
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/cinefeed/internal/shared"
)

const (
	defaultIdentityBaseURL = "https://identitytoolkit.googleapis.com/v1"
	idpRequestURI          = "http://localhost"
)

// firebaseAccount covers the fields shared by the signUp, signIn*, update and lookup responses.
type firebaseAccount struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	ProviderID   string `json:"providerId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	FullName     string `json:"fullName"`
}

func (f firebaseAccount) account(providerID string) *Account {
	a := &Account{
		LocalID:      f.LocalID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		ProviderID:   f.ProviderID,
		IDToken:      f.IDToken,
		RefreshToken: f.RefreshToken,
	}
	if a.DisplayName == "" {
		a.DisplayName = f.FullName
	}
	if a.ProviderID == "" {
		a.ProviderID = providerID
	}
	if secs, err := strconv.Atoi(f.ExpiresIn); err == nil && secs > 0 {
		a.ExpiresIn = time.Duration(secs) * time.Second
	}
	return a
}

// FirebaseService implements [IdentityProvider] against the Identity Toolkit REST API.
type FirebaseService struct {
	api    *APIService
	apiKey string
}

// NewFirebaseService creates an identity provider client from its credentials section.
func NewFirebaseService(config shared.FirebaseConfig, client *http.Client) (*FirebaseService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: firebase api_key", shared.ErrMissingCredentials)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultIdentityBaseURL
	}

	return &FirebaseService{
		api:    NewAPIService("firebase", baseURL, client),
		apiKey: config.APIKey,
	}, nil
}

// Name returns the service name.
func (f *FirebaseService) Name() string {
	return "Firebase"
}

// call posts payload to /accounts:{method} and decodes the response into result.
func (f *FirebaseService) call(ctx context.Context, method string, payload, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	q := url.Values{}
	q.Set("key", f.apiKey)

	resp, err := f.api.Post(ctx, "/accounts:"+method, q, data)
	if err != nil {
		return err
	}

	if !resp.OK() {
		var envelope struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if resp.IsJSON {
			_ = json.Unmarshal(resp.Body, &envelope)
		}
		return parseIdentityMessage(resp.StatusCode, envelope.Error.Message)
	}

	return resp.Decode(result)
}

// SignUp calls accounts:signUp.
func (f *FirebaseService) SignUp(ctx context.Context, email, password string) (*Account, error) {
	payload := map[string]any{"email": email, "password": password, "returnSecureToken": true}

	var resp firebaseAccount
	if err := f.call(ctx, "signUp", payload, &resp); err != nil {
		return nil, err
	}
	return resp.account(ProviderPassword), nil
}

// SignInWithPassword calls accounts:signInWithPassword.
func (f *FirebaseService) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	payload := map[string]any{"email": email, "password": password, "returnSecureToken": true}

	var resp firebaseAccount
	if err := f.call(ctx, "signInWithPassword", payload, &resp); err != nil {
		return nil, err
	}
	return resp.account(ProviderPassword), nil
}

// SignInWithIdp calls accounts:signInWithIdp with a federated id token.
func (f *FirebaseService) SignInWithIdp(ctx context.Context, providerID, idToken string) (*Account, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty %s id token", shared.ErrInvalidArgument, providerID)
	}

	postBody := url.Values{}
	postBody.Set("id_token", idToken)
	postBody.Set("providerId", providerID)

	payload := map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          idpRequestURI,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	}

	var resp firebaseAccount
	if err := f.call(ctx, "signInWithIdp", payload, &resp); err != nil {
		return nil, err
	}
	return resp.account(providerID), nil
}

// UpdateProfile calls accounts:update to set the display name.
func (f *FirebaseService) UpdateProfile(ctx context.Context, idToken, displayName string) (*Account, error) {
	payload := map[string]any{"idToken": idToken, "displayName": displayName, "returnSecureToken": true}

	var resp firebaseAccount
	if err := f.call(ctx, "update", payload, &resp); err != nil {
		return nil, err
	}
	a := resp.account("")
	if a.IDToken == "" {
		a.IDToken = idToken
	}
	return a, nil
}

// Lookup calls accounts:lookup.
func (f *FirebaseService) Lookup(ctx context.Context, idToken string) (*Account, error) {
	var resp struct {
		Users []struct {
			firebaseAccount
			ProviderUserInfo []struct {
				ProviderID string `json:"providerId"`
			} `json:"providerUserInfo"`
		} `json:"users"`
	}
	if err := f.call(ctx, "lookup", map[string]any{"idToken": idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, fmt.Errorf("%w: no account for token", shared.ErrNotAuthenticated)
	}

	user := resp.Users[0]
	providerID := ""
	if len(user.ProviderUserInfo) > 0 {
		providerID = user.ProviderUserInfo[0].ProviderID
	}
	a := user.account(providerID)
	a.IDToken = idToken
	return a, nil
}
