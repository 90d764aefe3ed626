package yadisk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Token is an issued OAuth token pair with its lifetime in seconds.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Authenticator drives the OAuth flows against oauth.yandex.ru: the
// browser-redirect code flow, the device flow for headless hosts, token
// refresh and revocation.
type Authenticator struct {
	conf    *oauth2.Config
	baseURL string
	client  *http.Client
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithAuthBaseURL overrides the OAuth endpoint (useful for tests).
func WithAuthBaseURL(u string) AuthOption {
	return func(a *Authenticator) { a.baseURL = u }
}

// WithAuthHTTPClient sets the http.Client used for token requests.
func WithAuthHTTPClient(client *http.Client) AuthOption {
	return func(a *Authenticator) { a.client = client }
}

// NewAuthenticator builds an Authenticator for the given application
// credentials. redirectURI may be empty when the application uses the
// device flow or the out-of-band verification code page.
func NewAuthenticator(clientID, clientSecret, redirectURI string, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		baseURL: DefaultOAuthBaseURL,
		client:  http.DefaultClient,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.conf = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:       a.baseURL + "/authorize",
			TokenURL:      a.baseURL + "/token",
			DeviceAuthURL: a.baseURL + "/device/code",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}

	return a
}

// AuthURL returns the URL the user must visit to authorize the application.
func (a *Authenticator) AuthURL(state string, extra ...oauth2.AuthCodeOption) string {
	return a.conf.AuthCodeURL(state, extra...)
}

// Exchange trades an authorization or verification code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*Token, error) {
	tok, err := a.conf.Exchange(a.httpContext(ctx), code)
	if err != nil {
		return nil, translateOAuthError(err)
	}

	return fromOAuth2Token(tok), nil
}

// DeviceAuth starts the device flow: the returned response carries the code
// the user enters at the verification URL.
func (a *Authenticator) DeviceAuth(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	resp, err := a.conf.DeviceAuth(a.httpContext(ctx))
	if err != nil {
		return nil, translateOAuthError(err)
	}

	return resp, nil
}

// WaitForDeviceToken polls the token endpoint until the user approves the
// device or the device code expires.
func (a *Authenticator) WaitForDeviceToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*Token, error) {
	tok, err := a.conf.DeviceAccessToken(a.httpContext(ctx), da)
	if err != nil {
		return nil, translateOAuthError(err)
	}

	return fromOAuth2Token(tok), nil
}

// Refresh obtains a fresh token pair from a refresh token.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	src := a.conf.TokenSource(a.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		return nil, translateOAuthError(err)
	}

	return fromOAuth2Token(tok), nil
}

// Revoke invalidates an access token. Yandex requires the application
// credentials alongside the token.
func (a *Authenticator) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("access_token", accessToken)
	form.Set("client_id", a.conf.ClientID)
	form.Set("client_secret", a.conf.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/revoke_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("yadisk: building revoke request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("yadisk: revoking token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body := make([]byte, 4096)
		n, _ := resp.Body.Read(body)

		return classify(resp.StatusCode, body[:n])
	}

	return nil
}

// httpContext threads the Authenticator's http.Client into the oauth2
// machinery.
func (a *Authenticator) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.client)
}

// fromOAuth2Token converts the x/oauth2 token into the wire-shaped record.
func fromOAuth2Token(tok *oauth2.Token) *Token {
	t := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}

	if expires := tok.ExpiresIn; expires > 0 {
		t.ExpiresIn = expires
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}

	return t
}

// translateOAuthError maps oauth2 retrieval failures onto the classified
// error kinds (invalid_grant, bad_verification_code and friends), so
// callers see the same taxonomy as for REST errors.
func translateOAuthError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		return classify(rErr.Response.StatusCode, rErr.Body)
	}

	return fmt.Errorf("yadisk: oauth request: %w", err)
}

// RefreshToken obtains a fresh token pair from a refresh token, using the
// client's OAuth endpoint. The client's own token is not replaced; call
// SetToken with the result to rotate it.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*Token, error) {
	auth := NewAuthenticator(clientID, clientSecret, "", WithAuthBaseURL(c.oauthBaseURL))

	return auth.Refresh(ctx, refreshToken)
}

// RevokeToken invalidates the client's current token.
func (c *Client) RevokeToken(ctx context.Context, clientID, clientSecret string) error {
	auth := NewAuthenticator(clientID, clientSecret, "", WithAuthBaseURL(c.oauthBaseURL))

	return auth.Revoke(ctx, c.token)
}

// CheckToken reports whether the client's token is accepted by the API.
func (c *Client) CheckToken(ctx context.Context, opts ...CallOption) (bool, error) {
	opts = append(opts, WithFields("revision"))

	_, err := c.DiskInfo(ctx, opts...)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
