// Package providers implements the OAuth2 identity-provider client consumed
// by the core: authorization-code exchange, token refresh, identity
// resolution, and group membership reads.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-accountlink/core"
)

const (
	defaultRequestTimeout    = 30 * time.Second
	maxResponseBodyBytes     = 1 << 20 // 1 MiB
	defaultMembershipPathFmt = "%s/users/@me/guilds/%s/member"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type OAuth2Config struct {
	AuthURL        string
	TokenURL       string
	IdentityURL    string
	MemberURL      string
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	Scopes         []string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// OAuth2Provider talks to one identity provider's OAuth2 endpoints. Client
// credentials go in the Authorization header (HTTP basic), never the form
// body.
type OAuth2Provider struct {
	cfg        OAuth2Config
	httpClient HTTPDoer
}

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

func NewOAuth2Provider(cfg OAuth2Config) (*OAuth2Provider, error) {
	if strings.TrimSpace(cfg.AuthURL) == "" {
		return nil, fmt.Errorf("providers: auth url is required")
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, fmt.Errorf("providers: token url is required")
	}
	if strings.TrimSpace(cfg.IdentityURL) == "" {
		return nil, fmt.Errorf("providers: identity url is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("providers: client id is required")
	}

	cfg.AuthURL = strings.TrimSpace(cfg.AuthURL)
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	cfg.IdentityURL = strings.TrimSpace(cfg.IdentityURL)
	cfg.MemberURL = strings.TrimSpace(cfg.MemberURL)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.RedirectURI = strings.TrimSpace(cfg.RedirectURI)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &OAuth2Provider{
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

// FromConfig builds a provider from the core configuration surface.
func FromConfig(cfg core.ProviderConfig, client HTTPDoer) (*OAuth2Provider, error) {
	return NewOAuth2Provider(OAuth2Config{
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		IdentityURL:  cfg.IdentityURL,
		MemberURL:    cfg.MemberURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       append([]string(nil), cfg.Scopes...),
		HTTPClient:   client,
	})
}

func (p *OAuth2Provider) AuthorizationURL(state string) string {
	if p == nil {
		return ""
	}
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", p.cfg.ClientID)
	if p.cfg.RedirectURI != "" {
		values.Set("redirect_uri", p.cfg.RedirectURI)
	}
	if len(p.cfg.Scopes) > 0 {
		values.Set("scope", strings.Join(p.cfg.Scopes, " "))
	}
	if strings.TrimSpace(state) != "" {
		values.Set("state", strings.TrimSpace(state))
	}

	authURL := p.cfg.AuthURL
	if strings.Contains(authURL, "?") {
		return authURL + "&" + values.Encode()
	}
	return authURL + "?" + values.Encode()
}

func (p *OAuth2Provider) ExchangeCode(ctx context.Context, code string) (core.TokenPair, error) {
	if p == nil {
		return core.TokenPair{}, fmt.Errorf("providers: oauth2 provider is nil")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return core.TokenPair{}, fmt.Errorf("providers: auth code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if p.cfg.RedirectURI != "" {
		form.Set("redirect_uri", p.cfg.RedirectURI)
	}

	payload, err := p.fetchToken(ctx, form)
	if err != nil {
		return core.TokenPair{}, err
	}
	return core.TokenPair{
		AccessToken:  strings.TrimSpace(payload.AccessToken),
		RefreshToken: strings.TrimSpace(payload.RefreshToken),
	}, nil
}

func (p *OAuth2Provider) RefreshTokenPair(ctx context.Context, refreshToken string) (core.TokenPair, error) {
	if p == nil {
		return core.TokenPair{}, fmt.Errorf("providers: oauth2 provider is nil")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.TokenPair{}, fmt.Errorf("providers: refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	payload, err := p.fetchToken(ctx, form)
	if err != nil {
		return core.TokenPair{}, err
	}

	pair := core.TokenPair{
		AccessToken:  strings.TrimSpace(payload.AccessToken),
		RefreshToken: strings.TrimSpace(payload.RefreshToken),
	}
	// Some providers omit the rotated refresh token; the old one stays valid.
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

type identityPayload struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (p *OAuth2Provider) FetchIdentity(ctx context.Context, accessToken string) (core.Identity, error) {
	if p == nil {
		return core.Identity{}, fmt.Errorf("providers: oauth2 provider is nil")
	}
	body, err := p.getJSON(ctx, p.cfg.IdentityURL, accessToken)
	if err != nil {
		return core.Identity{}, err
	}

	var payload identityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.Identity{}, core.UpstreamError("providers: decode identity response: " + err.Error())
	}

	identity := core.Identity{
		ProviderAccountID: strings.TrimSpace(payload.User.ID),
		Username:          strings.TrimSpace(payload.User.Username),
	}
	// Providers that serve the profile at the top level instead of nested.
	if identity.ProviderAccountID == "" {
		identity.ProviderAccountID = strings.TrimSpace(payload.ID)
		identity.Username = strings.TrimSpace(payload.Username)
	}
	if identity.ProviderAccountID == "" {
		return core.Identity{}, core.UpstreamError("providers: identity response carries no account id")
	}
	return identity, nil
}

type membershipPayload struct {
	Roles []string `json:"roles"`
}

func (p *OAuth2Provider) FetchGroupMembership(ctx context.Context, accessToken string, groupID string) ([]string, error) {
	if p == nil {
		return nil, fmt.Errorf("providers: oauth2 provider is nil")
	}
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("providers: group id is required")
	}

	memberURL := p.cfg.MemberURL
	if memberURL == "" {
		return nil, fmt.Errorf("providers: member url is not configured")
	}
	if strings.Contains(memberURL, "%s") {
		memberURL = fmt.Sprintf(memberURL, url.PathEscape(groupID))
	} else {
		memberURL = strings.TrimRight(memberURL, "/") + "/" + url.PathEscape(groupID) + "/member"
	}

	body, err := p.getJSON(ctx, memberURL, accessToken)
	if err != nil {
		return nil, err
	}

	var payload membershipPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, core.UpstreamError("providers: decode membership response: " + err.Error())
	}
	if payload.Roles == nil {
		return nil, core.UpstreamError("providers: membership response carries no roles")
	}
	return payload.Roles, nil
}

func (p *OAuth2Provider) fetchToken(ctx context.Context, form url.Values) (tokenEndpointPayload, error) {
	if p.httpClient == nil {
		return tokenEndpointPayload{}, fmt.Errorf("providers: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	requestCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		p.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	response, err := p.httpClient.Do(httpReq)
	if err != nil {
		return tokenEndpointPayload{}, core.UpstreamError("providers: token request failed: " + err.Error())
	}
	defer response.Body.Close()

	body, readErr := readCapped(response.Body)
	if readErr != nil {
		return tokenEndpointPayload{}, core.UpstreamError("providers: read token response: " + readErr.Error())
	}

	payload, parseErr := parseTokenPayload(body, response.Header.Get("Content-Type"))
	if parseErr != nil {
		return tokenEndpointPayload{}, core.UpstreamError("providers: decode token response: " + parseErr.Error())
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return tokenEndpointPayload{}, core.UpstreamError(fmt.Sprintf(
			"providers: token endpoint error (%d): %s",
			response.StatusCode,
			describeTokenError(payload),
		))
	}
	if payload.ErrorCode != "" {
		return tokenEndpointPayload{}, core.UpstreamError("providers: token endpoint error: " + describeTokenError(payload))
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return tokenEndpointPayload{}, core.UpstreamError("providers: token endpoint response missing access token")
	}
	return payload, nil
}

func (p *OAuth2Provider) getJSON(ctx context.Context, rawURL string, accessToken string) ([]byte, error) {
	if p.httpClient == nil {
		return nil, fmt.Errorf("providers: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("providers: access token is required")
	}

	requestCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")

	response, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.UpstreamError("providers: provider request failed: " + err.Error())
	}
	defer response.Body.Close()

	body, readErr := readCapped(response.Body)
	if readErr != nil {
		return nil, core.UpstreamError("providers: read provider response: " + readErr.Error())
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, core.UpstreamError(fmt.Sprintf(
			"providers: provider error (%d): %s",
			response.StatusCode,
			strings.TrimSpace(string(body)),
		))
	}
	return body, nil
}

func readCapped(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxResponseBodyBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBodyBytes)
	}
	return data, nil
}

func describeTokenError(payload tokenEndpointPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}

func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "x-www-form-urlencoded") || strings.Contains(contentType, "text/plain") {
		return parseTokenPayloadForm(body)
	}
	return parseTokenPayloadJSON(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	var raw struct {
		AccessToken      string `json:"access_token"`
		TokenType        string `json:"token_type"`
		RefreshToken     string `json:"refresh_token"`
		ExpiresIn        int64  `json:"expires_in"`
		ErrorCode        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if len(body) == 0 {
		return tokenEndpointPayload{}, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      raw.AccessToken,
		TokenType:        raw.TokenType,
		RefreshToken:     raw.RefreshToken,
		ExpiresIn:        raw.ExpiresIn,
		ErrorCode:        raw.ErrorCode,
		ErrorDescription: raw.ErrorDescription,
	}, nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	payload := tokenEndpointPayload{
		AccessToken:      values.Get("access_token"),
		TokenType:        values.Get("token_type"),
		RefreshToken:     values.Get("refresh_token"),
		ErrorCode:        values.Get("error"),
		ErrorDescription: values.Get("error_description"),
	}
	return payload, nil
}

var _ core.IdentityProvider = (*OAuth2Provider)(nil)
