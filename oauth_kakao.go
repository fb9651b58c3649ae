package authcore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Real Kakao endpoints, used when the config leaves the URL fields empty.
const (
	kakaoAuthorizeURL = "https://kauth.kakao.com/oauth/authorize"
	kakaoTokenURL     = "https://kauth.kakao.com/oauth/token"
	kakaoProfileURL   = "https://kapi.kakao.com/v2/user/me"
)

// KakaoProvider implements [OAuthProvider] against the Kakao REST API.
type KakaoProvider struct {
	config OAuthConfig
	client *http.Client
}

// NewKakaoProvider builds a provider from cfg, filling in the real Kakao
// endpoints for any URL field left empty.
func NewKakaoProvider(cfg OAuthConfig) *KakaoProvider {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = kakaoAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = kakaoTokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = kakaoProfileURL
	}
	return &KakaoProvider{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns [ProviderKakao].
func (p *KakaoProvider) Name() Provider {
	return ProviderKakao
}

// AuthorizeURL returns the Kakao consent page with client parameters
// attached.
func (p *KakaoProvider) AuthorizeURL() string {
	q := url.Values{}
	q.Set("client_id", p.config.ClientID)
	q.Set("client_secret", p.config.ClientSecret)
	q.Set("redirect_uri", p.config.RedirectURI)
	q.Set("response_type", "code")
	return p.config.AuthorizeURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for a Kakao access token.
func (p *KakaoProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", p.config.ClientID)
	form.Set("client_secret", p.config.ClientSecret)
	form.Set("redirect_uri", p.config.RedirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("kakao token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("kakao token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("kakao token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("kakao token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("kakao token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("kakao token response missing access_token")
	}
	return parsed.AccessToken, nil
}

// kakaoProfile mirrors the subset of the /v2/user/me payload the engine
// reads. Every field is optional on Kakao's side except the email, which the
// app requests as a mandatory consent item.
type kakaoProfile struct {
	KakaoAccount struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Gender  string `json:"gender"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// FetchProfile reads the signed-in user's profile with a bearer token.
func (p *KakaoProvider) FetchProfile(ctx context.Context, accessToken string) (*OAuthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("kakao profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao profile request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kakao profile response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("kakao profile endpoint returned %d: %s", resp.StatusCode, body)
	}

	var parsed kakaoProfile
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("kakao profile response: %w", err)
	}
	if parsed.KakaoAccount.Email == "" {
		return nil, fmt.Errorf("kakao profile missing email consent")
	}

	return &OAuthUserInfo{
		Email:        parsed.KakaoAccount.Email,
		Name:         parsed.KakaoAccount.Name,
		Gender:       parsed.KakaoAccount.Gender,
		Nickname:     parsed.KakaoAccount.Profile.Nickname,
		ProfileImage: parsed.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}
