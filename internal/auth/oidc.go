package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrNotReady is returned while OIDC discovery has not completed successfully.
var ErrNotReady = errors.New("auth: identity provider not initialized")

// Identity is the verified subset of ID token claims used to upsert a user.
type Identity struct {
	Issuer  string `json:"-"`
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Authenticator starts and completes an authorization code flow.
type Authenticator interface {
	AuthCodeURL(state, codeChallenge string) (string, error)
	Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error)
}

// ProviderConfig holds the OIDC client settings.
type ProviderConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Provider wraps an OIDC provider with OAuth2 configuration and token
// verification. Discovery runs in Init, which may be called in the background;
// until it succeeds the Provider reports ErrNotReady.
type Provider struct {
	cfg ProviderConfig

	mu           sync.RWMutex
	verifier     *gooidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	initErr      error
}

// NewProvider returns an uninitialized Provider.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

// Init performs OIDC discovery. It is attempted once; a failure leaves the
// Provider permanently not ready.
func (p *Provider) Init(ctx context.Context) error {
	provider, err := gooidc.NewProvider(ctx, p.cfg.Issuer)
	if err != nil {
		err = fmt.Errorf("OIDC provider discovery failed for %s: %w", p.cfg.Issuer, err)
		p.mu.Lock()
		p.initErr = err
		p.mu.Unlock()
		return err
	}

	oauth2Cfg := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  p.cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
	}
	verifier := provider.Verifier(&gooidc.Config{ClientID: p.cfg.ClientID})

	p.mu.Lock()
	p.oauth2Config = oauth2Cfg
	p.verifier = verifier
	p.initErr = nil
	p.mu.Unlock()
	return nil
}

// Ready reports whether discovery succeeded.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.oauth2Config != nil
}

// Err returns the discovery error, if any.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initErr
}

func (p *Provider) loaded() (*oauth2.Config, *gooidc.IDTokenVerifier, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.oauth2Config == nil {
		return nil, nil, ErrNotReady
	}
	return p.oauth2Config, p.verifier, nil
}

// AuthCodeURL generates the authorization URL with PKCE and state.
func (p *Provider) AuthCodeURL(state, codeChallenge string) (string, error) {
	oc, _, err := p.loaded()
	if err != nil {
		return "", err
	}
	return oc.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

// Exchange trades an authorization code for tokens and returns the verified identity.
func (p *Provider) Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error) {
	oc, verifier, err := p.loaded()
	if err != nil {
		return nil, err
	}

	token, err := oc.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in token response")
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification: %w", err)
	}

	var id Identity
	if err := idToken.Claims(&id); err != nil {
		return nil, fmt.Errorf("id_token claims: %w", err)
	}
	id.Issuer = idToken.Issuer
	return &id, nil
}

// GenerateState returns a cryptographically random state string.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GeneratePKCE returns a PKCE verifier and its S256 challenge.
func GeneratePKCE() (verifier, challenge string, err error) {
	b := make([]byte, 64)
	if _, err = rand.Read(b); err != nil {
		return
	}
	verifier = base64.RawURLEncoding.EncodeToString(b)
	challenge = pkceChallenge(verifier)
	return
}

func pkceChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
