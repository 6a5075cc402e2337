// Package identity talks to the Keycloak identity provider: resolving bearer
// tokens through the OIDC userinfo endpoint and deleting accounts through the
// admin REST API.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/colink/gateway/internal/core/domain"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultAdminRealm    = "master"
	defaultAdminClientID = "admin-cli"
	maxErrorBody         = 512
)

// Config holds the Keycloak endpoints and admin credentials.
type Config struct {
	BaseURL       string
	Realm         string
	AdminRealm    string
	AdminClientID string
	AdminUser     string
	AdminPassword string
	Timeout       time.Duration
}

// KeycloakClient implements ports.IdentityProvider.
type KeycloakClient struct {
	cfg   Config
	http  *http.Client
	admin *http.Client
}

// NewKeycloakClient builds a client whose requests all go through base (a
// pooled client shared by the caller). Admin calls carry a password-grant
// token that is fetched lazily and reused until it expires.
func NewKeycloakClient(cfg Config, base *http.Client) *KeycloakClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AdminRealm == "" {
		cfg.AdminRealm = defaultAdminRealm
	}
	if cfg.AdminClientID == "" {
		cfg.AdminClientID = defaultAdminClientID
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}

	oauthCfg := &oauth2.Config{
		ClientID: cfg.AdminClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.BaseURL + "/realms/" + url.PathEscape(cfg.AdminRealm) + "/protocol/openid-connect/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	src := &passwordTokenSource{
		ctx:      ctx,
		cfg:      oauthCfg,
		username: cfg.AdminUser,
		password: cfg.AdminPassword,
	}
	admin := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, src))
	admin.Timeout = cfg.Timeout

	return &KeycloakClient{cfg: cfg, http: base, admin: admin}
}

// passwordTokenSource fetches admin tokens with the resource owner password
// grant. Keycloak's admin-cli client does not support client credentials.
type passwordTokenSource struct {
	ctx      context.Context
	cfg      *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.cfg.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, fmt.Errorf("keycloak admin token: %w", err)
	}
	return tok, nil
}

type userInfoResponse struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

// UserInfo resolves a raw bearer token through the realm's userinfo endpoint.
func (k *KeycloakClient) UserInfo(ctx context.Context, bearerToken string) (*domain.Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, k.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.realmURL("/protocol/openid-connect/userinfo"), nil)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := k.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("userinfo status %d: %w", resp.StatusCode, domain.ErrAuthentication)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("userinfo: missing sub: %w", domain.ErrAuthentication)
	}

	return &domain.Subject{
		ID:       info.Sub,
		Username: info.PreferredUsername,
		Email:    info.Email,
	}, nil
}

// DeleteUser removes the realm user with the given subject id.
func (k *KeycloakClient) DeleteUser(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return fmt.Errorf("keycloak delete: empty subject id")
	}

	ctx, cancel := context.WithTimeout(ctx, k.cfg.Timeout)
	defer cancel()

	endpoint := k.cfg.BaseURL + "/admin/realms/" + url.PathEscape(k.cfg.Realm) + "/users/" + url.PathEscape(subjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("keycloak delete request: %w", err)
	}

	resp, err := k.admin.Do(req)
	if err != nil {
		return fmt.Errorf("keycloak delete: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return domain.ErrSubjectGone
	default:
		return fmt.Errorf("keycloak delete status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
}

// Ping checks that the realm is being served.
func (k *KeycloakClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.realmURL(""), nil)
	if err != nil {
		return err
	}
	resp, err := k.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("realm status %d", resp.StatusCode)
	}
	return nil
}

func (k *KeycloakClient) realmURL(suffix string) string {
	return k.cfg.BaseURL + "/realms/" + url.PathEscape(k.cfg.Realm) + suffix
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
