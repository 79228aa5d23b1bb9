// Package auth authenticates requests to the project browser. The browser
// is read-only, so deployments default to open access; OIDC protects
// instances holding unpublished data.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rmr-labs/rmr-go/internal/platform/env"
)

type Mode string

const (
	ModeOIDC     Mode = "oidc"
	ModeDev      Mode = "dev"
	ModeDisabled Mode = "disabled"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated caller.
type Identity struct {
	Subject string
	Email   string
}

// Authenticator turns a request into an identity or ErrUnauthenticated.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

type Config struct {
	Mode Mode

	EmailClaim string

	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCScopes       []string

	DevSubject string
	DevEmail   string
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(strings.TrimSpace(env.String("RMR_AUTH_MODE", string(ModeDisabled))))
	var mode Mode
	switch modeRaw {
	case string(ModeOIDC):
		mode = ModeOIDC
	case string(ModeDev):
		mode = ModeDev
	case string(ModeDisabled):
		mode = ModeDisabled
	default:
		return Config{}, fmt.Errorf("RMR_AUTH_MODE must be one of: oidc, dev, disabled (got %q)", modeRaw)
	}

	cfg := Config{
		Mode:             mode,
		EmailClaim:       env.String("RMR_AUTH_EMAIL_CLAIM", "email"),
		OIDCIssuerURL:    env.String("RMR_OIDC_ISSUER_URL", ""),
		OIDCClientID:     env.String("RMR_OIDC_CLIENT_ID", ""),
		OIDCClientSecret: env.String("RMR_OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  env.String("RMR_OIDC_REDIRECT_URL", ""),
		OIDCScopes:       strings.Fields(env.String("RMR_OIDC_SCOPES", "openid profile email")),
		DevSubject:       env.String("RMR_DEV_AUTH_SUBJECT", "dev-user"),
		DevEmail:         env.String("RMR_DEV_AUTH_EMAIL", "dev-user@example.local"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOIDC:
		if strings.TrimSpace(c.OIDCIssuerURL) == "" {
			return errors.New("RMR_OIDC_ISSUER_URL is required when RMR_AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCClientID) == "" {
			return errors.New("RMR_OIDC_CLIENT_ID is required when RMR_AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.EmailClaim) == "" {
			return errors.New("RMR_AUTH_EMAIL_CLAIM is required when RMR_AUTH_MODE=oidc")
		}
	case ModeDev:
		if strings.TrimSpace(c.DevSubject) == "" {
			return errors.New("RMR_DEV_AUTH_SUBJECT is required when RMR_AUTH_MODE=dev")
		}
	case ModeDisabled:
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Mode)
	}
	return nil
}

// NewAuthenticator builds the authenticator for cfg.Mode. Disabled mode
// returns nil: no middleware should be installed.
func NewAuthenticator(ctx context.Context, cfg Config) (Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeDev:
		return DevAuthenticator{Subject: cfg.DevSubject, Email: cfg.DevEmail}, nil
	case ModeOIDC:
		return NewOIDCAuthenticator(ctx, cfg)
	default:
		return nil, nil
	}
}

// DevAuthenticator accepts every request as a fixed local identity.
type DevAuthenticator struct {
	Subject string
	Email   string
}

func (d DevAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return Identity{Subject: d.Subject, Email: d.Email}, nil
}
