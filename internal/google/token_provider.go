package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/slotkeeper/internal/logging"
)

// ErrNoCredentials is returned when neither a key file nor inline JSON is configured.
var ErrNoCredentials = errors.New("no service account credentials configured")

// TokenProvider supplies an OAuth2 token source for Google APIs.
type TokenProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// ServiceAccountConfig locates a service-account key.
type ServiceAccountConfig struct {
	// CredentialsFile is the path to a service-account JSON key.
	CredentialsFile string

	// CredentialsJSON is the key itself. It wins over CredentialsFile.
	CredentialsJSON string

	// Subject is the user to impersonate with domain-wide delegation.
	// Empty means the service account acts as itself.
	Subject string

	// Scopes defaults to CalendarScopes.
	Scopes []string
}

// ServiceAccountProvider builds token sources from a service-account key.
type ServiceAccountProvider struct {
	jwt    []byte
	config ServiceAccountConfig
	logger *slog.Logger
}

// NewServiceAccountProvider reads and validates the key.
func NewServiceAccountProvider(cfg ServiceAccountConfig, logger *slog.Logger) (*ServiceAccountProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = CalendarScopes
	}

	var data []byte
	switch {
	case cfg.CredentialsJSON != "":
		data = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		data = b
	default:
		return nil, ErrNoCredentials
	}

	if err := validateServiceAccountJSON(data); err != nil {
		return nil, err
	}

	return &ServiceAccountProvider{
		jwt:    data,
		config: cfg,
		logger: logger,
	}, nil
}

// TokenSource returns a caching token source. The first token is fetched
// lazily.
func (p *ServiceAccountProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	conf, err := google.JWTConfigFromJSON(p.jwt, p.config.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	if p.config.Subject != "" {
		conf.Subject = p.config.Subject
	}

	p.logger.Debug("service account token source created",
		slog.String("client_email", conf.Email),
		slog.String("key_id", logging.SanitizeSecret(conf.PrivateKeyID)))

	return oauth2.ReuseTokenSource(nil, &loggingTokenSource{
		base:   conf.TokenSource(ctx),
		logger: p.logger,
	}), nil
}

// Check fetches a token to verify the credentials are accepted.
func Check(ts oauth2.TokenSource) error {
	tok, err := ts.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	if !tok.Valid() {
		return errors.New("obtained access token is not valid")
	}
	return nil
}

type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func validateServiceAccountJSON(data []byte) error {
	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if key.Type != "service_account" {
		return fmt.Errorf("credentials must be a service account key, got type %q", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return errors.New("service account key is missing client_email or private_key")
	}
	return nil
}

// loggingTokenSource logs every fetch of a fresh token.
type loggingTokenSource struct {
	base   oauth2.TokenSource
	logger *slog.Logger
}

func (s *loggingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		s.logger.Warn("access token refresh failed", logging.Err(err))
		return nil, err
	}
	s.logger.Debug("access token refreshed", slog.Time("expiry", tok.Expiry))
	return tok, nil
}
