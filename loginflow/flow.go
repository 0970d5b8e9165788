// Package loginflow runs the OAuth2 authorization code login against the configured provider:
// Begin issues the authorization redirect, Callback exchanges the returned code for an
// access token and fetches the user's profile with it.
package loginflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-google-login/internal/config"
	apperrors "github.com/jrsteele09/go-google-login/internal/errors"
	"github.com/jrsteele09/go-google-login/loginflow/authflowrepo"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	stateLength    = 32
	maxProfileSize = 1 << 20
	maxErrorBody   = 512
)

type Flow struct {
	oauth      *oauth2.Config
	profileURL string
	states     authflowrepo.Repo
	stateTTL   time.Duration
	timeout    time.Duration
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Flow)

// WithHTTPClient sets the client used for discovery, token exchange and profile requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Flow) {
		f.httpClient = client
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// New builds the flow from cfg. When cfg.IssuerURL is set, endpoints missing from cfg are
// discovered from the issuer's OpenID configuration.
func New(ctx context.Context, cfg *config.Config, states authflowrepo.Repo, opts ...Option) (*Flow, error) {
	if states == nil {
		return nil, errors.New("[loginflow New] state repo is required")
	}

	f := &Flow{
		profileURL: cfg.ProfileURL,
		states:     states,
		stateTTL:   cfg.StateTTL,
		timeout:    cfg.UpstreamTimeout,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	endpoint, err := f.resolveEndpoint(ctx, cfg)
	if err != nil {
		return nil, err
	}

	f.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
	}
	return f, nil
}

func (f *Flow) resolveEndpoint(ctx context.Context, cfg *config.Config) (oauth2.Endpoint, error) {
	endpoint := oauth2.Endpoint{
		AuthURL:  cfg.AuthURL,
		TokenURL: cfg.TokenURL,
	}
	if cfg.IssuerURL == "" {
		return endpoint, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, f.httpClient), cfg.IssuerURL)
	if err != nil {
		return endpoint, fmt.Errorf("%w: discovery for issuer %s: %w", apperrors.ErrConfiguration, cfg.IssuerURL, err)
	}

	discovered := provider.Endpoint()
	if endpoint.AuthURL == "" {
		endpoint.AuthURL = discovered.AuthURL
	}
	if endpoint.TokenURL == "" {
		endpoint.TokenURL = discovered.TokenURL
	}
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		return endpoint, fmt.Errorf("%w: issuer %s does not advertise authorization and token endpoints", apperrors.ErrConfiguration, cfg.IssuerURL)
	}
	return endpoint, nil
}

// Begin creates a new single-use state, remembers it until the state TTL elapses and returns
// the provider authorization URL carrying it.
func (f *Flow) Begin(ctx context.Context) (AuthRedirect, error) {
	state, err := generateState()
	if err != nil {
		return AuthRedirect{}, apperrors.Kind(apperrors.ErrInternal, err)
	}

	now := f.now()
	authState := &authflowrepo.AuthFlowState{
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(f.stateTTL),
	}
	if err := f.states.Save(ctx, state, authState); err != nil {
		return AuthRedirect{}, fmt.Errorf("%w: failed to save state: %w", apperrors.ErrInternal, err)
	}

	return AuthRedirect{
		URL:       f.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(authState.CodeVerifier)),
		State:     state,
		ExpiresAt: authState.ExpiresAt,
	}, nil
}

// Callback consumes the state, exchanges the code for a token and fetches the profile.
// The profile is logged and returned; nothing is persisted.
func (f *Flow) Callback(ctx context.Context, params CallbackParams) (*UserProfile, error) {
	authState, err := f.states.Take(ctx, params.State)
	if err != nil {
		if errors.Is(err, authflowrepo.ErrStateNotFound) || errors.Is(err, authflowrepo.ErrEmptyState) {
			return nil, apperrors.Kind(apperrors.ErrInvalidState, err)
		}
		return nil, fmt.Errorf("%w: failed to load state: %w", apperrors.ErrInternal, err)
	}

	if params.Error != "" {
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrAuthorizationDenied, params.Error, params.ErrorDescription)
	}
	if params.Code == "" {
		return nil, fmt.Errorf("%w: missing code parameter", apperrors.ErrInvalidRequest)
	}

	token, err := f.exchange(ctx, params.Code, authState.CodeVerifier)
	if err != nil {
		return nil, err
	}

	profile, err := f.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("user_id", profile.ID).
		Str("username", profile.Username).
		Str("discriminator", profile.Discriminator).
		Msg("User profile fetched")
	logger.Debug().Interface("profile", profile).Msg("User profile")

	return profile, nil
}

func (f *Flow) exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	token, err := f.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, upstreamError(ctx, apperrors.ErrTokenExchange, err)
	}
	return token, nil
}

func (f *Flow) fetchProfile(ctx context.Context, token *oauth2.Token) (*UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.profileURL, nil)
	if err != nil {
		return nil, apperrors.Kind(apperrors.ErrProfileFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, upstreamError(ctx, apperrors.ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileSize))
	if err != nil {
		return nil, upstreamError(ctx, apperrors.ErrProfileFetch, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: profile endpoint returned %d: %s", apperrors.ErrProfileFetch, resp.StatusCode, body)
	}

	return DecodeProfile(body)
}

// upstreamError tags err with kind, or with ErrTimeout as well when the call ran out of time.
func upstreamError(ctx context.Context, kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", apperrors.ErrTimeout, kind, err)
	}
	return apperrors.Kind(kind, err)
}

// generateState creates a random base64url string
func generateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
