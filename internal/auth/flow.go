package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/services"
	"github.com/desertthunder/relx/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultScopes lets the pipeline read the profile and write public or private playlists.
var DefaultScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-modify-public",
	"playlist-modify-private",
}

const profileTimeout = 10 * time.Second

// Options configures a [Flow].
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string   // defaults to [services.SpotifyAuthURL]
	TokenURL     string   // defaults to [services.SpotifyTokenURL]
	Scopes       []string // defaults to [DefaultScopes]

	Nonces     NonceGenerator          // defaults to [UUIDNonces]
	Catalogs   services.CatalogFactory // used for the post-exchange profile log; nil disables it
	HTTPClient *http.Client            // client for token endpoint calls; nil uses the oauth2 default
	Logger     *log.Logger
}

// Flow runs the authorization code exchange. It holds configuration only; tokens are returned to the caller.
type Flow struct {
	config      *oauth2.Config
	nonces      NonceGenerator
	catalogs    services.CatalogFactory
	httpClient  *http.Client
	logger      *log.Logger
	diagnostics sync.WaitGroup
}

// NewFlow validates opts and builds a [Flow].
func NewFlow(opts Options) (*Flow, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and client secret are required", shared.ErrMissingCredentials)
	}
	if opts.RedirectURL == "" {
		return nil, fmt.Errorf("%w: redirect url is required", shared.ErrInvalidConfig)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = services.SpotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = services.SpotifyTokenURL
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes
	}
	if opts.Nonces == nil {
		opts.Nonces = UUIDNonces{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Flow{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		nonces:     opts.Nonces,
		catalogs:   opts.Catalogs,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "auth"),
	}, nil
}

// BeginLogin starts a new attempt awaiting its callback.
//
// The caller persists [Attempt.State] and redirects to [Attempt.RedirectURL].
func (f *Flow) BeginLogin() *Attempt {
	state := f.nonces.Generate()
	return &Attempt{
		flow:        f,
		phase:       AwaitingCallback,
		state:       state,
		redirectURL: f.config.AuthCodeURL(state),
	}
}

// Resume rebuilds the attempt whose nonce the caller stored. An empty storedState yields an [Idle] attempt, which rejects every callback.
func (f *Flow) Resume(storedState string) *Attempt {
	a := &Attempt{flow: f, phase: Idle}
	if storedState != "" {
		a.phase = AwaitingCallback
		a.state = storedState
	}
	return a
}

// HandleCallback validates receivedState against storedState and exchanges code for tokens.
func (f *Flow) HandleCallback(ctx context.Context, code, receivedState, storedState string) (*models.TokenPair, error) {
	return f.Resume(storedState).Complete(ctx, code, receivedState)
}

// Refresh exchanges refreshToken for a new access token (grant_type=refresh_token).
//
// The returned pair keeps refreshToken. Safe to retry.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is empty", shared.ErrRefreshFailed)
	}

	// An expired token with only the refresh half set forces the source to refresh.
	source := f.config.TokenSource(f.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	return &models.TokenPair{AccessToken: token.AccessToken, RefreshToken: refreshToken}, nil
}

// Wait blocks until every outstanding profile diagnostic has finished.
func (f *Flow) Wait() {
	f.diagnostics.Wait()
}

func (f *Flow) exchange(ctx context.Context, code string) (*models.TokenPair, error) {
	token, err := f.config.Exchange(f.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchangeFailed, err)
	}

	f.logProfile(ctx, token.AccessToken)

	return &models.TokenPair{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}

func (f *Flow) clientContext(ctx context.Context) context.Context {
	if f.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

// logProfile fetches and logs the user's profile without blocking or failing the exchange.
func (f *Flow) logProfile(ctx context.Context, accessToken string) {
	if f.catalogs == nil {
		return
	}

	f.diagnostics.Add(1)
	go func() {
		defer f.diagnostics.Done()
		defer func() {
			if r := recover(); r != nil {
				f.logger.Warn("profile diagnostic panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), profileTimeout)
		defer cancel()

		user, err := f.catalogs(accessToken).CurrentUser(ctx)
		if err != nil {
			f.logger.Warn("profile diagnostic failed", "error", err)
			return
		}
		f.logger.Info("authorized user", "id", user.ID, "display_name", user.DisplayName, "country", user.Country, "product", user.Product)
	}()
}
