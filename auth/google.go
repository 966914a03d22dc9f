package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUserInfoURL returns the signed-in user's profile.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// stateTTL bounds how long a login URL stays usable.
const stateTTL = 10 * time.Minute

// ErrInvalidState is returned when a callback presents an unknown or reused state.
var ErrInvalidState = errors.New("invalid oauth state")

// LoginError reports a failure of the provider during the callback.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string { return e.Err.Error() }

func (e *LoginError) Unwrap() error { return e.Err }

// User is the profile returned after a successful login.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// LoginResult is the callback response body.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// GoogleLoginOptions configures a GoogleLogin.
type GoogleLoginOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint defaults to endpoints.Google.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	// HTTPClient is used for the token exchange and userinfo fetch.
	HTTPClient *http.Client
}

// GoogleLogin runs the authorization code flow and issues router tokens.
type GoogleLogin struct {
	oauth    *oauth2.Config
	issuer   *TokenIssuer
	opts     GoogleLoginOptions
	mu       sync.Mutex
	states   map[string]time.Time
	newState func() string
}

// NewGoogleLogin creates a login flow that issues tokens with issuer.
func NewGoogleLogin(issuer *TokenIssuer, optFns ...func(o *GoogleLoginOptions)) *GoogleLogin {
	opts := GoogleLoginOptions{
		Endpoint:    endpoints.Google,
		UserInfoURL: GoogleUserInfoURL,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &GoogleLogin{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     opts.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		issuer:   issuer,
		opts:     opts,
		states:   make(map[string]time.Time),
		newState: uuid.NewString,
	}
}

// AuthURL returns a consent page URL bound to a fresh one-shot state.
func (g *GoogleLogin) AuthURL() string {
	state := g.newState()

	g.mu.Lock()
	now := time.Now()
	for s, exp := range g.states {
		if now.After(exp) {
			delete(g.states, s)
		}
	}
	g.states[state] = now.Add(stateTTL)
	g.mu.Unlock()

	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleLogin) consumeState(state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.states[state]
	delete(g.states, state)
	return ok && time.Now().Before(exp)
}

// Callback exchanges code for a provider token, fetches the user's profile and
// returns a signed router token with the email as subject.
func (g *GoogleLogin) Callback(ctx context.Context, code, state string) (*LoginResult, error) {
	if !g.consumeState(state) {
		return nil, ErrInvalidState
	}

	if g.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.opts.HTTPClient)
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorDescription != "" {
			return nil, &LoginError{Err: errors.New(rErr.ErrorDescription)}
		}
		return nil, &LoginError{Err: fmt.Errorf("token exchange: %w", err)}
	}

	user, err := g.fetchUser(ctx, tok)
	if err != nil {
		return nil, &LoginError{Err: err}
	}

	access, err := g.issuer.Issue(user.Email, user.Email, user.Name, 0)
	if err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: access, TokenType: "bearer", User: *user}, nil
}

func (g *GoogleLogin) fetchUser(ctx context.Context, tok *oauth2.Token) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if user.Email == "" {
		return nil, errors.New("userinfo has no email")
	}

	return &user, nil
}
