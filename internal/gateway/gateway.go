package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Query parameters used by the provider redirect.
const (
	ParamCode             = "code"
	ParamState            = "state"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorURI         = "error_uri"
)

// DefaultScopes are requested when Config.Scopes is empty.
var DefaultScopes = []string{"repo", "read:user", "user:email"}

// Config configures the authorization redirect.
type Config struct {
	// ClientID is the OAuth application's public client identifier.
	ClientID string

	// RedirectURL is where the provider sends the user back with ?code=.
	RedirectURL string

	// Scopes requested from the provider (default: DefaultScopes).
	Scopes []string

	// AuthURL overrides the provider authorization endpoint
	// (default: GitHub's endpoint).
	AuthURL string
}

// Validate checks that the configuration can produce an authorization URL.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("OAuth client ID is required")
	}
	if c.RedirectURL != "" {
		if err := validateAbsoluteURL("redirect URL", c.RedirectURL); err != nil {
			return err
		}
	}
	if c.AuthURL != "" {
		if err := validateAbsoluteURL("authorization URL", c.AuthURL); err != nil {
			return err
		}
	}
	return nil
}

func validateAbsoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: host is required", name, raw)
	}
	return nil
}

// Gateway builds authorization URLs and parses provider callbacks.
type Gateway struct {
	oauth *oauth2.Config
}

// New validates cfg and returns a Gateway.
func New(cfg Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &Gateway{
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      append([]string(nil), scopes...),
			Endpoint:    endpoint,
		},
	}, nil
}

// AuthorizationURL returns the provider authorization URL. It is
// deterministic: no state nonce is added.
func (g *Gateway) AuthorizationURL() string {
	return g.oauth.AuthCodeURL("")
}

// ExtractCallbackCode returns the authorization code carried by u, if any.
// An empty code parameter counts as absent.
func ExtractCallbackCode(u *url.URL) (string, bool) {
	if u == nil {
		return "", false
	}
	code := u.Query().Get(ParamCode)
	if code == "" {
		return "", false
	}
	return code, true
}

// CallbackError is the error a provider returns instead of a code,
// typically when the user denies access.
type CallbackError struct {
	Code        string
	Description string
	URI         string
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// ExtractCallbackError returns the provider error carried by u, or nil.
func ExtractCallbackError(u *url.URL) *CallbackError {
	if u == nil {
		return nil
	}
	q := u.Query()
	code := q.Get(ParamError)
	if code == "" {
		return nil
	}
	return &CallbackError{
		Code:        code,
		Description: q.Get(ParamErrorDescription),
		URI:         q.Get(ParamErrorURI),
	}
}

// StripCallback returns a copy of u without the callback parameters
// (code, state and provider error fields). Other parameters are kept.
func StripCallback(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clean := *u
	if u.User != nil {
		user := *u.User
		clean.User = &user
	}
	q := u.Query()
	for _, p := range []string{ParamCode, ParamState, ParamError, ParamErrorDescription, ParamErrorURI} {
		q.Del(p)
	}
	clean.RawQuery = q.Encode()
	clean.ForceQuery = false
	return &clean
}
