package ytapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"ytbridge/internal/remote"
	"ytbridge/internal/services"
)

// Scopes requested for every account.
var Scopes = []string{youtube.YoutubeForceSslScope, youtube.YoutubeUploadScope}

// LoadOAuthConfig reads the installed-application client secrets file.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "client secrets", path, err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "client secrets", "parse "+path, err)
	}
	return cfg, nil
}

// AuthCodeURL returns the consent URL an operator opens to authorize a login.
func AuthCodeURL(cfg *oauth2.Config, login string) string {
	return cfg.AuthCodeURL(login, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.SetAuthURLParam("login_hint", login))
}

// TokenStore keeps one OAuth token file per account login.
type TokenStore struct {
	dir string
}

// NewTokenStore stores tokens under dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

// Path returns the token file of login.
func (s *TokenStore) Path(login string) string {
	return filepath.Join(s.dir, tokenFileName(login))
}

func tokenFileName(login string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(login)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_', r == '@':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".json"
}

// Load reads the token of login. A missing file is reported as a remote
// error so the affected items land in the digest.
func (s *TokenStore) Load(login string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path(login))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &remote.Error{
				Reason:  ReasonNoCredentials,
				Message: fmt.Sprintf("no token for %s; run ytbridge auth %s", login, login),
			}
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", s.Path(login), err)
	}
	return &tok, nil
}

// Save writes the token of login atomically.
func (s *TokenStore) Save(login string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("nil token")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	path := s.Path(login)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

// Exchange trades an authorization code for a token and stores it.
func (s *TokenStore) Exchange(ctx context.Context, cfg *oauth2.Config, login, code string) error {
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return classify(err)
	}
	return s.Save(login, tok)
}

// TokenSource returns a source for login that writes refreshed tokens back.
func (s *TokenStore) TokenSource(ctx context.Context, cfg *oauth2.Config, login string) (oauth2.TokenSource, error) {
	tok, err := s.Load(login)
	if err != nil {
		return nil, err
	}
	return &persistingSource{
		base:   cfg.TokenSource(ctx, tok),
		store:  s,
		login:  login,
		access: tok.AccessToken,
	}, nil
}

type persistingSource struct {
	base  oauth2.TokenSource
	store *TokenStore
	login string

	mu     sync.Mutex
	access string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.access {
		if err := p.store.Save(p.login, tok); err != nil {
			return nil, err
		}
		p.access = tok.AccessToken
	}
	return tok, nil
}
