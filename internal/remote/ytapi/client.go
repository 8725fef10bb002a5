package ytapi

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/remote"
	"ytbridge/internal/services"
)

const (
	pageSize       = 50
	defaultRetries = 4
)

// ServiceFactory builds an authenticated service for one account login.
type ServiceFactory func(ctx context.Context, login string) (*youtube.Service, error)

// Option customizes a Client.
type Option func(*Client)

// WithBackOff replaces the retry policy used for read calls.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// WithMaxRetries caps the number of retries of a read call.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = uint64(n)
		}
	}
}

// Client implements remote.Publisher over the YouTube Data API v3. Services
// are created lazily per account and cached for the life of the client.
type Client struct {
	factory    ServiceFactory
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
	maxRetries uint64

	mu       sync.Mutex
	services map[string]*youtube.Service
}

var _ remote.Publisher = (*Client)(nil)

// New builds a client that authenticates every account with the OAuth client
// secrets and per-login tokens configured under [paths]. The secrets file is
// read when the first account is used.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("ytapi: config required")
	}
	secrets := cfg.Paths.ClientSecrets
	tokens := NewTokenStore(cfg.Paths.CredentialsDir)
	timeout := cfg.RemoteTimeout()
	var oauthCfg *oauth2.Config
	// Called with Client.mu held.
	factory := func(ctx context.Context, login string) (*youtube.Service, error) {
		if oauthCfg == nil {
			loaded, err := LoadOAuthConfig(secrets)
			if err != nil {
				return nil, err
			}
			oauthCfg = loaded
		}
		source, err := tokens.TokenSource(context.WithoutCancel(ctx), oauthCfg, login)
		if err != nil {
			return nil, err
		}
		httpClient := oauth2.NewClient(context.WithoutCancel(ctx), source)
		httpClient.Timeout = timeout
		return youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	}
	return NewWithFactory(factory, logger, opts...), nil
}

// NewWithFactory builds a client on top of a custom service factory.
func NewWithFactory(factory ServiceFactory, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		factory:    factory,
		logger:     logging.NewComponentLogger(logger, "ytapi"),
		newBackOff: defaultBackOff,
		maxRetries: defaultRetries,
		services:   map[string]*youtube.Service{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.RandomizationFactor = 0.2
	return b
}

func (c *Client) service(ctx context.Context, login string) (*youtube.Service, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, &remote.Error{Reason: ReasonNoCredentials, Message: "no account login"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.services[login]; ok {
		return svc, nil
	}
	svc, err := c.factory(ctx, login)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return nil, err
		}
		return nil, classify(err)
	}
	c.services[login] = svc
	return svc, nil
}

// write performs a call that is not safe to repeat.
func (c *Client) write(ctx context.Context, login, call string, fn func(*youtube.Service) error) error {
	svc, err := c.service(ctx, login)
	if err != nil {
		return err
	}
	c.logger.Debug("youtube call", logging.String("call", call), logging.String(logging.FieldAccount, login))
	return classify(fn(svc))
}

// read performs an idempotent call, retrying transport failures, rate limits
// and server errors with backoff.
func (c *Client) read(ctx context.Context, login, call string, fn func(*youtube.Service) error) error {
	svc, err := c.service(ctx, login)
	if err != nil {
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		c.logger.Debug("youtube call",
			logging.String("call", call),
			logging.String(logging.FieldAccount, login),
			logging.Int("attempt", attempt),
		)
		err := classify(fn(svc))
		if err == nil {
			return nil
		}
		if !remote.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("youtube call failed, retrying",
			logging.String("call", call),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		return err
	}, policy)
	return classify(err)
}
