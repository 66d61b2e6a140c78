// Package session owns the access token and the signed-in identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/busdesk/internal/metrics"
	"github.com/naveenspark/busdesk/internal/store"
	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

// State is the position in the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	}
	return "unknown"
}

// MsgBadCredentials is shown when the backend rejects a login.
const MsgBadCredentials = "Check your login and password."

var (
	errNoToken    = errors.New("response carried no token")
	errSuperseded = errors.New("session changed while the request was in flight")
)

// API is the part of the backend the session talks to. *client.Client
// implements it.
type API interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResponse, error)
	Register(ctx context.Context, email, name, password string) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*domain.AuthResponse, error)
	CheckUser(ctx context.Context, email string) (bool, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "session").Logger() }
}

// WithMetrics records login and refresh outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock replaces time.Now, used to judge token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the session state machine. It implements client.TokenSource and
// client.Refresher.
type Store struct {
	api     API
	storage TokenStorage
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	group  singleflight.Group
	track  store.Tracker
	notify store.Notifier

	mu       sync.RWMutex
	state    State
	token    string
	identity *domain.User
	userInDB bool
	// gen counts sign-ins and sign-outs. A request started under an older
	// generation must not touch the session when it completes.
	gen uint64
}

var (
	_ client.TokenSource = (*Store)(nil)
	_ client.Refresher   = (*Store)(nil)
)

// New creates an anonymous session.
func New(api API, storage TokenStorage, opts ...Option) *Store {
	s := &Store{
		api:     api,
		storage: storage,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.track.Describe = describe
	s.track.OnChange = s.notify.Notify
	return s
}

// Restore loads the persisted token. An expired JWT is discarded. The
// identity stays empty until the backend confirms the token.
func (s *Store) Restore() error {
	tok, err := s.storage.Get()
	if err != nil {
		return fmt.Errorf("session.Restore: %w", err)
	}
	if tok == "" {
		return nil
	}
	if exp, ok := tokenExpiry(tok); ok && !exp.After(s.now()) {
		s.log.Info().Time("expired_at", exp).Msg("stored token expired")
		if err := s.storage.Clear(); err != nil {
			return fmt.Errorf("session.Restore: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	s.notify.Notify()
	return nil
}

// Login signs in with email and password. On failure the session is left
// anonymous and LastError holds a message for the user.
func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.authenticate("login", func() (*domain.AuthResponse, error) {
		return s.api.Login(ctx, email, password)
	})
}

// Register creates an account and signs in with it.
func (s *Store) Register(ctx context.Context, email, name, password string) error {
	return s.authenticate("register", func() (*domain.AuthResponse, error) {
		return s.api.Register(ctx, email, name, password)
	})
}

func (s *Store) authenticate(op string, call func() (*domain.AuthResponse, error)) error {
	gen := s.begin(Authenticating)
	err := s.track.Run(func() error {
		resp, err := call()
		if err == nil && resp.Token == "" {
			err = errNoToken
		}
		s.metrics.ObserveLogin(err)
		if err != nil {
			return err
		}
		if !s.establish(gen, resp) {
			return errSuperseded
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("authentication failed")
		s.clearIf(gen)
		return fmt.Errorf("session.%s: %w", op, err)
	}
	s.log.Info().Str("op", op).Msg("signed in")
	return nil
}

// Logout ends the session. The local token and identity are cleared even when
// the backend call fails; that failure is returned for reporting only.
func (s *Store) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("server logout failed")
	}
	s.clear()
	if err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// Refresh trades the session cookie for a new token. Concurrent callers share
// one backend call and its outcome. A failed refresh signs the session out.
func (s *Store) Refresh(ctx context.Context) error {
	ch := s.group.DoChan("refresh", func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context) error {
	gen := s.mark(Refreshing)
	resp, err := s.api.Refresh(ctx)
	if err == nil && resp.Token == "" {
		err = errNoToken
	}
	s.metrics.ObserveRefresh(err)
	if err != nil {
		if s.clearIf(gen) {
			s.log.Info().Err(err).Msg("refresh failed, signing out")
		}
		return fmt.Errorf("session.Refresh: %w", err)
	}
	if !s.establish(gen, resp) {
		s.log.Debug().Msg("refresh outlived its session, dropped")
		return fmt.Errorf("session.Refresh: %w", errSuperseded)
	}
	s.log.Debug().Msg("token refreshed")
	return nil
}

// CheckUserExists asks the backend whether email has an account. A blank
// email is answered locally with false.
func (s *Store) CheckUserExists(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		s.setUserInDB(false)
		return false, nil
	}
	var exists bool
	err := s.track.Run(func() error {
		var err error
		exists, err = s.api.CheckUser(ctx, email)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("session.CheckUserExists: %w", err)
	}
	s.setUserInDB(exists)
	return exists, nil
}

// Token returns the current access token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the signed-in user, or nil.
func (s *Store) Identity() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	u := *s.identity
	return &u
}

// IsAuth reports whether a user is signed in.
func (s *Store) IsAuth() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.identity.Email != ""
}

// UserInDB returns the result of the last CheckUserExists.
func (s *Store) UserInDB() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userInDB
}

// ExpiresAt returns the expiry of the current token when it is a JWT with an
// exp claim.
func (s *Store) ExpiresAt() (time.Time, bool) {
	return tokenExpiry(s.Token())
}

// Loading reports whether login, register or a user check is in flight.
func (s *Store) Loading() bool { return s.track.Loading() }

// LastError returns the message of the last failed login, register or check.
func (s *Store) LastError() string { return s.track.LastError() }

// Subscribe returns a channel signalled on every session change.
func (s *Store) Subscribe() (<-chan struct{}, func()) { return s.notify.Subscribe() }

// begin starts a new generation in state st and returns it.
func (s *Store) begin(st State) uint64 {
	s.mu.Lock()
	s.gen++
	s.state = st
	gen := s.gen
	s.mu.Unlock()
	s.notify.Notify()
	return gen
}

// mark moves to state st within the current generation and returns it.
func (s *Store) mark(st State) uint64 {
	s.mu.Lock()
	s.state = st
	gen := s.gen
	s.mu.Unlock()
	s.notify.Notify()
	return gen
}

// establish installs the session from resp unless the generation moved on
// since gen was read.
func (s *Store) establish(gen uint64, resp *domain.AuthResponse) bool {
	user := resp.User
	user.Password = ""

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	if err := s.storage.Set(resp.Token); err != nil {
		s.log.Warn().Err(err).Msg("persist token")
	}
	s.token = resp.Token
	s.identity = &user
	s.state = Authenticated
	s.mu.Unlock()
	s.notify.Notify()
	return true
}

// clear signs out and starts a new generation.
func (s *Store) clear() {
	s.mu.Lock()
	s.gen++
	s.clearLocked()
	s.mu.Unlock()
	s.notify.Notify()
}

// clearIf signs out only while the generation is still gen.
func (s *Store) clearIf(gen uint64) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.gen++
	s.clearLocked()
	s.mu.Unlock()
	s.notify.Notify()
	return true
}

func (s *Store) clearLocked() {
	if err := s.storage.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("clear stored token")
	}
	s.token = ""
	s.identity = nil
	s.state = Anonymous
}

func (s *Store) setUserInDB(v bool) {
	s.mu.Lock()
	s.userInDB = v
	s.mu.Unlock()
	s.notify.Notify()
}

func describe(err error) string {
	switch {
	case client.IsStatus(err, http.StatusForbidden), client.IsStatus(err, http.StatusUnauthorized):
		return MsgBadCredentials
	case errors.Is(err, errNoToken):
		return "The server did not return a session."
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	return err.Error()
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(tok string) (time.Time, bool) {
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
