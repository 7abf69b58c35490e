// Package authstore holds the authenticated user and bearer token for one
// device and persists them through the local storage port.
package authstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cityassist/cityassist/go-web/internal/localstore"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/metrics"
)

// Authenticator performs the credential exchange. *apiclient.AuthAPI satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
}

// State is the persisted session. Token is nil when logged out.
type State struct {
	User            *models.User `json:"user"`
	Token           *string      `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// persisted is the on-disk envelope: {"state": {...}, "version": 0}.
type persisted struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Store is the session store for one device. isAuthenticated is always
// derived from user and token, so the two setters can never leave it
// claiming a session that lacks either half.
type Store struct {
	mu      sync.RWMutex
	storage localstore.Storage
	auth    Authenticator
	user    *models.User
	token   string
}

func New(storage localstore.Storage, auth Authenticator) *Store {
	return &Store{storage: storage, auth: auth}
}

// Rehydrate loads the persisted session. A missing or unparseable entry
// leaves the store logged out; only storage read failures are returned.
func (s *Store) Rehydrate(ctx context.Context) error {
	raw, err := s.storage.GetItem(ctx, localstore.AuthKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", localstore.AuthKey, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user, s.token = nil, ""
	if raw == nil {
		return nil
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.Debugf("authstore: ignoring unparseable %s: %v", localstore.AuthKey, err)
		return nil
	}
	s.user = p.State.User
	if p.State.Token != nil {
		s.token = *p.State.Token
	}
	return nil
}

// Login exchanges credentials. On success user and token are replaced
// together and persisted; on failure the store is unchanged and the error
// from the authenticator is returned for the caller to present.
func (s *Store) Login(ctx context.Context, email, password string) error {
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		metrics.SessionEvents.WithLabelValues("login_failed").Inc()
		return fmt.Errorf("login: %w", err)
	}
	if res == nil || res.User == nil || res.Token == "" {
		metrics.SessionEvents.WithLabelValues("login_failed").Inc()
		return fmt.Errorf("login: %w", ErrIncompleteResponse)
	}

	s.mu.Lock()
	s.user, s.token = res.User, res.Token
	st := s.stateLocked()
	s.mu.Unlock()

	metrics.SessionEvents.WithLabelValues("login").Inc()
	return s.persist(ctx, st)
}

// Logout clears user, token and the authenticated flag.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user, s.token = nil, ""
	st := s.stateLocked()
	s.mu.Unlock()

	metrics.SessionEvents.WithLabelValues("logout").Inc()
	return s.persist(ctx, st)
}

// SetSession replaces user and token together with a single write, so a
// failed write never leaves one without the other in storage.
func (s *Store) SetSession(ctx context.Context, u *models.User, token string) error {
	s.mu.Lock()
	s.user, s.token = u, token
	st := s.stateLocked()
	s.mu.Unlock()
	return s.persist(ctx, st)
}

// SetUser replaces the user unconditionally.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	s.user = u
	st := s.stateLocked()
	s.mu.Unlock()
	return s.persist(ctx, st)
}

// SetToken replaces the token unconditionally.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	st := s.stateLocked()
	s.mu.Unlock()
	return s.persist(ctx, st)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Store) stateLocked() State {
	st := State{User: s.user, IsAuthenticated: s.user != nil && s.token != ""}
	if s.token != "" {
		t := s.token
		st.Token = &t
	}
	return st
}

func (s *Store) persist(ctx context.Context, st State) error {
	b, err := json.Marshal(persisted{State: st})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.storage.SetItem(ctx, localstore.AuthKey, b); err != nil {
		return fmt.Errorf("write %s: %w", localstore.AuthKey, err)
	}
	return nil
}
