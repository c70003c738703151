// Package session owns the authentication token pair and the current user
// profile, mirroring both tokens into persistent storage.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sandipan-das-sd/lms/internal/api"
	"github.com/sandipan-das-sd/lms/internal/apierr"
	"github.com/sandipan-das-sd/lms/internal/models"
	"github.com/sandipan-das-sd/lms/internal/storage"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type Store struct {
	api *api.Client
	kv  storage.Store
	log *zap.SugaredLogger

	mu      sync.RWMutex
	state   State
	access  string
	refresh string
	user    *models.UserProfile

	// Concurrent refresh calls collapse into a single upstream rotation.
	refreshGroup singleflight.Group
}

// New builds the store and resolves the initial state from persisted tokens.
// The profile is never persisted, so it starts nil and is fetched lazily.
func New(ctx context.Context, client *api.Client, kv storage.Store, log *zap.SugaredLogger) *Store {
	s := &Store{api: client, kv: kv, log: log, state: StateLoading}

	access, ok, err := kv.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		log.Errorw("loading access token", "err", err)
	}
	refresh, _, err := kv.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		log.Errorw("loading refresh token", "err", err)
	}

	s.mu.Lock()
	if ok && access != "" {
		s.access = access
		s.refresh = refresh
		s.state = StateAuthenticated
	} else {
		s.state = StateUnauthenticated
	}
	s.mu.Unlock()
	return s
}

// Login exchanges credentials for a token pair and persists it. On any
// failure the stored credentials are left untouched.
func (s *Store) Login(ctx context.Context, username, password string) error {
	pair, err := s.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.persistPair(ctx, pair); err != nil {
		return err
	}
	s.mu.Lock()
	s.access = pair.AccessToken
	s.refresh = pair.RefreshToken
	s.state = StateAuthenticated
	s.mu.Unlock()
	return nil
}

// Register creates an account. It does not log the user in.
func (s *Store) Register(ctx context.Context, username, email, password, role string) error {
	return s.api.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	})
}

// Logout notifies the server best-effort, then unconditionally clears local
// credentials and profile. A failed remote logout must never leave the
// device looking authenticated.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warnw("remote logout failed", "err", err)
	}
	if err := s.kv.Delete(ctx, storage.KeyAccessToken); err != nil {
		s.log.Errorw("clearing access token", "err", err)
	}
	if err := s.kv.Delete(ctx, storage.KeyRefreshToken); err != nil {
		s.log.Errorw("clearing refresh token", "err", err)
	}
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.user = nil
	s.state = StateUnauthenticated
	s.mu.Unlock()
	return nil
}

// Refresh rotates the token pair. Any refresh failure is fatal to the
// session: the store logs out and returns the error.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (interface{}, error) {
		s.mu.RLock()
		refresh := s.refresh
		s.mu.RUnlock()

		pair, err := s.api.RefreshToken(ctx, refresh)
		if err != nil {
			s.Logout(ctx)
			return nil, err
		}
		if err := s.persistPair(ctx, pair); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.access = pair.AccessToken
		s.refresh = pair.RefreshToken
		s.state = StateAuthenticated
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// CurrentUser fetches and caches the profile. Without a stored access
// credential it returns nil with no error.
func (s *Store) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	s.mu.RLock()
	access := s.access
	s.mu.RUnlock()
	if access == "" {
		return nil, nil
	}
	u, err := s.api.CurrentUser(ctx, access)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return u, nil
}

// UpdateAvatar uploads a replacement avatar and swaps in the returned
// profile. It requires a stored access credential.
func (s *Store) UpdateAvatar(ctx context.Context, filename string, image io.Reader) (*models.UserProfile, error) {
	s.mu.RLock()
	access := s.access
	s.mu.RUnlock()
	if access == "" {
		return nil, apierr.ErrNoCredential
	}
	u, err := s.api.UpdateAvatar(ctx, access, filename, image)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return u, nil
}

func (s *Store) persistPair(ctx context.Context, pair models.TokenPair) error {
	if err := s.kv.Set(ctx, storage.KeyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyRefreshToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// State reports the session lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated is the derived boolean the navigation layer reads.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.access != ""
}

// User returns the cached profile, which may be nil even when authenticated.
func (s *Store) User() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// AccessToken returns the current access credential, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}
