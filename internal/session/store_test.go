package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sandipan-das-sd/lms/internal/api"
	"github.com/sandipan-das-sd/lms/internal/apierr"
	"github.com/sandipan-das-sd/lms/internal/session"
	"github.com/sandipan-das-sd/lms/internal/storage"
)

type authServer struct {
	mu            sync.Mutex
	loginPair     [2]string
	refreshPair   [2]string
	failLogin     bool
	failLogout    bool
	failRefresh   bool
	refreshCalls  int
	refreshHold   chan struct{}
	lastAuthHdr   string
	profileUserID string
}

func (as *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/login", func(w http.ResponseWriter, r *http.Request) {
		as.mu.Lock()
		defer as.mu.Unlock()
		if as.failLogin {
			writeEnvelope(w, http.StatusUnauthorized, false, "Invalid username or password", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"accessToken":  as.loginPair[0],
			"refreshToken": as.loginPair[1],
		})
	})
	mux.HandleFunc("/users/logout", func(w http.ResponseWriter, r *http.Request) {
		as.mu.Lock()
		fail := as.failLogout
		as.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{})
	})
	mux.HandleFunc("/users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		as.mu.Lock()
		as.refreshCalls++
		hold := as.refreshHold
		fail := as.failRefresh
		pair := as.refreshPair
		as.mu.Unlock()
		if hold != nil {
			<-hold
		}
		if fail {
			writeEnvelope(w, http.StatusUnauthorized, false, "refresh token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"accessToken":  pair[0],
			"refreshToken": pair[1],
		})
	})
	mux.HandleFunc("/users/current-user", func(w http.ResponseWriter, r *http.Request) {
		hdr := r.Header.Get("Authorization")
		as.mu.Lock()
		as.lastAuthHdr = hdr
		userID := as.profileUserID
		as.mu.Unlock()
		if !strings.HasPrefix(hdr, "Bearer ") {
			writeEnvelope(w, http.StatusUnauthorized, false, "missing bearer", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"_id":      userID,
			"username": "ada",
			"email":    "ada@example.com",
			"role":     "user",
		})
	})
	return mux
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	env := map[string]any{"success": success}
	if msg != "" {
		env["message"] = msg
	}
	if data != nil {
		env["data"] = data
	}
	json.NewEncoder(w).Encode(env)
}

func newSession(t *testing.T, as *authServer) (*session.Store, storage.Store) {
	t.Helper()
	srv := httptest.NewServer(as.handler())
	t.Cleanup(srv.Close)
	c, err := api.New(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	kv := storage.NewMemoryStore()
	return session.New(context.Background(), c, kv, zap.NewNop().Sugar()), kv
}

func TestLoginPersistsTokenPair(t *testing.T) {
	as := &authServer{loginPair: [2]string{"access-1", "refresh-1"}}
	sess, kv := newSession(t, as)
	ctx := context.Background()

	if err := sess.Login(ctx, "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.Authenticated() {
		t.Fatal("session should be authenticated after login")
	}
	access, _, _ := kv.Get(ctx, storage.KeyAccessToken)
	refresh, _, _ := kv.Get(ctx, storage.KeyRefreshToken)
	if access != "access-1" || refresh != "refresh-1" {
		t.Fatalf("persisted pair mismatch: %q / %q", access, refresh)
	}
	if sess.AccessToken() != "access-1" {
		t.Fatalf("memory pair mismatch: %q", sess.AccessToken())
	}
}

func TestLoginFailureLeavesCredentialsUnchanged(t *testing.T) {
	as := &authServer{failLogin: true}
	sess, kv := newSession(t, as)
	ctx := context.Background()

	err := sess.Login(ctx, "ada", "wrong")
	if err == nil {
		t.Fatal("expected login error")
	}
	if got := apierr.UserMessage(err, "fallback"); got != "Invalid username or password" {
		t.Fatalf("server message should surface, got %q", got)
	}
	if sess.Authenticated() {
		t.Fatal("failed login must not authenticate")
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyAccessToken); ok {
		t.Fatal("nothing may be persisted on failed login")
	}
}

func TestLogoutClearsStateEvenWhenRemoteFails(t *testing.T) {
	as := &authServer{loginPair: [2]string{"access-1", "refresh-1"}, failLogout: true}
	sess, kv := newSession(t, as)
	ctx := context.Background()

	if err := sess.Login(ctx, "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := sess.Logout(ctx); err != nil {
		t.Fatalf("logout must not fail: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("logout must clear the session even when the remote call fails")
	}
	if sess.AccessToken() != "" || sess.User() != nil {
		t.Fatal("credentials and profile must be cleared")
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyAccessToken); ok {
		t.Fatal("persisted access token must be removed")
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyRefreshToken); ok {
		t.Fatal("persisted refresh token must be removed")
	}
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	as := &authServer{loginPair: [2]string{"access-1", "refresh-1"}, failRefresh: true}
	sess, kv := newSession(t, as)
	ctx := context.Background()

	if err := sess.Login(ctx, "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	err := sess.Refresh(ctx)
	if err == nil {
		t.Fatal("expected refresh error")
	}
	var se *apierr.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected server error, got %T", err)
	}
	if sess.Authenticated() {
		t.Fatal("refresh failure must force logout")
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyAccessToken); ok {
		t.Fatal("persisted tokens must be cleared after forced logout")
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	as := &authServer{
		loginPair:   [2]string{"access-1", "refresh-1"},
		refreshPair: [2]string{"access-2", "refresh-2"},
	}
	sess, kv := newSession(t, as)
	ctx := context.Background()

	if err := sess.Login(ctx, "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := sess.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sess.AccessToken() != "access-2" {
		t.Fatalf("access token not rotated: %q", sess.AccessToken())
	}
	refresh, _, _ := kv.Get(ctx, storage.KeyRefreshToken)
	if refresh != "refresh-2" {
		t.Fatalf("persisted refresh token not rotated: %q", refresh)
	}
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	hold := make(chan struct{})
	as := &authServer{
		loginPair:   [2]string{"access-1", "refresh-1"},
		refreshPair: [2]string{"access-2", "refresh-2"},
		refreshHold: hold,
	}
	sess, _ := newSession(t, as)
	ctx := context.Background()

	if err := sess.Login(ctx, "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = sess.Refresh(ctx)
		}(i)
	}
	// Give the goroutines time to pile onto the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(hold)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	as.mu.Lock()
	calls := as.refreshCalls
	as.mu.Unlock()
	if calls != 1 {
		t.Fatalf("concurrent refreshes must collapse to one upstream call, got %d", calls)
	}
}

func TestCurrentUserWithoutCredential(t *testing.T) {
	sess, _ := newSession(t, &authServer{})
	u, err := sess.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("no credential must not be an error: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil profile, got %+v", u)
	}
}

func TestCurrentUserFetchesAndCachesProfile(t *testing.T) {
	as := &authServer{loginPair: [2]string{"access-1", "refresh-1"}, profileUserID: "u1"}
	sess, _ := newSession(t, as)
	ctx := context.Background()

	if err := sess.Login(ctx, "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	u, err := sess.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if u == nil || u.Username != "ada" {
		t.Fatalf("unexpected profile: %+v", u)
	}
	as.mu.Lock()
	hdr := as.lastAuthHdr
	as.mu.Unlock()
	if hdr != "Bearer access-1" {
		t.Fatalf("bearer header mismatch: %q", hdr)
	}
	if sess.User() == nil {
		t.Fatal("profile must be cached in memory")
	}
}

func TestUpdateAvatarRequiresCredential(t *testing.T) {
	sess, _ := newSession(t, &authServer{})
	_, err := sess.UpdateAvatar(context.Background(), "a.png", strings.NewReader("not-an-image"))
	if !errors.Is(err, apierr.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestSessionRestoresFromStorage(t *testing.T) {
	srv := httptest.NewServer((&authServer{}).handler())
	t.Cleanup(srv.Close)
	c, err := api.New(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	_ = kv.Set(ctx, storage.KeyAccessToken, "stored-access")
	_ = kv.Set(ctx, storage.KeyRefreshToken, "stored-refresh")

	sess := session.New(ctx, c, kv, zap.NewNop().Sugar())
	if sess.State() != session.StateAuthenticated {
		t.Fatalf("expected authenticated from stored token, got %v", sess.State())
	}
	if sess.User() != nil {
		t.Fatal("profile is never persisted and must start nil")
	}

	empty := session.New(ctx, c, storage.NewMemoryStore(), zap.NewNop().Sugar())
	if empty.State() != session.StateUnauthenticated {
		t.Fatalf("expected unauthenticated with empty storage, got %v", empty.State())
	}
}
