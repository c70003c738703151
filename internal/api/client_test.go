package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sandipan-das-sd/lms/internal/api"
	"github.com/sandipan-das-sd/lms/internal/apierr"
)

func newClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := api.New(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestEnvelopeFailureBecomesServerError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid credentials"})
	}))

	_, err := c.Login(context.Background(), "ada", "wrong")
	var se *apierr.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.StatusCode != http.StatusUnauthorized || se.Message != "Invalid credentials" {
		t.Fatalf("unexpected server error: %+v", se)
	}
	if got := apierr.UserMessage(err, "fallback"); got != "Invalid credentials" {
		t.Fatalf("user message: %q", got)
	}
}

func TestSuccessFalseWithOKStatusStillFails(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "nope"})
	}))
	// The client checks the envelope, not just the HTTP status.
	if err := c.Register(context.Background(), api.RegisterRequest{Username: "a", Email: "e", Password: "p"}); err == nil {
		t.Fatal("success=false must fail even on HTTP 200")
	}
}

func TestMalformedEnvelope(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	_, err := c.RandomUsers(context.Background())
	if !errors.Is(err, apierr.ErrMalformedResponse) {
		t.Fatalf("expected malformed-response error, got %v", err)
	}
}

func TestLoginRejectsIncompletePair(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"accessToken": "only-access"},
		})
	}))
	_, err := c.Login(context.Background(), "ada", "pw")
	if !errors.Is(err, apierr.ErrMalformedResponse) {
		t.Fatalf("a response missing either token must fail, got %v", err)
	}
}

func TestPublicListUnwrapsNestedData(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"data": []map[string]any{
					{"_id": "p1", "name": "Go Basics", "price": 10.5},
				},
				"page":  1,
				"limit": 20,
			},
		})
	}))
	products, err := c.RandomProducts(context.Background())
	if err != nil {
		t.Fatalf("random products: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" || products[0].Price != 10.5 {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestRefreshSendsCookie(t *testing.T) {
	var gotCookie string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("refreshToken"); err == nil {
			gotCookie = ck.Value
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"accessToken": "a2", "refreshToken": "r2"},
		})
	}))
	pair, err := c.RefreshToken(context.Background(), "r1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if gotCookie != "r1" {
		t.Fatalf("refresh credential must ride as a cookie, got %q", gotCookie)
	}
	if pair.AccessToken != "a2" || pair.RefreshToken != "r2" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func TestUpdateAvatarSendsMultipart(t *testing.T) {
	var contentType, auth string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		auth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"_id":      "u1",
				"username": "ada",
				"avatar":   map[string]any{"url": "http://img/new.jpg"},
			},
		})
	}))
	u, err := c.UpdateAvatar(context.Background(), "token-1", "pic.png", strings.NewReader("fake-image-bytes"))
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("expected multipart upload, got %q", contentType)
	}
	if auth != "Bearer token-1" {
		t.Fatalf("bearer header: %q", auth)
	}
	if u.Avatar.URL != "http://img/new.jpg" {
		t.Fatalf("profile not replaced: %+v", u)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c, err := api.New(api.Config{
		BaseURL:            srv.URL,
		Timeout:            5 * time.Second,
		BreakerMaxFailures: 2,
		BreakerTimeout:     time.Minute,
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.RandomUsers(ctx); err == nil {
			t.Fatal("expected upstream failure")
		}
	}
	// Breaker is now open: the next call fails without reaching the server.
	srv.Close()
	if _, err := c.RandomUsers(ctx); err == nil {
		t.Fatal("expected open-breaker failure")
	}
}
