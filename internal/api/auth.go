package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sandipan-das-sd/lms/internal/apierr"
	"github.com/sandipan-das-sd/lms/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair. Both tokens must be present
// in the response or the call fails.
func (c *Client) Login(ctx context.Context, username, password string) (models.TokenPair, error) {
	data, err := c.postJSON(ctx, "/users/login", loginRequest{Username: username, Password: password})
	if err != nil {
		return models.TokenPair{}, err
	}
	return decodeTokenPair(data)
}

// Register creates an account. It never establishes a session; the caller
// logs in separately.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	_, err := c.postJSON(ctx, "/users/register", req)
	return err
}

// Logout notifies the server. Callers treat this as best effort.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.postJSON(ctx, "/users/logout", nil)
	return err
}

// RefreshToken rotates the credential pair. The refresh credential rides
// out of band as a cookie rather than in the request body.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	data, err := c.postJSON(ctx, "/users/refresh-token", nil, withRefreshCookie(refreshToken))
	if err != nil {
		return models.TokenPair{}, err
	}
	return decodeTokenPair(data)
}

// CurrentUser fetches the profile for the bearer token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	data, err := c.getJSON(ctx, "/users/current-user", withBearer(accessToken))
	if err != nil {
		return nil, err
	}
	var u models.UserProfile
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", apierr.ErrMalformedResponse, err)
	}
	return &u, nil
}

// UpdateAvatar uploads a replacement avatar as multipart form data and
// returns the refreshed profile.
func (c *Client) UpdateAvatar(ctx context.Context, accessToken, filename string, image io.Reader) (*models.UserProfile, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint("/users/avatar"), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var u models.UserProfile
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", apierr.ErrMalformedResponse, err)
	}
	return &u, nil
}

func decodeTokenPair(data json.RawMessage) (models.TokenPair, error) {
	var pair models.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %v", apierr.ErrMalformedResponse, err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return models.TokenPair{}, fmt.Errorf("%w: token pair incomplete", apierr.ErrMalformedResponse)
	}
	return pair, nil
}
