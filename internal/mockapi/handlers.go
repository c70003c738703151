package mockapi

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sandipan-das-sd/lms/internal/models"
)

func jsonSuccess(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
}

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var body registerBody
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		return jsonError(c, fiber.StatusBadRequest, "username, email and password are required")
	}
	profile, err := s.accounts.Register(body.Username, body.Email, body.Password, body.Role)
	if err != nil {
		return jsonError(c, fiber.StatusConflict, err.Error())
	}
	return jsonSuccess(c, fiber.StatusCreated, fiber.Map{"user": profile})
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	profile, err := s.accounts.Authenticate(body.Username, body.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	pair, err := s.issueTokens(profile)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "token issue failed")
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         profile,
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	// Best-effort by design: the endpoint is unauthenticated and always
	// acknowledges so a client can clear local state regardless.
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{})
}

func (s *Server) handleRefreshToken(c *fiber.Ctx) error {
	token := c.Cookies("refreshToken")
	if token == "" {
		return jsonError(c, fiber.StatusUnauthorized, "missing refresh token")
	}
	userID, err := s.tokens.Verify(token, "refresh")
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "invalid refresh token")
	}
	if !s.accounts.RefreshTokenMatches(userID, token) {
		return jsonError(c, fiber.StatusUnauthorized, "refresh token revoked")
	}
	profile, err := s.accounts.Get(userID)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "unknown user")
	}
	pair, err := s.issueTokens(profile)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "token issue failed")
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (s *Server) issueTokens(profile *models.UserProfile) (models.TokenPair, error) {
	access, err := s.tokens.MintAccess(profile.ID, profile.Username, profile.Role)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.tokens.MintRefresh(profile.ID, profile.Username, profile.Role)
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := s.accounts.SetRefreshToken(profile.ID, refresh); err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) bearerUser(c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	if auth == "" {
		return "", fmt.Errorf("missing authorization")
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	return s.tokens.Verify(token, "access")
}

func (s *Server) handleCurrentUser(c *fiber.Ctx) error {
	userID, err := s.bearerUser(c)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "invalid token")
	}
	profile, err := s.accounts.Get(userID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user not found")
	}
	return jsonSuccess(c, fiber.StatusOK, profile)
}

// PATCH /users/avatar (multipart/form-data 'avatar')
func (s *Server) handleUpdateAvatar(c *fiber.Ctx) error {
	userID, err := s.bearerUser(c)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "invalid token")
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "avatar file missing")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "cannot open upload")
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "upload is not a decodable image")
	}

	id := uuid.NewString()
	localPath := filepath.Join(s.uploadDir, id+".jpg")
	if err := writeAvatar(localPath, img); err != nil {
		s.log.Errorw("writing avatar", "err", err)
		return jsonError(c, fiber.StatusInternalServerError, "storing avatar failed")
	}

	avatar := models.Avatar{
		ID:        id,
		LocalPath: localPath,
		URL:       fmt.Sprintf("%s/static/avatars/%s.jpg", s.publicBase, id),
	}
	profile, err := s.accounts.SetAvatar(userID, avatar)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user not found")
	}
	return jsonSuccess(c, fiber.StatusOK, profile)
}

// writeAvatar stores a 320px-wide Lanczos resize; originals are not kept.
func writeAvatar(path string, img image.Image) error {
	resized := imaging.Resize(img, 320, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (s *Server) handleRandomUsers(c *fiber.Ctx) error {
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{
		"data": s.instructors,
		"page": 1,
	})
}

func (s *Server) handleRandomProducts(c *fiber.Ctx) error {
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{
		"data": s.products,
		"page": 1,
	})
}
