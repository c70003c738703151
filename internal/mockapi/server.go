// Package mockapi is a development stand-in for the remote marketplace API.
// It serves every endpoint the client SDK talks to, wrapped in the same
// {success, data, message} envelope the real backend uses.
package mockapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sandipan-das-sd/lms/internal/models"
)

type Config struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RateLimitPerMin int
	UploadDir       string
	PublicBase      string
	JWTSecret       string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
}

type Server struct {
	accounts    *Accounts
	tokens      *TokenMinter
	instructors []models.Instructor
	products    []models.Product
	uploadDir   string
	publicBase  string
	log         *zap.SugaredLogger
}

// New wires the handlers into a fiber app ready to listen.
func New(cfg Config, log *zap.SugaredLogger) (*fiber.App, *Server) {
	s := &Server{
		accounts:    NewAccounts(),
		tokens:      NewTokenMinter(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		instructors: seedInstructors(),
		products:    seedProducts(),
		uploadDir:   cfg.UploadDir,
		publicBase:  cfg.PublicBase,
		log:         log,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
	})

	if cfg.RateLimitPerMin > 0 {
		app.Use(newIPRateLimiter(cfg.RateLimitPerMin, log).Handler())
	}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static("/static/avatars", cfg.UploadDir)

	v1 := app.Group("/api/v1")
	v1.Post("/users/register", s.handleRegister)
	v1.Post("/users/login", s.handleLogin)
	v1.Post("/users/logout", s.handleLogout)
	v1.Post("/users/refresh-token", s.handleRefreshToken)
	v1.Get("/users/current-user", s.handleCurrentUser)
	v1.Patch("/users/avatar", s.handleUpdateAvatar)
	v1.Get("/public/randomusers", s.handleRandomUsers)
	v1.Get("/public/randomproducts", s.handleRandomProducts)

	return app, s
}
