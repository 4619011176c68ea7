package server

import (
	"context"
	"net/http"
	"time"

	"github.com/existflow/projectdraft/internal/config"
	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// maxBodySize bounds request bodies under /api/v1; larger ones get 413
const maxBodySize = "1M"

// Server is the draft API server
type Server struct {
	svc  *draft.Service
	cfg  config.ServerConfig
	echo *echo.Echo
}

// New creates a server backed by svc
func New(svc *draft.Service, cfg config.ServerConfig) *Server {
	s := &Server{svc: svc, cfg: cfg}
	s.setupEcho()
	return s
}

// requestValidator plugs go-playground/validator into echo's c.Validate
type requestValidator struct {
	v *validator.Validate
}

func (r *requestValidator) Validate(i interface{}) error {
	return r.v.Struct(i)
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}

	// Custom logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			logger.Info("HTTP Request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders: []string{echo.HeaderContentType, HeaderUserID, HeaderUserRole},
	}))

	// Health check
	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	api.Use(middleware.BodyLimit(maxBodySize))
	api.Use(s.identityMiddleware)

	// Validation needs no identity
	api.POST("/validate", s.handleValidate)

	owned := api.Group("")
	owned.Use(s.requireIdentity)
	owned.POST("/draft", s.handleSaveDraft)
	owned.GET("/draft", s.handleGetOwnDraft)
	owned.GET("/draft/:id", s.handleGetDraft)
	owned.POST("/draft/:id/submit", s.handleSubmit)
	owned.POST("/submissions/:key/approve", s.handleApprove)
	owned.GET("/submissions/:key/audit", s.handleAudit)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown; it returns http.ErrServerClosed after a clean stop
func (s *Server) Start(addr string) error {
	logger.Info("Server starting", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
