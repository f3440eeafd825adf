package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/pprof"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sweetlabs/sweetshop/internal/app"
	"github.com/sweetlabs/sweetshop/pkg/metrics"
	"go.uber.org/zap"
)

// AppContextKey is the echo context key under which the application
// container is injected for handlers.
const AppContextKey = "sweetshop_app"

var server *WebServer

type WebServer struct {
	root *echo.Echo
	pub  *echo.Group
	api  *echo.Group
	app  app.AppContext
}

type payloadValidator struct {
	validate *validator.Validate
}

func (v *payloadValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Init builds the echo server, the public and JWT-protected route
// groups, and registers the common middleware stack.
func Init(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = &jsonSerializer{}
	e.Validator = &payloadValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			metrics.Counter(metrics.MetricAPIRequest)
			return next(c)
		}
	})

	if appCtx.Config().System.Debug {
		pprof.Register(e)
	}

	pub := e.Group("/api/v1")

	api := e.Group("/api/v1")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(appCtx.Config().Web.JwtSecret),
		NewClaimsFunc: newShopClaims,
	}))

	server = &WebServer{root: e, pub: pub, api: api, app: appCtx}
	return server
}

// Instance returns the initialized web server.
func Instance() *WebServer {
	return server
}

// Start runs the HTTP listener until ctx is cancelled, then shuts the
// server down gracefully.
func (s *WebServer) Start(ctx context.Context) error {
	cfg := s.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("web server starting", zap.String("addr", addr))
		if err := s.root.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.root.Shutdown(shutdownCtx)
	}
}

// PubGET registers a public GET route under /api/v1.
func PubGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.pub.GET(path, h, m...)
}

// PubPOST registers a public POST route under /api/v1.
func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.pub.POST(path, h, m...)
}

// ApiGET registers an authenticated GET route under /api/v1.
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

// ApiPOST registers an authenticated POST route under /api/v1.
func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

// ApiPUT registers an authenticated PUT route under /api/v1.
func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

// ApiDELETE registers an authenticated DELETE route under /api/v1.
func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}
