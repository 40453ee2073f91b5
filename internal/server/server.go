package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/elskow/portfolio/internal/auth"
	"github.com/elskow/portfolio/internal/config"
	"github.com/elskow/portfolio/internal/media"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	DB             *gorm.DB
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.AuthMiddleware
	MediaHandler   *media.Handler
}

func NewServer(p Params) *Server {
	router := NewRouter(p)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(p.Config.Server.Host, p.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  p.Config.Server.ReadTimeout,
		WriteTimeout: p.Config.Server.WriteTimeout,
	}

	return &Server{
		config:     p.Config,
		log:        p.Logger,
		httpServer: httpServer,
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("database_driver", config.Database.Driver)
		enc.AddString("media_platform", config.Media.Platform)
		enc.AddInt64("max_upload_bytes", config.Media.MaxUploadBytes)
		enc.AddDuration("read_timeout", config.Server.ReadTimeout)
		enc.AddDuration("write_timeout", config.Server.WriteTimeout)
		return nil
	})
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
