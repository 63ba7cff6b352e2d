// internal/delivery/rest/server.go
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// Server - HTTP сервер API
type Server struct {
	config config.ServerConfig
	server *http.Server

	mu      sync.Mutex
	running bool
	errCh   chan error
}

// NewServer создает HTTP сервер поверх готового обработчика
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		config: cfg,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		errCh: make(chan error, 1),
	}
}

// Start открывает порт и обслуживает запросы в фоне
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.running = true

	logger.Info("🚀 HTTP API слушает %s", ln.Addr())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("❌ Ошибка HTTP сервера: %v", err)
			s.errCh <- err
		}
	}()
	return nil
}

// Errors сообщает о фатальных ошибках сервера
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Stop дожидается завершения активных запросов в пределах таймаута
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Warn("⚠️ HTTP сервер остановлен принудительно: %v", err)
		return s.server.Close()
	}
	logger.Info("🛑 HTTP API остановлен")
	return nil
}

// Name возвращает имя сервиса
func (s *Server) Name() string {
	return "HTTPServer"
}
