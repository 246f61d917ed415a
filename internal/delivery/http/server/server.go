// internal/delivery/http/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthCheck - проверка зависимости для /health
type HealthCheck func(ctx context.Context) error

// Server - HTTP сервер для callback провайдера, webhook Telegram и healthcheck
type Server struct {
	config  config.HTTPConfig
	router  chi.Router
	server  *http.Server
	checks  map[string]HealthCheck
	started time.Time
	logger  *logger.Logger
}

// New создает сервер с базовыми middleware и маршрутами /health
func New(cfg config.HTTPConfig) *Server {
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		checks: make(map[string]HealthCheck),
		logger: logger.Named("http"),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	s.router.Get("/", s.handleHealth)
	s.router.Get("/health", s.handleHealth)

	return s
}

// AddHealthCheck регистрирует проверку зависимости
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// HandleCallback регистрирует обработчик callback провайдера
func (s *Server) HandleCallback(h http.Handler) {
	s.router.Method(http.MethodPost, s.config.CallbackPath, h)
}

// HandleWebhook регистрирует обработчик обновлений Telegram
func (s *Server) HandleWebhook(path string, h http.Handler) {
	s.router.Method(http.MethodPost, path, h)
}

// Handler возвращает корневой обработчик (используется в тестах)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start начинает слушать порт. Ошибка bind возвращается сразу,
// дальнейшая работа идет в фоне.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.started = time.Now()

	s.logger.Info("🚀 HTTP сервер запущен на %s (callback: %s)", addr, s.config.CallbackPath)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("❌ HTTP server error: %v", err)
		}
	}()
	return nil
}

// Stop корректно завершает сервер, дожидаясь активных запросов
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("🛑 Остановка HTTP сервера...")
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	if !s.started.IsZero() {
		resp.Uptime = time.Since(s.started).Round(time.Second).String()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code := http.StatusOK
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, code, resp)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s -> %d (%s, req %s)",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
