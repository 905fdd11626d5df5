package server

import (
	"encoding/json"
	"net/http"
	_ "net/http/pprof" // Profiling

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vision-server/internal/engine"
	"vision-server/internal/version"
	"vision-server/pkg/logger"
)

type Server struct {
	Engine *engine.Service
	Port   string

	allowedOrigin string
}

func New(eng *engine.Service, port, allowedOrigin string) *Server {
	return &Server{
		Engine:        eng,
		Port:          port,
		allowedOrigin: allowedOrigin,
	}
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	// Две поверхности: мастерская (команды + нефильтрованные кадры)
	// и игровая (только фильтрованные кадры, без команд).
	r.Get("/ws/gm", s.handleGMSocket)
	r.Get("/ws/display", s.handleDisplaySocket)

	debugHandler := NewDebugHandler(s.Engine)
	debugHandler.RegisterRoutes(r)

	logger.Log.Infof("🛡️  Vision server running on :%s", s.Port)
	return http.ListenAndServe(":"+s.Port, r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(version.Info())
}
