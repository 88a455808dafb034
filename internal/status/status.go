// Package status provides a small http server for liveness checks and a
// status snapshot, with logging and other necessary things.
package status

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Config struct {
	Port int
}

// A Snapshot is what /statusz reports.
type Snapshot struct {
	Version string `json:"version"`
	Guilds  int    `json:"guilds"`
}

type Server struct {
	*http.Server
}

// New builds the server. snapshot is called per request so the numbers are
// always current.
func New(l *zap.SugaredLogger, c Config, snapshot func() Snapshot) *Server {
	r := mux.NewRouter()

	s := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", c.Port),
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}

	r.HandleFunc("/healthz", handleHealthCheck()).Methods(http.MethodGet)
	r.HandleFunc("/statusz", handleStatus(l, snapshot)).Methods(http.MethodGet)

	r.Use(loggingMiddleware(l))

	return s
}

func loggingMiddleware(l *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.RequestURI == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			l.Infow("request received", "uri", r.RequestURI, "method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}

func handleStatus(l *zap.SugaredLogger, snapshot func() Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot()); err != nil {
			l.Errorw("error writing status", "err", err)
		}
	}
}

func handleHealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {}
}
