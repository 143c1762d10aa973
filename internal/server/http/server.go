package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/lomoval/alarmd/internal/scheduler"
	"github.com/lomoval/alarmd/internal/storage"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

// Application is the scheduling core consumed by the handlers.
type Application interface {
	Submit(ctx context.Context, description string, dueAt string, recurrence storage.Recurrence) (int64, error)
	List() []scheduler.Entry
}

type Server struct {
	srv  *http.Server
	addr string
	app  Application
}

type createAlarmRequest struct {
	Description string `json:"description"`
	DateTime    string `json:"datetime"`
	Recurrence  string `json:"recurrence"`
}

type createAlarmResponse struct {
	ID int64 `json:"id"`
}

func NewServer(config Config, app Application) *Server {
	return &Server{
		addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		srv:  &http.Server{Addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port))},
		app:  app,
	}
}

func (s *Server) Start(_ context.Context) error {
	s.srv.Handler = loggingMiddleware(s.Handler())

	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler builds the route mux, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := runtime.NewServeMux()

	mux.HandlePath("POST", "/alarms", func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		var req createAlarmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		id, err := s.app.Submit(r.Context(), req.Description, req.DateTime, storage.RecurrenceFromString(req.Recurrence))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, scheduler.ErrInvalidDateTime) || errors.Is(err, storage.ErrEmptyDescription) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}

		writeJSON(w, createAlarmResponse{ID: id})
	})

	mux.HandlePath("GET", "/alarms", func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		writeJSON(w, s.app.List())
	})

	// The gateway mux cannot register the bare "/" pattern, the index
	// page is served around it.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(indexPage))
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
