// Package http exposes the JSON API: auth, member management, the four
// record surfaces and the monthly analytics summary.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hearth/internal/analytics"
	"hearth/internal/auth"
	"hearth/internal/events"
	applog "hearth/internal/log"
	"hearth/internal/storage"
)

type Server struct {
	http.Server

	log         *slog.Logger
	store       storage.Store
	auth        *auth.Service
	jwt         *auth.JWTManager
	engine      *analytics.Engine
	events      *events.Publisher
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// events may be nil; record mutations then publish nothing.
func NewServer(addr string, store storage.Store, authSvc *auth.Service, jwt *auth.JWTManager, engine *analytics.Engine, pub *events.Publisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log:         applog.Component(applog.ComponentHTTP),
		store:       store,
		auth:        authSvc,
		jwt:         jwt,
		engine:      engine,
		events:      pub,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metricsHandler())

	// Credential endpoints carry the rate limiter; everything else carries
	// the auth middleware, which resolves the bearer token into an actor.
	mux.Handle("POST /api/auth/register", s.trace(s.limited(s.handleRegister)))
	mux.Handle("POST /api/auth/login", s.trace(s.limited(s.handleLogin)))

	api := func(h http.HandlerFunc) http.Handler {
		return s.trace(s.requireAuth(h))
	}

	mux.Handle("GET /api/members", api(s.handleListMembers))
	mux.Handle("POST /api/members", api(s.handleCreateMember))
	mux.Handle("GET /api/members/{id}", api(s.handleGetMember))
	mux.Handle("PUT /api/members/{id}", api(s.handleUpdateMember))
	mux.Handle("DELETE /api/members/{id}", api(s.handleDeleteMember))
	mux.Handle("PUT /api/members/{id}/permissions", api(s.handleUpdatePermissions))

	mux.Handle("GET /api/expenses", api(s.handleListExpenses))
	mux.Handle("POST /api/expenses", api(s.handleCreateExpense))
	mux.Handle("GET /api/expenses/{id}", api(s.handleGetExpense))
	mux.Handle("PUT /api/expenses/{id}", api(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", api(s.handleDeleteExpense))

	mux.Handle("GET /api/savings", api(s.handleListSavings))
	mux.Handle("POST /api/savings", api(s.handleCreateSaving))
	mux.Handle("GET /api/savings/{id}", api(s.handleGetSaving))
	mux.Handle("PUT /api/savings/{id}", api(s.handleUpdateSaving))
	mux.Handle("DELETE /api/savings/{id}", api(s.handleDeleteSaving))

	mux.Handle("GET /api/bills", api(s.handleListBills))
	mux.Handle("POST /api/bills", api(s.handleCreateBill))
	mux.Handle("POST /api/bills/{id}/pay", api(s.handlePayBill))
	mux.Handle("DELETE /api/bills/{id}", api(s.handleDeleteBill))

	mux.Handle("GET /api/debts", api(s.handleListDebts))
	mux.Handle("POST /api/debts", api(s.handleCreateDebt))
	mux.Handle("POST /api/debts/{id}/repay", api(s.handleRepayDebt))
	mux.Handle("POST /api/debts/{id}/mark-repaid", api(s.handleMarkDebtRepaid))
	mux.Handle("DELETE /api/debts/{id}", api(s.handleDeleteDebt))

	mux.Handle("GET /api/analytics/summary", api(s.handleAnalyticsSummary))

	return s
}

// Shutdown stops the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
