// Package api exposes the service layer over a chi-routed JSON API.
// Handlers decode and validate requests, call into services, and map the
// error taxonomy onto HTTP status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitpot/splitpot/internal/auth"
	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/middleware"
	"github.com/splitpot/splitpot/internal/service"
)

// Server bundles the services behind the HTTP surface.
type Server struct {
	authn       auth.Authenticator
	jwt         *auth.JWTManager
	expenses    *service.ExpenseService
	balances    *service.BalanceService
	settlements *service.SettlementService
	currencies  *service.CurrencyService
	groups      *service.GroupService
	validate    *validator.Validate
}

// NewServer creates a Server over the given services.
func NewServer(
	authn auth.Authenticator,
	jwt *auth.JWTManager,
	expenses *service.ExpenseService,
	balances *service.BalanceService,
	settlements *service.SettlementService,
	currencies *service.CurrencyService,
	groups *service.GroupService,
) *Server {
	return &Server{
		authn:       authn,
		jwt:         jwt,
		expenses:    expenses,
		balances:    balances,
		settlements: settlements,
		currencies:  currencies,
		groups:      groups,
		validate:    validator.New(),
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwt))

			r.Post("/groups", s.handleCreateGroup)
			r.Get("/groups/{groupID}", s.handleGetGroup)
			r.Post("/groups/{groupID}/members", s.handleAddGroupMembers)
			r.Get("/groups/{groupID}/balances", s.handleGroupBalances)

			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/{expenseID}", s.handleGetExpense)
			r.Patch("/expenses/{expenseID}", s.handleUpdateExpense)
			r.Delete("/expenses/{expenseID}", s.handleDeleteExpense)

			r.Get("/balances", s.handleUserBalances)

			r.Post("/transactions", s.handleCreateTransaction)
			r.Post("/settlements", s.handleSettle)
			r.Post("/settlements/direct", s.handleSettleDirect)

			r.Post("/currencies", s.handleCreateCurrency)
			r.Get("/currencies", s.handleListCurrencies)
			r.Post("/rates", s.handleRecordRate)
			r.Get("/rates/latest", s.handleLatestRate)
		})
	})

	return r
}

// decode parses the JSON body into dst and runs struct validation.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.Validationf("invalid request body: %v", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errs.Validationf("field %s failed validation on %q", verrs[0].Field(), verrs[0].Tag())
		}
		return errs.Validationf("invalid request: %v", err)
	}
	return nil
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsAuthorization(err):
		status = http.StatusForbidden
	case errs.IsConflict(err):
		status = http.StatusConflict
	default:
		slog.Error("internal error", "error", err)
	}
	respond(w, status, map[string]string{"error": err.Error()})
}
