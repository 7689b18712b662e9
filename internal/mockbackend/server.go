// Package mockbackend is an in-memory member service speaking the wire
// contract the storefront expects. It backs local development and the
// end-to-end tests.
package mockbackend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// Options configure a Server.
type Options struct {
	JWTSecret          string
	TokenTTL           time.Duration
	MemberDiscount     int
	LoginRatePerMinute int
	BcryptCost         int
}

// Server implements the member service endpoints.
type Server struct {
	users    *UserStore
	tokens   *TokenManager
	limiter  *loginLimiter
	discount int
	logger   *slog.Logger
}

// NewServer creates a mock backend with no members.
func NewServer(opts Options, logger *slog.Logger) *Server {
	return &Server{
		users:    NewUserStore(opts.BcryptCost),
		tokens:   NewTokenManager(opts.JWTSecret, opts.TokenTTL),
		limiter:  newLoginLimiter(opts.LoginRatePerMinute),
		discount: opts.MemberDiscount,
		logger:   logger,
	}
}

// Users exposes the member store.
func (s *Server) Users() *UserStore { return s.users }

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Username  string `json:"username" validate:"notblank,max=100"`
	UserEmail string `json:"useremail" validate:"notblank,email"`
	Password  string `json:"password" validate:"required"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	UserEmail string `json:"useremail" validate:"notblank"`
	Username  string `json:"username" validate:"notblank"`
	Password  string `json:"password" validate:"required"`
}

// --- Response types ---

type memberResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken,omitempty"`
	Discount    *int   `json:"discount,omitempty"`
}

type envelope struct {
	Response memberResponse `json:"response"`
}

// Routes returns the member service router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestLogging(s.logger))
	r.Use(middleware.RequestLogger(s.logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Head("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)
	r.With(middleware.BearerAuth(s.tokens.Validate)).Delete("/users/{id}", s.deleteUser)
	r.Get("/products", s.products)

	return r
}

// register handles POST /register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := s.users.Create(r.Context(), req.Username, req.UserEmail, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}

	s.logger.InfoContext(r.Context(), "member registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	httputil.WriteJSON(w, http.StatusCreated, envelope{
		Response: memberResponse{ID: user.ID, Username: user.Username},
	})
}

// login handles POST /login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if !s.limiter.Allow(req.Username) {
		s.logger.WarnContext(r.Context(), "login rate limit exceeded",
			slog.String("username", req.Username),
		)
		httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many login attempts"},
		})
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.UserEmail, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), s.logger)
		return
	}

	discount := s.discount
	httputil.WriteJSON(w, http.StatusOK, envelope{
		Response: memberResponse{
			ID:          user.ID,
			Username:    user.Username,
			AccessToken: token,
			Discount:    &discount,
		},
	})
}

// logout handles POST /logout. A valid bearer token is revoked; anything
// else is acknowledged without effect.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		if claims, err := s.tokens.Parse(token); err == nil {
			s.tokens.Revoke(claims)
			s.logger.InfoContext(r.Context(), "member logged out", slog.String("user_id", claims.UserID))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteUser handles DELETE /users/{id}.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if middleware.UserIDFromContext(r.Context()) != id {
		httputil.WriteError(w, r, apperrors.Unauthorized("token does not belong to this account"), s.logger)
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}

	if token, ok := middleware.BearerToken(r); ok {
		if claims, err := s.tokens.Parse(token); err == nil {
			s.tokens.Revoke(claims)
		}
	}
	s.logger.InfoContext(r.Context(), "member deleted", slog.String("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// products handles GET /products.
func (s *Server) products(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(seedProducts)
}
