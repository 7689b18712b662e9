// Package session runs the member operations (register, login, logout and
// account deletion) against the backend and applies their outcome to the
// auth store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/pkg/validator"
)

// Backend is the member service as seen by the coordinator.
type Backend interface {
	Register(ctx context.Context, in backend.RegisterRequest) error
	Login(ctx context.Context, in backend.LoginRequest) (*backend.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, userID, token string) error
}

// Credentials are what the shopper types into the member form.
type Credentials struct {
	Username string `json:"username" validate:"notblank"`
	Email    string `json:"useremail" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Hooks are called after a successful operation has been applied to the
// auth store, on the goroutine that ran it.
type Hooks struct {
	OnRegistered     func(ctx context.Context, username string)
	OnLoggedIn       func(ctx context.Context, s domain.Session)
	OnLoggedOut      func(ctx context.Context)
	OnAccountDeleted func(ctx context.Context, userID string)
}

// Config controls optional coordinator behaviour.
type Config struct {
	// RemoteLogout calls the backend before clearing the local session.
	RemoteLogout bool
	Hooks        Hooks
}

// Coordinator serializes each operation kind: while one is submitting, a
// second of the same kind is rejected without a network call. Different
// kinds may overlap.
type Coordinator struct {
	backend Backend
	auth    *auth.Store
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	mu          sync.Mutex
	ops         map[Kind]OperationStatus
	lastMessage string
}

// NewCoordinator creates a coordinator with every operation idle.
func NewCoordinator(b Backend, store *auth.Store, cfg Config, logger *slog.Logger) *Coordinator {
	ops := make(map[Kind]OperationStatus, len(Kinds))
	for _, k := range Kinds {
		ops[k] = OperationStatus{State: StateIdle}
	}
	return &Coordinator{
		backend: b,
		auth:    store,
		cfg:     cfg,
		logger:  logger,
		tracer:  tracing.Tracer("github.com/utafrali/storefront/internal/session"),
		now:     time.Now,
		ops:     ops,
	}
}

// Register creates a member account. It does not log in.
func (c *Coordinator) Register(ctx context.Context, creds Credentials) (*Task, error) {
	if err := c.begin(ctx, KindRegister, &creds); err != nil {
		return nil, err
	}
	return c.run(ctx, KindRegister, func(ctx context.Context) Result {
		err := c.backend.Register(ctx, backend.RegisterRequest{
			Username:  creds.Username,
			UserEmail: creds.Email,
			Password:  creds.Password,
		})
		if err != nil {
			return c.failure(ctx, err, apperrors.Rejected(MsgRegisterFailed, err))
		}
		if h := c.cfg.Hooks.OnRegistered; h != nil {
			h(ctx, creds.Username)
		}
		return succeeded(MsgRegistered)
	}), nil
}

// Login authenticates the shopper. On success the whole session, discount
// included, is committed in one step.
func (c *Coordinator) Login(ctx context.Context, creds Credentials) (*Task, error) {
	if err := c.begin(ctx, KindLogin, &creds); err != nil {
		return nil, err
	}
	return c.run(ctx, KindLogin, func(ctx context.Context) Result {
		resp, err := c.backend.Login(ctx, backend.LoginRequest{
			UserEmail: creds.Email,
			Username:  creds.Username,
			Password:  creds.Password,
		})
		if err == nil {
			if verr := resp.Validate(); verr != nil {
				err = fmt.Errorf("login: %w: %w", backend.ErrTransport, verr)
			}
		}
		if err != nil {
			rejected := apperrors.Unauthorized(MsgLoginFailed)
			rejected.Err = fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
			return c.failure(ctx, err, rejected)
		}

		c.auth.SetAuthenticated(resp.UserID, resp.Username, resp.AccessToken, resp.DiscountPercent)
		sess := c.auth.Session()
		if h := c.cfg.Hooks.OnLoggedIn; h != nil {
			h(ctx, sess)
		}
		return succeeded(fmt.Sprintf(welcomeMessagePattern, sess.Username))
	}), nil
}

// Logout ends the member session. Without RemoteLogout it completes before
// returning.
func (c *Coordinator) Logout(ctx context.Context) (*Task, error) {
	if err := c.begin(ctx, KindLogout, nil); err != nil {
		return nil, err
	}
	sess := c.auth.Session()
	return c.run(ctx, KindLogout, func(ctx context.Context) Result {
		if c.cfg.RemoteLogout && sess.State == domain.AuthAuthenticated {
			if err := c.backend.Logout(ctx, sess.AccessToken); err != nil {
				return c.failure(ctx, err, apperrors.Rejected(MsgLogoutFailed, err))
			}
		}
		c.auth.Logout()
		if h := c.cfg.Hooks.OnLoggedOut; h != nil {
			h(ctx)
		}
		return succeeded(MsgLoggedOut)
	}), nil
}

// DeleteAccount removes the logged-in member's account and resets the
// session. It fails synchronously when nobody is logged in.
func (c *Coordinator) DeleteAccount(ctx context.Context) (*Task, error) {
	sess := c.auth.Session()
	if sess.State != domain.AuthAuthenticated {
		operationsTotal.WithLabelValues(string(KindDeleteAccount), outcomeInvalid).Inc()
		return nil, apperrors.NotAuthenticated(MsgLoginRequired)
	}
	if err := c.begin(ctx, KindDeleteAccount, nil); err != nil {
		return nil, err
	}
	return c.run(ctx, KindDeleteAccount, func(ctx context.Context) Result {
		if err := c.backend.DeleteAccount(ctx, sess.UserID, sess.AccessToken); err != nil {
			return c.failure(ctx, err, apperrors.Rejected(MsgDeleteFailed, err))
		}

		// A different member may have logged in while the call was out.
		if cur := c.auth.Session(); cur.IsGuest() || cur.UserID == sess.UserID {
			c.auth.Reset()
		}
		if h := c.cfg.Hooks.OnAccountDeleted; h != nil {
			h(ctx, sess.UserID)
		}
		return succeeded(MsgAccountDeleted)
	}), nil
}

// Status returns the current status of kind.
func (c *Coordinator) Status(kind Kind) OperationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.ops[kind]; ok {
		return st
	}
	return OperationStatus{State: StateIdle}
}

// Statuses returns the status of every operation kind.
func (c *Coordinator) Statuses() map[Kind]OperationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Kind]OperationStatus, len(c.ops))
	for k, st := range c.ops {
		out[k] = st
	}
	return out
}

// Message is the most recent shopper-facing message of any operation.
func (c *Coordinator) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMessage
}

// begin claims kind for a new submission. Validation runs under the same
// lock so an invalid form never disturbs an operation in flight.
func (c *Coordinator) begin(ctx context.Context, kind Kind, creds *Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ops[kind].State == StateSubmitting {
		operationsTotal.WithLabelValues(string(kind), outcomeBusy).Inc()
		return apperrors.Busy(string(kind))
	}

	if creds != nil {
		if err := validator.Validate(creds); err != nil {
			operationsTotal.WithLabelValues(string(kind), outcomeInvalid).Inc()
			c.setLocked(kind, StateFailed, MsgFillAllFields)
			logger.WithContext(ctx, c.logger).DebugContext(ctx, "member form rejected",
				slog.String("operation", string(kind)),
				slog.String("error", err.Error()),
			)
			invalid := apperrors.InvalidInput(MsgFillAllFields)
			invalid.Err = fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
			return invalid
		}
	}

	c.setLocked(kind, StateSubmitting, "")
	return nil
}

// run executes fn on its own goroutine with a context that ignores the
// caller's cancellation. The operation status is settled by a deferred
// function so it leaves submitting on every path, panics included.
func (c *Coordinator) run(ctx context.Context, kind Kind, fn func(context.Context) Result) *Task {
	task := newTask(kind)
	ctx = logger.WithOperation(context.WithoutCancel(ctx), string(kind))
	start := c.now()
	operationsInFlight.Inc()

	exec := func() {
		ctx, span := c.tracer.Start(ctx, "session."+string(kind),
			trace.WithAttributes(attribute.String("session.operation", string(kind))),
		)
		log := logger.WithContext(ctx, c.logger)

		var res Result
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(ctx, "session operation panicked",
					slog.Any("panic", r),
				)
				res = failed(MsgGenericFailure, apperrors.Internal(fmt.Errorf("panic: %v", r)))
			}

			c.settle(kind, res)
			operationsInFlight.Dec()
			operationsTotal.WithLabelValues(string(kind), string(res.Outcome)).Inc()
			operationDuration.WithLabelValues(string(kind)).Observe(c.now().Sub(start).Seconds())

			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Message)
			}
			span.SetAttributes(attribute.String("session.outcome", string(res.Outcome)))
			span.End()

			log.InfoContext(ctx, "session operation settled",
				slog.String("outcome", string(res.Outcome)),
				slog.Duration("duration", c.now().Sub(start)),
			)
			task.settle(res)
		}()

		res = fn(ctx)
	}

	if kind == KindLogout && !c.cfg.RemoteLogout {
		exec()
	} else {
		go exec()
	}
	return task
}

// failure maps a backend error to a result. Rejections use the operation's
// own message; anything else gets the generic one. The cause is logged and
// kept on the result but never shown.
func (c *Coordinator) failure(ctx context.Context, err error, rejected *apperrors.AppError) Result {
	log := logger.WithContext(ctx, c.logger)
	if errors.Is(err, backend.ErrRejected) {
		log.WarnContext(ctx, "backend rejected session operation", slog.String("error", err.Error()))
		return failed(rejected.Message, rejected)
	}
	log.ErrorContext(ctx, "session operation failed", slog.String("error", err.Error()))
	return failed(MsgGenericFailure, apperrors.Unavailable(MsgGenericFailure, err))
}

func (c *Coordinator) settle(kind Kind, res Result) {
	state := StateFailed
	if res.Succeeded() {
		state = StateSucceeded
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(kind, state, res.Message)
}

func (c *Coordinator) setLocked(kind Kind, state State, msg string) {
	c.ops[kind] = OperationStatus{State: state, Message: msg, UpdatedAt: c.now()}
	if msg != "" {
		c.lastMessage = msg
	}
}
