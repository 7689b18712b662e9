package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/storefront"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// StorefrontHandler serves the view layer's commands and queries.
type StorefrontHandler struct {
	sf     *storefront.Storefront
	logger *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(sf *storefront.Storefront, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{sf: sf, logger: logger}
}

// --- Request DTOs ---

// AddToCartRequest is the JSON request body for adding a catalog product.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"notblank"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=99"`
}

// UpdateQuantityRequest is the JSON request body for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=99"`
}

// CredentialsRequest is the member form. Fields are checked by the
// coordinator so the shopper sees its message, not a field list.
type CredentialsRequest struct {
	Username  string `json:"username"`
	UserEmail string `json:"useremail"`
	Password  string `json:"password"`
}

// --- Response types ---

// OperationResponse reports a settled or pending session operation.
type OperationResponse struct {
	Operation session.Kind    `json:"operation"`
	Outcome   session.Outcome `json:"outcome,omitempty"`
	Message   string          `json:"message,omitempty"`
	State     storefront.View `json:"state"`
}

// --- Queries ---

// GetState handles GET /api/v1/state
func (h *StorefrontHandler) GetState(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.sf.Snapshot())
}

// GetCatalog handles GET /api/v1/catalog
func (h *StorefrontHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.sf.Catalog(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// GetOperations handles GET /api/v1/session/operations
func (h *StorefrontHandler) GetOperations(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.sf.Operations())
}

// --- Cart commands ---

// AddItem handles POST /api/v1/cart/items
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AddToCartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.sf.AddToCart(r.Context(), req.ProductID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.sf.Snapshot())
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *StorefrontHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	productID := chi.URLParam(r, "productId")

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.sf.SetQuantity(r.Context(), productID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.sf.Snapshot())
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.sf.RemoveItem(r.Context(), chi.URLParam(r, "productId"))
	httputil.WriteData(w, http.StatusOK, h.sf.Snapshot())
}

// ClearCart handles DELETE /api/v1/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.sf.ClearCart(r.Context())
	httputil.WriteData(w, http.StatusOK, h.sf.Snapshot())
}

// Checkout handles POST /api/v1/cart/checkout
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.sf.Checkout(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, receipt)
}

// --- Session commands ---

// Register handles POST /api/v1/session/register
func (h *StorefrontHandler) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}
	task, err := h.sf.Register(r.Context(), creds)
	h.respondTask(w, r, task, err)
}

// Login handles POST /api/v1/session/login
func (h *StorefrontHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}
	task, err := h.sf.Login(r.Context(), creds)
	h.respondTask(w, r, task, err)
}

// Logout handles POST /api/v1/session/logout
func (h *StorefrontHandler) Logout(w http.ResponseWriter, r *http.Request) {
	task, err := h.sf.Logout(r.Context())
	h.respondTask(w, r, task, err)
}

// DeleteAccount handles DELETE /api/v1/session/account
func (h *StorefrontHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	task, err := h.sf.DeleteAccount(r.Context())
	h.respondTask(w, r, task, err)
}

func (h *StorefrontHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (session.Credentials, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return session.Credentials{}, false
	}
	return session.Credentials{
		Username: req.Username,
		Email:    req.UserEmail,
		Password: req.Password,
	}, true
}

// respondTask writes the outcome of a session operation. With ?async=true
// the handler answers 202 as soon as the operation is submitted and the
// view polls /session/operations; otherwise it waits for the result. A
// client that disconnects while waiting does not cancel the operation.
func (h *StorefrontHandler) respondTask(w http.ResponseWriter, r *http.Request, task *session.Task, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if res, done := task.Result(); done {
			h.writeResult(w, r, task.Kind(), res)
			return
		}
		httputil.WriteData(w, http.StatusAccepted, OperationResponse{
			Operation: task.Kind(),
			State:     h.sf.Snapshot(),
		})
		return
	}

	res, err := task.Wait(r.Context())
	if err != nil {
		h.logger.DebugContext(r.Context(), "client stopped waiting for session operation",
			slog.String("operation", string(task.Kind())),
		)
		return
	}
	h.writeResult(w, r, task.Kind(), res)
}

func (h *StorefrontHandler) writeResult(w http.ResponseWriter, r *http.Request, kind session.Kind, res session.Result) {
	if !res.Succeeded() {
		var appErr *apperrors.AppError
		if errors.As(res.Err, &appErr) {
			httputil.WriteError(w, r, appErr, h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.Unavailable(res.Message, res.Err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, OperationResponse{
		Operation: kind,
		Outcome:   res.Outcome,
		Message:   res.Message,
		State:     h.sf.Snapshot(),
	})
}
