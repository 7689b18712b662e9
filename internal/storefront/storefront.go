// Package storefront is the process-wide state container. It owns the cart,
// the auth session and the coordinator, and is the only thing the view
// layer talks to.
package storefront

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/pricing"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// MaxQuantityPerItem caps a single cart line.
const MaxQuantityPerItem = 99

// Catalog resolves products for the cart.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Lookup(ctx context.Context, id string) (domain.Product, error)
}

// Options are the storefront policies chosen by configuration.
type Options struct {
	// ClearCartOnLogout empties the cart on logout and account deletion.
	// When false the cart survives and only the member discount goes away.
	ClearCartOnLogout bool
	RemoteLogout      bool
}

// View is everything the view layer renders.
type View struct {
	Items      []domain.CartItem                        `json:"items"`
	ItemCount  int                                      `json:"item_count"`
	Quote      domain.Quote                             `json:"quote"`
	Session    domain.Session                           `json:"session"`
	Message    string                                   `json:"message,omitempty"`
	Operations map[session.Kind]session.OperationStatus `json:"operations"`
}

// Receipt is the outcome of a checkout.
type Receipt struct {
	Items []domain.CartItem `json:"items"`
	Quote domain.Quote      `json:"quote"`
}

// Storefront holds the state of one shopper.
type Storefront struct {
	cart    *cart.Store
	auth    *auth.Store
	session *session.Coordinator
	catalog Catalog
	events  event.Publisher
	opts    Options
	logger  *slog.Logger
}

// New wires a storefront around backend. events may be event.NopPublisher{}.
func New(backend session.Backend, catalog Catalog, events event.Publisher, opts Options, logger *slog.Logger) *Storefront {
	s := &Storefront{
		cart:    cart.NewStore(),
		auth:    auth.NewStore(),
		catalog: catalog,
		events:  events,
		opts:    opts,
		logger:  logger,
	}
	s.session = session.NewCoordinator(backend, s.auth, session.Config{
		RemoteLogout: opts.RemoteLogout,
		Hooks: session.Hooks{
			OnRegistered:     s.onRegistered,
			OnLoggedIn:       s.onLoggedIn,
			OnLoggedOut:      s.onLoggedOut,
			OnAccountDeleted: s.onAccountDeleted,
		},
	}, logger)
	return s
}

// ============================================================================
// Cart commands
// ============================================================================

// AddToCart adds quantity units of a catalog product, snapshotting its
// current price.
func (s *Storefront) AddToCart(ctx context.Context, productID string, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	p, err := s.catalog.Lookup(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.checkLineCap(productID, quantity); err != nil {
		return err
	}
	s.cart.AddProduct(p, quantity)
	s.cartChanged(ctx)
	return nil
}

// AddItem adds a line with an explicit unit price instead of the catalog's.
// The same per-line limits as AddToCart apply.
func (s *Storefront) AddItem(ctx context.Context, productID string, unitPrice int64, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if unitPrice < 0 {
		return apperrors.InvalidInput("unit price must not be negative")
	}
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if err := s.checkLineCap(productID, quantity); err != nil {
		return err
	}
	s.cart.AddItem(productID, unitPrice, quantity)
	s.cartChanged(ctx)
	return nil
}

// SetQuantity replaces a line's quantity; zero or less removes it.
func (s *Storefront) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity > MaxQuantityPerItem {
		return apperrors.InvalidInput("quantity exceeds the per-item limit")
	}
	if _, ok := s.cart.Get(productID); !ok {
		return apperrors.NotFound("cart item", productID)
	}
	s.cart.SetQuantity(productID, quantity)
	s.cartChanged(ctx)
	return nil
}

// RemoveItem deletes a line. Unknown products are ignored.
func (s *Storefront) RemoveItem(ctx context.Context, productID string) {
	s.cart.RemoveItem(productID)
	s.cartChanged(ctx)
}

// ClearCart empties the cart.
func (s *Storefront) ClearCart(ctx context.Context) {
	s.cart.Clear()
	s.cartChanged(ctx)
}

// Checkout prices the cart for the current session and empties it. No
// payment is taken.
func (s *Storefront) Checkout(ctx context.Context) (Receipt, error) {
	sess := s.auth.Session()
	snap := s.cart.Snapshot()
	if snap.IsEmpty() {
		return Receipt{}, apperrors.InvalidInput("cart is empty")
	}

	receipt := Receipt{Items: snap.Items, Quote: pricing.Quote(snap, &sess)}
	s.cart.Clear()
	s.cartChanged(ctx)

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "checkout completed",
		slog.Int("item_count", receipt.Quote.ItemCount),
		slog.Int64("total", receipt.Quote.Total),
		slog.Int("discount_percent", receipt.Quote.DiscountPercent),
	)
	return receipt, nil
}

// ============================================================================
// Session commands
// ============================================================================

// Register submits a registration.
func (s *Storefront) Register(ctx context.Context, creds session.Credentials) (*session.Task, error) {
	return s.session.Register(ctx, creds)
}

// Login submits a login.
func (s *Storefront) Login(ctx context.Context, creds session.Credentials) (*session.Task, error) {
	return s.session.Login(ctx, creds)
}

// Logout ends the member session.
func (s *Storefront) Logout(ctx context.Context) (*session.Task, error) {
	return s.session.Logout(ctx)
}

// DeleteAccount removes the member account.
func (s *Storefront) DeleteAccount(ctx context.Context) (*session.Task, error) {
	return s.session.DeleteAccount(ctx)
}

// ============================================================================
// Queries
// ============================================================================

// Snapshot returns a consistent-enough picture for rendering. Cart and
// session are read separately; each is internally consistent.
func (s *Storefront) Snapshot() View {
	sess := s.auth.Session()
	snap := s.cart.Snapshot()
	sess.AccessToken = ""
	return View{
		Items:      snap.Items,
		ItemCount:  snap.ItemCount(),
		Quote:      pricing.Quote(snap, &sess),
		Session:    sess,
		Message:    s.session.Message(),
		Operations: s.session.Statuses(),
	}
}

// Session returns the current session with the access token removed.
func (s *Storefront) Session() domain.Session {
	sess := s.auth.Session()
	sess.AccessToken = ""
	return sess
}

// Quote prices the cart for the current session.
func (s *Storefront) Quote() domain.Quote {
	sess := s.auth.Session()
	return pricing.Quote(s.cart.Snapshot(), &sess)
}

// Operations returns the status of every session operation.
func (s *Storefront) Operations() map[session.Kind]session.OperationStatus {
	return s.session.Statuses()
}

// Catalog returns the product list.
func (s *Storefront) Catalog(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.Products(ctx)
}

// ============================================================================
// Coordinator hooks
// ============================================================================

func (s *Storefront) onRegistered(ctx context.Context, username string) {
	s.events.SessionChanged(ctx, event.SessionChange{
		Operation: string(session.KindRegister),
		State:     s.auth.Session().State,
		Username:  username,
	})
}

func (s *Storefront) onLoggedIn(ctx context.Context, sess domain.Session) {
	s.events.SessionChanged(ctx, event.SessionChange{
		Operation: string(session.KindLogin),
		State:     sess.State,
		UserID:    sess.UserID,
		Username:  sess.Username,
	})
	if snap := s.cart.Snapshot(); !snap.IsEmpty() {
		s.cartChanged(ctx)
	}
}

func (s *Storefront) onLoggedOut(ctx context.Context) {
	s.applyCartPolicy(ctx)
	s.events.SessionChanged(ctx, event.SessionChange{
		Operation: string(session.KindLogout),
		State:     domain.AuthLoggedOut,
	})
}

func (s *Storefront) onAccountDeleted(ctx context.Context, userID string) {
	s.applyCartPolicy(ctx)
	s.events.SessionChanged(ctx, event.SessionChange{
		Operation: string(session.KindDeleteAccount),
		State:     domain.AuthUnauthenticated,
		UserID:    userID,
	})
}

func (s *Storefront) applyCartPolicy(ctx context.Context) {
	if s.opts.ClearCartOnLogout {
		s.cart.Clear()
	}
	s.cartChanged(ctx)
}

func (s *Storefront) cartChanged(ctx context.Context) {
	sess := s.auth.Session()
	snap := s.cart.Snapshot()
	s.events.CartUpdated(ctx, snap, pricing.Quote(snap, &sess))
}

// checkLineCap rejects an add that would push an existing line past
// MaxQuantityPerItem.
func (s *Storefront) checkLineCap(productID string, quantity int) error {
	if current, ok := s.cart.Get(productID); ok && current.Quantity > MaxQuantityPerItem-quantity {
		return apperrors.InvalidInput("quantity exceeds the per-item limit")
	}
	return nil
}

func checkQuantity(q int) error {
	if q < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if q > MaxQuantityPerItem {
		return apperrors.InvalidInput("quantity exceeds the per-item limit")
	}
	return nil
}
