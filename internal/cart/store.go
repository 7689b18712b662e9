// Package cart holds the shopper's cart: an ordered list of product lines
// with quantities and the unit price captured when each product was added.
package cart

import (
	"math"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
)

// Store is the single cart of the running storefront. All operations are
// total: invalid input is ignored rather than reported, and the store is
// safe for concurrent use. Quantities, the item count and the subtotal
// never overflow; a change that would is ignored.
type Store struct {
	mu    sync.RWMutex
	items []domain.CartItem
}

// NewStore creates an empty cart.
func NewStore() *Store {
	return &Store{}
}

// AddItem adds quantity units of productID. An existing line is incremented
// and keeps its original unit price; a new line is appended with unitPrice
// as its snapshot. Non-positive quantities, negative prices and empty ids
// are ignored.
func (s *Store) AddItem(productID string, unitPrice int64, quantity int) {
	s.add(domain.CartItem{ProductID: productID, UnitPrice: unitPrice, Quantity: quantity})
}

// AddProduct is AddItem with the display fields of p snapshotted as well.
func (s *Store) AddProduct(p domain.Product, quantity int) {
	s.add(domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.Image,
		UnitPrice: p.Price,
		Quantity:  quantity,
	})
}

func (s *Store) add(item domain.CartItem) {
	if item.ProductID == "" || item.Quantity <= 0 || item.UnitPrice < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			if s.items[i].Quantity > math.MaxInt-item.Quantity {
				return
			}
			next := s.items[i]
			next.Quantity += item.Quantity
			if !s.fits(i, next) {
				return
			}
			s.items[i] = next
			s.observe()
			return
		}
	}
	if !s.fits(-1, item) {
		return
	}
	s.items = append(s.items, item)
	s.observe()
}

// RemoveItem deletes the line for productID. Unknown ids are a no-op.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.observe()
			return
		}
	}
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero
// or less removes the line. The unit price is never touched. A quantity
// whose totals would overflow is ignored.
func (s *Store) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			next := s.items[i]
			next.Quantity = quantity
			if !s.fits(i, next) {
				return
			}
			s.items[i] = next
			s.observe()
			return
		}
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.observe()
}

// TotalItemCount is the sum of all quantities (the cart badge).
func (s *Store) TotalItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart().ItemCount()
}

// Subtotal is the undiscounted total in cents.
func (s *Store) Subtotal() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart().Subtotal()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Snapshot returns a detached copy of the cart.
func (s *Store) Snapshot() domain.Cart {
	return domain.Cart{Items: s.Items()}
}

// Get returns the line for productID.
func (s *Store) Get(productID string) (domain.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

// fits reports whether the cart would still have representable totals with
// item stored at index i, or appended when i is negative. Callers must hold
// mu.
func (s *Store) fits(i int, item domain.CartItem) bool {
	if item.UnitPrice > 0 && int64(item.Quantity) > math.MaxInt64/item.UnitPrice {
		return false
	}
	count, total := item.Quantity, item.LineTotal()
	for j, other := range s.items {
		if j == i {
			continue
		}
		if count > math.MaxInt-other.Quantity || total > math.MaxInt64-other.LineTotal() {
			return false
		}
		count += other.Quantity
		total += other.LineTotal()
	}
	return true
}

// cart wraps the live slice without copying. Callers must hold mu.
func (s *Store) cart() *domain.Cart {
	return &domain.Cart{Items: s.items}
}

// observe publishes the cart gauges. Callers must hold mu.
func (s *Store) observe() {
	c := s.cart()
	cartItems.Set(float64(c.ItemCount()))
	cartSubtotal.Set(float64(c.Subtotal()))
}
