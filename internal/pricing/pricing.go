// Package pricing derives what the shopper pays from the cart and the
// session. It holds no state.
package pricing

import "github.com/utafrali/storefront/internal/domain"

// Subtotaler is anything that can report an undiscounted total in cents.
// Both *cart.Store and *domain.Cart qualify.
type Subtotaler interface {
	Subtotal() int64
}

// RoundHalfUp divides numerator by denominator rounding halves away from
// zero. denominator must be positive.
func RoundHalfUp(numerator, denominator int64) int64 {
	if numerator < 0 {
		return -((-numerator*2 + denominator) / (2 * denominator))
	}
	return (numerator*2 + denominator) / (2 * denominator)
}

// PayableTotal is the subtotal reduced by the session's member discount,
// rounded half-up to the cent. A nil or guest session pays the subtotal.
func PayableTotal(cart Subtotaler, session *domain.Session) int64 {
	return discounted(cart.Subtotal(), session.Discount())
}

// Quote returns the full price breakdown of a cart snapshot.
func Quote(cart domain.Cart, session *domain.Session) domain.Quote {
	subtotal := cart.Subtotal()
	pct := session.Discount()
	total := discounted(subtotal, pct)
	return domain.Quote{
		ItemCount:       cart.ItemCount(),
		Subtotal:        subtotal,
		DiscountPercent: pct,
		Discount:        subtotal - total,
		Total:           total,
	}
}

func discounted(subtotal int64, pct int) int64 {
	if pct <= 0 {
		return subtotal
	}
	if pct > 100 {
		pct = 100
	}
	return RoundHalfUp(subtotal*int64(100-pct), 100)
}
