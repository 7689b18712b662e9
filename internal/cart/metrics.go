package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_items",
		Help: "Total quantity of items currently in the cart.",
	})

	cartSubtotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_subtotal_cents",
		Help: "Undiscounted cart subtotal in cents.",
	})
)
