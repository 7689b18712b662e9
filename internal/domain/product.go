package domain

// Product is a catalog entry. Price is in cents.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image,omitempty"`
}

// Quote is the priced breakdown of a cart for one session.
type Quote struct {
	ItemCount       int   `json:"item_count"`
	Subtotal        int64 `json:"subtotal"`
	DiscountPercent int   `json:"discount_percent"`
	Discount        int64 `json:"discount"`
	Total           int64 `json:"total"`
}
