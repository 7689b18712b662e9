package mockbackend

import "encoding/json"

// catalogProduct is the wire shape of a catalog entry: numeric id and a
// decimal price in the shop currency.
type catalogProduct struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Image string      `json:"image"`
}

var seedProducts = []catalogProduct{
	{ID: 1, Name: "Red Rose Bouquet", Price: "24.99", Image: "/images/red-rose.jpg"},
	{ID: 2, Name: "White Lily", Price: "18.50", Image: "/images/white-lily.jpg"},
	{ID: 3, Name: "Sunflower Bunch", Price: "12", Image: "/images/sunflower.jpg"},
	{ID: 4, Name: "Orchid in Pot", Price: "39.95", Image: "/images/orchid.jpg"},
	{ID: 5, Name: "Tulip Mix", Price: "15.75", Image: "/images/tulip-mix.jpg"},
	{ID: 6, Name: "Lavender Sprigs", Price: "9.99", Image: "/images/lavender.jpg"},
}
