package product

// Product carries the catalog fields the checkout pipeline needs: identity,
// display fields for the frozen order snapshot, and pricing inputs.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Image    []string `json:"image"`
	Price    int64    `json:"price"`
	Discount int64    `json:"discount"`
}
