package pricing

// DiscountedPrice applies a percentage discount to a unit price.
//
// The discount amount is ceil(price * discountPercent / 100), so the returned
// price rounds down relative to an exact fractional discount. The rounding
// direction is part of the pricing contract and must not change.
//
// Inputs are not validated here; callers are responsible for price >= 0 and
// discountPercent in [0,100].
func DiscountedPrice(price int64, discountPercent int64) int64 {
	discount := (price*discountPercent + 99) / 100
	return price - discount
}
