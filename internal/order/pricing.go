package order

import "github.com/shopspring/decimal"

type Policy struct {
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingPrice         float64
	// Currency is the ISO code every payment must be captured in.
	Currency string
}

type Prices struct {
	Items    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate prices a basket. Shipping is free strictly above the threshold and
// every component is rounded half-up to cents before it is summed.
func (p Policy) Calculate(items []OrderItem) Prices {
	itemsPrice := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty)))
		itemsPrice = itemsPrice.Add(line)
	}
	itemsPrice = itemsPrice.Round(2)

	shipping := decimal.NewFromFloat(p.ShippingPrice).Round(2)
	if itemsPrice.GreaterThan(decimal.NewFromFloat(p.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	tax := itemsPrice.Mul(decimal.NewFromFloat(p.TaxRate)).Round(2)

	return Prices{
		Items:    itemsPrice,
		Shipping: shipping,
		Tax:      tax,
		Total:    itemsPrice.Add(shipping).Add(tax).Round(2),
	}
}

func (pr Prices) apply(o *Order) {
	o.ItemsPrice = pr.Items.InexactFloat64()
	o.ShippingPrice = pr.Shipping.InexactFloat64()
	o.TaxPrice = pr.Tax.InexactFloat64()
	o.TotalPrice = pr.Total.InexactFloat64()
}
