package client

import (
	"storefront-be/internal/order"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	Product      string  `json:"product"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	Price        float64 `json:"price"`
	CountInStock int     `json:"countInStock"`
	Qty          int     `json:"qty"`
}

type Cart struct {
	Items           []CartItem
	ShippingAddress order.ShippingAddress
	PaymentMethod   string
}

// Subtotal is the cart value before shipping and tax, rounded to cents. The
// server recomputes prices when the order is placed.
func (c Cart) Subtotal() float64 {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return sum.Round(2).InexactFloat64()
}

func (c Cart) OrderParams() order.CreateParams {
	items := make([]order.ItemInput, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, order.ItemInput{Product: it.Product, Qty: it.Qty})
	}
	return order.CreateParams{
		OrderItems:      items,
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
	}
}

type (
	// CartAddItem replaces any line for the same product.
	CartAddItem           struct{ Item CartItem }
	CartRemoveItem        struct{ ProductID string }
	CartSaveShipping      struct{ Address order.ShippingAddress }
	CartSavePaymentMethod struct{ Method string }
	CartClearItems        struct{}
)

func (CartAddItem) isAction()           {}
func (CartRemoveItem) isAction()        {}
func (CartSaveShipping) isAction()      {}
func (CartSavePaymentMethod) isAction() {}
func (CartClearItems) isAction()        {}

func reduceCart(c Cart, a Action) Cart {
	switch a := a.(type) {
	case CartAddItem:
		items := make([]CartItem, 0, len(c.Items)+1)
		replaced := false
		for _, it := range c.Items {
			if it.Product == a.Item.Product {
				items = append(items, a.Item)
				replaced = true
				continue
			}
			items = append(items, it)
		}
		if !replaced {
			items = append(items, a.Item)
		}
		c.Items = items
	case CartRemoveItem:
		items := make([]CartItem, 0, len(c.Items))
		for _, it := range c.Items {
			if it.Product != a.ProductID {
				items = append(items, it)
			}
		}
		c.Items = items
	case CartSaveShipping:
		c.ShippingAddress = a.Address
	case CartSavePaymentMethod:
		c.PaymentMethod = a.Method
	case CartClearItems:
		c.Items = nil
	}
	return c
}
