package order

import "time"

// OrderItem is a line item with the catalog's name, image and price copied in
// at checkout so later catalog edits do not rewrite history.
type OrderItem struct {
	Name    string  `json:"name" bson:"name"`
	Qty     int     `json:"qty" bson:"qty"`
	Image   string  `json:"image" bson:"image"`
	Price   float64 `json:"price" bson:"price"`
	Product string  `json:"product" bson:"product"`
}

type ShippingAddress struct {
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

func (a ShippingAddress) complete() bool {
	return a.Address != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

type PaymentResult struct {
	ID           string `json:"id" bson:"id"`
	Status       string `json:"status" bson:"status"`
	UpdateTime   string `json:"update_time" bson:"update_time"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

// Order tracks payment and delivery as two independent flag/timestamp pairs.
// PaidAt is set iff IsPaid, DeliveredAt iff IsDelivered.
type Order struct {
	ID              string          `json:"_id" bson:"_id"`
	User            string          `json:"user" bson:"user"`
	OrderItems      []OrderItem     `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" bson:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty" bson:"paymentResult,omitempty"`
	ItemsPrice      float64         `json:"itemsPrice" bson:"itemsPrice"`
	TaxPrice        float64         `json:"taxPrice" bson:"taxPrice"`
	ShippingPrice   float64         `json:"shippingPrice" bson:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool            `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Customer is the owner summary embedded in order responses.
type Customer struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// View is an order with its owner populated. The User field shadows the
// owner id of the embedded Order when encoded.
type View struct {
	*Order
	User Customer `json:"user"`
}

type ItemInput struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
}

// CreateParams is what checkout submits. Prices sent by the client are not
// part of it and are recomputed on the server.
type CreateParams struct {
	OrderItems      []ItemInput     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}
