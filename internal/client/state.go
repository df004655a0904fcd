package client

import (
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
)

// AsyncState tracks one kind of request: whether it is in flight, how it
// last ended and what it returned.
type AsyncState[T any] struct {
	Loading bool
	Success bool
	Error   string
	Data    T
}

// Done is an AsyncState for calls that return nothing worth keeping.
type Done struct{}

type State struct {
	UserLogin         AsyncState[*user.AuthResult]
	UserRegister      AsyncState[*user.AuthResult]
	UserDetails       AsyncState[*user.User]
	UserUpdateProfile AsyncState[*user.AuthResult]
	UserList          AsyncState[[]*user.User]
	UserDelete        AsyncState[Done]
	UserUpdate        AsyncState[*user.User]

	ProductList    AsyncState[*product.ListResult]
	ProductDetails AsyncState[*product.Product]
	ProductTop     AsyncState[[]*product.Product]
	ProductCreate  AsyncState[*product.Product]
	ProductUpdate  AsyncState[*product.Product]
	ProductDelete  AsyncState[Done]
	ProductReview  AsyncState[Done]

	OrderCreate  AsyncState[*order.Order]
	OrderDetails AsyncState[*order.View]
	OrderPay     AsyncState[*order.Order]
	OrderDeliver AsyncState[*order.Order]
	OrderListMy  AsyncState[[]*order.Order]
	OrderList    AsyncState[[]*order.View]

	Cart Cart
}

// Token is the bearer token of the signed-in user, or "".
func (s State) Token() string {
	if s.UserLogin.Data == nil {
		return ""
	}
	return s.UserLogin.Data.Token
}
