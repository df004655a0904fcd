package client

import (
	"context"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"go.uber.org/zap"
)

// Actions runs API calls against a Store. Every call dispatches Request,
// then exactly one of Success or Fail for its slice, and returns the same
// error it dispatched.
type Actions struct {
	api     *API
	store   *Store
	session *Session
}

func NewActions(api *API, store *Store, session *Session) *Actions {
	return &Actions{api: api, store: store, session: session}
}

func (a *Actions) token() string {
	return a.store.State().Token()
}

// persist logs instead of failing: the server call already succeeded.
func (a *Actions) persist(what string, err error) {
	if err != nil {
		logger.L().Warn("client: failed to persist session", zap.String("key", what), zap.Error(err))
	}
}

// run wraps one API call in the request lifecycle of slice.
func run[T any](a *Actions, slice Slice, call func() (T, error)) (T, error) {
	a.store.Dispatch(Request(slice))
	res, err := call()
	if err != nil {
		a.store.Dispatch(Fail(slice, err))
		return res, err
	}
	a.store.Dispatch(Success(slice, res))
	return res, nil
}

func (a *Actions) signedIn(info *user.AuthResult) {
	a.store.Dispatch(Success(SliceUserLogin, info))
	if a.session != nil {
		a.persist(KeyUserInfo, a.session.SaveUserInfo(info))
	}
}

func (a *Actions) Login(ctx context.Context, email, password string) error {
	info, err := run(a, SliceUserLogin, func() (*user.AuthResult, error) {
		return a.api.Login(ctx, email, password)
	})
	if err != nil {
		return err
	}
	if a.session != nil {
		a.persist(KeyUserInfo, a.session.SaveUserInfo(info))
	}
	return nil
}

// Register signs the new account in on success.
func (a *Actions) Register(ctx context.Context, name, email, password string) error {
	info, err := run(a, SliceUserRegister, func() (*user.AuthResult, error) {
		return a.api.Register(ctx, name, email, password)
	})
	if err != nil {
		return err
	}
	a.signedIn(info)
	return nil
}

// Logout is local only: nothing is sent to the server.
func (a *Actions) Logout() {
	if a.session != nil {
		a.persist(KeyUserInfo, a.session.ClearUserInfo())
	}
	a.store.Dispatch(LoggedOut{})
}

// UserDetails loads the caller's profile for id "profile" and any user's
// record otherwise (admin only).
func (a *Actions) UserDetails(ctx context.Context, id string) error {
	_, err := run(a, SliceUserDetails, func() (*user.User, error) {
		if id == "profile" {
			return a.api.Profile(ctx, a.token())
		}
		return a.api.GetUser(ctx, a.token(), id)
	})
	return err
}

// UpdateProfile also refreshes the signed-in identity and the profile details.
func (a *Actions) UpdateProfile(ctx context.Context, params user.UpdateProfileParams) error {
	info, err := run(a, SliceUserUpdateProfile, func() (*user.AuthResult, error) {
		return a.api.UpdateProfile(ctx, a.token(), params)
	})
	if err != nil {
		return err
	}

	a.signedIn(info)
	a.store.Dispatch(Success(SliceUserDetails, &user.User{
		ID:      info.ID,
		Name:    info.Name,
		Email:   info.Email,
		IsAdmin: info.IsAdmin,
	}))
	return nil
}

func (a *Actions) ListUsers(ctx context.Context) error {
	_, err := run(a, SliceUserList, func() ([]*user.User, error) {
		return a.api.ListUsers(ctx, a.token())
	})
	return err
}

func (a *Actions) DeleteUser(ctx context.Context, id string) error {
	_, err := run(a, SliceUserDelete, func() (Done, error) {
		return Done{}, a.api.DeleteUser(ctx, a.token(), id)
	})
	return err
}

func (a *Actions) UpdateUser(ctx context.Context, id string, params user.AdminUpdateParams) error {
	_, err := run(a, SliceUserUpdate, func() (*user.User, error) {
		return a.api.UpdateUser(ctx, a.token(), id, params)
	})
	return err
}

func (a *Actions) ListProducts(ctx context.Context, keyword string, page int) error {
	_, err := run(a, SliceProductList, func() (*product.ListResult, error) {
		return a.api.ListProducts(ctx, keyword, page)
	})
	return err
}

func (a *Actions) TopProducts(ctx context.Context) error {
	_, err := run(a, SliceProductTop, func() ([]*product.Product, error) {
		return a.api.TopProducts(ctx)
	})
	return err
}

func (a *Actions) ProductDetails(ctx context.Context, id string) error {
	_, err := run(a, SliceProductDetails, func() (*product.Product, error) {
		return a.api.GetProduct(ctx, id)
	})
	return err
}

func (a *Actions) CreateProduct(ctx context.Context) error {
	_, err := run(a, SliceProductCreate, func() (*product.Product, error) {
		return a.api.CreateProduct(ctx, a.token())
	})
	return err
}

func (a *Actions) UpdateProduct(ctx context.Context, id string, params product.UpdateParams) error {
	_, err := run(a, SliceProductUpdate, func() (*product.Product, error) {
		return a.api.UpdateProduct(ctx, a.token(), id, params)
	})
	return err
}

func (a *Actions) DeleteProduct(ctx context.Context, id string) error {
	_, err := run(a, SliceProductDelete, func() (Done, error) {
		return Done{}, a.api.DeleteProduct(ctx, a.token(), id)
	})
	return err
}

func (a *Actions) CreateReview(ctx context.Context, productID string, params product.ReviewParams) error {
	_, err := run(a, SliceProductReview, func() (Done, error) {
		return Done{}, a.api.CreateReview(ctx, a.token(), productID, params)
	})
	return err
}

// CreateOrder places the current cart and empties it on success.
func (a *Actions) CreateOrder(ctx context.Context) error {
	params := a.store.State().Cart.OrderParams()
	_, err := run(a, SliceOrderCreate, func() (*order.Order, error) {
		return a.api.CreateOrder(ctx, a.token(), params)
	})
	if err != nil {
		return err
	}

	a.store.Dispatch(CartClearItems{})
	if a.session != nil {
		a.persist(KeyCartItems, a.session.ClearCartItems())
	}
	return nil
}

func (a *Actions) OrderDetails(ctx context.Context, id string) error {
	_, err := run(a, SliceOrderDetails, func() (*order.View, error) {
		return a.api.GetOrder(ctx, a.token(), id)
	})
	return err
}

func (a *Actions) PayOrder(ctx context.Context, id string, receipt payment.Receipt) error {
	_, err := run(a, SliceOrderPay, func() (*order.Order, error) {
		return a.api.PayOrder(ctx, a.token(), id, receipt)
	})
	return err
}

func (a *Actions) DeliverOrder(ctx context.Context, id string) error {
	_, err := run(a, SliceOrderDeliver, func() (*order.Order, error) {
		return a.api.DeliverOrder(ctx, a.token(), id)
	})
	return err
}

func (a *Actions) MyOrders(ctx context.Context) error {
	_, err := run(a, SliceOrderListMy, func() ([]*order.Order, error) {
		return a.api.MyOrders(ctx, a.token())
	})
	return err
}

func (a *Actions) ListOrders(ctx context.Context) error {
	_, err := run(a, SliceOrderList, func() ([]*order.View, error) {
		return a.api.ListOrders(ctx, a.token())
	})
	return err
}

// AddToCart snapshots the product's current details into the cart.
func (a *Actions) AddToCart(ctx context.Context, productID string, qty int) error {
	p, err := a.api.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	a.store.Dispatch(CartAddItem{Item: CartItem{
		Product:      p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Price:        p.Price,
		CountInStock: p.CountInStock,
		Qty:          qty,
	}})
	a.saveCartItems()
	return nil
}

func (a *Actions) RemoveFromCart(productID string) {
	a.store.Dispatch(CartRemoveItem{ProductID: productID})
	a.saveCartItems()
}

func (a *Actions) SaveShippingAddress(addr order.ShippingAddress) {
	a.store.Dispatch(CartSaveShipping{Address: addr})
	if a.session != nil {
		a.persist(KeyShippingAddress, a.session.SaveShippingAddress(addr))
	}
}

func (a *Actions) SavePaymentMethod(method string) {
	a.store.Dispatch(CartSavePaymentMethod{Method: method})
	if a.session != nil {
		a.persist(KeyPaymentMethod, a.session.SavePaymentMethod(method))
	}
}

func (a *Actions) saveCartItems() {
	if a.session != nil {
		a.persist(KeyCartItems, a.session.SaveCartItems(a.store.State().Cart.Items))
	}
}
