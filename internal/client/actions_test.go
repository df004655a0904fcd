package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	mux     *http.ServeMux
	server  *httptest.Server
	session *Session
	store   *Store
	actions *Actions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{mux: http.NewServeMux()}
	h.server = httptest.NewServer(h.mux)
	t.Cleanup(h.server.Close)

	h.session = NewSession(NewMemoryStorage())
	store, err := NewStore(h.session)
	require.NoError(t, err)
	h.store = store
	h.actions = NewActions(NewAPI(h.server.URL, h.server.Client()), store, h.session)
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recordPhases captures the phase sequence one slice goes through.
func recordPhases(store *Store, pick func(State) AsyncState[*user.AuthResult]) *[]string {
	var mu sync.Mutex
	phases := []string{}
	store.Subscribe(func(s State) {
		st := pick(s)
		mu.Lock()
		defer mu.Unlock()
		switch {
		case st.Loading:
			phases = append(phases, "request")
		case st.Error != "":
			phases = append(phases, "fail")
		case st.Success:
			phases = append(phases, "success")
		}
	})
	return &phases
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success persists identity", func(t *testing.T) {
		h := newHarness(t)
		h.mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "jane@example.com", in["email"])
			writeJSON(w, http.StatusOK, user.AuthResult{ID: "u1", Name: "Jane", Token: "tok"})
		})
		phases := recordPhases(h.store, func(s State) AsyncState[*user.AuthResult] { return s.UserLogin })

		require.NoError(t, h.actions.Login(ctx, "jane@example.com", "secret"))

		assert.Equal(t, []string{"request", "success"}, *phases)
		assert.Equal(t, "tok", h.store.State().Token())
		info, err := h.session.UserInfo()
		require.NoError(t, err)
		assert.Equal(t, "u1", info.ID)
	})

	t.Run("Server message wins", func(t *testing.T) {
		h := newHarness(t)
		h.mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		})
		phases := recordPhases(h.store, func(s State) AsyncState[*user.AuthResult] { return s.UserLogin })

		err := h.actions.Login(ctx, "jane@example.com", "wrong")
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, []string{"request", "fail"}, *phases)
		assert.Equal(t, "Invalid email or password", h.store.State().UserLogin.Error)
		info, _ := h.session.UserInfo()
		assert.Nil(t, info)
	})

	t.Run("Body without message falls back to status text", func(t *testing.T) {
		h := newHarness(t)
		h.mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		require.Error(t, h.actions.Login(ctx, "a@b.c", "x"))
		assert.Equal(t, "request failed with status code 502", h.store.State().UserLogin.Error)
	})

	t.Run("Transport failure", func(t *testing.T) {
		h := newHarness(t)
		h.server.Close()

		require.Error(t, h.actions.Login(ctx, "a@b.c", "x"))
		st := h.store.State().UserLogin
		assert.False(t, st.Loading)
		assert.NotEmpty(t, st.Error)
	})
}

func TestRegisterSignsIn(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusCreated, user.AuthResult{ID: "u9", Name: "A", Token: "new"})
	})

	require.NoError(t, h.actions.Register(context.Background(), "A", "a@x.com", "pw1"))

	s := h.store.State()
	assert.True(t, s.UserRegister.Success)
	assert.Equal(t, "new", s.Token())
	info, err := h.session.UserInfo()
	require.NoError(t, err)
	assert.Equal(t, "u9", info.ID)
}

func TestLogoutIsLocal(t *testing.T) {
	h := newHarness(t)
	var calls int
	h.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls++ })

	require.NoError(t, h.session.SaveUserInfo(&user.AuthResult{ID: "u1", Token: "tok"}))
	h.store.Dispatch(Success(SliceUserLogin, &user.AuthResult{ID: "u1", Token: "tok"}))
	h.store.Dispatch(Success(SliceOrderListMy, []*order.Order{{ID: "o1"}}))

	h.actions.Logout()

	assert.Zero(t, calls)
	assert.Empty(t, h.store.State().Token())
	assert.Nil(t, h.store.State().OrderListMy.Data)
	info, _ := h.session.UserInfo()
	assert.Nil(t, info)
}

func TestUpdateProfileRefreshesIdentity(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(Success(SliceUserLogin, &user.AuthResult{ID: "u1", Name: "Old", Token: "tok"}))
	h.mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, user.AuthResult{ID: "u1", Name: "New", Email: "n@x.com", Token: "tok2"})
	})

	name := "New"
	require.NoError(t, h.actions.UpdateProfile(context.Background(), user.UpdateProfileParams{Name: &name}))

	s := h.store.State()
	assert.Equal(t, "tok2", s.Token())
	assert.Equal(t, "New", s.UserDetails.Data.Name)
	assert.True(t, s.UserUpdateProfile.Success)
}

func TestProductActions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mux.HandleFunc("/api/product", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cam", r.URL.Query().Get("keyword"))
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		writeJSON(w, http.StatusOK, product.ListResult{Products: []*product.Product{{ID: "p1"}}, Page: 2, Pages: 2})
	})
	h.mux.HandleFunc("/api/product/p1/reviews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Product already reviewed"})
	})

	require.NoError(t, h.actions.ListProducts(ctx, "cam", 2))
	assert.Equal(t, 2, h.store.State().ProductList.Data.Page)

	err := h.actions.CreateReview(ctx, "p1", product.ReviewParams{Rating: 5, Comment: "again"})
	require.Error(t, err)
	assert.Equal(t, "Product already reviewed", h.store.State().ProductReview.Error)
}

func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.Dispatch(Success(SliceUserLogin, &user.AuthResult{ID: "u1", Token: "tok"}))

	h.mux.HandleFunc("/api/product/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, product.Product{ID: "p1", Name: "Airpods", Price: 89.99, CountInStock: 10})
	})
	h.mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		var params order.CreateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, []order.ItemInput{{Product: "p1", Qty: 2}}, params.OrderItems)
		assert.Equal(t, "PayPal", params.PaymentMethod)
		writeJSON(w, http.StatusCreated, order.Order{ID: "o1", User: "u1", TotalPrice: 306.97})
	})
	h.mux.HandleFunc("/api/orders/o1/pay", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var receipt payment.Receipt
		require.NoError(t, json.NewDecoder(r.Body).Decode(&receipt))
		assert.Equal(t, "PAY-1", receipt.ID)
		writeJSON(w, http.StatusOK, order.Order{ID: "o1", IsPaid: true})
	})

	require.NoError(t, h.actions.AddToCart(ctx, "p1", 2))
	h.actions.SaveShippingAddress(order.ShippingAddress{Address: "1 Main", City: "X", PostalCode: "1", Country: "Y"})
	h.actions.SavePaymentMethod("PayPal")

	persisted, err := h.session.Cart()
	require.NoError(t, err)
	assert.Len(t, persisted.Items, 1)
	assert.Equal(t, "PayPal", persisted.PaymentMethod)

	require.NoError(t, h.actions.CreateOrder(ctx))
	s := h.store.State()
	assert.Equal(t, "o1", s.OrderCreate.Data.ID)
	assert.Empty(t, s.Cart.Items)
	persisted, err = h.session.Cart()
	require.NoError(t, err)
	assert.Empty(t, persisted.Items)
	assert.Equal(t, "1 Main", persisted.ShippingAddress.Address)

	require.NoError(t, h.actions.PayOrder(ctx, "o1", payment.Receipt{ID: "PAY-1", Status: payment.StatusCompleted}))
	assert.True(t, h.store.State().OrderPay.Data.IsPaid)
}

func TestOrderDetailsPopulatesCustomer(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/orders/o1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"o1","user":{"_id":"u1","name":"Jane","email":"jane@example.com"},"totalPrice":10}`))
	})

	require.NoError(t, h.actions.OrderDetails(context.Background(), "o1"))

	v := h.store.State().OrderDetails.Data
	require.NotNil(t, v)
	assert.Equal(t, "o1", v.ID)
	assert.Equal(t, "Jane", v.User.Name)
	assert.Equal(t, 10.0, v.TotalPrice)
}

func TestPayPalClientID(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/config/paypal", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "sb-client")
	})

	id, err := NewAPI(h.server.URL+"/", nil).PayPalClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sb-client", id)
}
