// Package client is a Go storefront client: a typed API wrapper, a session
// persisted to disk and a reducer-driven store of request state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"
)

const defaultTimeout = 15 * time.Second

type API struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPI targets the server at baseURL. A nil httpClient gets a default with
// a timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (a *API) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &Error{Err: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return &Error{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var eb utils.ErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
			apiErr.Message = eb.Message
		} else {
			apiErr.Err = fmt.Errorf("request failed with status code %d", resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (a *API) Login(ctx context.Context, email, password string) (*user.AuthResult, error) {
	var res user.AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/users/login", "", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Register(ctx context.Context, name, email, password string) (*user.AuthResult, error) {
	var res user.AuthResult
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/users", "", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Profile(ctx context.Context, token string) (*user.User, error) {
	var u user.User
	if err := a.do(ctx, http.MethodGet, "/api/users/profile", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) UpdateProfile(ctx context.Context, token string, params user.UpdateProfileParams) (*user.AuthResult, error) {
	var res user.AuthResult
	if err := a.do(ctx, http.MethodPut, "/api/users/profile", token, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) ListUsers(ctx context.Context, token string) ([]*user.User, error) {
	var users []*user.User
	if err := a.do(ctx, http.MethodGet, "/api/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (a *API) GetUser(ctx context.Context, token, id string) (*user.User, error) {
	var u user.User
	if err := a.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) UpdateUser(ctx context.Context, token, id string, params user.AdminUpdateParams) (*user.User, error) {
	var u user.User
	if err := a.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), token, params, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) DeleteUser(ctx context.Context, token, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), token, nil, nil)
}

func (a *API) ListProducts(ctx context.Context, keyword string, page int) (*product.ListResult, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("pageNumber", strconv.Itoa(page))

	var res product.ListResult
	if err := a.do(ctx, http.MethodGet, "/api/product?"+q.Encode(), "", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) AllProducts(ctx context.Context) ([]*product.Product, error) {
	var products []*product.Product
	if err := a.do(ctx, http.MethodGet, "/api/product/all", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (a *API) TopProducts(ctx context.Context) ([]*product.Product, error) {
	var products []*product.Product
	if err := a.do(ctx, http.MethodGet, "/api/product/top", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (a *API) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := a.do(ctx, http.MethodGet, "/api/product/"+url.PathEscape(id), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) CreateProduct(ctx context.Context, token string) (*product.Product, error) {
	var p product.Product
	if err := a.do(ctx, http.MethodPost, "/api/product", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) UpdateProduct(ctx context.Context, token, id string, params product.UpdateParams) (*product.Product, error) {
	var p product.Product
	if err := a.do(ctx, http.MethodPut, "/api/product/"+url.PathEscape(id), token, params, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) DeleteProduct(ctx context.Context, token, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/product/"+url.PathEscape(id), token, nil, nil)
}

func (a *API) CreateReview(ctx context.Context, token, productID string, params product.ReviewParams) error {
	return a.do(ctx, http.MethodPost, "/api/product/"+url.PathEscape(productID)+"/reviews", token, params, nil)
}

func (a *API) CreateOrder(ctx context.Context, token string, params order.CreateParams) (*order.Order, error) {
	var o order.Order
	if err := a.do(ctx, http.MethodPost, "/api/orders", token, params, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *API) GetOrder(ctx context.Context, token, id string) (*order.View, error) {
	v := &order.View{Order: &order.Order{}}
	if err := a.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), token, nil, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (a *API) MyOrders(ctx context.Context, token string) ([]*order.Order, error) {
	var orders []*order.Order
	if err := a.do(ctx, http.MethodGet, "/api/orders/myorders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (a *API) ListOrders(ctx context.Context, token string) ([]*order.View, error) {
	var views []*order.View
	if err := a.do(ctx, http.MethodGet, "/api/orders", token, nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (a *API) PayOrder(ctx context.Context, token, id string, receipt payment.Receipt) (*order.Order, error) {
	var o order.Order
	if err := a.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id)+"/pay", token, receipt, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *API) DeliverOrder(ctx context.Context, token, id string) (*order.Order, error) {
	var o order.Order
	if err := a.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id)+"/deliver", token, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *API) PayPalClientID(ctx context.Context) (string, error) {
	var id string
	if err := a.do(ctx, http.MethodGet, "/api/config/paypal", "", nil, &id); err != nil {
		return "", err
	}
	return id, nil
}
