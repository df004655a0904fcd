package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const (
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"
	paypalLiveURL    = "https://api-m.paypal.com"

	// tokenSkew renews an access token slightly before PayPal expires it.
	tokenSkew = 30 * time.Second
)

type PayPalGateway struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewPayPalGateway(clientID, secret, mode string) *PayPalGateway {
	if clientID == "" {
		logger.L().Warn("PayPal client id is empty")
	}

	baseURL := paypalSandboxURL
	if strings.EqualFold(mode, "live") {
		baseURL = paypalLiveURL
	}

	return &PayPalGateway{
		clientID: clientID,
		secret:   secret,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	UpdateTime    string         `json:"update_time"`
	Payer         Payer          `json:"payer"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

func (g *PayPalGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && g.now().Before(g.expiresAt) {
		return g.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.clientID, g.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := g.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		logger.FromCtx(ctx).Error("PayPal token request rejected",
			zap.Int("status", status),
			zap.ByteString("response", body),
		)
		return "", fmt.Errorf("paypal token error: status %d", status)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode paypal token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("paypal token response has no access_token")
	}

	g.accessToken = tok.AccessToken
	g.expiresAt = g.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	return g.accessToken, nil
}

func (g *PayPalGateway) do(req *http.Request) ([]byte, int, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read paypal response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Verify looks the order up at PayPal and trusts only what PayPal reports.
func (g *PayPalGateway) Verify(ctx context.Context, receipt Receipt) (*Capture, error) {
	if receipt.ID == "" {
		return nil, ErrReceiptMissingID
	}

	log := logger.FromCtx(ctx).With(zap.String("payment_id", receipt.ID))

	token, err := g.token(ctx)
	if err != nil {
		log.Error("PayPal authentication failed", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v2/checkout/orders/"+url.PathEscape(receipt.ID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	body, status, err := g.do(req)
	if err != nil {
		log.Error("PayPal request failed", zap.Error(err))
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case status == http.StatusUnauthorized:
		g.mu.Lock()
		g.accessToken = ""
		g.mu.Unlock()
		return nil, fmt.Errorf("paypal rejected access token")
	case status != http.StatusOK:
		log.Error("PayPal returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("paypal error: status %d", status)
	}

	var res orderResponse
	if err := json.Unmarshal(body, &res); err != nil {
		log.Error("failed decoding PayPal order", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, "decode paypal order", err)
	}

	amount, currency, ok, err := sumUnits(res.PurchaseUnits)
	if err != nil {
		return nil, err
	}

	log.Info("PayPal order verified", zap.String("status", res.Status), zap.String("amount", amount.StringFixed(2)))

	return &Capture{
		ID:           res.ID,
		Status:       res.Status,
		UpdateTime:   res.UpdateTime,
		EmailAddress: res.Payer.EmailAddress,
		Amount:       amount,
		Currency:     currency,
		HasAmount:    ok,
	}, nil
}
