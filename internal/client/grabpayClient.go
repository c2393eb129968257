package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foodcourt-ordering/internal/config"
)

type GrabPayClient interface {
	CreatePayment(ctx context.Context, input *GrabPayChargeInput) (*GrabPayCharge, error)
	GetPayment(ctx context.Context, paymentID string) (*GrabPayCharge, error)
}

type GrabPayChargeInput struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Description string
}

type GrabPayCharge struct {
	PaymentID           string `json:"paymentID"`
	MerchantReferenceID string `json:"merchantReferenceID"`
	Status              string `json:"status"`
	ExternalPaymentID   string `json:"externalPaymentID"`
	CheckoutURL         string `json:"webRedirectURL"`
}

type grabPayClientImpl struct {
	httpClient   *http.Client
	baseApiURL   string
	merchantID   string
	clientID     string
	clientSecret string
	redirectURL  string
}

func NewGrabPayClient(cfg *config.GrabPay) GrabPayClient {
	return &grabPayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:   cfg.BaseApiURL,
		merchantID:   cfg.MerchantID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
	}
}

func (c *grabPayClientImpl) getAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "payment")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("grabpay oauth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode grabpay token: %w", err)
	}

	return res.AccessToken, nil
}

func (c *grabPayClientImpl) do(ctx context.Context, method, path string, payload, out interface{}) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get grabpay access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-Id", c.merchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("grabpay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("grabpay error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode grabpay response: %w", err)
	}
	return nil
}

func (c *grabPayClientImpl) CreatePayment(ctx context.Context, input *GrabPayChargeInput) (*GrabPayCharge, error) {
	payload := map[string]interface{}{
		"amount":              input.AmountMinor,
		"currency":            input.Currency,
		"merchantID":          c.merchantID,
		"merchantReferenceID": input.OrderID,
		"merchantRedirectURL": fmt.Sprintf("%s?order_id=%s", c.redirectURL, url.QueryEscape(input.OrderID)),
		"description":         input.Description,
	}

	var charge GrabPayCharge
	if err := c.do(ctx, http.MethodPost, "/pay/v2/payment", payload, &charge); err != nil {
		return nil, err
	}
	if charge.MerchantReferenceID == "" {
		charge.MerchantReferenceID = input.OrderID
	}

	return &charge, nil
}

func (c *grabPayClientImpl) GetPayment(ctx context.Context, paymentID string) (*GrabPayCharge, error) {
	var charge GrabPayCharge
	if err := c.do(ctx, http.MethodGet, "/pay/v2/payment/"+url.PathEscape(paymentID), nil, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}
