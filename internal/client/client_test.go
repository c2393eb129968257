package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodcourt-ordering/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeClient_CreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1590", r.PostForm.Get("amount"))
		assert.Equal(t, "myr", r.PostForm.Get("currency"))
		assert.Equal(t, "order-1", r.PostForm.Get("metadata[order_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","status":"requires_payment_method","client_secret":"cs"}`))
	}))
	defer srv.Close()

	c := NewStripeClient(&config.Stripe{BaseApiURL: srv.URL, SecretKey: "sk_test"})
	intent, err := c.CreatePaymentIntent(context.Background(), &StripeIntentInput{OrderID: "order-1", AmountMinor: 1590, Currency: "MYR"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "requires_payment_method", intent.Status)
}

func TestStripeClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer srv.Close()

	c := NewStripeClient(&config.Stripe{BaseApiURL: srv.URL, SecretKey: "sk_test"})
	_, err := c.GetPaymentIntent(context.Background(), "pi_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
	assert.Contains(t, err.Error(), "card declined")
}

func TestGrabPayClient_CreatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth/token":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			w.Write([]byte(`{"access_token":"grab-token"}`))
		case "/pay/v2/payment":
			assert.Equal(t, "Bearer grab-token", r.Header.Get("Authorization"))
			var payload map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.EqualValues(t, 420, payload["amount"])
			assert.Equal(t, "order-1", payload["merchantReferenceID"])
			w.Write([]byte(`{"paymentID":"gp_1","status":"INIT","webRedirectURL":"https://grab.example/pay"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewGrabPayClient(&config.GrabPay{BaseApiURL: srv.URL, MerchantID: "m1", ClientID: "id", ClientSecret: "secret", RedirectURL: "https://shop.example/done"})
	charge, err := c.CreatePayment(context.Background(), &GrabPayChargeInput{OrderID: "order-1", AmountMinor: 420, Currency: "MYR"})
	require.NoError(t, err)
	assert.Equal(t, "gp_1", charge.PaymentID)
	assert.Equal(t, "order-1", charge.MerchantReferenceID)
	assert.Equal(t, "https://grab.example/pay", charge.CheckoutURL)
}

func paypalServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/oauth2/token" {
			w.Write([]byte(`{"access_token":"pp-token"}`))
			return
		}
		assert.Equal(t, "Bearer pp-token", r.Header.Get("Authorization"))
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
}

func TestPaypalClient_CreateAndCapture(t *testing.T) {
	srv := paypalServer(t, map[string]string{
		"POST /v2/checkout/orders": `{"id":"PP-1","status":"CREATED","links":[{"rel":"self","href":"x"},{"rel":"approve","href":"https://paypal.example/approve"}]}`,
		"POST /v2/checkout/orders/PP-1/capture": `{"id":"PP-1","status":"COMPLETED"}`,
	})
	defer srv.Close()

	c := NewPaypalClient(&config.Paypal{BaseApiURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	created, err := c.CreateOrder(context.Background(), &PaypalOrderInput{OrderID: "order-1", Amount: "10.00", Currency: "MYR"})
	require.NoError(t, err)
	assert.Equal(t, "PP-1", created.OrderID)
	assert.Equal(t, "https://paypal.example/approve", created.ApproveURL)

	captured, err := c.CaptureOrder(context.Background(), "PP-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", captured.Status)
}

func TestPaypalClient_VerifyWebhookSignature(t *testing.T) {
	srv := paypalServer(t, map[string]string{
		"POST /v1/notifications/verify-webhook-signature": `{"verification_status":"FAILURE"}`,
	})
	defer srv.Close()

	headers := http.Header{}
	headers.Set("Paypal-Transmission-Id", "tx-1")

	unconfigured := NewPaypalClient(&config.Paypal{BaseApiURL: srv.URL})
	assert.Error(t, unconfigured.VerifyWebhookSignature(context.Background(), headers, []byte(`{}`)))

	c := NewPaypalClient(&config.Paypal{BaseApiURL: srv.URL, ClientID: "id", ClientSecret: "secret", WebhookID: "WH-1"})
	err := c.VerifyWebhookSignature(context.Background(), headers, []byte(`{"id":"evt"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILURE")
}
