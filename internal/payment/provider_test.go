package payment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"foodcourt-ordering/internal/client"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	generic := NewGenericProvider("s", true)
	mock := NewMockProvider(NewMemoryLedger(), "s", true)
	registry := NewRegistry(generic, mock)

	p, err := registry.Get("MOCK")
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	_, err = registry.Get("stripe")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	assert.Equal(t, "mock", registry.ForWebhook("mock").Name())
	assert.Equal(t, "generic", registry.ForWebhook("anything").Name())
	assert.Equal(t, []string{"mock"}, registry.Names())
}

func TestMinorUnits(t *testing.T) {
	assert.EqualValues(t, 1590, minorUnits(decimal.RequireFromString("15.90")))
	assert.EqualValues(t, 1, minorUnits(decimal.RequireFromString("0.005")))
	assert.EqualValues(t, 0, minorUnits(decimal.Zero))
}

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	p := NewMockProvider(NewMemoryLedger(), "whsec", true)

	result, err := p.CreatePayment(ctx, PaymentRequest{OrderID: "order-1", Amount: decimal.RequireFromString("9.50")})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)

	status, err := p.GetStatus(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	body, headers, err := p.SimulateWebhook(result.PaymentID, StatusPaid)
	require.NoError(t, err)
	require.NoError(t, p.VerifyWebhook(ctx, headers, body))

	webhook, err := p.ParseWebhook(headers, body)
	require.NoError(t, err)
	assert.Equal(t, &NormalizedWebhook{
		PaymentID:     result.PaymentID,
		OrderID:       "order-1",
		Status:        StatusPaid,
		TransactionID: "txn_" + result.PaymentID,
	}, webhook)

	status, err = p.GetStatus(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	status, err = p.GetStatus(ctx, "mock_unknown")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)

	_, _, err = p.SimulateWebhook("mock_unknown", StatusPaid)
	assert.Error(t, err)
}

func TestGenericProvider_ParseWebhook(t *testing.T) {
	p := NewGenericProvider("", false)

	tests := []struct {
		name string
		body string
		want NormalizedWebhook
	}{
		{
			name: "camel case",
			body: `{"paymentId":"p1","orderId":"o1","status":"succeeded","transactionId":"t1"}`,
			want: NormalizedWebhook{PaymentID: "p1", OrderID: "o1", Status: StatusPaid, TransactionID: "t1"},
		},
		{
			name: "snake case",
			body: `{"payment_id":"p2","order_id":"o2","state":"failed"}`,
			want: NormalizedWebhook{PaymentID: "p2", OrderID: "o2", Status: StatusFailed},
		},
		{
			name: "grab style reference",
			body: `{"id":123,"merchantReferenceID":"o3","status":"processing"}`,
			want: NormalizedWebhook{PaymentID: "123", OrderID: "o3", Status: StatusProcessing},
		},
		{
			name: "unknown status",
			body: `{"reference":"o4","status":"disputed"}`,
			want: NormalizedWebhook{OrderID: "o4", Status: StatusUnknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseWebhook(nil, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, &tt.want, got)
		})
	}

	_, err := p.ParseWebhook(nil, []byte("[1,2"))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = p.CreatePayment(context.Background(), PaymentRequest{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

type fakeStripeClient struct {
	input  *client.StripeIntentInput
	intent *client.StripePaymentIntent
	err    error
}

func (f *fakeStripeClient) CreatePaymentIntent(_ context.Context, input *client.StripeIntentInput) (*client.StripePaymentIntent, error) {
	f.input = input
	return f.intent, f.err
}

func (f *fakeStripeClient) GetPaymentIntent(context.Context, string) (*client.StripePaymentIntent, error) {
	return f.intent, f.err
}

func TestStripeProvider(t *testing.T) {
	ctx := context.Background()
	fake := &fakeStripeClient{intent: &client.StripePaymentIntent{ID: "pi_1", Status: "requires_payment_method"}}
	p := NewStripeProvider(fake, "whsec")

	result, err := p.CreatePayment(ctx, PaymentRequest{OrderID: "o1", Amount: decimal.RequireFromString("15.90"), Currency: "MYR"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", result.PaymentID)
	assert.Equal(t, StatusPending, result.Status)
	assert.EqualValues(t, 1590, fake.input.AmountMinor)
	assert.Equal(t, "o1", fake.input.OrderID)

	fake.intent.Status = "succeeded"
	status, err := p.GetStatus(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	fake.err = errors.New("boom")
	_, err = p.GetStatus(ctx, "pi_1")
	assert.Error(t, err)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded","latest_charge":"ch_1","metadata":{"order_id":"o1"}}}}`)
	signedAt := time.Unix(1700000000, 0)
	headers := http.Header{}
	headers.Set("Stripe-Signature", stripeHeader("whsec", signedAt, body))

	p.now = func() time.Time { return signedAt.Add(time.Minute) }
	require.NoError(t, p.VerifyWebhook(ctx, headers, body))

	p.now = func() time.Time { return signedAt.Add(time.Hour) }
	assert.ErrorIs(t, p.VerifyWebhook(ctx, headers, body), ErrInvalidSignature)
	assert.NoError(t, p.VerifyWebhook(WithReplay(ctx), headers, body))

	webhook, err := p.ParseWebhook(headers, body)
	require.NoError(t, err)
	assert.Equal(t, &NormalizedWebhook{PaymentID: "pi_1", OrderID: "o1", Status: StatusPaid, TransactionID: "ch_1"}, webhook)

	failed, err := p.ParseWebhook(headers, []byte(`{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2"}}}`))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)

	other, err := p.ParseWebhook(headers, []byte(`{"type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`))
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, other.Status)
}

type fakeGrabPayClient struct {
	charge *client.GrabPayCharge
}

func (f *fakeGrabPayClient) CreatePayment(_ context.Context, input *client.GrabPayChargeInput) (*client.GrabPayCharge, error) {
	charge := *f.charge
	charge.MerchantReferenceID = input.OrderID
	return &charge, nil
}

func (f *fakeGrabPayClient) GetPayment(context.Context, string) (*client.GrabPayCharge, error) {
	return f.charge, nil
}

func TestGrabPayProvider(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGrabPayClient{charge: &client.GrabPayCharge{PaymentID: "gp_1", Status: "INIT", CheckoutURL: "https://grab.example/pay"}}
	p := NewGrabPayProvider(fake, "grab-secret")

	result, err := p.CreatePayment(ctx, PaymentRequest{OrderID: "o1", Amount: decimal.RequireFromString("4.20")})
	require.NoError(t, err)
	assert.Equal(t, "gp_1", result.PaymentID)
	assert.Equal(t, "https://grab.example/pay", result.CheckoutURL)

	status, err := p.GetStatus(ctx, "gp_1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	body := []byte(`{"paymentID":"gp_1","merchantReferenceID":"o1","status":"SUCCESS","externalPaymentID":"ext_1"}`)
	headers := http.Header{}
	headers.Set(grabPaySignatureHeader, Sign("grab-secret", body))
	require.NoError(t, p.VerifyWebhook(ctx, headers, body))

	// the shared mock header is not accepted for GrabPay
	wrongHeader := http.Header{}
	wrongHeader.Set(SignatureHeader, Sign("grab-secret", body))
	assert.ErrorIs(t, p.VerifyWebhook(ctx, wrongHeader, body), ErrInvalidSignature)

	webhook, err := p.ParseWebhook(headers, body)
	require.NoError(t, err)
	assert.Equal(t, &NormalizedWebhook{PaymentID: "gp_1", OrderID: "o1", Status: StatusPaid, TransactionID: "ext_1"}, webhook)
}

type fakePaypalClient struct {
	input     *client.PaypalOrderInput
	order     *client.PaypalOrder
	verifyErr error
}

func (f *fakePaypalClient) CreateOrder(_ context.Context, input *client.PaypalOrderInput) (*client.CreateOrderResponse, error) {
	f.input = input
	return &client.CreateOrderResponse{OrderID: "PP-1", ApproveURL: "https://paypal.example/approve", Status: "CREATED"}, nil
}

func (f *fakePaypalClient) GetOrder(context.Context, string) (*client.PaypalOrder, error) {
	return f.order, nil
}

func (f *fakePaypalClient) CaptureOrder(context.Context, string) (*client.PaypalOrder, error) {
	return &client.PaypalOrder{ID: f.order.ID, Status: "COMPLETED"}, nil
}

func (f *fakePaypalClient) VerifyWebhookSignature(context.Context, http.Header, []byte) error {
	return f.verifyErr
}

func TestPaypalProvider(t *testing.T) {
	ctx := context.Background()
	fake := &fakePaypalClient{order: &client.PaypalOrder{ID: "PP-1", Status: "APPROVED"}}
	p := NewPaypalProvider(fake, "https://shop.example/api/v1")

	result, err := p.CreatePayment(ctx, PaymentRequest{OrderID: "o1", Amount: decimal.RequireFromString("12.5"), Currency: "MYR"})
	require.NoError(t, err)
	assert.Equal(t, "PP-1", result.PaymentID)
	assert.Equal(t, StatusPending, result.Status)
	assert.Equal(t, "https://paypal.example/approve", result.CheckoutURL)
	assert.Equal(t, "12.50", fake.input.Amount)
	assert.Equal(t, "https://shop.example/api/v1/payment/paypal/return", fake.input.ReturnURL)

	status, err := p.GetStatus(ctx, "PP-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, status)

	status, err = p.Capture(ctx, "PP-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	assert.NoError(t, p.VerifyWebhook(ctx, http.Header{}, nil))
	fake.verifyErr = errors.New("verification_status FAILURE")
	assert.ErrorIs(t, p.VerifyWebhook(ctx, http.Header{}, nil), ErrInvalidSignature)

	tests := []struct {
		name string
		body string
		want NormalizedWebhook
	}{
		{
			name: "capture completed",
			body: `{"event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","custom_id":"o1","supplementary_data":{"related_ids":{"order_id":"PP-1"}}}}`,
			want: NormalizedWebhook{PaymentID: "PP-1", OrderID: "o1", Status: StatusPaid, TransactionID: "CAP-1"},
		},
		{
			name: "capture denied",
			body: `{"event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"CAP-2","custom_id":"o1","supplementary_data":{"related_ids":{"order_id":"PP-1"}}}}`,
			want: NormalizedWebhook{PaymentID: "PP-1", OrderID: "o1", Status: StatusFailed, TransactionID: "CAP-2"},
		},
		{
			name: "checkout approved",
			body: `{"event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"PP-1","purchase_units":[{"custom_id":"o1"}]}}`,
			want: NormalizedWebhook{PaymentID: "PP-1", OrderID: "o1", Status: StatusProcessing},
		},
		{
			name: "unrelated event",
			body: `{"event_type":"BILLING.SUBSCRIPTION.CREATED","resource":{"id":"I-1"}}`,
			want: NormalizedWebhook{PaymentID: "I-1", Status: StatusUnknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseWebhook(nil, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, &tt.want, got)
		})
	}
}

type fakeBraintreeClient struct {
	tx           *braintree.Transaction
	notification *braintree.WebhookNotification
	err          error
	nonce        string
}

func (f *fakeBraintreeClient) Sale(_ context.Context, nonce string, _ decimal.Decimal, _ string) (*braintree.Transaction, error) {
	f.nonce = nonce
	return f.tx, f.err
}

func (f *fakeBraintreeClient) FindTransaction(context.Context, string) (*braintree.Transaction, error) {
	return f.tx, f.err
}

func (f *fakeBraintreeClient) ParseWebhook(string, string) (*braintree.WebhookNotification, error) {
	return f.notification, f.err
}

func TestBraintreeProvider(t *testing.T) {
	ctx := context.Background()
	fake := &fakeBraintreeClient{tx: &braintree.Transaction{Id: "bt_1", Status: braintree.TransactionStatusSubmittedForSettlement}}
	p := NewBraintreeProvider(fake)

	_, err := p.CreatePayment(ctx, PaymentRequest{OrderID: "o1", Amount: decimal.RequireFromString("3.00")})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	result, err := p.CreatePayment(ctx, PaymentRequest{OrderID: "o1", Amount: decimal.RequireFromString("3.00"), Metadata: map[string]string{"nonce": "fake-valid-nonce"}})
	require.NoError(t, err)
	assert.Equal(t, "fake-valid-nonce", fake.nonce)
	assert.Equal(t, "bt_1", result.PaymentID)
	assert.Equal(t, StatusProcessing, result.Status)

	form := url.Values{"bt_signature": {"sig"}, "bt_payload": {"payload"}}
	fake.notification = &braintree.WebhookNotification{Kind: "check"}
	require.NoError(t, p.VerifyWebhook(ctx, nil, []byte(form.Encode())))

	webhook, err := p.ParseWebhook(nil, []byte(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, webhook.Status)

	assert.ErrorIs(t, p.VerifyWebhook(ctx, nil, []byte("bt_signature=only")), ErrInvalidSignature)
	fake.err = errors.New("signature mismatch")
	assert.ErrorIs(t, p.VerifyWebhook(ctx, nil, []byte(form.Encode())), ErrInvalidSignature)
}

func TestBraintreeStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, braintreeStatus(braintree.TransactionStatusSettled))
	assert.Equal(t, StatusProcessing, braintreeStatus(braintree.TransactionStatusSettling))
	assert.Equal(t, StatusPending, braintreeStatus(braintree.TransactionStatusAuthorized))
	assert.Equal(t, StatusFailed, braintreeStatus(braintree.TransactionStatusProcessorDeclined))
	assert.Equal(t, StatusUnknown, braintreeStatus(braintree.TransactionStatus("bogus")))
}
