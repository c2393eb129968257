package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"foodcourt-ordering/internal/client"
)

const stripeSignatureTolerance = 5 * time.Minute

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID           string            `json:"id"`
			Status       string            `json:"status"`
			LatestCharge string            `json:"latest_charge"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type StripeProvider struct {
	client        client.StripeClient
	webhookSecret string
	now           func() time.Time
}

func NewStripeProvider(stripeClient client.StripeClient, webhookSecret string) *StripeProvider {
	return &StripeProvider{client: stripeClient, webhookSecret: webhookSecret, now: time.Now}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	intent, err := p.client.CreatePaymentIntent(ctx, &client.StripeIntentInput{
		OrderID:     req.OrderID,
		AmountMinor: minorUnits(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &PaymentResult{
		PaymentID: intent.ID,
		Status:    stripeIntentStatus(intent.Status),
	}, nil
}

func (p *StripeProvider) GetStatus(ctx context.Context, paymentID string) (Status, error) {
	intent, err := p.client.GetPaymentIntent(ctx, paymentID)
	if err != nil {
		return StatusUnknown, fmt.Errorf("stripe get payment intent: %w", err)
	}
	return stripeIntentStatus(intent.Status), nil
}

func (p *StripeProvider) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) error {
	tolerance := stripeSignatureTolerance
	if isReplay(ctx) {
		// stored deliveries are older than the window by definition
		tolerance = 0
	}
	return verifyStripeSignature(p.webhookSecret, headers.Get("Stripe-Signature"), body, p.now(), tolerance)
}

func (p *StripeProvider) ParseWebhook(_ http.Header, body []byte) (*NormalizedWebhook, error) {
	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	status := StatusUnknown
	switch event.Type {
	case "payment_intent.succeeded":
		status = StatusPaid
	case "payment_intent.payment_failed":
		status = StatusFailed
	case "payment_intent.processing":
		status = StatusProcessing
	}

	object := event.Data.Object
	return &NormalizedWebhook{
		PaymentID:     object.ID,
		OrderID:       object.Metadata["order_id"],
		Status:        status,
		TransactionID: object.LatestCharge,
	}, nil
}

func stripeIntentStatus(status string) Status {
	switch status {
	case "succeeded":
		return StatusPaid
	case "processing":
		return StatusProcessing
	case "canceled":
		return StatusFailed
	default:
		return StatusPending
	}
}
