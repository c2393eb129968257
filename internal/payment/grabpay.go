package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"foodcourt-ordering/internal/client"
)

const grabPaySignatureHeader = "X-GrabPay-Signature"

type grabPayWebhook struct {
	PaymentID           string `json:"paymentID"`
	MerchantReferenceID string `json:"merchantReferenceID"`
	Status              string `json:"status"`
	ExternalPaymentID   string `json:"externalPaymentID"`
}

type GrabPayProvider struct {
	client        client.GrabPayClient
	webhookSecret string
}

func NewGrabPayProvider(grabPayClient client.GrabPayClient, webhookSecret string) *GrabPayProvider {
	return &GrabPayProvider{client: grabPayClient, webhookSecret: webhookSecret}
}

func (p *GrabPayProvider) Name() string { return "grabpay" }

func (p *GrabPayProvider) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	charge, err := p.client.CreatePayment(ctx, &client.GrabPayChargeInput{
		OrderID:     req.OrderID,
		AmountMinor: minorUnits(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("grabpay create payment: %w", err)
	}

	return &PaymentResult{
		PaymentID:   charge.PaymentID,
		Status:      StatusPending,
		CheckoutURL: charge.CheckoutURL,
	}, nil
}

func (p *GrabPayProvider) GetStatus(ctx context.Context, paymentID string) (Status, error) {
	charge, err := p.client.GetPayment(ctx, paymentID)
	if err != nil {
		return StatusUnknown, fmt.Errorf("grabpay get payment: %w", err)
	}
	status := grabPayStatus(charge.Status)
	if status == StatusUnknown {
		return StatusPending, nil
	}
	return status, nil
}

func (p *GrabPayProvider) VerifyWebhook(_ context.Context, headers http.Header, body []byte) error {
	return sharedSecret{secret: p.webhookSecret, header: grabPaySignatureHeader, required: true}.verify(headers, body)
}

func (p *GrabPayProvider) ParseWebhook(_ http.Header, body []byte) (*NormalizedWebhook, error) {
	var payload grabPayWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &NormalizedWebhook{
		PaymentID:     payload.PaymentID,
		OrderID:       payload.MerchantReferenceID,
		Status:        grabPayStatus(payload.Status),
		TransactionID: payload.ExternalPaymentID,
	}, nil
}

func grabPayStatus(status string) Status {
	switch status {
	case "SUCCESS":
		return StatusPaid
	case "FAILED":
		return StatusFailed
	case "PENDING", "PROCESSING":
		return StatusProcessing
	default:
		return StatusUnknown
	}
}
