package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"foodcourt-ordering/internal/client"
)

type paypalWebhookEvent struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	Resource  paypalResource `json:"resource"`
}

type paypalResource struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	CustomID          string               `json:"custom_id"`
	PurchaseUnits     []paypalPurchaseUnit `json:"purchase_units"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

type paypalPurchaseUnit struct {
	ReferenceID string `json:"reference_id"`
	CustomID    string `json:"custom_id"`
}

type PaypalProvider struct {
	client  client.PaypalClient
	baseURL string
}

func NewPaypalProvider(paypalClient client.PaypalClient, baseURL string) *PaypalProvider {
	return &PaypalProvider{client: paypalClient, baseURL: baseURL}
}

func (p *PaypalProvider) Name() string { return "paypal" }

func (p *PaypalProvider) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	returnURL := req.ReturnURL
	if returnURL == "" {
		// PayPal appends token=<checkout id> on approval
		returnURL = p.baseURL + "/payment/paypal/return"
	}

	resp, err := p.client.CreateOrder(ctx, &client.PaypalOrderInput{
		OrderID:   req.OrderID,
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		ReturnURL: returnURL,
		CancelURL: p.baseURL, // if user cancel during paypal payment, return to our homepage
	})
	if err != nil {
		return nil, fmt.Errorf("paypal api create order: %w", err)
	}

	return &PaymentResult{
		PaymentID:   resp.OrderID,
		Status:      paypalOrderStatus(resp.Status),
		CheckoutURL: resp.ApproveURL,
	}, nil
}

func (p *PaypalProvider) GetStatus(ctx context.Context, paymentID string) (Status, error) {
	order, err := p.client.GetOrder(ctx, paymentID)
	if err != nil {
		return StatusUnknown, fmt.Errorf("paypal api get order: %w", err)
	}
	return paypalOrderStatus(order.Status), nil
}

func (p *PaypalProvider) Capture(ctx context.Context, paymentID string) (Status, error) {
	order, err := p.client.CaptureOrder(ctx, paymentID)
	if err != nil {
		return StatusUnknown, fmt.Errorf("paypal api capture order: %w", err)
	}
	return paypalOrderStatus(order.Status), nil
}

func (p *PaypalProvider) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := p.client.VerifyWebhookSignature(ctx, headers, body); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (p *PaypalProvider) ParseWebhook(_ http.Header, body []byte) (*NormalizedWebhook, error) {
	var event paypalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	resource := event.Resource
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		// capture resource: our payment id is the checkout order it belongs to
		status := StatusPaid
		if event.EventType != "PAYMENT.CAPTURE.COMPLETED" {
			status = StatusFailed
		}
		return &NormalizedWebhook{
			PaymentID:     resource.SupplementaryData.RelatedIDs.OrderID,
			OrderID:       resource.CustomID,
			Status:        status,
			TransactionID: resource.ID,
		}, nil
	case "CHECKOUT.ORDER.APPROVED":
		webhook := &NormalizedWebhook{PaymentID: resource.ID, Status: StatusProcessing}
		if len(resource.PurchaseUnits) > 0 {
			webhook.OrderID = resource.PurchaseUnits[0].CustomID
		}
		return webhook, nil
	default:
		return &NormalizedWebhook{PaymentID: resource.ID, Status: StatusUnknown}, nil
	}
}

func paypalOrderStatus(status string) Status {
	switch status {
	case "COMPLETED":
		return StatusPaid
	case "APPROVED":
		return StatusProcessing
	case "VOIDED":
		return StatusFailed
	default:
		return StatusPending
	}
}
