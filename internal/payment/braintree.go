package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"foodcourt-ordering/internal/client"

	"github.com/braintree-go/braintree-go"
)

type BraintreeProvider struct {
	client client.BraintreeClient
}

func NewBraintreeProvider(braintreeClient client.BraintreeClient) *BraintreeProvider {
	return &BraintreeProvider{client: braintreeClient}
}

func (p *BraintreeProvider) Name() string { return "braintree" }

// CreatePayment charges the drop-in nonce passed as metadata "nonce".
func (p *BraintreeProvider) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	nonce := req.Metadata["nonce"]
	if nonce == "" {
		return nil, fmt.Errorf("%w: braintree requires metadata.nonce", ErrInvalidRequest)
	}

	tx, err := p.client.Sale(ctx, nonce, req.Amount, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("braintree sale: %w", err)
	}

	return &PaymentResult{
		PaymentID:     tx.Id,
		Status:        braintreeStatus(tx.Status),
		TransactionID: tx.Id,
	}, nil
}

func (p *BraintreeProvider) GetStatus(ctx context.Context, paymentID string) (Status, error) {
	tx, err := p.client.FindTransaction(ctx, paymentID)
	if err != nil {
		return StatusUnknown, err
	}
	return braintreeStatus(tx.Status), nil
}

func (p *BraintreeProvider) VerifyWebhook(_ context.Context, _ http.Header, body []byte) error {
	signature, payload, err := braintreeForm(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if _, err := p.client.ParseWebhook(signature, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (p *BraintreeProvider) ParseWebhook(_ http.Header, body []byte) (*NormalizedWebhook, error) {
	signature, payload, err := braintreeForm(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	notification, err := p.client.ParseWebhook(signature, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if notification.Subject == nil || notification.Subject.Transaction == nil {
		return &NormalizedWebhook{Status: StatusUnknown}, nil
	}

	tx := notification.Subject.Transaction
	status := StatusUnknown
	switch notification.Kind {
	case "transaction_settled":
		status = StatusPaid
	case "transaction_settlement_declined":
		status = StatusFailed
	}

	return &NormalizedWebhook{
		PaymentID:     tx.Id,
		OrderID:       tx.OrderId,
		Status:        status,
		TransactionID: tx.Id,
	}, nil
}

// braintreeForm pulls bt_signature and bt_payload out of the form-encoded callback body.
func braintreeForm(body []byte) (string, string, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", "", err
	}
	signature, payload := values.Get("bt_signature"), values.Get("bt_payload")
	if signature == "" || payload == "" {
		return "", "", fmt.Errorf("missing bt_signature or bt_payload")
	}
	return signature, payload, nil
}

func braintreeStatus(status braintree.TransactionStatus) Status {
	switch status {
	case braintree.TransactionStatusSettled:
		return StatusPaid
	case braintree.TransactionStatusSubmittedForSettlement, braintree.TransactionStatusSettling, braintree.TransactionStatusSettlementPending:
		return StatusProcessing
	case braintree.TransactionStatusAuthorizing, braintree.TransactionStatusAuthorized:
		return StatusPending
	case braintree.TransactionStatusProcessorDeclined, braintree.TransactionStatusGatewayRejected,
		braintree.TransactionStatusFailed, braintree.TransactionStatusVoided, braintree.TransactionStatusSettlementDeclined:
		return StatusFailed
	default:
		return StatusUnknown
	}
}
