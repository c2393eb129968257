package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// GenericProvider reads callbacks from gateways without a dedicated adapter
// by guessing the usual field names.
type GenericProvider struct {
	verifier sharedSecret
}

func NewGenericProvider(secret string, requireSignature bool) *GenericProvider {
	return &GenericProvider{
		verifier: sharedSecret{secret: secret, header: SignatureHeader, required: requireSignature},
	}
}

func (p *GenericProvider) Name() string { return "generic" }

func (p *GenericProvider) CreatePayment(context.Context, PaymentRequest) (*PaymentResult, error) {
	return nil, ErrProviderNotConfigured
}

func (p *GenericProvider) GetStatus(context.Context, string) (Status, error) {
	return StatusUnknown, ErrProviderNotConfigured
}

func (p *GenericProvider) VerifyWebhook(_ context.Context, headers http.Header, body []byte) error {
	return p.verifier.verify(headers, body)
}

func (p *GenericProvider) ParseWebhook(_ http.Header, body []byte) (*NormalizedWebhook, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	status := NormalizeStatus(firstField(payload, "status", "state"))
	return &NormalizedWebhook{
		PaymentID:     firstField(payload, "paymentId", "payment_id", "id"),
		OrderID:       firstField(payload, "orderId", "order_id", "merchantReferenceID", "reference"),
		Status:        status,
		TransactionID: firstField(payload, "transactionId", "transaction_id"),
	}, nil
}

func firstField(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
