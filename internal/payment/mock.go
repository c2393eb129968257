package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MockPayment struct {
	ID      string
	OrderID string
	Amount  decimal.Decimal
	Status  Status
}

// MockLedger stores the state of simulated payments.
type MockLedger interface {
	Put(p MockPayment)
	Get(paymentID string) (MockPayment, bool)
	SetStatus(paymentID string, status Status)
}

type MemoryLedger struct {
	mu       sync.RWMutex
	payments map[string]MockPayment
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{payments: make(map[string]MockPayment)}
}

func (l *MemoryLedger) Put(p MockPayment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payments[p.ID] = p
}

func (l *MemoryLedger) Get(paymentID string) (MockPayment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.payments[paymentID]
	return p, ok
}

func (l *MemoryLedger) SetStatus(paymentID string, status Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.payments[paymentID]
	p.ID = paymentID
	p.Status = status
	l.payments[paymentID] = p
}

type mockWebhook struct {
	PaymentID     string `json:"paymentId"`
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
}

type MockProvider struct {
	ledger   MockLedger
	verifier sharedSecret
	now      func() time.Time
}

func NewMockProvider(ledger MockLedger, secret string, requireSignature bool) *MockProvider {
	return &MockProvider{
		ledger:   ledger,
		verifier: sharedSecret{secret: secret, header: SignatureHeader, required: requireSignature},
		now:      time.Now,
	}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) CreatePayment(_ context.Context, req PaymentRequest) (*PaymentResult, error) {
	paymentID := fmt.Sprintf("mock_%d_%s", p.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
	p.ledger.Put(MockPayment{ID: paymentID, OrderID: req.OrderID, Amount: req.Amount, Status: StatusPending})

	return &PaymentResult{
		PaymentID:   paymentID,
		Status:      StatusPending,
		CheckoutURL: "/payment/mock/" + paymentID,
	}, nil
}

func (p *MockProvider) GetStatus(_ context.Context, paymentID string) (Status, error) {
	payment, ok := p.ledger.Get(paymentID)
	if !ok {
		return StatusFailed, nil
	}
	return payment.Status, nil
}

func (p *MockProvider) VerifyWebhook(_ context.Context, headers http.Header, body []byte) error {
	return p.verifier.verify(headers, body)
}

func (p *MockProvider) ParseWebhook(_ http.Header, body []byte) (*NormalizedWebhook, error) {
	var payload mockWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	status := NormalizeStatus(payload.Status)
	if payload.PaymentID != "" && status != StatusUnknown {
		p.ledger.SetStatus(payload.PaymentID, status)
	}

	transactionID := payload.TransactionID
	if transactionID == "" && payload.PaymentID != "" {
		transactionID = "txn_" + payload.PaymentID
	}

	return &NormalizedWebhook{
		PaymentID:     payload.PaymentID,
		OrderID:       payload.OrderID,
		Status:        status,
		TransactionID: transactionID,
	}, nil
}

// SimulateWebhook builds the signed callback the mock gateway would deliver for paymentID.
func (p *MockProvider) SimulateWebhook(paymentID string, status Status) ([]byte, http.Header, error) {
	payment, ok := p.ledger.Get(paymentID)
	if !ok {
		return nil, nil, fmt.Errorf("mock payment %s not found", paymentID)
	}

	body, err := json.Marshal(mockWebhook{
		PaymentID: paymentID,
		OrderID:   payment.OrderID,
		Status:    string(status),
	})
	if err != nil {
		return nil, nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if p.verifier.secret != "" {
		headers.Set(SignatureHeader, Sign(p.verifier.secret, body))
	}
	return body, headers, nil
}
