// Package payment adapts external payment gateways to one provider contract.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusUnknown    Status = "unknown"
)

var (
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidPayload        = errors.New("invalid webhook payload")
	ErrInvalidRequest        = errors.New("invalid payment request")
	ErrProviderNotConfigured = errors.New("provider not configured")
)

type PaymentRequest struct {
	OrderID     string
	OrderNo     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
	Metadata    map[string]string
}

type PaymentResult struct {
	PaymentID     string
	Status        Status
	CheckoutURL   string
	TransactionID string
}

// NormalizedWebhook is the provider-independent view of a payment callback.
type NormalizedWebhook struct {
	PaymentID     string
	OrderID       string
	Status        Status
	TransactionID string
}

type Provider interface {
	Name() string
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	GetStatus(ctx context.Context, paymentID string) (Status, error)
	// VerifyWebhook must succeed before ParseWebhook output is trusted.
	VerifyWebhook(ctx context.Context, headers http.Header, body []byte) error
	ParseWebhook(headers http.Header, body []byte) (*NormalizedWebhook, error)
}

// Capturer is implemented by gateways that need an explicit capture once the buyer approves.
type Capturer interface {
	Capture(ctx context.Context, paymentID string) (Status, error)
}

type Registry struct {
	providers map[string]Provider
	fallback  Provider
}

// NewRegistry registers providers by name; fallback handles webhooks from unregistered names.
func NewRegistry(fallback Provider, providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		fallback:  fallback,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	r.providers[strings.ToLower(p.Name())] = p
}

// Get returns a provider that can take payments.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, name)
	}
	return p, nil
}

// ForWebhook returns the adapter used to read a callback from name.
func (r *Registry) ForWebhook(name string) Provider {
	if p, ok := r.providers[strings.ToLower(name)]; ok {
		return p
	}
	return r.fallback
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeStatus maps the loose status words providers send onto Status.
func NormalizeStatus(word string) Status {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "paid", "success", "succeeded", "completed", "settled":
		return StatusPaid
	case "failed", "failure", "declined", "error", "cancelled", "canceled":
		return StatusFailed
	case "processing", "pending":
		return StatusProcessing
	default:
		return StatusUnknown
	}
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

type replayKey struct{}

// WithReplay marks ctx as an operator replay of a delivery that was stored earlier.
func WithReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, replayKey{}, true)
}

func isReplay(ctx context.Context) bool {
	replay, _ := ctx.Value(replayKey{}).(bool)
	return replay
}
