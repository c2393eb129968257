package client

import (
	"context"
	"fmt"

	"foodcourt-ordering/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

// --- INTERFACE ---

type BraintreeClient interface {
	// Sale charges a client-side nonce and submits it for settlement.
	Sale(ctx context.Context, nonce string, amount decimal.Decimal, orderID string) (*braintree.Transaction, error)

	FindTransaction(ctx context.Context, transactionID string) (*braintree.Transaction, error)

	// ParseWebhook verifies bt_signature against bt_payload and decodes the notification.
	ParseWebhook(signature, payload string) (*braintree.WebhookNotification, error)
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// --- METHODS ---

func (c *braintreeClientImpl) Sale(ctx context.Context, nonce string, amount decimal.Decimal, orderID string) (*braintree.Transaction, error) {
	// Braintree expects NewDecimal(unscaled, scale): "15.90" -> NewDecimal(1590, 2)
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	btAmount := braintree.NewDecimal(cents, 2)

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             btAmount,
		PaymentMethodNonce: nonce,
		OrderId:            orderID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined {
		return nil, fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	}

	return tx, nil
}

func (c *braintreeClientImpl) FindTransaction(ctx context.Context, transactionID string) (*braintree.Transaction, error) {
	tx, err := c.gateway.Transaction().Find(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

func (c *braintreeClientImpl) ParseWebhook(signature, payload string) (*braintree.WebhookNotification, error) {
	notification, err := c.gateway.WebhookNotification().Parse(signature, payload)
	if err != nil {
		return nil, fmt.Errorf("parse webhook notification: %w", err)
	}
	return notification, nil
}
