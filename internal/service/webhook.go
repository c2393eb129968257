package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/payment"
	"foodcourt-ordering/internal/repository"

	"gorm.io/gorm"
)

const (
	maxLoggedPayload    = 16 << 10
	translationProvider = "translation"

	defaultWebhookProvider = "generic"
)

// headers kept with a logged delivery so a replay can verify it again
var replayHeaders = []string{
	"Content-Type",
	payment.SignatureHeader,
	"X-GrabPay-Signature",
	"Stripe-Signature",
	"Paypal-Auth-Algo",
	"Paypal-Cert-Url",
	"Paypal-Transmission-Id",
	"Paypal-Transmission-Sig",
	"Paypal-Transmission-Time",
}

type WebhookService interface {
	Ingest(ctx context.Context, provider string, headers http.Header, body []byte) (*dto.WebhookReceipt, error)
	Replay(ctx context.Context, logID uint) (*dto.WebhookReceipt, error)
	ListLogs(ctx context.Context, status string, limit int) ([]*model.WebhookLog, error)
	LogTranslation(ctx context.Context, headers http.Header, body []byte) (*dto.WebhookReceipt, error)
}

type webhookServiceImpl struct {
	db             *gorm.DB
	registry       *payment.Registry
	orders         OrderService
	orderRepo      repository.OrderRepository
	paymentRepo    repository.PaymentRepository
	webhookLogRepo repository.WebhookLogRepository
	publisher      Publisher
	log            *slog.Logger
}

func NewWebhookService(
	db *gorm.DB,
	registry *payment.Registry,
	orders OrderService,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	webhookLogRepo repository.WebhookLogRepository,
	publisher Publisher,
	logger *slog.Logger,
) WebhookService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &webhookServiceImpl{
		db:             db,
		registry:       registry,
		orders:         orders,
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		webhookLogRepo: webhookLogRepo,
		publisher:      publisher,
		log:            logger.With("component", "webhook"),
	}
}

func (s *webhookServiceImpl) Ingest(ctx context.Context, provider string, headers http.Header, body []byte) (*dto.WebhookReceipt, error) {
	if provider == "" {
		provider = defaultWebhookProvider
	}
	return s.ingest(ctx, provider, headers, body, nil)
}

// ingest runs one delivery through verify, parse, resolve and apply. It writes
// exactly one webhook log row whatever happens, panics included.
func (s *webhookServiceImpl) ingest(ctx context.Context, providerName string, headers http.Header, body []byte, replayOf *uint) (receipt *dto.WebhookReceipt, err error) {
	entry := &model.WebhookLog{
		Provider: providerName,
		Status:   model.WebhookFailed,
		Headers:  keptHeaders(headers),
		ReplayOf: replayOf,
	}
	entry.Payload, entry.Truncated = truncatePayload(body)

	defer func() {
		if r := recover(); r != nil {
			err = apperr.Internal(fmt.Errorf("panic: %v", r), "webhook processing failed")
			receipt = nil
		}
		if err != nil {
			entry.Status = model.WebhookFailed
			msg := err.Error()
			if len(msg) > 1024 {
				msg = msg[:1024]
			}
			entry.ErrorMessage = &msg
		}

		if logErr := s.webhookLogRepo.Create(context.WithoutCancel(ctx), entry); logErr != nil {
			s.log.Error("write webhook log failed", "provider", providerName, "error", logErr)
		}

		if receipt != nil {
			receipt.LogID = entry.ID
		} else if appErr, ok := apperr.As(err); ok && appErr.Details == nil {
			appErr.Details = map[string]interface{}{"received": true, "log_id": entry.ID}
		}
	}()

	provider := s.registry.ForWebhook(providerName)
	if err := provider.VerifyWebhook(ctx, headers, body); err != nil {
		s.log.Warn("webhook signature rejected", "provider", providerName, "error", err)
		return nil, apperr.Unauthorized(apperr.CodeInvalidSignature, "invalid webhook signature")
	}

	webhook, err := provider.ParseWebhook(headers, body)
	if err != nil {
		return nil, apperr.Validation("invalid webhook payload")
	}
	entry.Event = string(webhook.Status)
	if webhook.PaymentID != "" {
		entry.PaymentID = &webhook.PaymentID
	}

	order, err := s.resolveOrder(ctx, webhook)
	if err != nil {
		return nil, err
	}
	entry.OrderID = &order.ID

	outcome, err := s.apply(ctx, order, webhook)
	if err != nil {
		return nil, err
	}
	entry.Status = outcome

	s.log.Info("webhook applied", "provider", providerName, "order_id", order.ID, "event", webhook.Status, "outcome", outcome)
	if outcome == model.WebhookProcessed {
		switch webhook.Status {
		case payment.StatusPaid:
			status := order.Status
			if status == model.OrderPending || status == model.OrderPaid {
				status = model.OrderConfirmed
			}
			s.publisher.Publish(orderEvent(order, status))
		case payment.StatusFailed:
			s.publisher.Publish(orderEvent(order, model.OrderCancelled))
		}
	}

	return &dto.WebhookReceipt{Received: true, Status: outcome, OrderID: order.ID}, nil
}

// resolveOrder finds the order by id or order number, falling back to the
// payment record when the provider did not echo our reference.
func (s *webhookServiceImpl) resolveOrder(ctx context.Context, webhook *payment.NormalizedWebhook) (*model.Order, error) {
	ref := strings.TrimSpace(webhook.OrderID)
	if ref == "" && webhook.PaymentID != "" {
		record, err := s.paymentRepo.FindByID(ctx, webhook.PaymentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find payment: %w", err)
		}
		if record != nil {
			ref = record.OrderID
		}
	}
	if ref == "" {
		return nil, apperr.Validation("order id missing from webhook")
	}

	order, err := s.orderRepo.FindByRef(ctx, nil, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *webhookServiceImpl) apply(ctx context.Context, order *model.Order, webhook *payment.NormalizedWebhook) (model.WebhookLogStatus, error) {
	if webhook.Status == payment.StatusUnknown {
		return model.WebhookIgnored, nil
	}

	outcome := model.WebhookIgnored
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var applied bool
		var err error
		switch webhook.Status {
		case payment.StatusPaid:
			applied, err = s.orders.MarkPaid(ctx, tx, order, webhook.TransactionID)
		case payment.StatusFailed:
			applied, err = s.orders.MarkPaymentFailed(ctx, tx, order)
		case payment.StatusProcessing:
			applied, err = s.orders.MarkPaymentProcessing(ctx, tx, order)
		}
		if err != nil {
			return err
		}

		if webhook.PaymentID != "" {
			_, err := s.paymentRepo.UpdateStatus(ctx, tx, webhook.PaymentID, settleable, paymentStatus(webhook.Status), webhook.TransactionID)
			if err != nil {
				return fmt.Errorf("update payment: %w", err)
			}
		}

		if applied {
			outcome = model.WebhookProcessed
			return nil
		}

		current, err := s.orderRepo.FindByRef(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		if string(current.PaymentStatus) == string(webhook.Status) {
			outcome = model.WebhookDuplicate
		} else if webhook.Status == payment.StatusPaid && current.Status == model.OrderCancelled {
			s.log.Warn("payment received for cancelled order", "order_id", order.ID, "payment_id", webhook.PaymentID)
		}
		return nil
	})
	if err != nil {
		return model.WebhookFailed, err
	}
	return outcome, nil
}

func (s *webhookServiceImpl) Replay(ctx context.Context, logID uint) (*dto.WebhookReceipt, error) {
	entry, err := s.webhookLogRepo.FindByID(ctx, logID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("webhook log not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find webhook log: %w", err)
	}

	if entry.Provider == translationProvider {
		return nil, apperr.Validation("translation callbacks cannot be replayed")
	}
	if entry.Truncated {
		return nil, apperr.Validation("payload was not stored verbatim and cannot be replayed")
	}

	if err := s.webhookLogRepo.MarkRetrying(ctx, entry.ID); err != nil {
		return nil, fmt.Errorf("mark webhook retrying: %w", err)
	}

	headers := http.Header{}
	for name, value := range entry.Headers {
		headers.Set(name, value)
	}

	s.log.Info("replaying webhook", "log_id", entry.ID, "provider", entry.Provider)
	return s.ingest(payment.WithReplay(ctx), entry.Provider, headers, []byte(entry.Payload), &entry.ID)
}

func (s *webhookServiceImpl) ListLogs(ctx context.Context, status string, limit int) ([]*model.WebhookLog, error) {
	switch model.WebhookLogStatus(status) {
	case "", model.WebhookProcessed, model.WebhookDuplicate, model.WebhookIgnored, model.WebhookFailed, model.WebhookRetrying:
	default:
		return nil, apperr.Validation("unknown webhook status")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.webhookLogRepo.List(ctx, status, limit)
}

func (s *webhookServiceImpl) LogTranslation(ctx context.Context, headers http.Header, body []byte) (*dto.WebhookReceipt, error) {
	entry := &model.WebhookLog{
		Provider: translationProvider,
		Status:   model.WebhookIgnored,
		Headers:  keptHeaders(headers),
	}
	entry.Payload, entry.Truncated = truncatePayload(body)

	if err := s.webhookLogRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("write webhook log: %w", err)
	}
	return &dto.WebhookReceipt{Received: true, LogID: entry.ID, Status: entry.Status}, nil
}

// truncatePayload reports true when the stored text is not the delivery byte
// for byte: it was cut at the size limit or had invalid UTF-8 replaced.
func truncatePayload(body []byte) (string, bool) {
	if len(body) > maxLoggedPayload {
		return strings.ToValidUTF8(string(body[:maxLoggedPayload]), ""), true
	}
	if !utf8.Valid(body) {
		return strings.ToValidUTF8(string(body), "\uFFFD"), true
	}
	return string(body), false
}

func keptHeaders(headers http.Header) map[string]string {
	kept := map[string]string{}
	for _, name := range replayHeaders {
		if v := headers.Get(name); v != "" {
			kept[name] = v
		}
	}
	return kept
}
