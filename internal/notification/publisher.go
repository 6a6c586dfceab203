package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/internal/payment"
	"github.com/fkhayef/parkwise/internal/settlement"
	"github.com/fkhayef/parkwise/pkg/rabbitmq"
)

// Publisher fans ledger events into owner inboxes before forwarding them to
// the next publisher. A failed notification never blocks the event.
type Publisher struct {
	next    rabbitmq.Publisher
	service *Service
	logger  *zap.Logger
}

// NewPublisher wraps next so owners hear about their payments and settlements
func NewPublisher(next rabbitmq.Publisher, service *Service, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{next: next, service: service, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	var err error
	switch e := body.(type) {
	case payment.ProcessedEvent:
		_, err = p.service.NotifyPaymentReceived(ctx, e.OwnerAccountID, e.PaymentID, e.NetAmount)
	case payment.RefundedEvent:
		_, err = p.service.NotifyPaymentRefunded(ctx, e.OwnerAccountID, e.PaymentID, e.Amount)
	case settlement.SettledEvent:
		_, err = p.service.NotifyCommissionSettled(ctx, e.OwnerAccountID, e.SettlementID, e.CommissionAmount, e.PaymentCount)
	}
	if err != nil {
		p.logger.Warn("failed to create notification",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}

	return p.next.Publish(ctx, exchange, routingKey, body)
}

func (p *Publisher) Close() {
	p.next.Close()
}
