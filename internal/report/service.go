package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/internal/account"
	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/commission"
	"github.com/fkhayef/parkwise/internal/payment"
	"github.com/fkhayef/parkwise/internal/period"
	"github.com/fkhayef/parkwise/pkg/rabbitmq"
)

// Ledger is the part of the payment store reporting reads and collects from
type Ledger interface {
	QueryByCreatedRange(ctx context.Context, start, end time.Time) ([]*payment.Payment, error)
	UpdateStatus(ctx context.Context, id string, field payment.StatusField, from, to string, at time.Time) (*payment.Payment, error)
	CommissionTotals(ctx context.Context) (payment.CommissionTotals, error)
}

// GeneratedEvent is published after a report is persisted
type GeneratedEvent struct {
	ReportID         string `json:"report_id"`
	ReportPeriod     string `json:"report_period"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	TotalCommission  string `json:"total_commission_amount"`
	TransactionCount int    `json:"transaction_count"`
}

// StatusChangedEvent is published when a report moves forward
type StatusChangedEvent struct {
	ReportID string `json:"report_id"`
	From     Status `json:"from"`
	To       Status `json:"to"`
}

// CollectedEvent is published for every commission moved to Collected
type CollectedEvent struct {
	PaymentID        string `json:"payment_id"`
	OwnerAccountID   string `json:"owner_account_id"`
	CommissionAmount string `json:"commission_amount"`
	CollectedAt      string `json:"collected_at"`
}

// Service aggregates payments into commission reports
type Service struct {
	reports   Store
	ledger    Ledger
	accounts  account.Lookup
	publisher rabbitmq.Publisher
	exchange  string
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new report service with dependencies injected
func NewService(reports Store, ledger Ledger, accounts account.Lookup, publisher rabbitmq.Publisher, exchange string, loc *time.Location, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = &rabbitmq.EventProducerFallback{Logger: logger}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reports:   reports,
		ledger:    ledger,
		accounts:  accounts,
		publisher: publisher,
		exchange:  exchange,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Location is the business timezone windows are computed in
func (s *Service) Location() *time.Location {
	return s.loc
}

// GenerateCommissionReport aggregates the payments created in the resolved
// window and persists the result. Nothing is persisted if ctx is done before
// the write.
func (s *Service) GenerateCommissionReport(ctx context.Context, p period.Period, start, end *time.Time) (*CommissionReport, error) {
	p, err := period.Parse(string(p))
	if err != nil {
		return nil, err
	}
	now := s.now()
	window, err := period.Resolve(p, start, end, now, s.loc)
	if err != nil {
		return nil, err
	}

	payments, err := s.ledger.QueryByCreatedRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, apperr.Persistence("query payments", err)
	}
	for _, pay := range payments {
		if reportable(pay) && !commission.Verify(pay.CommissionRate, pay.GrossAmount, pay.CommissionAmount, pay.NetAmount) {
			s.logger.Error("payment split does not match its rate",
				zap.String("payment_id", pay.ID),
				zap.String("gross_amount", pay.GrossAmount.String()),
				zap.String("commission_amount", pay.CommissionAmount.String()),
				zap.String("net_amount", pay.NetAmount.String()),
			)
			return nil, fmt.Errorf("payment %s: %w", pay.ID, commission.ErrMismatch)
		}
	}

	sum, breakdown := aggregate(payments)
	for i := range breakdown {
		info, err := s.accounts.GetDisplayInfo(ctx, breakdown[i].OwnerAccountID)
		if err != nil {
			if !errors.Is(err, apperr.ErrLookup) {
				err = fmt.Errorf("%w: %w", apperr.ErrLookup, err)
			}
			return nil, fmt.Errorf("resolve owner %s: %w", breakdown[i].OwnerAccountID, err)
		}
		breakdown[i].OwnerName = info.Name
		breakdown[i].OwnerType = info.Type
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &CommissionReport{
		ID:                    uuid.NewString(),
		ReportPeriod:          p,
		StartDate:             window.Start,
		EndDate:               window.End,
		TotalGrossRevenue:     sum.gross,
		TotalCommissionAmount: sum.commission,
		TotalNetRevenue:       sum.net,
		TransactionCount:      sum.count,
		OwnerBreakdown:        breakdown,
		ReportStatus:          StatusGenerated,
		GeneratedAt:           now.UTC(),
	}

	if err := s.reports.Append(ctx, report); err != nil {
		return nil, apperr.Persistence("append report", err)
	}

	s.logger.Info("commission report generated",
		zap.String("report_id", report.ID),
		zap.String("period", string(p)),
		zap.Time("start_date", window.Start),
		zap.Time("end_date", window.End),
		zap.Int("transaction_count", report.TransactionCount),
		zap.Int("owners", len(breakdown)),
	)
	s.publish(ctx, rabbitmq.ReportGenerated, GeneratedEvent{
		ReportID:         report.ID,
		ReportPeriod:     string(p),
		StartDate:        window.Start.Format(time.RFC3339),
		EndDate:          window.End.Format(time.RFC3339),
		TotalCommission:  report.TotalCommissionAmount.StringFixed(2),
		TransactionCount: report.TransactionCount,
	})

	return report, nil
}

// GetCommissionReports returns every report, newest first
func (s *Service) GetCommissionReports(ctx context.Context) ([]*CommissionReport, error) {
	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("list reports", err)
	}
	return reports, nil
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(ctx context.Context, id string) (*CommissionReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get report", err)
	}
	if report == nil {
		return nil, apperr.NotFound("report", id)
	}
	return report, nil
}

// GetCommissionSummary returns collected and pending totals plus a
// month-over-month comparison of commission earned.
func (s *Service) GetCommissionSummary(ctx context.Context) (*Summary, error) {
	byStatus, err := s.ledger.CommissionTotals(ctx)
	if err != nil {
		return nil, apperr.Persistence("sum commissions", err)
	}

	now := s.now()
	thisMonth, err := period.Current(period.Monthly, now, s.loc)
	if err != nil {
		return nil, err
	}
	lastMonth, err := period.Previous(period.Monthly, now, s.loc)
	if err != nil {
		return nil, err
	}

	thisTotal, err := s.commissionIn(ctx, thisMonth)
	if err != nil {
		return nil, err
	}
	lastTotal, err := s.commissionIn(ctx, lastMonth)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalCommissionsCollected: byStatus.Collected.Add(byStatus.Paid),
		PendingCommissions:        byStatus.Pending,
		ThisMonthCommissions:      thisTotal,
		LastMonthCommissions:      lastTotal,
		CommissionGrowth:          growthPercent(thisTotal, lastTotal),
	}, nil
}

func (s *Service) commissionIn(ctx context.Context, w period.Window) (decimal.Decimal, error) {
	payments, err := s.ledger.QueryByCreatedRange(ctx, w.Start, w.End)
	if err != nil {
		return decimal.Zero, apperr.Persistence("query payments", err)
	}
	total := decimal.Zero
	for _, p := range payments {
		if p.PaymentStatus == payment.StatusCompleted {
			total = total.Add(p.CommissionAmount)
		}
	}
	return total, nil
}

// CollectCommissions moves each payment's commission from Pending to
// Collected. Each id succeeds or fails on its own; the batch never rolls back.
func (s *Service) CollectCommissions(ctx context.Context, paymentIDs []string) ([]CollectResult, error) {
	if len(paymentIDs) == 0 {
		return nil, apperr.Invalid("payment_ids", "must not be empty")
	}

	results := make([]CollectResult, 0, len(paymentIDs))
	collected := 0
	for _, id := range paymentIDs {
		result := CollectResult{ID: id}

		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			result.ErrorCode = "CANCELLED"
			results = append(results, result)
			continue
		}
		if strings.TrimSpace(id) == "" {
			result.Error = "payment id is required"
			result.ErrorCode = "VALIDATION_ERROR"
			results = append(results, result)
			continue
		}

		at := s.now().UTC()
		p, err := s.ledger.UpdateStatus(ctx, id, payment.FieldCommissionStatus,
			string(payment.CommissionPending), string(payment.CommissionCollected), at)
		if err != nil {
			result.Error = err.Error()
			result.ErrorCode = collectErrorCode(err)
			results = append(results, result)
			continue
		}

		result.Success = true
		results = append(results, result)
		collected++

		s.publish(ctx, rabbitmq.CommissionCollected, CollectedEvent{
			PaymentID:        p.ID,
			OwnerAccountID:   p.OwnerAccountID,
			CommissionAmount: p.CommissionAmount.StringFixed(2),
			CollectedAt:      at.Format(time.RFC3339),
		})
	}

	s.logger.Info("commissions collected",
		zap.Int("requested", len(paymentIDs)),
		zap.Int("collected", collected),
	)
	return results, nil
}

func collectErrorCode(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "PERSISTENCE_ERROR"
	}
}

// ReviewReport marks a generated report as reviewed
func (s *Service) ReviewReport(ctx context.Context, id string) (*CommissionReport, error) {
	return s.advance(ctx, id, StatusReviewed)
}

// ProcessReport marks a reviewed report as processed
func (s *Service) ProcessReport(ctx context.Context, id string) (*CommissionReport, error) {
	return s.advance(ctx, id, StatusProcessed)
}

func (s *Service) advance(ctx context.Context, id string, to Status) (*CommissionReport, error) {
	current, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.ReportStatus, to) {
		return nil, apperr.Transition("report_status", string(current.ReportStatus), string(to))
	}

	updated, err := s.reports.UpdateStatus(ctx, id, current.ReportStatus, to, s.now().UTC())
	if err != nil {
		return nil, apperr.Persistence("update report status", err)
	}

	s.logger.Info("commission report status changed",
		zap.String("report_id", id),
		zap.String("from", string(current.ReportStatus)),
		zap.String("to", string(to)),
	)
	s.publish(ctx, rabbitmq.ReportStatusChanged, StatusChangedEvent{ReportID: id, From: current.ReportStatus, To: to})

	return updated, nil
}

func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if err := s.publisher.Publish(ctx, s.exchange, routingKey, body); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
