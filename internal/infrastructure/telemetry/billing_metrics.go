package telemetry

import (
	"context"

	"github.com/thehub/backend/internal/domain/affiliate"
	"github.com/thehub/backend/internal/domain/membership"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BillingMetrics records session, wallet and affiliate activity. It is fed by
// the event bus after each committed transaction, and by the occupancy job for
// the active sessions gauge.
type BillingMetrics struct {
	logger *zap.Logger

	sessionsStarted     *Counter
	sessionsSettled     *Counter
	revenue             *FloatCounter
	walletOperations    *Counter
	walletVolume        *FloatCounter
	insufficientBalance *Counter
	commissionsAccrued  *Counter
	commissionAmount    *FloatCounter
	accrualsSkipped     *Counter
	sessionDuration     *Histogram
	activeSessions      *Gauge
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBillingMetrics creates all billing instruments on the given meter.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{logger: logger}
	m := cfg.Meter
	var err error

	if bm.sessionsStarted, err = NewCounter(m, "hub_sessions_started_total",
		"Sessions whose timer was started", "{sessions}"); err != nil {
		return nil, err
	}
	if bm.sessionsSettled, err = NewCounter(m, "hub_sessions_settled_total",
		"Sessions paid, by payment method", "{sessions}"); err != nil {
		return nil, err
	}
	if bm.revenue, err = NewFloatCounter(m, "hub_revenue_total",
		"Settled session revenue in the billing currency", "{currency}"); err != nil {
		return nil, err
	}
	if bm.walletOperations, err = NewCounter(m, "hub_wallet_operations_total",
		"Wallet credits and debits", "{operations}"); err != nil {
		return nil, err
	}
	if bm.walletVolume, err = NewFloatCounter(m, "hub_wallet_volume_total",
		"Absolute wallet movement in the billing currency", "{currency}"); err != nil {
		return nil, err
	}
	if bm.insufficientBalance, err = NewCounter(m, "hub_wallet_insufficient_balance_total",
		"Wallet debits rejected for lack of funds", "{rejections}"); err != nil {
		return nil, err
	}
	if bm.commissionsAccrued, err = NewCounter(m, "hub_affiliate_commissions_accrued_total",
		"Commission accruals credited to affiliates", "{accruals}"); err != nil {
		return nil, err
	}
	if bm.commissionAmount, err = NewFloatCounter(m, "hub_affiliate_commission_amount_total",
		"Commission accrued in the billing currency", "{currency}"); err != nil {
		return nil, err
	}
	if bm.accrualsSkipped, err = NewCounter(m, "hub_affiliate_accruals_skipped_total",
		"Referred members whose referrer has no affiliate account", "{accruals}"); err != nil {
		return nil, err
	}
	if bm.sessionDuration, err = NewHistogram(m, HistogramOpts{
		Name:        "hub_session_duration_seconds",
		Description: "Billed duration of ended sessions",
		Unit:        "s",
		Boundaries:  SessionDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.activeSessions, err = NewGauge(m, "hub_sessions_active",
		"Sessions currently running", "{sessions}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// EventTypes implements shared.EventHandler.
func (bm *BillingMetrics) EventTypes() []string {
	return []string{
		occupancy.EventTypeSessionStarted,
		occupancy.EventTypeSessionEnded,
		occupancy.EventTypeSessionSettled,
		membership.EventTypeWalletBalanceChanged,
		membership.EventTypeWalletDebitRejected,
		affiliate.EventTypeCommissionAccrued,
		affiliate.EventTypeAccrualSkipped,
	}
}

// Handle implements shared.EventHandler. Unknown events are ignored.
func (bm *BillingMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *occupancy.SessionStartedEvent:
		bm.sessionsStarted.Inc(ctx)
	case *occupancy.SessionEndedEvent:
		end := "normal"
		if e.Forced {
			end = "forced"
		}
		bm.sessionDuration.Record(ctx, float64(e.ElapsedSeconds), AttrSessionEnd.String(end))
	case *occupancy.SessionSettledEvent:
		method := AttrPaymentMethod.String(e.PaymentMethod.String())
		bm.sessionsSettled.Inc(ctx, method)
		bm.revenue.Add(ctx, e.TotalPrice.InexactFloat64(), method)
	case *membership.WalletBalanceChangedEvent:
		op := "debit"
		if e.IsCredit() {
			op = "credit"
		}
		bm.walletOperations.Inc(ctx, AttrWalletOp.String(op))
		bm.walletVolume.Add(ctx, e.Delta.Abs().InexactFloat64(), AttrWalletOp.String(op))
	case *membership.WalletDebitRejectedEvent:
		bm.insufficientBalance.Inc(ctx)
	case *affiliate.CommissionAccruedEvent:
		bm.commissionsAccrued.Inc(ctx)
		bm.commissionAmount.Add(ctx, e.Amount.InexactFloat64())
	case *affiliate.AccrualSkippedEvent:
		bm.accrualsSkipped.Inc(ctx)
	default:
		bm.logger.Debug("Billing metrics ignored event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// RecordActiveSessions sets the active sessions gauge.
func (bm *BillingMetrics) RecordActiveSessions(ctx context.Context, count int64) {
	bm.activeSessions.Record(ctx, count)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
