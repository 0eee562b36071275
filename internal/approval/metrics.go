package approval

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/remedyd/internal/approval"

// Metrics tracks approval workflow outcomes.
type Metrics struct {
	meter              metric.Meter
	logger             *zap.Logger
	promptsPublished   metric.Int64Counter
	deliveries         metric.Int64Counter
	deliveryFailures   metric.Int64Counter
	rejections         metric.Int64Counter
	duplicateCallbacks metric.Int64Counter
}

// NewMetrics creates workflow metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.promptsPublished, err = m.meter.Int64Counter(
		"remedyd.approval.prompts_published_total",
		metric.WithDescription("Approval prompts published to approver channels."),
		metric.WithUnit("{prompt}"),
	)
	if err != nil {
		m.logger.Warn("failed to create prompts counter", zap.Error(err))
	}

	m.deliveries, err = m.meter.Int64Counter(
		"remedyd.approval.deliveries_total",
		metric.WithDescription("Remediation messages delivered to end users, labeled by transition (approve, submit_edit)."),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		m.logger.Warn("failed to create deliveries counter", zap.Error(err))
	}

	m.deliveryFailures, err = m.meter.Int64Counter(
		"remedyd.approval.delivery_failures_total",
		metric.WithDescription("Failed deliveries, labeled by reason (identity_not_found, transport)."),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		m.logger.Warn("failed to create delivery failures counter", zap.Error(err))
	}

	m.rejections, err = m.meter.Int64Counter(
		"remedyd.approval.rejections_total",
		metric.WithDescription("Drafts rejected by approvers."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create rejections counter", zap.Error(err))
	}

	m.duplicateCallbacks, err = m.meter.Int64Counter(
		"remedyd.approval.duplicate_callbacks_total",
		metric.WithDescription("Replayed or duplicate terminal callbacks dropped by the idempotency guard."),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		m.logger.Warn("failed to create duplicates counter", zap.Error(err))
	}
}

func (m *Metrics) recordPrompt(ctx context.Context) {
	if m.promptsPublished != nil {
		m.promptsPublished.Add(ctx, 1)
	}
}

func (m *Metrics) recordDelivery(ctx context.Context, transition string) {
	if m.deliveries != nil {
		m.deliveries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("transition", transition)))
	}
}

func (m *Metrics) recordDeliveryFailure(ctx context.Context, reason string) {
	if m.deliveryFailures != nil {
		m.deliveryFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", reason)))
	}
}

func (m *Metrics) recordRejection(ctx context.Context) {
	if m.rejections != nil {
		m.rejections.Add(ctx, 1)
	}
}

func (m *Metrics) recordDuplicate(ctx context.Context) {
	if m.duplicateCallbacks != nil {
		m.duplicateCallbacks.Add(ctx, 1)
	}
}
