package bot

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/remedyd/internal/bot"

// Metrics tracks inbound event processing.
type Metrics struct {
	meter                metric.Meter
	logger               *zap.Logger
	messagesSeen         metric.Int64Counter
	greetings            metric.Int64Counter
	recordsExtracted     metric.Int64Counter
	callbacks            metric.Int64Counter
	verificationFailures metric.Int64Counter
}

// NewMetrics creates bot metrics on the global meter provider.
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

	m.messagesSeen, err = m.meter.Int64Counter(
		"remedyd.bot.messages_total",
		metric.WithDescription("Inbound chat messages inspected (bot and empty messages excluded)."),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		m.logger.Warn("failed to create messages counter", zap.Error(err))
	}

	m.greetings, err = m.meter.Int64Counter(
		"remedyd.bot.greetings_total",
		metric.WithDescription("Liveness greetings answered."),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		m.logger.Warn("failed to create greetings counter", zap.Error(err))
	}

	m.recordsExtracted, err = m.meter.Int64Counter(
		"remedyd.bot.records_extracted_total",
		metric.WithDescription("Error records accepted from inbound log dumps."),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		m.logger.Warn("failed to create records counter", zap.Error(err))
	}

	m.callbacks, err = m.meter.Int64Counter(
		"remedyd.bot.callbacks_total",
		metric.WithDescription("Interactive callbacks received, labeled by action."),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		m.logger.Warn("failed to create callbacks counter", zap.Error(err))
	}

	m.verificationFailures, err = m.meter.Int64Counter(
		"remedyd.bot.verification_failures_total",
		metric.WithDescription("Requests rejected by signature verification."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create verification counter", zap.Error(err))
	}
}

func (m *Metrics) recordMessage(ctx context.Context) {
	if m.messagesSeen != nil {
		m.messagesSeen.Add(ctx, 1)
	}
}

func (m *Metrics) recordGreeting(ctx context.Context) {
	if m.greetings != nil {
		m.greetings.Add(ctx, 1)
	}
}

func (m *Metrics) recordRecords(ctx context.Context, n int) {
	if m.recordsExtracted != nil && n > 0 {
		m.recordsExtracted.Add(ctx, int64(n))
	}
}

func (m *Metrics) recordCallback(ctx context.Context, action string) {
	if m.callbacks != nil {
		m.callbacks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action)))
	}
}

func (m *Metrics) recordVerificationFailure(ctx context.Context) {
	if m.verificationFailures != nil {
		m.verificationFailures.Add(ctx, 1)
	}
}
