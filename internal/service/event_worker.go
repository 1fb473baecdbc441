package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/serviceai/sms-dispatch/internal/domain"
	"github.com/serviceai/sms-dispatch/internal/observability"
	"github.com/serviceai/sms-dispatch/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// EventWorker consumes appointment events and turns them into template-driven
// sends. The queue is the webhook surface's hand-off point into the SMS core.
type EventWorker struct {
	delivery    *DeliveryService
	consumer    queue.Consumer
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
}

func NewEventWorker(
	delivery *DeliveryService,
	consumer queue.Consumer,
	concurrency int,
	logger *zap.Logger,
) (*EventWorker, error) {
	if delivery == nil {
		return nil, fmt.Errorf("delivery service is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EventWorker{
		delivery:    delivery,
		consumer:    consumer,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

func (w *EventWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes the appointment events queue until context cancellation.
func (w *EventWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("event worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queue.AppointmentEventsQueue),
			)

			err := w.consumer.Consume(groupCtx, queue.AppointmentEventsQueue, w.processEvent)
			if err != nil {
				w.logger.Error("event worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("event worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (w *EventWorker) processEvent(ctx context.Context, event queue.AppointmentEvent) error {
	logger := observability.WithContextLogger(w.logger, ctx)

	templateKey := event.EventType.TemplateKey()
	if templateKey == "" {
		logger.Warn("skipping event with no template mapping",
			zap.String("eventId", event.EventID),
			zap.String("eventType", event.EventType.String()),
		)
		return nil
	}

	if w.metrics != nil {
		w.metrics.IncDeliveryInFlight()
		defer w.metrics.DecDeliveryInFlight()
	}

	data := make(domain.TemplateData, len(event.Data))
	for name, value := range event.Data {
		data[name] = value
	}

	result, err := w.delivery.Send(ctx, SendRequest{
		Type:           SendTemplate,
		OrganizationID: event.OrganizationID,
		TemplateKey:    templateKey,
		TemplateData:   data,
		Language:       event.Language,
		PhoneNumber:    event.PhoneNumber,
		CustomerID:     event.CustomerID,
	})
	if err != nil {
		// Malformed events never become deliverable; ack them away instead
		// of requeue-looping.
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
			logger.Warn("dropping undeliverable appointment event",
				zap.String("eventId", event.EventID),
				zap.String("templateKey", templateKey),
				zap.Error(err),
			)
			return nil
		}
		return fmt.Errorf("failed to process appointment event %s: %w", event.EventID, err)
	}

	logger.Info("appointment event processed",
		zap.String("eventId", event.EventID),
		zap.String("templateKey", templateKey),
		zap.Int("sent", result.TotalSent),
		zap.Int("failed", result.TotalFailed),
	)

	return nil
}
