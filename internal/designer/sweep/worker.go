package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
)

// Worker consumes sweep jobs from Pub/Sub and runs the sweeper for each.
// Sweeping is idempotent, so duplicate deliveries are harmless and no
// cross-delivery dedup is kept.
type Worker struct {
	subscription *gcppubsub.Subscriber
	sweeper      *Sweeper
	logg         *logger.Logger
}

// NewWorker constructs the sweep worker.
func NewWorker(subscription *gcppubsub.Subscriber, sweeper *Sweeper, logg *logger.Logger) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("sweep subscription is required")
	}
	if sweeper == nil {
		return nil, errors.New("sweeper is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Worker{subscription: subscription, sweeper: sweeper, logg: logg}, nil
}

// Run consumes sweep messages until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process returns true when the message should be redelivered.
func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) bool {
	logCtx := w.logg.WithField(ctx, "message_id", msg.ID)

	var job Job
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		w.logg.Warn(logCtx, "dropping malformed sweep job")
		return false
	}
	if strings.TrimSpace(job.Shop) == "" {
		w.logg.Warn(logCtx, "dropping sweep job without shop")
		return false
	}
	logCtx = w.logg.WithShop(logCtx, job.Shop)

	deleted, err := w.sweeper.Sweep(logCtx, job.Shop)
	if err != nil {
		if retryableSweepError(err) {
			w.logg.Error(logCtx, "sweep failed, redelivering", err)
			return true
		}
		w.logg.Error(logCtx, "sweep failed permanently", err)
		return false
	}

	logCtx = w.logg.WithField(logCtx, "deleted", deleted)
	w.logg.Info(logCtx, "sweep completed")
	return false
}

func retryableSweepError(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	switch typed.Code() {
	case pkgerrors.CodeDependency, pkgerrors.CodeRateLimit, pkgerrors.CodeInternal:
		return true
	default:
		return false
	}
}
