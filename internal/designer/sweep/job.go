package sweep

import (
	"context"
	"encoding/json"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
)

// Job asks the sweep worker to clean up designer metaobjects whose variants
// no longer exist, typically after a product deletion.
type Job struct {
	Shop      string `json:"shop"`
	ProductID string `json:"productId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// Publisher enqueues sweep jobs on the configured topic.
type Publisher struct {
	topic topicPublisher
	logg  *logger.Logger
}

// NewPublisher constructs a sweep job publisher.
func NewPublisher(topic topicPublisher, logg *logger.Logger) (*Publisher, error) {
	if topic == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sweep topic required")
	}
	return &Publisher{topic: topic, logg: logg}, nil
}

// Enqueue publishes the job and waits for the server acknowledgement.
func (p *Publisher) Enqueue(ctx context.Context, job Job) error {
	if strings.TrimSpace(job.Shop) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sweep job shop required")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode sweep job")
	}

	result := p.topic.Publish(ctx, &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"shop": job.Shop},
	})
	if _, err := result.Get(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish sweep job")
	}
	if p.logg != nil {
		ctx = p.logg.WithShop(ctx, job.Shop)
		p.logg.Info(ctx, "sweep job enqueued")
	}
	return nil
}
