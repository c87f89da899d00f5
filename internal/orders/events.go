package orders

import (
	"context"

	"github.com/mishraomi/ecommerce-app/internal/domain"
	"github.com/mishraomi/ecommerce-app/internal/messaging"
)

// KafkaPublisher routes placement outcomes to their topics, keyed by order
// id so events for one order stay on one partition.
type KafkaPublisher struct {
	placed *messaging.Producer
	failed *messaging.Producer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		placed: messaging.NewProducer(brokers, "order.placed"),
		failed: messaging.NewProducer(brokers, "order.failed"),
	}
}

func (p *KafkaPublisher) PublishPlaced(ctx context.Context, event domain.OrderPlacedEvent) error {
	return p.placed.Publish(ctx, event.OrderID, event)
}

func (p *KafkaPublisher) PublishFailed(ctx context.Context, event domain.OrderFailedEvent) error {
	return p.failed.Publish(ctx, event.OrderID, event)
}

func (p *KafkaPublisher) Close() error {
	placedErr := p.placed.Close()
	if err := p.failed.Close(); err != nil {
		return err
	}
	return placedErr
}
