// Package event publishes storefront activity to Kafka.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for storefront activity.
var (
	TopicCartUpdated    = pkgkafka.Topic("cart", "updated")
	TopicSessionChanged = pkgkafka.Topic("session", "changed")
)

// Aggregate types.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeSession = "session"
)

// SourceStorefront identifies events emitted by this process.
const SourceStorefront = "storefront"

// Publisher announces cart and session changes. Implementations never
// fail the caller: delivery problems are logged.
type Publisher interface {
	CartUpdated(ctx context.Context, cart domain.Cart, quote domain.Quote)
	SessionChanged(ctx context.Context, change SessionChange)
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Items           []CartItemData `json:"items"`
	ItemCount       int            `json:"item_count"`
	Subtotal        int64          `json:"subtotal"`
	DiscountPercent int            `json:"discount_percent"`
	Total           int64          `json:"total"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// SessionChange is the payload for a session.changed event.
type SessionChange struct {
	Operation string           `json:"operation"`
	State     domain.AuthState `json:"state"`
	UserID    string           `json:"user_id,omitempty"`
	Username  string           `json:"username,omitempty"`
}

// EventWriter is the part of pkgkafka.Producer the publisher needs.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaPublisher publishes storefront events through a Kafka producer.
// Every event is keyed by the storefront instance id so one shopper's
// events stay ordered on one partition.
type KafkaPublisher struct {
	writer     EventWriter
	instanceID string
	logger     *slog.Logger
}

// NewKafkaPublisher creates a publisher for the storefront instance.
func NewKafkaPublisher(writer EventWriter, instanceID string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, instanceID: instanceID, logger: logger}
}

// CartUpdated publishes a cart.updated event.
func (p *KafkaPublisher) CartUpdated(ctx context.Context, cart domain.Cart, quote domain.Quote) {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		Items:           items,
		ItemCount:       quote.ItemCount,
		Subtotal:        quote.Subtotal,
		DiscountPercent: quote.DiscountPercent,
		Total:           quote.Total,
	}
	p.publish(ctx, TopicCartUpdated, AggregateTypeCart, data, "")
}

// SessionChanged publishes a session.changed event.
func (p *KafkaPublisher) SessionChanged(ctx context.Context, change SessionChange) {
	p.publish(ctx, TopicSessionChanged, AggregateTypeSession, change, change.Operation)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, aggregateType string, data any, operation string) {
	evt, err := pkgkafka.NewEvent(topic, p.instanceID, aggregateType, SourceStorefront, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithMetadata("operation", operation)

	if err := p.writer.Publish(ctx, topic, evt); err != nil {
		p.logger.WarnContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_id", evt.EventID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("event_id", evt.EventID),
	)
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) CartUpdated(context.Context, domain.Cart, domain.Quote) {}

func (NopPublisher) SessionChanged(context.Context, SessionChange) {}
