package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	return m.Called(ctx, topic, event).Error(0)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.cart.updated", TopicCartUpdated)
	assert.Equal(t, "storefront.session.changed", TopicSessionChanged)
}

func TestCartUpdated_PublishesPayload(t *testing.T) {
	w := new(mockWriter)
	var published *pkgkafka.Event
	w.On("Publish", mock.Anything, TopicCartUpdated, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	p := NewKafkaPublisher(w, "inst-1", logger.Discard())
	ctx := logger.WithCorrelationID(t.Context(), "corr-1")
	p.CartUpdated(ctx,
		domain.Cart{Items: []domain.CartItem{{ProductID: "rose", Name: "Rose", UnitPrice: 450, Quantity: 2}}},
		domain.Quote{ItemCount: 2, Subtotal: 900, DiscountPercent: 10, Discount: 90, Total: 810},
	)

	require.NotNil(t, published)
	assert.Equal(t, "inst-1", published.AggregateID)
	assert.Equal(t, AggregateTypeCart, published.AggregateType)
	assert.Equal(t, SourceStorefront, published.Source)
	assert.Equal(t, "corr-1", published.CorrelationID)

	var data CartUpdatedData
	require.NoError(t, published.UnmarshalData(&data))
	assert.Equal(t, 2, data.ItemCount)
	assert.Equal(t, int64(810), data.Total)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "rose", data.Items[0].ProductID)
	w.AssertExpectations(t)
}

func TestSessionChanged_TagsOperation(t *testing.T) {
	w := new(mockWriter)
	var published *pkgkafka.Event
	w.On("Publish", mock.Anything, TopicSessionChanged, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	p := NewKafkaPublisher(w, "inst-1", logger.Discard())
	p.SessionChanged(t.Context(), SessionChange{Operation: "login", State: domain.AuthAuthenticated, UserID: "42"})

	require.NotNil(t, published)
	assert.Equal(t, "login", published.Metadata["operation"])

	var data SessionChange
	require.NoError(t, published.UnmarshalData(&data))
	assert.Equal(t, domain.AuthAuthenticated, data.State)
	assert.Equal(t, "42", data.UserID)
}

func TestPublishError_IsSwallowed(t *testing.T) {
	w := new(mockWriter)
	w.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := NewKafkaPublisher(w, "inst-1", logger.Discard())
	assert.NotPanics(t, func() {
		p.SessionChanged(t.Context(), SessionChange{Operation: "logout", State: domain.AuthLoggedOut})
	})
	w.AssertNumberOfCalls(t, "Publish", 1)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.CartUpdated(t.Context(), domain.Cart{}, domain.Quote{})
	p.SessionChanged(t.Context(), SessionChange{})
}
