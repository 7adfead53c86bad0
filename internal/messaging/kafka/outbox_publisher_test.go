package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

func headerMap(headers []sarama.RecordHeader) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[string(h.Key)] = string(h.Value)
	}
	return out
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	publishedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, TopicOrderEvents, msg.Topic)
		key, _ := msg.Key.Encode()
		require.Equal(t, "order-123", string(key))

		headers := headerMap(msg.Headers)
		require.Equal(t, domain.EventTypeOrderCreated, headers[HeaderEventType])
		require.Equal(t, domain.AggregateTypeOrder, headers[HeaderAggregateType])

		value, _ := msg.Value.Encode()
		var envelope Envelope
		require.NoError(t, json.Unmarshal(value, &envelope))
		require.Equal(t, "outbox-1", envelope.ID)
		require.Equal(t, publishedAt, envelope.PublishedAt)
		require.JSONEq(t, `{"order_id":"order-123"}`, string(envelope.Payload))
		return nil
	})

	publisher := NewOutboxPublisher(newProducer(mockProducer, log.WithField("component", "test")), "")
	publisher.now = func() time.Time { return publishedAt }

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   "order-123",
		EventType:     domain.EventTypeOrderCreated,
		Payload:       []byte(`{"order_id":"order-123"}`),
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_KeyFallsBackToMessageID(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		require.Equal(t, "outbox-9", string(key))
		require.Equal(t, TopicDeadLetterQueue, msg.Topic)
		return nil
	})

	publisher := NewDeadLetterPublisher(newProducer(mockProducer, nil), "")
	require.NoError(t, publisher.Publish(domain.OutboxMessage{ID: "outbox-9", Payload: []byte(`{}`)}))
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(newProducer(mockProducer, nil), TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:          "outbox-2",
		AggregateID: "order-234",
		EventType:   domain.EventTypeOrderCreated,
		Payload:     []byte(`{}`),
	})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	require.ErrorIs(t, publisher.Publish(domain.OutboxMessage{ID: "outbox-3"}), errPublisherNotInitialized)

	var nilPublisher *OutboxTopicPublisher
	require.ErrorIs(t, nilPublisher.Publish(domain.OutboxMessage{}), errPublisherNotInitialized)
}
