//go:build integration

package kafka_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/stockflow/pkg/channels/kafka"
	"github.com/dukex/stockflow/pkg/eventbus"
	"github.com/dukex/stockflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) []string {
	t.Helper()

	ctx := context.Background()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("stockflow-test"))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(context.Background()))
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0

	admin, err := sarama.NewClusterAdmin(brokers, config)
	require.NoError(t, err)

	defer admin.Close()

	require.NoError(t, admin.CreateTopic(events.Topic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false))

	return brokers
}

func TestCreateChannel_DeliversWorkflowEvents(t *testing.T) {
	brokers := setupKafka(t)

	publisher, subscriber, err := kafka.CreateChannel(watermill.NopLogger{}, brokers, "stockflow-test")
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(slog.New(slog.DiscardHandler), publisher, subscriber)

	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	received := make(chan *events.WorkflowPublished, 1)

	require.NoError(t, bus.Handle(events.WorkflowPublishedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowPublished)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, bus.Subscribe(ctx))

	published := events.WorkflowPublished{
		BaseEvent: events.NewBaseEvent(events.WorkflowPublishedEvent, "workflow-1"),
		Name:      "Reorder stock",
		Trigger: events.Trigger{
			NodeID:      "trigger-1",
			TriggerType: "Scheduled",
			Schedule:    "30 8 * * 1,5",
		},
	}

	require.NoError(t, bus.Publish(ctx, "workflow-1", published))

	select {
	case event := <-received:
		assert.Equal(t, published.ID, event.ID)
		assert.Equal(t, "workflow-1", event.WorkflowID)
		assert.Equal(t, "30 8 * * 1,5", event.Trigger.Schedule)
	case <-time.After(60 * time.Second):
		t.Fatal("workflow.published was not delivered")
	}
}
