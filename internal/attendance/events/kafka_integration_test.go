//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/models"
	"gymdesk/internal/platform/config"
	"gymdesk/internal/platform/kafka"
	"gymdesk/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t).Broker
	cfg := config.KafkaConfig{
		Brokers:           []string{broker},
		Topic:             "attendance.events.test",
		ClientID:          "gymdesk-test",
		Partitions:        1,
		ReplicationFactor: 1,
	}
	producer, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg), "second provisioning must be a no-op")

	publisher, err := events.NewKafkaPublisher(producer, cfg.Topic)
	require.NoError(t, err)

	r, err := models.NewAttendanceRecord(uuid.New(), models.MemberSubject{MemberID: uuid.New(), MemberCode: "M-K"},
		models.MethodCard, "", true, time.Now().UTC())
	require.NoError(t, err)
	sent := events.NewEvent(events.TypeCheckedIn, r, time.Now().UTC())
	require.NoError(t, publisher.Emit(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "M-K", string(records[0].Key))
	var got events.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, events.TypeCheckedIn, got.Type)
	assert.Equal(t, r.ID, got.RecordID)
}
