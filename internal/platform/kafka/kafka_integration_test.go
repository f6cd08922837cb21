//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"bloodbank/internal/platform/kafka"
	"bloodbank/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	producer *kafka.Producer
}

func TestKafkaSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	p, err := kafka.NewProducer(kafka.Config{Brokers: s.redpanda.Brokers, ClientID: "bloodbank-test"})
	s.Require().NoError(err)
	s.producer = p
}

func (s *KafkaSuite) TearDownSuite() {
	s.producer.Close()
}

func (s *KafkaSuite) TestEnsureTopicsIsIdempotent() {
	ctx := context.Background()
	spec := kafka.TopicSpec{Name: "bloodbank.test.ensure", Partitions: 3}
	s.Require().NoError(kafka.EnsureTopics(ctx, s.producer.Client(), spec))
	s.Require().NoError(kafka.EnsureTopics(ctx, s.producer.Client(), spec))
}

func (s *KafkaSuite) TestProduceAndConsume() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "bloodbank.test.roundtrip"
	s.Require().NoError(kafka.EnsureTopics(ctx, s.producer.Client(), kafka.TopicSpec{Name: topic}))

	s.Require().NoError(s.producer.Produce(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte("unit-1"),
		Value:   []byte(`{"action":"blood_unit_registered"}`),
		Headers: map[string]string{"event_type": "blood_unit_registered"},
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollRecords(ctx, 1)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("unit-1", string(records[0].Key))
	s.Require().Len(records[0].Headers, 1)
	s.Equal("event_type", records[0].Headers[0].Key)
}
