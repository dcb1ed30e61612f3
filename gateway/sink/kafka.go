// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff"

	log "github.com/sirupsen/logrus"
)

// ErrNoBrokers is returned when a Kafka sink is configured without brokers.
var ErrNoBrokers = errors.New("no Kafka brokers configured")

// KafkaConfig configures KafkaSink.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	// Key is attached to every message so that all items land on one
	// partition and keep their order.
	Key string
	// MaxElapsedTime bounds connection retries.
	MaxElapsedTime time.Duration
}

// KafkaSink publishes every item as one message to a Kafka topic.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	key      sarama.Encoder
}

// NewKafkaSink connects to the brokers with exponential backoff and returns
// a sink publishing to cfg.Topic.
func NewKafkaSink(ctx context.Context, cfg *KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	producerConfig := sarama.NewConfig()
	producerConfig.ClientID = cfg.ClientID
	producerConfig.Producer.RequiredAcks = sarama.WaitForAll
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Partitioner = sarama.NewHashPartitioner
	// one in-flight request per broker keeps retries from reordering items
	producerConfig.Net.MaxOpenRequests = 1

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = time.Second
	expBackoff.MaxElapsedTime = cfg.MaxElapsedTime
	if expBackoff.MaxElapsedTime == 0 {
		expBackoff.MaxElapsedTime = time.Minute
	}

	var producer sarama.SyncProducer
	operation := func() error {
		var err error
		producer, err = sarama.NewSyncProducer(cfg.Brokers, producerConfig)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Kafka, will retry")
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka after retries: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).WithField("topic", cfg.Topic).Info("Kafka sink connected")
	return NewKafkaSinkWithProducer(producer, cfg.Topic, cfg.Key), nil
}

// NewKafkaSinkWithProducer returns a sink over an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic, key string) *KafkaSink {
	s := &KafkaSink{
		producer: producer,
		topic:    topic,
	}
	if key != "" {
		s.key = sarama.StringEncoder(key)
	}
	return s
}

// Write implements Sink.
func (s *KafkaSink) Write(_ context.Context, item string) error {
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   s.key,
		Value: sarama.StringEncoder(item),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish item to %s: %w", s.topic, err)
	}

	log.WithField("partition", partition).WithField("offset", offset).Trace("Item published")
	return nil
}

// Close releases the underlying producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
