// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaSinkPublishesInOrder(t *testing.T) {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)

	var published []string
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			published = append(published, string(val))
			return nil
		})
	}

	s := NewKafkaSinkWithProducer(producer, "readings", "gw-1")
	for _, item := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, s.Write(context.Background(), item))
	}

	require.NoError(t, s.Close())
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, published)
}

func TestKafkaSinkPublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s := NewKafkaSinkWithProducer(producer, "readings", "")
	err := s.Write(context.Background(), "alpha")

	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
	require.NoError(t, s.Close())
}

func TestNewKafkaSinkWithoutBrokers(t *testing.T) {
	_, err := NewKafkaSink(context.Background(), &KafkaConfig{Topic: "readings"})
	assert.Equal(t, ErrNoBrokers, err)
}
