package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	producer, err := initKafkaProducer(nil, log.WithField("test", "kafka"))
	require.NoError(t, err)
	require.Nil(t, producer)
}

func TestInitKafkaProducer_UnreachableBroker(t *testing.T) {
	// На порту 1 никто не слушает, подключение отклоняется сразу.
	producer, err := initKafkaProducer([]string{"127.0.0.1:1"}, log.WithField("test", "kafka"))
	require.Error(t, err)
	require.Nil(t, producer)
}

func TestCloseKafka_NilProducer(t *testing.T) {
	require.NotPanics(t, func() {
		closeKafka(nil, log.WithField("test", "kafka"))
	})
}
