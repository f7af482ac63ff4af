package kafka_config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " b1:9092, ,b2:9092 ")

	cfg := Load()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultBookingTopic, cfg.BookingTopic)
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Load()
	cfg.Brokers = nil
	cfg.BookingDLQTopic = cfg.BookingTopic
	cfg.ProducerCompression = "brotli"
	cfg.ConsumerStartOffset = 5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker")
	assert.Contains(t, err.Error(), "DLQ")
	assert.Contains(t, err.Error(), "ProducerCompression")
	assert.Contains(t, err.Error(), "ConsumerStartOffset")
}
