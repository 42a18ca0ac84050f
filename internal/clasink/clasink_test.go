package clasink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsMissingBrokers(t *testing.T) {
	_, err := New(Config{Topic: "itchy.classifications"})
	require.Error(t, err)
}

func TestNewRejectsMissingTopic(t *testing.T) {
	_, err := New(Config{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)
}

func TestStatsStartAtZero(t *testing.T) {
	s := &Sink{}
	published, failed := s.Stats()
	require.Zero(t, published)
	require.Zero(t, failed)
}
