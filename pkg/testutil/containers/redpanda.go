//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// RedpandaContainer is a throwaway Kafka-compatible broker for event tests.
type RedpandaContainer struct {
	Broker string
}

// NewRedpandaContainer starts Redpanda and terminates it when t finishes.
func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4",
		redpanda.WithAutoCreateTopics(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		t.Fatalf("failed to get redpanda seed broker: %v", err)
	}
	return &RedpandaContainer{Broker: broker}
}
