package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/pkg/platform/circuit"
)

func TestNoopAcceptsEverything(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishSubmission(context.Background(), SubmissionCreated{ReferenceID: "REPORT-1"}))
	p.Close()
}

func TestKafkaOpenCircuitSkipsProduce(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	breaker.RecordFailure()

	// Unroutable seed broker; the open breaker must short-circuit before any dial.
	k, err := NewKafka([]string{"127.0.0.1:1"}, "portal.submissions", logger, WithBreaker(breaker))
	require.NoError(t, err)
	defer k.client.Close()

	err = k.PublishSubmission(context.Background(), SubmissionCreated{ReferenceID: "LAND-1"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestKafkaProduceFailureOpensCircuit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))

	k, err := NewKafka([]string{"127.0.0.1:1"}, "portal.submissions", logger,
		WithBreaker(breaker), WithPublishTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer k.client.Close()

	err = k.PublishSubmission(context.Background(), SubmissionCreated{ReferenceID: "LAND-1"})
	require.Error(t, err)
	assert.True(t, breaker.IsOpen())
}
