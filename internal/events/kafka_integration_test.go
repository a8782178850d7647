//go:build integration

package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"govportal/pkg/testutil/containers"
)

func TestKafkaPublishesToTopic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub, err := NewKafka([]string{broker.Broker}, "portal.submissions.test", logger)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.EnsureTopic(ctx, 1, 1))
	require.NoError(t, pub.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, pub.PublishSubmission(ctx, SubmissionCreated{
		ReferenceID:     "REPORT-MHK2L0QX-4Z81KD0P2A",
		Category:        "report",
		Status:          "pending",
		AttachmentCount: 1,
		CreatedAt:       created,
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("portal.submissions.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "REPORT-MHK2L0QX-4Z81KD0P2A", string(records[0].Key))
	var got SubmissionCreated
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "report", got.Category)
	assert.Equal(t, 1, got.AttachmentCount)
	assert.True(t, created.Equal(got.CreatedAt))
}
