//go:build integration

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"suratdesa/internal/audit"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/testutil/containers"
)

func TestKafkaDispatcher_Integration(t *testing.T) {
	ctx := context.Background()
	rp := containers.NewRedpandaContainer(t)

	const topic = "letter.lifecycle.test"
	dispatcher, err := NewKafkaDispatcher(ctx, rp.Brokers, topic)
	require.NoError(t, err)
	t.Cleanup(dispatcher.Close)

	requestID := id.NewRequestID()
	event, err := audit.NewEvent(requestID, "rt-chair", "rt", audit.ActionVerified, "warga kami",
		time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, dispatcher.OnEvent(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, requestID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, audit.ActionVerified, got.Action)
	assert.Equal(t, requestID, got.RequestID)
	assert.Equal(t, "warga kami", got.Note)
}
