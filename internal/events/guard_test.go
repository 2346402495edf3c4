package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/resilience"
)

func TestGuardedPublisherFailsFastWhenOpen(t *testing.T) {
	rec := &events.Recorder{Err: errors.New("leader not available")}
	pub := events.GuardedPublisher{
		Next:    rec,
		Breaker: resilience.NewBreaker("kafka", 1, 0.5, time.Hour, zerolog.Nop()),
	}
	ev, err := events.New(events.TypeTransactionRecorded, "branch-1", map[string]any{"total": 105})
	require.NoError(t, err)

	require.EqualError(t, pub.Publish(context.Background(), ev), "leader not available")
	require.ErrorIs(t, pub.Publish(context.Background(), ev), resilience.ErrOpenCircuit)
}

func TestGuardedPublisherPassesThrough(t *testing.T) {
	rec := &events.Recorder{}
	pub := events.GuardedPublisher{Next: rec}
	ev, err := events.New(events.TypeMenuRepriced, "branch-1", map[string]any{"items": 3})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, rec.Events(), 1)
}
