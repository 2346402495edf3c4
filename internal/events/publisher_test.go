package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewEncodesPayload(t *testing.T) {
	ev, err := New(TypeTransactionRecorded, "branch-1", map[string]any{"total": 200})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.JSONEq(t, `{"total":200}`, string(ev.Data))
	require.False(t, ev.Timestamp.IsZero())

	ev, err = New(TypeMenuRepriced, "branch-1", nil)
	require.NoError(t, err)
	require.Equal(t, "{}", string(ev.Data))
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(" ", "branch-1", nil)
	require.Error(t, err)
	_, err = New(TypeTransactionRecorded, "", nil)
	require.Error(t, err)
	_, err = New(TypeTransactionRecorded, "branch-1", []byte("{not json"))
	require.Error(t, err)
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "resto.sales", zerolog.Nop())

	ev, err := New(TypeTransactionRecorded, "branch-1", map[string]string{"id": "tx-1"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	require.Equal(t, "branch-1", string(msg.Key))
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, TypeTransactionRecorded, string(msg.Headers[0].Value))
	require.Equal(t, ev.ID, string(msg.Headers[1].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, ev.ID, decoded.ID)
	require.Equal(t, "branch-1", decoded.AggregateID)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestKafkaPublisherLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, "resto.sales", zerolog.New(&buf))

	ev, err := New(TypeTransactionRecorded, "branch-1", nil)
	require.NoError(t, err)
	err = p.Publish(context.Background(), ev)
	require.ErrorContains(t, err, "broker down")
	require.Contains(t, buf.String(), `"event_id":"`+ev.ID+`"`)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ev, err := New(TypeMenuRepriced, "branch-1", nil)
	require.NoError(t, err)
	require.NoError(t, r.Publish(context.Background(), ev))
	require.Len(t, r.Events(), 1)

	r.Err = errors.New("unavailable")
	require.Error(t, r.Publish(context.Background(), ev))
	require.Len(t, r.Events(), 1)
	require.NoError(t, NopPublisher{}.Publish(context.Background(), ev))
}
