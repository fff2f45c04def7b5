package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

// fakeReader hands out queued messages, then blocks until the context is done.
// With err set every read fails immediately.
type fakeReader struct {
	queue []kafka.Message
	err   error
	reads atomic.Int32
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.reads.Add(1)
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		return msg, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error { return nil }

func newTestBus(reader *fakeReader) (*EventBus, *fakeWriter, *fakeWriter) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	writer := &fakeWriter{}
	dlq := &fakeWriter{}
	if reader == nil {
		reader = &fakeReader{}
	}
	bus := newEventBus(writer, reader, dlq, PartnerInteractionsTopic, PartnerInteractionsDLQTopic, logger)
	bus.baseDelay = time.Millisecond
	bus.readBackoff = time.Millisecond
	return bus, writer, dlq
}

func TestEventBus_PublishInteraction(t *testing.T) {
	bus, writer, _ := newTestBus(nil)

	err := bus.PublishInteraction(context.Background(), models.InteractionEvent{
		ActorID:  "u1",
		TargetID: "u2",
		Kind:     string(matching.InteractionLike),
		Weight:   1,
	})
	require.NoError(t, err)

	messages := writer.written()
	require.Len(t, messages, 1)
	assert.Equal(t, []byte("u1"), messages[0].Key)

	var event models.InteractionEvent
	require.NoError(t, json.Unmarshal(messages[0].Value, &event))
	assert.Equal(t, "u2", event.TargetID)
	assert.Equal(t, string(matching.InteractionLike), event.Kind)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())

	headers := map[string]string{}
	for _, h := range messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "like", headers["interaction_type"])
	assert.Equal(t, event.EventID, headers["event_id"])
}

func TestEventBus_PublishInteractionError(t *testing.T) {
	bus, writer, _ := newTestBus(nil)
	writer.err = errors.New("broker unavailable")

	err := bus.PublishInteraction(context.Background(), models.InteractionEvent{ActorID: "u1", TargetID: "u2", Kind: string(matching.InteractionBlock)})
	assert.Error(t, err)
}

func TestEventBus_Consume(t *testing.T) {
	payload, err := json.Marshal(models.InteractionEvent{EventID: "e1", ActorID: "u1", TargetID: "u2", Kind: string(matching.InteractionMessage)})
	require.NoError(t, err)

	reader := &fakeReader{queue: []kafka.Message{
		{Key: []byte("u1"), Value: payload},
		{Key: []byte("u1"), Value: []byte("not json")},
	}}
	bus, _, dlq := newTestBus(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled []models.InteractionEvent
	done := make(chan error, 1)
	go func() {
		done <- bus.Consume(ctx, func(_ context.Context, event models.InteractionEvent) error {
			handled = append(handled, event)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(dlq.written()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	require.Len(t, handled, 1)
	assert.Equal(t, "e1", handled[0].EventID)
}

func TestEventBus_ConsumeBacksOffOnReadErrors(t *testing.T) {
	reader := &fakeReader{err: errors.New("broker unreachable")}
	bus, _, _ := newTestBus(reader)
	bus.readBackoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := bus.Consume(ctx, func(context.Context, models.InteractionEvent) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.LessOrEqual(t, reader.reads.Load(), int32(4))
	assert.GreaterOrEqual(t, reader.reads.Load(), int32(2))
}

func TestEventBus_ConsumeStopsDuringBackoff(t *testing.T) {
	reader := &fakeReader{err: errors.New("broker unreachable")}
	bus, _, _ := newTestBus(reader)
	bus.readBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- bus.Consume(ctx, func(context.Context, models.InteractionEvent) error { return nil })
	}()

	require.Eventually(t, func() bool { return reader.reads.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop while backing off")
	}
	assert.Equal(t, int32(1), reader.reads.Load())
}

func TestEventBus_ProcessWithRetry(t *testing.T) {
	bus, _, _ := newTestBus(nil)
	event := models.InteractionEvent{EventID: "e1"}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := bus.processWithRetry(context.Background(), event, func(context.Context, models.InteractionEvent) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := bus.processWithRetry(context.Background(), event, func(context.Context, models.InteractionEvent) error {
			attempts++
			return errors.New("permanent")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, maxRetries+1, attempts)
	})
}

func TestEventBus_FailedEventGoesToDLQ(t *testing.T) {
	payload, err := json.Marshal(models.InteractionEvent{EventID: "e2", ActorID: "u1", TargetID: "u3", Kind: string(matching.InteractionBlock)})
	require.NoError(t, err)

	bus, _, dlq := newTestBus(&fakeReader{queue: []kafka.Message{{Key: []byte("u1"), Value: payload}}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- bus.Consume(ctx, func(context.Context, models.InteractionEvent) error {
			return errors.New("cache unavailable")
		})
	}()

	require.Eventually(t, func() bool { return len(dlq.written()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	var dead map[string]interface{}
	require.NoError(t, json.Unmarshal(dlq.written()[0].Value, &dead))
	assert.Contains(t, dead["error"], "cache unavailable")
	original, ok := dead["original_message"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "e2", original["event_id"])
}

func TestEventBus_Close(t *testing.T) {
	bus, writer, dlq := newTestBus(nil)

	require.NoError(t, bus.Close())
	assert.True(t, writer.closed)
	assert.True(t, dlq.closed)
}
