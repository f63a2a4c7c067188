package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledBroker blocks every publish until released
type stalledBroker struct {
	recordingPublisher
	release chan struct{}
}

func newStalledBroker() *stalledBroker {
	return &stalledBroker{release: make(chan struct{})}
}

func (b *stalledBroker) Publish(topic string, payload []byte) error {
	<-b.release
	return b.recordingPublisher.Publish(topic, payload)
}

func (b *stalledBroker) PublishRetained(topic string, payload []byte) error {
	<-b.release
	return b.recordingPublisher.PublishRetained(topic, payload)
}

func TestOutboxDoesNotBlockOnStalledBroker(t *testing.T) {
	broker := newStalledBroker()
	outbox := NewOutbox(broker, 8)
	outbox.Start()

	returned := make(chan struct{})
	go func() {
		_ = outbox.PublishRetained("drawbot/status", []byte(`{"n":1}`))
		_ = outbox.Publish("drawbot/actions/results", []byte(`{"n":2}`))
		_ = outbox.PublishRetained("drawbot/status", []byte(`{"n":3}`))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("publishing through the outbox blocked on the broker")
	}

	close(broker.release)
	outbox.Stop()

	broker.mu.Lock()
	defer broker.mu.Unlock()
	require.Len(t, broker.messages, 3)
	assert.Equal(t, `{"n":1}`, string(broker.messages[0].payload))
	assert.True(t, broker.messages[0].retained)
	assert.Equal(t, "drawbot/actions/results", broker.messages[1].topic)
	assert.False(t, broker.messages[1].retained)
	assert.Equal(t, `{"n":3}`, string(broker.messages[2].payload))
}

func TestOutboxDropsWhenFull(t *testing.T) {
	broker := newStalledBroker()
	outbox := NewOutbox(broker, 1)

	require.NoError(t, outbox.Publish("a", nil))
	assert.Error(t, outbox.Publish("b", nil))
	assert.Equal(t, 1, outbox.Dropped())

	outbox.Stop()
	assert.Error(t, outbox.Publish("c", nil))
}

func TestMessageHandlersDoNotBlockOnStalledBroker(t *testing.T) {
	processor, rig, _ := newTestProcessor(t)
	broker := newStalledBroker()
	defer close(broker.release)
	outbox := NewOutbox(broker, 8)
	outbox.Start()
	processor.publisher = outbox
	NewLinkStatusMonitor(rig.session, rig.store, outbox, NewTopics("drawbot"))

	handlers := processor.GetMessageHandlers()
	done := make(chan struct{})
	go func() {
		handlers.StrokeHandler(nil, &fakeMessage{
			topic:   "drawbot/strokes",
			payload: []byte(`{"event":"stroke","points":[{"x":10,"y":10},{"x":10,"y":60}]}`),
		})
		handlers.ActionHandler(nil, &fakeMessage{topic: "drawbot/actions", payload: []byte(`{"action":"bogus"}`)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("message handlers blocked on a stalled broker")
	}
	assert.Equal(t, 1, rig.store.StrokeCount())
}
