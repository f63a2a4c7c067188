package main

import (
	"fmt"
	"log"
	"sync"
)

// brokerPublisher is what an Outbox drains into
type brokerPublisher interface {
	Publish(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

type outboundMessage struct {
	topic    string
	payload  []byte
	retained bool
}

// Outbox queues publishes and sends them in order from one goroutine.
// Callers never block on the broker, so it is safe to use from MQTT
// message handlers and from callbacks they trigger.
type Outbox struct {
	target brokerPublisher
	queue  chan outboundMessage

	mu      sync.Mutex
	started bool
	closed  bool
	dropped int

	done chan struct{}
}

// NewOutbox creates an outbox holding up to size pending messages
func NewOutbox(target brokerPublisher, size int) *Outbox {
	if size < 1 {
		size = 1
	}
	return &Outbox{
		target: target,
		queue:  make(chan outboundMessage, size),
		done:   make(chan struct{}),
	}
}

// Start runs the publishing goroutine until Stop
func (o *Outbox) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true
	go func() {
		defer close(o.done)
		for msg := range o.queue {
			var err error
			if msg.retained {
				err = o.target.PublishRetained(msg.topic, msg.payload)
			} else {
				err = o.target.Publish(msg.topic, msg.payload)
			}
			if err != nil {
				logDebugf("대기열 메시지 발행 실패 - Topic: %s, Error: %v", msg.topic, err)
			}
		}
	}()
}

// Publish queues a message
func (o *Outbox) Publish(topic string, payload []byte) error {
	return o.enqueue(outboundMessage{topic: topic, payload: payload})
}

// PublishRetained queues a retained message
func (o *Outbox) PublishRetained(topic string, payload []byte) error {
	return o.enqueue(outboundMessage{topic: topic, payload: payload, retained: true})
}

func (o *Outbox) enqueue(msg outboundMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("outbox stopped")
	}
	select {
	case o.queue <- msg:
		return nil
	default:
		o.dropped++
		log.Printf("⚠️  발행 대기열 가득 참 - 메시지 버림: %s (누적: %d개)", msg.topic, o.dropped)
		return fmt.Errorf("outbox full")
	}
}

// Dropped returns how many messages were discarded because the queue was full
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Stop refuses new messages and waits for the queued ones to be published.
// Messages queued on an outbox that was never started are discarded.
func (o *Outbox) Stop() {
	o.mu.Lock()
	started := o.started
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	if started {
		<-o.done
	}
}
