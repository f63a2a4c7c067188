package main

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ConnectionStatus represents the broker connection status
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
	ConnectionLost
)

func (cs ConnectionStatus) String() string {
	switch cs {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case ConnectionLost:
		return "CONNECTION_LOST"
	default:
		return "UNKNOWN"
	}
}

// MessageHandlers contains all message handling functions
type MessageHandlers struct {
	StrokeHandler          mqtt.MessageHandler
	ActionHandler          mqtt.MessageHandler
	GatewayResponseHandler mqtt.MessageHandler
	GatewayScanHandler     mqtt.MessageHandler
	PeerConnectionHandler  mqtt.MessageHandler
}

// MQTTClient wraps the paho client used for stroke input, actions and the
// BLE gateway. Handlers run on paho's ordered router goroutine, so anything
// they publish goes through an Outbox rather than waiting on a token there.
type MQTTClient struct {
	client   mqtt.Client
	config   *MQTTConfig
	topics   Topics
	handlers *MessageHandlers

	status      ConnectionStatus
	statusMutex sync.RWMutex

	reconnectCount int32

	stopping chan struct{}
	stopOnce sync.Once
}

// NewMQTTClient creates a client. Handlers may be set later, before Connect.
func NewMQTTClient(config *MQTTConfig, handlers *MessageHandlers) *MQTTClient {
	mc := &MQTTClient{
		config:   config,
		topics:   NewTopics(config.TopicPrefix),
		handlers: handlers,
		status:   Disconnected,
		stopping: make(chan struct{}),
	}
	mc.client = mqtt.NewClient(mc.clientOptions())
	return mc
}

// clientOptions maps MQTTConfig onto paho options. Each Connect call is a
// single dial; once connected, paho's auto-reconnect takes over.
func (mc *MQTTClient) clientOptions() *mqtt.ClientOptions {
	cfg := mc.config
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetCleanSession(cfg.CleanSession).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetMaxReconnectInterval(time.Duration(cfg.MaxReconnectDelay) * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		mc.updateStatus(Connected)
		if n := atomic.LoadInt32(&mc.reconnectCount); n > 0 {
			log.Printf("✅ MQTT 재연결 성공 - Broker: %s (재연결 횟수: %d)", cfg.BrokerURL, n)
		} else {
			log.Printf("✅ MQTT 클라이언트 연결됨 - Broker: %s, ClientID: %s", cfg.BrokerURL, cfg.ClientID)
		}
		mc.subscribeToTopics()
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		mc.updateStatus(ConnectionLost)
		atomic.AddInt32(&mc.reconnectCount, 1)
		log.Printf("❌ MQTT 연결 끊어짐 - Error: %v", err)
	})

	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		mc.updateStatus(Connecting)
		log.Printf("🔄 MQTT 재연결 시도 중... (시도 횟수: %d)", atomic.LoadInt32(&mc.reconnectCount))
	})

	return opts
}

func (mc *MQTTClient) updateStatus(status ConnectionStatus) {
	mc.statusMutex.Lock()
	defer mc.statusMutex.Unlock()
	mc.status = status
}

// GetConnectionStatus returns current connection status
func (mc *MQTTClient) GetConnectionStatus() ConnectionStatus {
	mc.statusMutex.RLock()
	defer mc.statusMutex.RUnlock()
	return mc.status
}

// IsConnected checks if the client is connected
func (mc *MQTTClient) IsConnected() bool {
	return mc.GetConnectionStatus() == Connected && mc.client.IsConnected()
}

// GetReconnectCount returns the number of lost connections since start
func (mc *MQTTClient) GetReconnectCount() int32 {
	return atomic.LoadInt32(&mc.reconnectCount)
}

// Connect dials the broker, waiting ReconnectDelay between failed dials,
// and gives up after MaxReconnectAttempts.
func (mc *MQTTClient) Connect() error {
	attempts := mc.config.MaxReconnectAttempts
	dialTimeout := time.Duration(mc.config.ConnectTimeout) * time.Second
	retryDelay := time.Duration(mc.config.ReconnectDelay) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		mc.updateStatus(Connecting)
		log.Printf("🔌 MQTT 연결 시도 중... (%d/%d) - Broker: %s", attempt, attempts, mc.config.BrokerURL)

		token := mc.client.Connect()
		switch {
		case !token.WaitTimeout(dialTimeout):
			lastErr = fmt.Errorf("timeout after %v", dialTimeout)
		case token.Error() != nil:
			lastErr = token.Error()
		default:
			return nil
		}
		log.Printf("❌ MQTT 연결 실패 (%d/%d) - %v", attempt, attempts, lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(retryDelay):
		case <-mc.stopping:
			mc.updateStatus(Disconnected)
			return fmt.Errorf("연결 시도 중 종료 요청됨")
		}
	}

	mc.updateStatus(Disconnected)
	return fmt.Errorf("MQTT 연결 실패 - %d회 시도: %w", attempts, lastErr)
}

// subscribeToTopics subscribes the bridge's input topics. Called from the
// OnConnect handler so subscriptions come back after every reconnect.
func (mc *MQTTClient) subscribeToTopics() {
	if mc.handlers == nil {
		log.Printf("⚠️  메시지 핸들러가 설정되지 않아 토픽 구독 생략")
		return
	}

	subscriptions := []struct {
		name    string
		topic   string
		handler mqtt.MessageHandler
	}{
		{"스트로크 입력", mc.topics.Strokes(), mc.handlers.StrokeHandler},
		{"사용자 액션", mc.topics.Actions(), mc.handlers.ActionHandler},
		{"게이트웨이 응답", mc.topics.GatewayResponses(), mc.handlers.GatewayResponseHandler},
		{"게이트웨이 스캔", mc.topics.GatewayScan(), mc.handlers.GatewayScanHandler},
		{"피어 연결 상태", mc.topics.GatewayPeerConnections(), mc.handlers.PeerConnectionHandler},
	}

	for _, sub := range subscriptions {
		token := mc.client.Subscribe(sub.topic, mc.config.QoS, sub.handler)
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			log.Printf("✅ %s 토픽 구독 완료: %s", sub.name, sub.topic)
		} else {
			log.Printf("❌ %s 토픽 구독 실패: %v", sub.name, token.Error())
		}
	}
}

// Publish publishes a message and waits for the broker to accept it.
// Must not be called from a message handler; use an Outbox there.
func (mc *MQTTClient) Publish(topic string, payload []byte) error {
	return mc.publish(topic, payload, false)
}

// PublishRetained publishes a retained message so late subscribers see the latest value
func (mc *MQTTClient) PublishRetained(topic string, payload []byte) error {
	return mc.publish(topic, payload, true)
}

func (mc *MQTTClient) publish(topic string, payload []byte, retained bool) error {
	if !mc.client.IsConnected() {
		return fmt.Errorf("MQTT 클라이언트가 연결되지 않음")
	}

	token := mc.client.Publish(topic, mc.config.QoS, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("MQTT 발행 타임아웃")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT 발행 실패: %w", err)
	}
	return nil
}

// Stop aborts a pending Connect and disconnects from the broker
func (mc *MQTTClient) Stop() {
	log.Printf("🛑 MQTT 클라이언트 종료 중...")
	mc.stopOnce.Do(func() { close(mc.stopping) })

	if mc.client.IsConnected() {
		mc.client.Disconnect(250)
	}
	mc.updateStatus(Disconnected)
	log.Printf("✅ MQTT 클라이언트 종료 완료")
}
