package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// resultPublisher publishes action results back to the requester
type resultPublisher interface {
	Publish(topic string, payload []byte) error
}

// MessageProcessor handles all MQTT message processing
type MessageProcessor struct {
	publisher     resultPublisher
	topics        Topics
	store         *DrawingStore
	pipeline      *DrawingPipeline
	actionHandler *ActionHandler
	gateway       *GatewayAdapter
	config        *Config

	// Actions may block for a whole scan window, so they run off the
	// MQTT callback goroutine. Gateway responses must keep flowing meanwhile.
	runAction func(func())
}

// NewMessageProcessor creates a new message processor
func NewMessageProcessor(publisher resultPublisher, topics Topics, store *DrawingStore, pipeline *DrawingPipeline,
	actionHandler *ActionHandler, gateway *GatewayAdapter, config *Config) *MessageProcessor {
	return &MessageProcessor{
		publisher:     publisher,
		topics:        topics,
		store:         store,
		pipeline:      pipeline,
		actionHandler: actionHandler,
		gateway:       gateway,
		config:        config,
		runAction:     func(f func()) { go f() },
	}
}

// GetMessageHandlers returns handlers for all message types
func (mp *MessageProcessor) GetMessageHandlers() *MessageHandlers {
	return &MessageHandlers{
		StrokeHandler:          func(_ mqtt.Client, msg mqtt.Message) { mp.handleStrokeMessage(msg.Topic(), msg.Payload()) },
		ActionHandler:          func(_ mqtt.Client, msg mqtt.Message) { mp.handleActionMessage(msg.Topic(), msg.Payload()) },
		GatewayResponseHandler: func(_ mqtt.Client, msg mqtt.Message) { mp.handleGatewayResponse(msg.Payload()) },
		GatewayScanHandler:     func(_ mqtt.Client, msg mqtt.Message) { mp.handleGatewayScan(msg.Payload()) },
		PeerConnectionHandler:  func(_ mqtt.Client, msg mqtt.Message) { mp.handlePeerConnection(msg.Topic(), msg.Payload()) },
	}
}

// handleStrokeMessage processes input events from the gesture collaborator
func (mp *MessageProcessor) handleStrokeMessage(topic string, payload []byte) {
	logDebugf("📨 스트로크 메시지 수신 - Topic: %s", topic)

	var msg StrokeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("❌ JSON 파싱 실패 (스트로크): %v", err)
		return
	}

	if err := validateStrokeMessage(&msg); err != nil {
		log.Printf("❌ 스트로크 메시지 검증 실패: %v", err)
		return
	}

	switch msg.Event {
	case StrokeBegin:
		mp.store.BeginStroke(*msg.Point)
	case StrokePoint:
		mp.store.AppendPoint(*msg.Point)
	case StrokeEnd:
		if msg.Point != nil {
			mp.store.AppendPoint(*msg.Point)
		}
		if stroke, ok := mp.store.CompleteStroke(); ok {
			mp.logCompiledStroke(stroke)
		}
	case StrokeComplete:
		stroke, err := mp.store.AddStroke(msg.Points)
		if err != nil {
			log.Printf("⚠️  스트로크 무시: %v", err)
			return
		}
		mp.logCompiledStroke(stroke)
	}
}

// logCompiledStroke prints the refined path and commands of a new stroke
func (mp *MessageProcessor) logCompiledStroke(stroke Stroke) {
	if !debugEnabled() {
		return
	}
	refined, commands := mp.pipeline.CompileStroke(stroke.Points)
	logDebugf("📍 Refined path (%s): %v", stroke.ID, refined)
	if data, err := json.Marshal(commands); err == nil {
		logDebugf("📤 Commands (%s): %s", stroke.ID, data)
	}
}

// handleActionMessage processes user actions
func (mp *MessageProcessor) handleActionMessage(topic string, payload []byte) {
	log.Printf("📨 액션 메시지 수신 - Topic: %s, Payload: %s", topic, string(payload))

	action, err := ParseActionMessage(payload)
	if err != nil {
		log.Printf("❌ 액션 메시지 파싱 실패: %v", err)
		return
	}

	if err := ValidateAction(action); err != nil {
		log.Printf("❌ 액션 검증 실패: %v", err)
		mp.publishResult(ActionResult{Action: action.Action, RequestID: action.RequestID, Message: err.Error()})
		return
	}

	mp.runAction(func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout(mp.config.Link))
		defer cancel()

		log.Printf("🚀 액션 처리 시작 - Action: %s", action.Action)
		result := mp.actionHandler.Execute(ctx, action)
		if result.Success {
			log.Printf("✅ 액션 처리 완료 - Action: %s, %s", action.Action, result.Message)
		} else {
			log.Printf("❌ 액션 처리 실패 - Action: %s, %s", action.Action, result.Message)
		}
		mp.publishResult(result)
	})
}

func (mp *MessageProcessor) publishResult(result ActionResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("❌ 액션 결과 직렬화 실패: %v", err)
		return
	}
	if err := mp.publisher.Publish(mp.topics.ActionResults(), payload); err != nil {
		log.Printf("❌ 액션 결과 발행 실패: %v", err)
	}
}

func (mp *MessageProcessor) handleGatewayResponse(payload []byte) {
	if err := mp.gateway.HandleResponse(payload); err != nil {
		log.Printf("❌ 게이트웨이 응답 처리 실패: %v", err)
	}
}

func (mp *MessageProcessor) handleGatewayScan(payload []byte) {
	if err := mp.gateway.HandleScanEvent(payload); err != nil {
		log.Printf("❌ 스캔 이벤트 처리 실패: %v", err)
	}
}

// handlePeerConnection processes peer connection state messages from the gateway
func (mp *MessageProcessor) handlePeerConnection(topic string, payload []byte) {
	peerID, err := mp.topics.parsePeerConnectionTopic(topic)
	if err != nil {
		log.Printf("❌ 토픽 파싱 실패: %v", err)
		return
	}
	if err := mp.gateway.HandlePeerConnection(peerID, payload); err != nil {
		log.Printf("❌ 피어 연결 상태 처리 실패: %v", err)
	}
}

// validateStrokeMessage checks that the event carries the points it needs
func validateStrokeMessage(msg *StrokeMessage) error {
	switch msg.Event {
	case StrokeBegin, StrokePoint:
		if msg.Point == nil {
			return fmt.Errorf("%s event requires a point", msg.Event)
		}
	case StrokeEnd:
	case StrokeComplete:
		if len(msg.Points) == 0 {
			return fmt.Errorf("stroke event requires points")
		}
	default:
		return fmt.Errorf("unknown stroke event: %q", msg.Event)
	}
	return nil
}
