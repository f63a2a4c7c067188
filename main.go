package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	log.Printf("🚀 DrawBot Bridge 시작...")

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("❌ 설정 로드 실패: %v", err)
	}
	configureLogging(config.App.LogLevel)

	log.Printf("📋 설정 로드 완료")
	log.Printf("   - Environment: %s", config.App.Environment)
	log.Printf("   - MQTT Broker: %s", config.MQTT.BrokerURL)
	log.Printf("   - MQTT Client ID: %s", config.MQTT.ClientID)
	log.Printf("   - Topic Prefix: %s", config.MQTT.TopicPrefix)
	log.Printf("   - Robot: %s (Service: %s)", config.Link.PeerName, config.Link.ServiceUUID)
	log.Printf("   - Canvas: %.0fx%.0f px -> %.0fx%.0f cm (Threshold: %.1f)",
		config.Canvas.Width, config.Canvas.Height,
		config.Canvas.GroundWidthCM, config.Canvas.GroundHeightCM, config.Canvas.RefineThreshold)
	log.Printf("   - Chunk: %d bytes, Delay: %v, Scan Timeout: %v",
		config.Link.ChunkSize, config.Link.ChunkDelay, config.Link.ScanTimeout)
	log.Printf("   - Log Level: %s", config.App.LogLevel)

	bridge, err := NewDrawBridge(config)
	if err != nil {
		log.Fatalf("❌ 브릿지 생성 실패: %v", err)
	}

	// Setup graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	// Start bridge in goroutine
	bridgeError := make(chan error, 1)
	go func() {
		if err := bridge.Start(); err != nil {
			bridgeError <- err
		}
	}()

	// Check for immediate startup errors
	select {
	case err := <-bridgeError:
		log.Fatalf("❌ 브릿지 시작 실패: %v", err)
	case <-time.After(2 * time.Second):
		// Bridge started successfully
	}

	if !bridge.IsConnected() {
		log.Printf("⚠️  MQTT 연결 실패 - 상태: %s", bridge.GetConnectionStatus())
		log.Printf("   재연결을 시도하고 있습니다...")
	} else {
		log.Printf("✅ MQTT 연결 완료")
	}
	log.Printf("🤖 로봇 링크 상태: %s", bridge.GetLinkStatus().Display())

	topics := NewTopics(config.MQTT.TopicPrefix)
	log.Printf("🎯 DrawBot 브릿지가 작동 중입니다...")
	log.Printf("   📥 구독 토픽:")
	log.Printf("      - Strokes: %s", topics.Strokes())
	log.Printf("      - Actions: %s", topics.Actions())
	log.Printf("      - Gateway: %s, %s, %s", topics.GatewayResponses(), topics.GatewayScan(), topics.GatewayPeerConnections())
	log.Printf("   📤 발행 토픽:")
	log.Printf("      - Status: %s", topics.Status())
	log.Printf("      - Action Results: %s", topics.ActionResults())
	log.Printf("      - Gateway Requests: %s", topics.GatewayRequests())
	log.Printf("   💡 종료하려면 Ctrl+C를 누르세요")

	// Wait for shutdown signal
	sig := <-signalChan
	log.Printf("🛑 종료 신호 수신: %v", sig)
	log.Printf("⏳ 안전한 종료를 위해 %d초 대기...", config.App.GracefulShutdownSec)

	// Graceful shutdown with timeout
	shutdownTimeout := time.Duration(config.App.GracefulShutdownSec) * time.Second
	shutdownComplete := make(chan struct{})

	go func() {
		bridge.Stop()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		log.Printf("✅ 정상 종료 완료")
	case <-time.After(shutdownTimeout):
		log.Printf("⚠️  종료 타임아웃 - 강제 종료")
	}

	log.Printf("👋 DrawBot Bridge 종료됨")
}
