package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// outboxSize bounds the status and result messages waiting to be published
const outboxSize = 64

// DrawBridge coordinates all bridge components
type DrawBridge struct {
	// Core components
	mqttClient       *MQTTClient
	outbox           *Outbox
	store            *DrawingStore
	pipeline         *DrawingPipeline
	framer           *TransportFramer
	gateway          *GatewayAdapter
	session          *LinkSession
	actionHandler    *ActionHandler
	messageProcessor *MessageProcessor
	statusMonitor    *LinkStatusMonitor
	httpApp          *fiber.App
	config           *Config

	// Graceful shutdown
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	shutdownWG     sync.WaitGroup

	// Monitoring goroutines control
	statusMonitorStop chan struct{}
	healthMonitorStop chan struct{}
}

// NewDrawBridge creates a new bridge with all components
func NewDrawBridge(config *Config) (*DrawBridge, error) {
	// Create shutdown context
	ctx, cancel := context.WithCancel(context.Background())

	framer, err := NewTransportFramer(config.Link.ChunkSize)
	if err != nil {
		cancel()
		return nil, err
	}

	topics := NewTopics(config.MQTT.TopicPrefix)
	store := NewDrawingStore(config.Canvas)
	pipeline := NewDrawingPipeline(config.Canvas)

	// Create MQTT client (without handlers initially)
	mqttClient := NewMQTTClient(&config.MQTT, nil)
	outbox := NewOutbox(mqttClient, outboxSize)

	gateway := NewGatewayAdapter(mqttClient, topics, config.MQTT.GatewayRequestTimeout)
	session := NewLinkSession(gateway, gateway, LinkSessionOptionsFromConfig(config.Link))
	actionHandler := NewActionHandler(store, pipeline, framer, session)

	// Create message processor
	messageProcessor := NewMessageProcessor(outbox, topics, store, pipeline, actionHandler, gateway, config)

	// Set message handlers for MQTT client
	mqttClient.handlers = messageProcessor.GetMessageHandlers()

	// Create status monitor
	statusMonitor := NewLinkStatusMonitor(session, store, outbox, topics)

	bridge := &DrawBridge{
		mqttClient:        mqttClient,
		outbox:            outbox,
		store:             store,
		pipeline:          pipeline,
		framer:            framer,
		gateway:           gateway,
		session:           session,
		actionHandler:     actionHandler,
		messageProcessor:  messageProcessor,
		statusMonitor:     statusMonitor,
		config:            config,
		shutdownCtx:       ctx,
		shutdownCancel:    cancel,
		statusMonitorStop: make(chan struct{}),
		healthMonitorStop: make(chan struct{}),
	}

	if config.HTTP.Enabled {
		api := NewHTTPAPI(store, actionHandler, framer, statusMonitor, config.Link)
		bridge.httpApp = api.NewApp(debugEnabled())
	}

	return bridge, nil
}

// Start initializes and starts the bridge
func (db *DrawBridge) Start() error {
	log.Printf("🚀 DrawBot 브릿지 시작 중...")
	log.Printf("📋 설정 정보 - Broker: %s, ClientID: %s, ConnectTimeout: %ds, MaxReconnectAttempts: %d",
		db.config.MQTT.BrokerURL, db.config.MQTT.ClientID, db.config.MQTT.ConnectTimeout, db.config.MQTT.MaxReconnectAttempts)

	db.outbox.Start()

	// Connect to MQTT broker
	if err := db.mqttClient.Connect(); err != nil {
		return fmt.Errorf("MQTT 연결 실패: %w", err)
	}

	db.statusMonitor.PublishStatus()

	// Start monitoring components
	db.startMonitoring()

	if db.httpApp != nil {
		db.shutdownWG.Add(1)
		go func() {
			defer db.shutdownWG.Done()
			log.Printf("🌐 HTTP API 시작: %s", db.config.HTTP.ListenAddr)
			if err := db.httpApp.Listen(db.config.HTTP.ListenAddr); err != nil {
				log.Printf("❌ HTTP API 종료: %v", err)
			}
		}()
	}

	if db.config.App.AutoConnectOnStart {
		db.shutdownWG.Add(1)
		go func() {
			defer db.shutdownWG.Done()
			ctx, cancel := context.WithTimeout(db.shutdownCtx, actionTimeout(db.config.Link))
			defer cancel()
			if err := db.session.Connect(ctx); err != nil {
				log.Printf("⚠️  자동 로봇 연결 실패: %v", err)
			}
		}()
	}

	log.Printf("✅ DrawBot 브릿지 시작 완료")
	return nil
}

// startMonitoring starts all monitoring goroutines
func (db *DrawBridge) startMonitoring() {
	db.shutdownWG.Add(1)
	go func() {
		defer db.shutdownWG.Done()
		db.runStatusMonitoring()
	}()

	db.shutdownWG.Add(1)
	go func() {
		defer db.shutdownWG.Done()
		db.runHealthMonitoring()
	}()
}

// runStatusMonitoring runs the main status monitoring loop
func (db *DrawBridge) runStatusMonitoring() {
	ticker := time.NewTicker(time.Duration(db.config.App.StatusIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := db.mqttClient.GetConnectionStatus()
			log.Printf("📊 === 시스템 상태 요약 ===")
			log.Printf("   MQTT 연결: %s (재연결: %d회, 버린 메시지: %d개)",
				status, db.mqttClient.GetReconnectCount(), db.outbox.Dropped())
			db.statusMonitor.PrintStatusSummary()
			log.Printf("   ========================")

			if status != Connected {
				log.Printf("⚠️  MQTT 연결 문제 - 상태: %s", status)
			}

		case <-db.statusMonitorStop:
			return
		case <-db.shutdownCtx.Done():
			return
		}
	}
}

// runHealthMonitoring runs the connection health monitoring loop
func (db *DrawBridge) runHealthMonitoring() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	consecutiveFailures := 0
	const maxFailures = 3

	for {
		select {
		case <-ticker.C:
			if !db.mqttClient.IsConnected() {
				consecutiveFailures++
				status := db.mqttClient.GetConnectionStatus()

				if consecutiveFailures >= maxFailures {
					log.Printf("🚨 심각: MQTT 연결 실패가 %d회 연속 발생 - 상태: %s",
						consecutiveFailures, status)
				} else {
					log.Printf("⚠️  MQTT 연결 확인 필요 (%d/%d) - 상태: %s",
						consecutiveFailures, maxFailures, status)
				}
			} else {
				if consecutiveFailures > 0 {
					log.Printf("✅ MQTT 연결 복구됨 (이전 실패: %d회)", consecutiveFailures)
				}
				consecutiveFailures = 0
			}

		case <-db.healthMonitorStop:
			return
		case <-db.shutdownCtx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the bridge
func (db *DrawBridge) Stop() {
	log.Printf("🛑 DrawBot 브릿지 종료 중...")

	// Signal shutdown to all components
	db.shutdownCancel()

	// Stop monitoring goroutines
	close(db.statusMonitorStop)
	close(db.healthMonitorStop)

	if db.httpApp != nil {
		if err := db.httpApp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("⚠️  HTTP API 종료 실패: %v", err)
		}
	}

	// Release the robot before the gateway connection goes away
	disconnectCtx, cancel := context.WithTimeout(context.Background(), db.config.MQTT.GatewayRequestTimeout)
	if err := db.session.Disconnect(disconnectCtx); err != nil {
		log.Printf("⚠️  로봇 연결 해제 실패: %v", err)
	}
	cancel()

	// Flush queued status and results, then stop MQTT client
	db.outbox.Stop()
	db.mqttClient.Stop()

	// Wait for all goroutines to finish
	db.shutdownWG.Wait()

	log.Printf("✅ DrawBot 브릿지 종료 완료")
}

// IsConnected checks if the MQTT client is connected
func (db *DrawBridge) IsConnected() bool {
	return db.mqttClient.IsConnected()
}

// GetConnectionStatus returns the current MQTT connection status
func (db *DrawBridge) GetConnectionStatus() ConnectionStatus {
	return db.mqttClient.GetConnectionStatus()
}

// GetLinkStatus returns the current robot link status
func (db *DrawBridge) GetLinkStatus() LinkStatus {
	return db.session.Status()
}
