package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App    AppConfig
	Canvas CanvasConfig
	Link   LinkConfig
	MQTT   MQTTConfig
	HTTP   HTTPConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment           string
	LogLevel              string
	StatusIntervalSeconds int
	GracefulShutdownSec   int
	AutoConnectOnStart    bool // 시작 시 로봇 자동 연결 여부
}

// CanvasConfig describes the drawing surface and the ground area it maps onto
type CanvasConfig struct {
	Width           float64 // pixels
	Height          float64 // pixels
	GroundWidthCM   float64
	GroundHeightCM  float64
	RefineThreshold float64 // cm, per axis
}

// LinkConfig holds robot link configuration
type LinkConfig struct {
	PeerName           string
	ServiceUUID        string
	CharacteristicUUID string
	ScanTimeout        time.Duration
	ConnectTimeout     time.Duration
	WriteTimeout       time.Duration
	ChunkSize          int
	ChunkDelay         time.Duration
}

// MQTTConfig holds MQTT broker configuration (single client for bridge)
type MQTTConfig struct {
	BrokerURL             string
	ClientID              string
	Username              string
	Password              string
	QoS                   byte
	KeepAlive             int
	ConnectTimeout        int
	ReconnectDelay        int
	MaxReconnectDelay     int
	MaxReconnectAttempts  int
	CleanSession          bool
	TopicPrefix           string
	GatewayRequestTimeout time.Duration
}

// HTTPConfig holds the UI-facing HTTP API configuration
type HTTPConfig struct {
	Enabled    bool
	ListenAddr string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// .env file is optional, so we just log if it's not found
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config := &Config{
		App:    loadAppConfig(),
		Canvas: loadCanvasConfig(),
		Link:   loadLinkConfig(),
		MQTT:   loadMQTTConfig(),
		HTTP:   loadHTTPConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadAppConfig loads application configuration
func loadAppConfig() AppConfig {
	return AppConfig{
		Environment:           getEnvString("APP_ENVIRONMENT", "development"),
		LogLevel:              getEnvString("APP_LOG_LEVEL", "info"),
		StatusIntervalSeconds: getEnvInt("APP_STATUS_INTERVAL_SECONDS", 30),
		GracefulShutdownSec:   getEnvInt("APP_GRACEFUL_SHUTDOWN_SEC", 10),
		AutoConnectOnStart:    getEnvBool("APP_AUTO_CONNECT_ON_START", false),
	}
}

func loadCanvasConfig() CanvasConfig {
	return CanvasConfig{
		Width:           getEnvFloat("CANVAS_WIDTH", 500),
		Height:          getEnvFloat("CANVAS_HEIGHT", 500),
		GroundWidthCM:   getEnvFloat("CANVAS_GROUND_WIDTH_CM", 100),
		GroundHeightCM:  getEnvFloat("CANVAS_GROUND_HEIGHT_CM", 100),
		RefineThreshold: getEnvFloat("CANVAS_REFINE_THRESHOLD", DefaultRefineThreshold),
	}
}

// loadLinkConfig loads robot link configuration. Identifiers default to the
// values flashed into the robot firmware.
func loadLinkConfig() LinkConfig {
	return LinkConfig{
		PeerName:           getEnvString("LINK_PEER_NAME", DefaultPeerName),
		ServiceUUID:        getEnvString("LINK_SERVICE_UUID", DefaultServiceUUID),
		CharacteristicUUID: getEnvString("LINK_CHARACTERISTIC_UUID", DefaultCharacteristicUUID),
		ScanTimeout:        time.Duration(getEnvInt("LINK_SCAN_TIMEOUT_SEC", 10)) * time.Second,
		ConnectTimeout:     time.Duration(getEnvInt("LINK_CONNECT_TIMEOUT_SEC", 10)) * time.Second,
		WriteTimeout:       time.Duration(getEnvInt("LINK_WRITE_TIMEOUT_SEC", 5)) * time.Second,
		ChunkSize:          getEnvInt("LINK_CHUNK_SIZE", DefaultChunkSize),
		ChunkDelay:         time.Duration(getEnvInt("LINK_CHUNK_DELAY_MS", 50)) * time.Millisecond,
	}
}

// loadMQTTConfig loads MQTT configuration (single client)
func loadMQTTConfig() MQTTConfig {
	return MQTTConfig{
		BrokerURL:             getEnvString("MQTT_BROKER_URL", "tcp://localhost:1883"),
		ClientID:              getEnvString("MQTT_CLIENT_ID", "drawbot_bridge"),
		Username:              getEnvString("MQTT_USERNAME", ""),
		Password:              getEnvString("MQTT_PASSWORD", ""),
		QoS:                   byte(getEnvInt("MQTT_QOS", 1)),
		KeepAlive:             getEnvInt("MQTT_KEEP_ALIVE", 60),
		ConnectTimeout:        getEnvInt("MQTT_CONNECT_TIMEOUT", 10),
		ReconnectDelay:        getEnvInt("MQTT_RECONNECT_DELAY", 5),
		MaxReconnectDelay:     getEnvInt("MQTT_MAX_RECONNECT_DELAY", 60),
		MaxReconnectAttempts:  getEnvInt("MQTT_MAX_RECONNECT_ATTEMPTS", 10),
		CleanSession:          getEnvBool("MQTT_CLEAN_SESSION", true),
		TopicPrefix:           strings.Trim(getEnvString("MQTT_TOPIC_PREFIX", "drawbot"), "/"),
		GatewayRequestTimeout: time.Duration(getEnvInt("MQTT_GATEWAY_REQUEST_TIMEOUT_SEC", 5)) * time.Second,
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Enabled:    getEnvBool("HTTP_ENABLED", true),
		ListenAddr: getEnvString("HTTP_LISTEN_ADDR", ":3000"),
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	// Validate App config
	if config.App.StatusIntervalSeconds < 1 {
		return fmt.Errorf("APP_STATUS_INTERVAL_SECONDS must be greater than 0")
	}
	switch strings.ToLower(config.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("APP_LOG_LEVEL must be one of debug, info, warn, error")
	}

	// Validate Canvas config
	if config.Canvas.Width <= 0 || config.Canvas.Height <= 0 {
		return fmt.Errorf("CANVAS_WIDTH and CANVAS_HEIGHT must be greater than 0")
	}
	if config.Canvas.GroundWidthCM <= 0 || config.Canvas.GroundHeightCM <= 0 {
		return fmt.Errorf("CANVAS_GROUND_WIDTH_CM and CANVAS_GROUND_HEIGHT_CM must be greater than 0")
	}
	if config.Canvas.RefineThreshold < 0 {
		return fmt.Errorf("CANVAS_REFINE_THRESHOLD must not be negative")
	}

	// Validate Link config
	if config.Link.PeerName == "" {
		return fmt.Errorf("LINK_PEER_NAME is required")
	}
	if config.Link.ServiceUUID == "" || config.Link.CharacteristicUUID == "" {
		return fmt.Errorf("LINK_SERVICE_UUID and LINK_CHARACTERISTIC_UUID are required")
	}
	if config.Link.ScanTimeout <= 0 {
		return fmt.Errorf("LINK_SCAN_TIMEOUT_SEC must be greater than 0")
	}
	if config.Link.ChunkSize < 1 {
		return fmt.Errorf("LINK_CHUNK_SIZE must be greater than 0")
	}
	if config.Link.ChunkDelay < 0 {
		return fmt.Errorf("LINK_CHUNK_DELAY_MS must not be negative")
	}

	// Validate MQTT config
	if config.MQTT.BrokerURL == "" {
		return fmt.Errorf("MQTT_BROKER_URL is required")
	}
	if config.MQTT.ClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required")
	}
	if config.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1, or 2")
	}
	if config.MQTT.ConnectTimeout < 1 {
		return fmt.Errorf("MQTT_CONNECT_TIMEOUT must be greater than 0")
	}
	if config.MQTT.MaxReconnectAttempts < 1 {
		return fmt.Errorf("MQTT_MAX_RECONNECT_ATTEMPTS must be greater than 0")
	}
	if config.MQTT.TopicPrefix == "" {
		return fmt.Errorf("MQTT_TOPIC_PREFIX is required")
	}

	if config.HTTP.Enabled && config.HTTP.ListenAddr == "" {
		return fmt.Errorf("HTTP_LISTEN_ADDR is required when HTTP_ENABLED is true")
	}

	return nil
}

// getEnvString gets environment variable as string with default value
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		fmt.Printf("Warning: Invalid integer value for %s: %s, using default: %d\n", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvFloat gets environment variable as float64 with default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		fmt.Printf("Warning: Invalid float value for %s: %s, using default: %g\n", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool gets environment variable as bool with default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		fmt.Printf("Warning: Invalid boolean value for %s: %s, using default: %t\n", key, value, defaultValue)
	}
	return defaultValue
}
