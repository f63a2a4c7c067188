package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment:           "test",
			LogLevel:              "info",
			StatusIntervalSeconds: 30,
			GracefulShutdownSec:   10,
		},
		Canvas: testCanvasConfig(),
		Link: LinkConfig{
			PeerName:           DefaultPeerName,
			ServiceUUID:        DefaultServiceUUID,
			CharacteristicUUID: DefaultCharacteristicUUID,
			ScanTimeout:        10 * time.Second,
			ConnectTimeout:     10 * time.Second,
			WriteTimeout:       5 * time.Second,
			ChunkSize:          DefaultChunkSize,
			ChunkDelay:         50 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			BrokerURL:             "tcp://localhost:1883",
			ClientID:              "drawbot_bridge",
			QoS:                   1,
			ConnectTimeout:        10,
			MaxReconnectAttempts:  10,
			TopicPrefix:           "drawbot",
			GatewayRequestTimeout: 5 * time.Second,
		},
		HTTP: HTTPConfig{Enabled: true, ListenAddr: ":3000"},
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validTestConfig()))

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"unknown log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"zero status interval", func(c *Config) { c.App.StatusIntervalSeconds = 0 }},
		{"zero canvas", func(c *Config) { c.Canvas.Width = 0 }},
		{"zero ground", func(c *Config) { c.Canvas.GroundHeightCM = 0 }},
		{"negative threshold", func(c *Config) { c.Canvas.RefineThreshold = -1 }},
		{"missing peer name", func(c *Config) { c.Link.PeerName = "" }},
		{"missing characteristic", func(c *Config) { c.Link.CharacteristicUUID = "" }},
		{"zero scan timeout", func(c *Config) { c.Link.ScanTimeout = 0 }},
		{"zero chunk size", func(c *Config) { c.Link.ChunkSize = 0 }},
		{"negative chunk delay", func(c *Config) { c.Link.ChunkDelay = -time.Millisecond }},
		{"missing broker", func(c *Config) { c.MQTT.BrokerURL = "" }},
		{"invalid qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"missing topic prefix", func(c *Config) { c.MQTT.TopicPrefix = "" }},
		{"http without address", func(c *Config) { c.HTTP.ListenAddr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validTestConfig()
			tt.modify(config)
			assert.Error(t, validateConfig(config))
		})
	}
}

func TestValidateConfigAllowsDisabledHTTPWithoutAddress(t *testing.T) {
	config := validTestConfig()
	config.HTTP = HTTPConfig{Enabled: false}

	assert.NoError(t, validateConfig(config))
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultPeerName, config.Link.PeerName)
	assert.Equal(t, DefaultServiceUUID, config.Link.ServiceUUID)
	assert.Equal(t, DefaultCharacteristicUUID, config.Link.CharacteristicUUID)
	assert.Equal(t, DefaultChunkSize, config.Link.ChunkSize)
	assert.Equal(t, 50*time.Millisecond, config.Link.ChunkDelay)
	assert.Equal(t, 10*time.Second, config.Link.ScanTimeout)
	assert.Equal(t, 500.0, config.Canvas.Width)
	assert.Equal(t, DefaultRefineThreshold, config.Canvas.RefineThreshold)
	assert.Equal(t, "drawbot", config.MQTT.TopicPrefix)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LINK_PEER_NAME", "Plotter_Test")
	t.Setenv("LINK_CHUNK_SIZE", "96")
	t.Setenv("LINK_CHUNK_DELAY_MS", "5")
	t.Setenv("CANVAS_WIDTH", "800")
	t.Setenv("MQTT_TOPIC_PREFIX", "/studio/drawbot/")
	t.Setenv("HTTP_ENABLED", "false")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Plotter_Test", config.Link.PeerName)
	assert.Equal(t, 96, config.Link.ChunkSize)
	assert.Equal(t, 5*time.Millisecond, config.Link.ChunkDelay)
	assert.Equal(t, 800.0, config.Canvas.Width)
	assert.Equal(t, "studio/drawbot", config.MQTT.TopicPrefix)
	assert.False(t, config.HTTP.Enabled)
}

func TestLoadConfigRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("APP_LOG_LEVEL", "chatty")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "APP_LOG_LEVEL")
}

func TestGetEnvFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("DRAWBOT_TEST_INT", "many")
	t.Setenv("DRAWBOT_TEST_FLOAT", "wide")
	t.Setenv("DRAWBOT_TEST_BOOL", "perhaps")

	assert.Equal(t, 7, getEnvInt("DRAWBOT_TEST_INT", 7))
	assert.Equal(t, 1.5, getEnvFloat("DRAWBOT_TEST_FLOAT", 1.5))
	assert.True(t, getEnvBool("DRAWBOT_TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnvString("DRAWBOT_TEST_UNSET", "fallback"))
}
