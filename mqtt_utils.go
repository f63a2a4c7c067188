package main

import (
	"fmt"
	"strings"
)

// Topics builds the bridge's MQTT topic names under a common prefix
type Topics struct {
	prefix string
}

// NewTopics creates a topic set for the given prefix (e.g. "drawbot")
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

// Strokes is where the input collaborator publishes stroke events
func (t Topics) Strokes() string { return t.prefix + "/strokes" }

// Actions is where users publish actions (connect, send, clear, ...)
func (t Topics) Actions() string { return t.prefix + "/actions" }

// ActionResults carries the outcome of each action
func (t Topics) ActionResults() string { return t.prefix + "/actions/results" }

// Status carries link status updates
func (t Topics) Status() string { return t.prefix + "/status" }

func (t Topics) GatewayRequests() string  { return t.prefix + "/gateway/requests" }
func (t Topics) GatewayResponses() string { return t.prefix + "/gateway/responses" }
func (t Topics) GatewayScan() string      { return t.prefix + "/gateway/scan" }

// GatewayPeerConnections is the wildcard subscription for peer link states
func (t Topics) GatewayPeerConnections() string {
	return t.buildPeerConnectionTopic("+")
}

// buildPeerConnectionTopic builds the connection topic for a given peer
func (t Topics) buildPeerConnectionTopic(peerID string) string {
	return fmt.Sprintf("%s/gateway/peers/%s/connection", t.prefix, peerID)
}

// parsePeerConnectionTopic extracts the peer ID from a peer connection topic
func (t Topics) parsePeerConnectionTopic(topic string) (string, error) {
	// Topic format: {prefix}/gateway/peers/{peer_id}/connection
	rest, ok := strings.CutPrefix(topic, t.prefix+"/")
	if !ok {
		return "", fmt.Errorf("invalid peer connection topic format: %s", topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[0] != "gateway" || parts[1] != "peers" || parts[3] != "connection" || parts[2] == "" {
		return "", fmt.Errorf("invalid peer connection topic format: %s", topic)
	}
	return parts[2], nil
}
