package main

import (
	"time"

	"github.com/paulmach/orb"
)

// Robot identity flashed into the drawing robot firmware
const (
	DefaultPeerName           = "RobotDrawer_ESP32"
	DefaultServiceUUID        = "4fafc201-1fb5-459e-8fcc-c5c9c331914b"
	DefaultCharacteristicUUID = "beb5483e-36e1-4688-b7f5-ea07361b26a8"
)

// CanvasPoint is a point on the drawing canvas in pixels (origin top-left)
type CanvasPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous user-drawn gesture. Points are in capture order.
type Stroke struct {
	ID          string        `json:"id"`
	Points      []CanvasPoint `json:"points"`
	CompletedAt time.Time     `json:"completedAt"`
}

// RealPoint is a point in the robot's ground frame, in cm (origin bottom-left)
type RealPoint = orb.Point

// RefinedPath is a de-noised sequence of ground-frame points
type RefinedPath = orb.LineString

// CommandType identifies a robot motion primitive
type CommandType string

const (
	MoveForward  CommandType = "move_forward"
	MoveBackward CommandType = "move_backward"
	TurnLeft     CommandType = "turn_left"
	TurnRight    CommandType = "turn_right"
)

// RobotCommand is a single motion primitive: cm for moves, degrees for turns
type RobotCommand struct {
	Type  CommandType `json:"type"`
	Value float64     `json:"value"`
}

// CommandList is the compiled program for one stroke
type CommandList []RobotCommand

// ConnectionState represents a peer's connection state as reported by the gateway
type ConnectionState string

const (
	Online           ConnectionState = "ONLINE"
	ConnectionBroken ConnectionState = "CONNECTIONBROKEN"
	Offline          ConnectionState = "OFFLINE"
)

// StrokeEvent is the kind of input carried by a StrokeMessage
type StrokeEvent string

const (
	StrokeBegin    StrokeEvent = "begin"
	StrokePoint    StrokeEvent = "point"
	StrokeEnd      StrokeEvent = "end"
	StrokeComplete StrokeEvent = "stroke"
)

// StrokeMessage represents input from the gesture capture collaborator
type StrokeMessage struct {
	Event  StrokeEvent   `json:"event"`
	Point  *CanvasPoint  `json:"point,omitempty"`
	Points []CanvasPoint `json:"points,omitempty"`
}

// ActionMessage represents a user action from the actions topic
type ActionMessage struct {
	Action    string `json:"action"`
	RequestID string `json:"requestId,omitempty"`
}

// ActionResult is published back after an action was executed
type ActionResult struct {
	Action    string `json:"action"`
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Delivered int    `json:"delivered,omitempty"`
	Total     int    `json:"total,omitempty"`
}

// StatusMessage is published on the status topic whenever the link changes
type StatusMessage struct {
	Timestamp   string `json:"timestamp"`
	LinkState   string `json:"linkState"`
	Reason      string `json:"reason,omitempty"`
	Display     string `json:"display"`
	Peer        string `json:"peer,omitempty"`
	StrokeCount int    `json:"strokeCount"`
}

// GatewayRequest is sent to the BLE gateway
type GatewayRequest struct {
	RequestID          string      `json:"requestId"`
	Type               string      `json:"type"`
	PeerID             string      `json:"peerId,omitempty"`
	ServiceUUID        string      `json:"serviceUuid,omitempty"`
	CharacteristicUUID string      `json:"characteristicUuid,omitempty"`
	Value              string      `json:"value,omitempty"`
	Filter             *ScanFilter `json:"filter,omitempty"`
}

// GatewayResponse answers a GatewayRequest with the same request ID
type GatewayResponse struct {
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Peer      *Peer  `json:"peer,omitempty"`
}

// GatewayScanEvent is emitted by the gateway while a scan is running
type GatewayScanEvent struct {
	Event string `json:"event"` // found, error
	Peer  *Peer  `json:"peer,omitempty"`
	Error string `json:"error,omitempty"`
}

// PeerConnectionMessage reports a peer's link state from the gateway
type PeerConnectionMessage struct {
	PeerID          string          `json:"peerId"`
	ConnectionState ConnectionState `json:"connectionState"`
	Error           string          `json:"error,omitempty"`
}

// Gateway request types
const (
	gatewayPermissions = "permissions"
	gatewayScanStart   = "scan_start"
	gatewayScanStop    = "scan_stop"
	gatewayConnect     = "connect"
	gatewayDiscover    = "discover"
	gatewayWrite       = "write"
	gatewayDisconnect  = "disconnect"
)
