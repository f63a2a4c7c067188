package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// gatewayPublisher is the subset of MQTTClient the gateway adapter needs
type gatewayPublisher interface {
	Publish(topic string, payload []byte) error
}

// GatewayAdapter implements LinkAdapter and PermissionChecker on top of a
// BLE gateway reached over MQTT. Every operation is a request published on
// the requests topic and answered on the responses topic with the same ID.
type GatewayAdapter struct {
	publisher      gatewayPublisher
	topics         Topics
	requestTimeout time.Duration

	mu                  sync.Mutex
	pending             map[string]chan GatewayResponse
	scanFound           func(Peer)
	scanError           func(error)
	disconnectCallbacks map[string]func(error)
}

// NewGatewayAdapter creates a gateway adapter publishing through publisher
func NewGatewayAdapter(publisher gatewayPublisher, topics Topics, requestTimeout time.Duration) *GatewayAdapter {
	return &GatewayAdapter{
		publisher:           publisher,
		topics:              topics,
		requestTimeout:      requestTimeout,
		pending:             make(map[string]chan GatewayResponse),
		disconnectCallbacks: make(map[string]func(error)),
	}
}

// request publishes req and waits for the matching response
func (ga *GatewayAdapter) request(ctx context.Context, req GatewayRequest) (GatewayResponse, error) {
	req.RequestID = uuid.NewString()

	payload, err := json.Marshal(req)
	if err != nil {
		return GatewayResponse{}, fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	respCh := make(chan GatewayResponse, 1)
	ga.mu.Lock()
	ga.pending[req.RequestID] = respCh
	ga.mu.Unlock()

	defer func() {
		ga.mu.Lock()
		delete(ga.pending, req.RequestID)
		ga.mu.Unlock()
	}()

	if err := ga.publisher.Publish(ga.topics.GatewayRequests(), payload); err != nil {
		return GatewayResponse{}, fmt.Errorf("gateway %s request: %w", req.Type, err)
	}
	logDebugf("게이트웨이 요청 발행 - Type: %s, RequestID: %s", req.Type, req.RequestID)

	timer := time.NewTimer(ga.requestTimeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.Success {
			msg := resp.Error
			if msg == "" {
				msg = "rejected"
			}
			return resp, fmt.Errorf("gateway %s request failed: %s", req.Type, msg)
		}
		return resp, nil
	case <-timer.C:
		return GatewayResponse{}, fmt.Errorf("gateway %s request timed out after %v", req.Type, ga.requestTimeout)
	case <-ctx.Done():
		return GatewayResponse{}, ctx.Err()
	}
}

// CheckPermissions asks the gateway whether its radio may scan and connect
func (ga *GatewayAdapter) CheckPermissions(ctx context.Context) error {
	_, err := ga.request(ctx, GatewayRequest{Type: gatewayPermissions})
	return err
}

// StartScan asks the gateway to start discovery
func (ga *GatewayAdapter) StartScan(filter ScanFilter, onFound func(Peer), onError func(error)) error {
	ga.mu.Lock()
	ga.scanFound = onFound
	ga.scanError = onError
	ga.mu.Unlock()

	if _, err := ga.request(context.Background(), GatewayRequest{Type: gatewayScanStart, Filter: &filter}); err != nil {
		ga.clearScanCallbacks()
		return err
	}
	return nil
}

// StopScan stops discovery. Scan events arriving afterwards are dropped.
func (ga *GatewayAdapter) StopScan() error {
	ga.clearScanCallbacks()
	_, err := ga.request(context.Background(), GatewayRequest{Type: gatewayScanStop})
	return err
}

func (ga *GatewayAdapter) clearScanCallbacks() {
	ga.mu.Lock()
	ga.scanFound = nil
	ga.scanError = nil
	ga.mu.Unlock()
}

// Connect asks the gateway to connect to peerID
func (ga *GatewayAdapter) Connect(ctx context.Context, peerID string) (PeerHandle, error) {
	resp, err := ga.request(ctx, GatewayRequest{Type: gatewayConnect, PeerID: peerID})
	if err != nil {
		return PeerHandle{}, err
	}
	handle := PeerHandle{ID: peerID}
	if resp.Peer != nil {
		handle.Name = resp.Peer.Name
	}
	return handle, nil
}

// DiscoverServices asks the gateway to resolve services and characteristics
func (ga *GatewayAdapter) DiscoverServices(ctx context.Context, handle PeerHandle) error {
	_, err := ga.request(ctx, GatewayRequest{Type: gatewayDiscover, PeerID: handle.ID})
	return err
}

// WriteChunk performs a write-with-response through the gateway
func (ga *GatewayAdapter) WriteChunk(ctx context.Context, handle PeerHandle, serviceID, characteristicID string, chunk Chunk) error {
	_, err := ga.request(ctx, GatewayRequest{
		Type:               gatewayWrite,
		PeerID:             handle.ID,
		ServiceUUID:        serviceID,
		CharacteristicUUID: characteristicID,
		Value:              string(chunk),
	})
	return err
}

// OnDisconnected registers the callback for the peer's disconnect notification
func (ga *GatewayAdapter) OnDisconnected(handle PeerHandle, callback func(err error)) {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	ga.disconnectCallbacks[handle.ID] = callback
}

// CancelConnection disconnects the peer. The disconnect callback is removed
// first, so a user-initiated disconnect is not reported as a dropped link.
func (ga *GatewayAdapter) CancelConnection(handle PeerHandle) error {
	ga.mu.Lock()
	delete(ga.disconnectCallbacks, handle.ID)
	ga.mu.Unlock()

	_, err := ga.request(context.Background(), GatewayRequest{Type: gatewayDisconnect, PeerID: handle.ID})
	return err
}

// HandleResponse routes a gateway response to its waiting request
func (ga *GatewayAdapter) HandleResponse(payload []byte) error {
	var resp GatewayResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("invalid gateway response: %w", err)
	}
	if resp.RequestID == "" {
		return fmt.Errorf("gateway response without requestId")
	}

	ga.mu.Lock()
	respCh, exists := ga.pending[resp.RequestID]
	ga.mu.Unlock()

	if !exists {
		log.Printf("⚠️  대기 중이지 않은 게이트웨이 응답 무시 - RequestID: %s", resp.RequestID)
		return nil
	}

	select {
	case respCh <- resp:
	default:
	}
	return nil
}

// HandleScanEvent delivers a scan event to the active scan, if any
func (ga *GatewayAdapter) HandleScanEvent(payload []byte) error {
	var event GatewayScanEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("invalid scan event: %w", err)
	}

	ga.mu.Lock()
	onFound, onError := ga.scanFound, ga.scanError
	ga.mu.Unlock()

	switch event.Event {
	case "found":
		if event.Peer == nil {
			return fmt.Errorf("scan event without peer")
		}
		if onFound != nil {
			onFound(*event.Peer)
		}
	case "error":
		if onError != nil {
			onError(errors.New(event.Error))
		}
	default:
		return fmt.Errorf("unknown scan event: %s", event.Event)
	}
	return nil
}

// HandlePeerConnection fires the disconnect callback when a connected peer
// goes OFFLINE or CONNECTIONBROKEN
func (ga *GatewayAdapter) HandlePeerConnection(peerID string, payload []byte) error {
	var msg PeerConnectionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("invalid peer connection message: %w", err)
	}
	if msg.PeerID != "" && msg.PeerID != peerID {
		return fmt.Errorf("peer ID mismatch - topic: %s, message: %s", peerID, msg.PeerID)
	}

	if msg.ConnectionState == Online {
		return nil
	}

	ga.mu.Lock()
	callback, exists := ga.disconnectCallbacks[peerID]
	delete(ga.disconnectCallbacks, peerID)
	ga.mu.Unlock()

	if !exists {
		return nil
	}

	var cause error
	if msg.Error != "" {
		cause = errors.New(msg.Error)
	} else {
		cause = fmt.Errorf("peer %s is %s", peerID, msg.ConnectionState)
	}
	callback(cause)
	return nil
}
