package main

import "context"

// Peer is a device discovered during a scan
type Peer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	RSSI int    `json:"rssi,omitempty"`
}

// PeerHandle identifies an established connection to a peer
type PeerHandle struct {
	ID   string
	Name string
}

// ScanFilter narrows a scan to advertisements of interest
type ScanFilter struct {
	Name        string `json:"name,omitempty"`
	ServiceUUID string `json:"serviceUuid,omitempty"`
}

// LinkAdapter is the wireless adapter capability used by LinkSession.
// Callbacks may be invoked from any goroutine.
type LinkAdapter interface {
	// StartScan begins discovery. onFound is called for every advertisement,
	// onError when the scan fails after it started.
	StartScan(filter ScanFilter, onFound func(Peer), onError func(error)) error
	StopScan() error
	Connect(ctx context.Context, peerID string) (PeerHandle, error)
	// DiscoverServices negotiates the peer's services and characteristics
	DiscoverServices(ctx context.Context, handle PeerHandle) error
	// WriteChunk writes with response and returns once the peer acknowledged
	WriteChunk(ctx context.Context, handle PeerHandle, serviceID, characteristicID string, chunk Chunk) error
	OnDisconnected(handle PeerHandle, callback func(err error))
	CancelConnection(handle PeerHandle) error
}

// PermissionChecker verifies that the radio may be used
type PermissionChecker interface {
	CheckPermissions(ctx context.Context) error
}

// PermissionFunc adapts a function to PermissionChecker
type PermissionFunc func(ctx context.Context) error

// CheckPermissions calls f(ctx)
func (f PermissionFunc) CheckPermissions(ctx context.Context) error {
	return f(ctx)
}
