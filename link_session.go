package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// LinkState represents the robot link state
type LinkState int

const (
	LinkDisconnected LinkState = iota
	LinkScanning
	LinkConnecting
	LinkConnected
	LinkFailed
)

func (ls LinkState) String() string {
	switch ls {
	case LinkDisconnected:
		return "DISCONNECTED"
	case LinkScanning:
		return "SCANNING"
	case LinkConnecting:
		return "CONNECTING"
	case LinkConnected:
		return "CONNECTED"
	case LinkFailed:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Status reasons reported alongside a state
const (
	reasonNoPermission    = "no permission"
	reasonScanTimeout     = "scan timeout"
	reasonScanError       = "scan error"
	reasonConnectionError = "connection error"
	reasonLinkDropped     = "link dropped"
	reasonUserDisconnect  = "disconnected by user"
	reasonCancelled       = "cancelled"
)

// LinkStatus is a snapshot of the session state
type LinkStatus struct {
	State  LinkState
	Reason string
	Peer   string
}

// Display returns the user-facing status line
func (s LinkStatus) Display() string {
	switch s.State {
	case LinkScanning:
		return "Scanning..."
	case LinkConnecting:
		return fmt.Sprintf("Connecting to %s...", s.Peer)
	case LinkConnected:
		return "Connected"
	case LinkFailed:
		switch s.Reason {
		case reasonNoPermission:
			return "No BLE permission"
		case reasonScanError:
			return "Scan error"
		}
		return "Error: " + s.Reason
	default:
		switch s.Reason {
		case reasonScanTimeout:
			return "Scan timeout"
		case reasonConnectionError:
			return "Connection error"
		}
		return "Disconnected"
	}
}

// SendReport describes a completed transmission
type SendReport struct {
	Delivered int
	Total     int
	Duration  time.Duration
}

// LinkSessionOptions configures a LinkSession
type LinkSessionOptions struct {
	PeerName           string
	ServiceUUID        string
	CharacteristicUUID string
	ScanTimeout        time.Duration
	ConnectTimeout     time.Duration
	WriteTimeout       time.Duration
	ChunkDelay         time.Duration
}

// LinkSessionOptionsFromConfig builds session options from link configuration
func LinkSessionOptionsFromConfig(cfg LinkConfig) LinkSessionOptions {
	return LinkSessionOptions{
		PeerName:           cfg.PeerName,
		ServiceUUID:        cfg.ServiceUUID,
		CharacteristicUUID: cfg.CharacteristicUUID,
		ScanTimeout:        cfg.ScanTimeout,
		ConnectTimeout:     cfg.ConnectTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		ChunkDelay:         cfg.ChunkDelay,
	}
}

// LinkStateListener is notified after every state transition
type LinkStateListener func(old, new LinkStatus)

// LinkSession owns the single connection slot to the robot.
// Connect and Send block until they finish; at most one of each runs at a time.
type LinkSession struct {
	adapter     LinkAdapter
	permissions PermissionChecker
	opts        LinkSessionOptions

	mu         sync.Mutex
	status     LinkStatus
	peer       *PeerHandle
	dropped    chan struct{} // closed when the current connection ends
	connecting bool
	sending    bool
	listeners  []LinkStateListener
}

// NewLinkSession creates a session in the Disconnected state.
// permissions may be nil when the platform needs no runtime grant.
func NewLinkSession(adapter LinkAdapter, permissions PermissionChecker, opts LinkSessionOptions) *LinkSession {
	if permissions == nil {
		permissions = PermissionFunc(func(context.Context) error { return nil })
	}
	return &LinkSession{
		adapter:     adapter,
		permissions: permissions,
		opts:        opts,
		status:      LinkStatus{State: LinkDisconnected},
	}
}

// OnStateChange registers a listener for state transitions
func (s *LinkSession) OnStateChange(listener LinkStateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Status returns the current state snapshot
func (s *LinkSession) Status() LinkStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsConnected reports whether the session is in the Connected state
func (s *LinkSession) IsConnected() bool {
	return s.Status().State == LinkConnected
}

// setState transitions and notifies listeners. Must not hold s.mu.
func (s *LinkSession) setState(state LinkState, reason, peer string) {
	s.mu.Lock()
	notify := s.transitionLocked(state, reason, peer)
	s.mu.Unlock()
	notify()
}

// transitionLocked updates the state while s.mu is held. The returned
// function fires the listeners and must be called after unlocking.
func (s *LinkSession) transitionLocked(state LinkState, reason, peer string) func() {
	old := s.status
	s.status = LinkStatus{State: state, Reason: reason, Peer: peer}
	next := s.status
	listeners := append([]LinkStateListener(nil), s.listeners...)

	log.Printf("🔄 로봇 링크 상태 변경 - %s -> %s (%s)", old.State, next.State, next.Display())

	return func() {
		for _, l := range listeners {
			l(old, next)
		}
	}
}

// Connect scans for the robot, connects and negotiates its services.
// Calling Connect while connected is a no-op.
func (s *LinkSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connecting {
		s.mu.Unlock()
		return newLinkError("connect", ErrOperationInProgress, nil)
	}
	if s.status.State == LinkConnected {
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.connecting = false
		s.mu.Unlock()
	}()

	if err := s.permissions.CheckPermissions(ctx); err != nil {
		s.setState(LinkFailed, reasonNoPermission, "")
		log.Printf("❌ 블루투스 권한 없음: %v", err)
		return newLinkError("connect", ErrPermissionDenied, err)
	}

	peer, err := s.scan(ctx)
	if err != nil {
		return err
	}

	return s.connectPeer(ctx, peer)
}

// scan runs one discovery window and returns the first matching peer.
// The adapter scan is always stopped before the state changes.
func (s *LinkSession) scan(ctx context.Context) (Peer, error) {
	s.setState(LinkScanning, "", "")
	log.Printf("🔍 로봇 검색 시작 - Name: %s, Timeout: %v", s.opts.PeerName, s.opts.ScanTimeout)

	found := make(chan Peer, 1)
	scanErr := make(chan error, 1)
	var active atomic.Bool
	active.Store(true)

	onFound := func(p Peer) {
		if !active.Load() || p.Name != s.opts.PeerName {
			return
		}
		select {
		case found <- p:
		default:
		}
	}
	onError := func(err error) {
		if !active.Load() {
			return
		}
		select {
		case scanErr <- err:
		default:
		}
	}

	stop := func() {
		active.Store(false)
		if err := s.adapter.StopScan(); err != nil {
			log.Printf("⚠️  스캔 중지 실패: %v", err)
		}
	}

	filter := ScanFilter{Name: s.opts.PeerName}
	if err := s.adapter.StartScan(filter, onFound, onError); err != nil {
		stop()
		s.setState(LinkFailed, reasonScanError, "")
		return Peer{}, newLinkError("connect", ErrAdapterFailure, err)
	}

	timer := time.NewTimer(s.opts.ScanTimeout)
	defer timer.Stop()

	select {
	case p := <-found:
		stop()
		log.Printf("📡 로봇 발견 - ID: %s, Name: %s, RSSI: %d", p.ID, p.Name, p.RSSI)
		return p, nil
	case err := <-scanErr:
		stop()
		s.setState(LinkFailed, reasonScanError, "")
		log.Printf("❌ 스캔 오류: %v", err)
		return Peer{}, newLinkError("connect", ErrAdapterFailure, err)
	case <-timer.C:
		stop()
		s.setState(LinkDisconnected, reasonScanTimeout, "")
		log.Printf("⏰ 로봇 검색 타임아웃 (%v)", s.opts.ScanTimeout)
		return Peer{}, newLinkError("connect", ErrScanTimeout, nil)
	case <-ctx.Done():
		stop()
		s.setState(LinkDisconnected, reasonCancelled, "")
		return Peer{}, newLinkError("connect", ErrConnectFailure, ctx.Err())
	}
}

// connectPeer connects and negotiates services. On any failure the
// half-open handle is cancelled so no stale connection is retained.
// The disconnect callback is registered before discovery, so a peer lost
// while services are negotiated fails the connect instead of leaving a
// dead Connected session.
func (s *LinkSession) connectPeer(ctx context.Context, peer Peer) error {
	s.setState(LinkConnecting, "", peer.Name)

	connectCtx := ctx
	if s.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, s.opts.ConnectTimeout)
		defer cancel()
	}

	handle, err := s.adapter.Connect(connectCtx, peer.ID)
	if err != nil {
		s.setState(LinkDisconnected, reasonConnectionError, "")
		log.Printf("❌ 로봇 연결 실패 - ID: %s, Error: %v", peer.ID, err)
		return newLinkError("connect", ErrConnectFailure, err)
	}

	dropped := make(chan struct{})
	s.mu.Lock()
	h := handle
	s.peer = &h
	s.dropped = dropped
	s.mu.Unlock()

	s.adapter.OnDisconnected(handle, func(err error) {
		s.handleDisconnect(handle, err)
	})

	discoverCtx, stopDiscover := context.WithCancel(connectCtx)
	defer stopDiscover()
	go func() {
		select {
		case <-dropped:
			stopDiscover()
		case <-discoverCtx.Done():
		}
	}()

	if err := s.adapter.DiscoverServices(discoverCtx, handle); err != nil {
		if isClosed(dropped) {
			err = ErrLinkDropped
		}
		s.abortConnect(handle, err)
		log.Printf("❌ 서비스 탐색 실패 - ID: %s, Error: %v", handle.ID, err)
		return newLinkError("connect", ErrConnectFailure, err)
	}

	s.mu.Lock()
	if s.peer == nil || *s.peer != handle {
		s.mu.Unlock()
		s.abortConnect(handle, ErrLinkDropped)
		log.Printf("❌ 서비스 탐색 중 연결 끊어짐 - ID: %s", handle.ID)
		return newLinkError("connect", ErrConnectFailure, ErrLinkDropped)
	}
	notify := s.transitionLocked(LinkConnected, "", handle.Name)
	s.mu.Unlock()
	notify()

	log.Printf("✅ 로봇 연결 완료 - ID: %s, Name: %s", handle.ID, handle.Name)
	return nil
}

// abortConnect clears a half-open connection and reports a connection error.
// The state is left alone when a user disconnect already moved it on.
func (s *LinkSession) abortConnect(handle PeerHandle, cause error) {
	if cancelErr := s.adapter.CancelConnection(handle); cancelErr != nil {
		log.Printf("⚠️  연결 취소 실패 - ID: %s, Error: %v", handle.ID, cancelErr)
	}

	s.mu.Lock()
	if s.peer != nil && *s.peer == handle {
		s.peer = nil
		close(s.dropped)
	}
	if s.status.State != LinkConnecting {
		s.mu.Unlock()
		return
	}
	notify := s.transitionLocked(LinkDisconnected, reasonConnectionError, "")
	s.mu.Unlock()
	notify()
	logDebugf("연결 중단 - ID: %s, Cause: %v", handle.ID, cause)
}

// handleDisconnect processes the adapter's disconnect notification. While
// the connect is still negotiating, connectPeer reports the failure.
func (s *LinkSession) handleDisconnect(handle PeerHandle, err error) {
	s.mu.Lock()
	if s.peer == nil || *s.peer != handle {
		s.mu.Unlock()
		return
	}
	s.peer = nil
	close(s.dropped)
	if s.status.State == LinkConnecting {
		s.mu.Unlock()
		log.Printf("❌ 연결 중 로봇 연결 끊어짐 - ID: %s, Error: %v", handle.ID, err)
		return
	}
	notify := s.transitionLocked(LinkDisconnected, reasonLinkDropped, "")
	s.mu.Unlock()
	notify()

	log.Printf("❌ 로봇 연결 끊어짐 - ID: %s, Error: %v", handle.ID, err)
}

// Disconnect tears down the current connection, if any
func (s *LinkSession) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.peer == nil {
		s.mu.Unlock()
		return nil
	}
	handle := *s.peer
	s.peer = nil
	close(s.dropped)
	notify := s.transitionLocked(LinkDisconnected, reasonUserDisconnect, "")
	s.mu.Unlock()
	notify()

	if err := s.adapter.CancelConnection(handle); err != nil {
		return newLinkError("disconnect", ErrAdapterFailure, err)
	}
	log.Printf("🔌 로봇 연결 해제 - ID: %s", handle.ID)
	return nil
}

// Send writes chunks in order, waiting for each acknowledgement and pausing
// ChunkDelay between writes. If the link leaves Connected the send stops
// immediately and reports how many chunks were delivered.
func (s *LinkSession) Send(ctx context.Context, chunks []Chunk) (SendReport, error) {
	total := len(chunks)

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return SendReport{Total: total}, newLinkError("send", ErrOperationInProgress, nil)
	}
	if s.status.State != LinkConnected || s.peer == nil {
		s.mu.Unlock()
		return SendReport{Total: total}, &LinkError{Op: "send", Kind: ErrNotConnected, Total: total}
	}
	s.sending = true
	handle := *s.peer
	dropped := s.dropped
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	start := time.Now()
	fail := func(delivered int, kind, cause error) (SendReport, error) {
		log.Printf("❌ 전송 중단 - %d/%d 청크 전송됨: %v", delivered, total, kind)
		return SendReport{Delivered: delivered, Total: total, Duration: time.Since(start)},
			&LinkError{Op: "send", Kind: kind, Delivered: delivered, Total: total, Err: cause}
	}

	log.Printf("📤 로봇으로 전송 시작 - 청크: %d개", total)

	for i, chunk := range chunks {
		select {
		case <-dropped:
			return fail(i, ErrLinkDropped, nil)
		case <-ctx.Done():
			return fail(i, ErrTransmitFailure, ctx.Err())
		default:
		}

		if err := s.writeChunk(ctx, handle, chunk, dropped); err != nil {
			if errors.Is(err, ErrLinkDropped) || isClosed(dropped) {
				return fail(i, ErrLinkDropped, nil)
			}
			return fail(i, ErrTransmitFailure, err)
		}
		logDebugf("청크 전송 완료 %d/%d", i+1, total)

		if i < total-1 && s.opts.ChunkDelay > 0 {
			pause := time.NewTimer(s.opts.ChunkDelay)
			select {
			case <-pause.C:
			case <-dropped:
				pause.Stop()
				return fail(i+1, ErrLinkDropped, nil)
			case <-ctx.Done():
				pause.Stop()
				return fail(i+1, ErrTransmitFailure, ctx.Err())
			}
		}
	}

	report := SendReport{Delivered: total, Total: total, Duration: time.Since(start)}
	log.Printf("✅ 로봇 명령 전송 완료 - 청크: %d개, 소요: %v", total, report.Duration.Round(time.Millisecond))
	return report, nil
}

// writeChunk performs one acknowledged write, abandoning it if the link drops.
// An acknowledgement that is ready wins over a drop noticed at the same time.
func (s *LinkSession) writeChunk(ctx context.Context, handle PeerHandle, chunk Chunk, dropped <-chan struct{}) error {
	var writeCtx context.Context
	var cancel context.CancelFunc
	if s.opts.WriteTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, s.opts.WriteTimeout)
	} else {
		writeCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	if isClosed(dropped) {
		return ErrLinkDropped
	}

	done := make(chan error, 1)
	go func() {
		done <- s.adapter.WriteChunk(writeCtx, handle, s.opts.ServiceUUID, s.opts.CharacteristicUUID, chunk)
	}()

	select {
	case err := <-done:
		return err
	case <-dropped:
		select {
		case err := <-done:
			return err
		default:
			return ErrLinkDropped
		}
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
