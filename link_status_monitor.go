package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// statusPublisher publishes retained status messages
type statusPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// LinkStatusMonitor observes the link session and the drawing, publishes
// status updates and keeps counters for the periodic summary
type LinkStatusMonitor struct {
	session   *LinkSession
	store     *DrawingStore
	publisher statusPublisher
	topics    Topics

	mu             sync.Mutex
	lastChange     time.Time
	connects       int
	drops          int
	scanTimeouts   int
	permissionErrs int
}

// NewLinkStatusMonitor creates a monitor and registers its callbacks
func NewLinkStatusMonitor(session *LinkSession, store *DrawingStore, publisher statusPublisher, topics Topics) *LinkStatusMonitor {
	monitor := &LinkStatusMonitor{
		session:   session,
		store:     store,
		publisher: publisher,
		topics:    topics,
	}

	session.OnStateChange(monitor.handleLinkStateChange)
	store.SetChangeCallback(func(int) { monitor.PublishStatus() })

	return monitor
}

// handleLinkStateChange counts notable transitions and publishes the new status
func (lsm *LinkStatusMonitor) handleLinkStateChange(old, new LinkStatus) {
	lsm.mu.Lock()
	lsm.lastChange = time.Now()
	switch {
	case new.State == LinkConnected:
		lsm.connects++
	case new.Reason == reasonLinkDropped:
		lsm.drops++
	case new.Reason == reasonScanTimeout:
		lsm.scanTimeouts++
	case new.Reason == reasonNoPermission:
		lsm.permissionErrs++
	}
	lsm.mu.Unlock()

	if old.State == LinkConnected && new.Reason == reasonLinkDropped {
		log.Printf("🚨 로봇 링크 끊김 - 다시 연결하려면 connect 액션이 필요합니다")
	}

	lsm.PublishStatus()
}

// BuildStatusMessage returns the current status as published on the status topic
func (lsm *LinkStatusMonitor) BuildStatusMessage() StatusMessage {
	status := lsm.session.Status()
	return StatusMessage{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		LinkState:   status.State.String(),
		Reason:      status.Reason,
		Display:     status.Display(),
		Peer:        status.Peer,
		StrokeCount: lsm.store.StrokeCount(),
	}
}

// PublishStatus publishes the current status as a retained message
func (lsm *LinkStatusMonitor) PublishStatus() {
	payload, err := json.Marshal(lsm.BuildStatusMessage())
	if err != nil {
		log.Printf("❌ 상태 메시지 직렬화 실패: %v", err)
		return
	}
	if err := lsm.publisher.PublishRetained(lsm.topics.Status(), payload); err != nil {
		logDebugf("상태 메시지 발행 실패: %v", err)
	}
}

// PrintStatusSummary prints a summary of the link and drawing
func (lsm *LinkStatusMonitor) PrintStatusSummary() {
	status := lsm.session.Status()

	lsm.mu.Lock()
	lastChange := lsm.lastChange
	connects, drops, timeouts, permissionErrs := lsm.connects, lsm.drops, lsm.scanTimeouts, lsm.permissionErrs
	lsm.mu.Unlock()

	statusIcon := "🔴"
	switch status.State {
	case LinkConnected:
		statusIcon = "🟢"
	case LinkScanning, LinkConnecting:
		statusIcon = "🟡"
	}

	since := "-"
	if !lastChange.IsZero() {
		since = lastChange.Format("15:04:05")
	}

	log.Printf("   %s 로봇 링크: %s (%s, 변경: %s)", statusIcon, status.State, status.Display(), since)
	log.Printf("   ✏️  스트로크: %d개", lsm.store.StrokeCount())
	if connects+drops+timeouts+permissionErrs > 0 {
		log.Printf("   📊 연결: %d회, 끊김: %d회, 스캔 타임아웃: %d회, 권한 오류: %d회",
			connects, drops, timeouts, permissionErrs)
	}
}
