package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Supported user actions
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionSend       = "send"
	ActionClear      = "clear"
	ActionUndo       = "undo"
	ActionStatus     = "status"
)

// ActionHandler executes user actions against the drawing and the robot link
type ActionHandler struct {
	store    *DrawingStore
	pipeline *DrawingPipeline
	framer   *TransportFramer
	session  *LinkSession
}

// NewActionHandler creates a new action handler
func NewActionHandler(store *DrawingStore, pipeline *DrawingPipeline, framer *TransportFramer, session *LinkSession) *ActionHandler {
	return &ActionHandler{
		store:    store,
		pipeline: pipeline,
		framer:   framer,
		session:  session,
	}
}

// Execute runs a validated action and reports its outcome
func (ah *ActionHandler) Execute(ctx context.Context, action *ActionMessage) ActionResult {
	result := ActionResult{Action: action.Action, RequestID: action.RequestID}

	switch action.Action {
	case ActionConnect:
		return ah.fill(result, ah.Connect(ctx))
	case ActionDisconnect:
		if err := ah.session.Disconnect(ctx); err != nil {
			return ah.fill(result, err)
		}
		result.Success = true
		result.Message = ah.session.Status().Display()
	case ActionSend:
		report, err := ah.SendDrawing(ctx)
		result.Delivered = report.Delivered
		result.Total = report.Total
		if err != nil {
			return ah.fill(result, err)
		}
		result.Success = true
		result.Message = "Robot commands sent!"
	case ActionClear:
		removed := ah.store.Clear()
		result.Success = true
		result.Message = fmt.Sprintf("cleared %d strokes", removed)
	case ActionUndo:
		stroke, ok := ah.store.UndoLastStroke()
		if !ok {
			result.Message = "nothing to undo"
			return result
		}
		result.Success = true
		result.Message = "removed stroke " + stroke.ID
	case ActionStatus:
		result.Success = true
		result.Message = ah.session.Status().Display()
	default:
		result.Message = fmt.Sprintf("unsupported action: %s", action.Action)
	}
	return result
}

func (ah *ActionHandler) fill(result ActionResult, err error) ActionResult {
	if err != nil {
		result.Success = false
		result.Message = err.Error()
		var linkErr *LinkError
		if errors.As(err, &linkErr) && linkErr.Total > 0 {
			result.Delivered = linkErr.Delivered
			result.Total = linkErr.Total
		}
		return result
	}
	result.Success = true
	result.Message = ah.session.Status().Display()
	return result
}

// Connect starts a scan and connects to the robot
func (ah *ActionHandler) Connect(ctx context.Context) error {
	log.Printf("🔌 로봇 연결 요청")
	return ah.session.Connect(ctx)
}

// CompileDrawing compiles the current drawing into per-stroke command lists
func (ah *ActionHandler) CompileDrawing() []CommandList {
	return ah.pipeline.CompileDrawing(ah.store.Strokes())
}

// SendDrawing compiles the whole drawing and streams it to the robot.
// The drawing is left untouched, so a failed send can be retried.
func (ah *ActionHandler) SendDrawing(ctx context.Context) (SendReport, error) {
	if !ah.session.IsConnected() {
		log.Printf("⚠️  로봇이 연결되지 않아 전송 불가")
		return SendReport{}, &LinkError{Op: "send", Kind: ErrNotConnected}
	}

	lists := ah.CompileDrawing()
	chunks, err := ah.framer.Frame(lists)
	if err != nil {
		return SendReport{}, fmt.Errorf("failed to frame drawing: %w", err)
	}

	log.Printf("📦 그림 컴파일 완료 - 스트로크: %d개, 청크: %d개", len(lists), len(chunks))
	return ah.session.Send(ctx, chunks)
}

// ValidateAction validates the action message
func ValidateAction(action *ActionMessage) error {
	if action.Action == "" {
		return fmt.Errorf("action is required")
	}

	switch action.Action {
	case ActionConnect, ActionDisconnect, ActionSend, ActionClear, ActionUndo, ActionStatus:
		return nil
	default:
		return fmt.Errorf("unknown action type: %s", action.Action)
	}
}

// ParseActionMessage parses an action payload.
// Handles JSON ({"action":"send","requestId":"..."}) and plain text ("send").
func ParseActionMessage(payload []byte) (*ActionMessage, error) {
	payloadStr := strings.TrimSpace(string(payload))
	if payloadStr == "" {
		return nil, fmt.Errorf("empty action payload")
	}

	if strings.HasPrefix(payloadStr, "{") {
		var action ActionMessage
		if err := json.Unmarshal([]byte(payloadStr), &action); err != nil {
			return nil, fmt.Errorf("invalid action JSON: %w", err)
		}
		action.Action = strings.ToLower(strings.TrimSpace(action.Action))
		return &action, nil
	}

	return &ActionMessage{Action: strings.ToLower(payloadStr)}, nil
}

// actionTimeout bounds how long a single action may run
func actionTimeout(cfg LinkConfig) time.Duration {
	return cfg.ScanTimeout + cfg.ConnectTimeout + 2*time.Minute
}
