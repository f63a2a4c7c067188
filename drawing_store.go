package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DrawingChangeCallback is a function type for handling completed or removed strokes
type DrawingChangeCallback func(strokeCount int)

// DrawingStore owns the Drawing and the stroke currently being captured
type DrawingStore struct {
	canvasWidth  float64
	canvasHeight float64

	strokes        []Stroke
	current        []CanvasPoint
	mutex          sync.RWMutex
	changeCallback DrawingChangeCallback
}

// NewDrawingStore creates an empty drawing for a canvas of the given size
func NewDrawingStore(cfg CanvasConfig) *DrawingStore {
	return &DrawingStore{
		canvasWidth:  cfg.Width,
		canvasHeight: cfg.Height,
		strokes:      make([]Stroke, 0),
	}
}

// SetChangeCallback sets the callback invoked after the stroke list changes
func (ds *DrawingStore) SetChangeCallback(callback DrawingChangeCallback) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	ds.changeCallback = callback
}

// InsideCanvas reports whether a point lies within the canvas bounds
func (ds *DrawingStore) InsideCanvas(p CanvasPoint) bool {
	return p.X >= 0 && p.X <= ds.canvasWidth && p.Y >= 0 && p.Y <= ds.canvasHeight
}

// BeginStroke starts a new in-progress stroke and reports whether the start
// point was recorded. A start point outside the canvas still opens the
// stroke, with no points, so later in-canvas points are kept.
func (ds *DrawingStore) BeginStroke(p CanvasPoint) bool {
	inside := ds.InsideCanvas(p)

	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	ds.current = make([]CanvasPoint, 0, 16)
	if !inside {
		logDebugf("캔버스 밖 시작점 무시: (%.1f, %.1f)", p.X, p.Y)
		return false
	}
	ds.current = append(ds.current, p)
	return true
}

// AppendPoint adds a point to the in-progress stroke. Points outside the
// canvas are dropped.
func (ds *DrawingStore) AppendPoint(p CanvasPoint) bool {
	if !ds.InsideCanvas(p) {
		return false
	}

	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	ds.current = append(ds.current, p)
	return true
}

// CompleteStroke appends the in-progress stroke to the drawing.
// Returns false when there was nothing to complete.
func (ds *DrawingStore) CompleteStroke() (Stroke, bool) {
	ds.mutex.Lock()
	points := ds.current
	ds.current = nil
	if len(points) == 0 {
		ds.mutex.Unlock()
		return Stroke{}, false
	}
	stroke := ds.appendLocked(points)
	count := len(ds.strokes)
	callback := ds.changeCallback
	ds.mutex.Unlock()

	if callback != nil {
		callback(count)
	}
	return stroke, true
}

// AddStroke appends a complete stroke in one step. Out-of-canvas points are dropped.
func (ds *DrawingStore) AddStroke(points []CanvasPoint) (Stroke, error) {
	kept := make([]CanvasPoint, 0, len(points))
	for _, p := range points {
		if ds.InsideCanvas(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return Stroke{}, fmt.Errorf("stroke has no points inside the canvas")
	}

	ds.mutex.Lock()
	stroke := ds.appendLocked(kept)
	count := len(ds.strokes)
	callback := ds.changeCallback
	ds.mutex.Unlock()

	if callback != nil {
		callback(count)
	}
	return stroke, nil
}

func (ds *DrawingStore) appendLocked(points []CanvasPoint) Stroke {
	stroke := Stroke{
		ID:          uuid.NewString(),
		Points:      points,
		CompletedAt: time.Now(),
	}
	ds.strokes = append(ds.strokes, stroke)
	log.Printf("✏️  스트로크 추가 - ID: %s, 점: %d개, 총 스트로크: %d개",
		stroke.ID, len(points), len(ds.strokes))
	return copyStroke(stroke)
}

// UndoLastStroke removes the most recently completed stroke
func (ds *DrawingStore) UndoLastStroke() (Stroke, bool) {
	ds.mutex.Lock()
	if len(ds.strokes) == 0 {
		ds.mutex.Unlock()
		return Stroke{}, false
	}
	last := ds.strokes[len(ds.strokes)-1]
	ds.strokes = ds.strokes[:len(ds.strokes)-1]
	count := len(ds.strokes)
	callback := ds.changeCallback
	ds.mutex.Unlock()

	log.Printf("↩️  스트로크 취소 - ID: %s", last.ID)
	if callback != nil {
		callback(count)
	}
	return last, true
}

// Clear removes all strokes and any stroke in progress
func (ds *DrawingStore) Clear() int {
	ds.mutex.Lock()
	removed := len(ds.strokes)
	ds.strokes = make([]Stroke, 0)
	ds.current = nil
	callback := ds.changeCallback
	ds.mutex.Unlock()

	log.Printf("🧹 그림 초기화 - 삭제된 스트로크: %d개", removed)
	if callback != nil {
		callback(0)
	}
	return removed
}

// Strokes returns a copy of all completed strokes in order
func (ds *DrawingStore) Strokes() []Stroke {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	result := make([]Stroke, len(ds.strokes))
	for i, s := range ds.strokes {
		result[i] = copyStroke(s)
	}
	return result
}

// CurrentStroke returns a copy of the in-progress points
func (ds *DrawingStore) CurrentStroke() []CanvasPoint {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return append([]CanvasPoint(nil), ds.current...)
}

// StrokeCount returns the number of completed strokes
func (ds *DrawingStore) StrokeCount() int {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return len(ds.strokes)
}

func copyStroke(s Stroke) Stroke {
	s.Points = append([]CanvasPoint(nil), s.Points...)
	return s
}
