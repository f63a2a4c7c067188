package main

import (
	"encoding/json"
	"log"
)

// DrawingPipeline compiles strokes into optimized robot programs
type DrawingPipeline struct {
	mapper    *CoordinateMapper
	threshold float64
}

// NewDrawingPipeline creates a pipeline for the given canvas configuration
func NewDrawingPipeline(cfg CanvasConfig) *DrawingPipeline {
	return &DrawingPipeline{
		mapper:    NewCoordinateMapper(cfg),
		threshold: cfg.RefineThreshold,
	}
}

// CompileStroke maps, refines, compiles and optimizes a single stroke
func (dp *DrawingPipeline) CompileStroke(points []CanvasPoint) (RefinedPath, CommandList) {
	refined := RefinePath(dp.mapper.MapStroke(points), dp.threshold)
	return refined, OptimizeCommands(CompilePath(refined))
}

// CompileDrawing returns one command list per stroke, in stroke order.
// Strokes are independent of each other.
func (dp *DrawingPipeline) CompileDrawing(strokes []Stroke) []CommandList {
	lists := make([]CommandList, len(strokes))
	for i, stroke := range strokes {
		refined, commands := dp.CompileStroke(stroke.Points)
		lists[i] = commands
		logDebugf("📍 Stroke %d refined: %d -> %d points, %d commands",
			i, len(stroke.Points), len(refined), len(commands))
	}

	if debugEnabled() {
		if data, err := json.Marshal(lists); err == nil {
			log.Printf("📤 [DEBUG] Robot payload: %s", data)
		}
	}
	return lists
}
