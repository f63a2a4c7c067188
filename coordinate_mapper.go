package main

import (
	"math"

	"github.com/paulmach/orb"
)

// CoordinateMapper converts canvas pixels into the robot's ground frame
type CoordinateMapper struct {
	canvasHeight float64
	scaleX       float64
	scaleY       float64
}

// NewCoordinateMapper creates a mapper for the given canvas and ground sizes
func NewCoordinateMapper(cfg CanvasConfig) *CoordinateMapper {
	return &CoordinateMapper{
		canvasHeight: cfg.Height,
		scaleX:       cfg.GroundWidthCM / cfg.Width,
		scaleY:       cfg.GroundHeightCM / cfg.Height,
	}
}

// Map converts a canvas point to a ground point rounded to 2 decimals.
// The y axis is flipped: canvas origin is top-left, ground origin bottom-left.
// Points outside the canvas are mapped as well.
func (m *CoordinateMapper) Map(p CanvasPoint) RealPoint {
	return orb.Point{
		roundTo(p.X*m.scaleX, 2),
		roundTo((m.canvasHeight-p.Y)*m.scaleY, 2),
	}
}

// MapStroke maps every point of a stroke in order
func (m *CoordinateMapper) MapStroke(points []CanvasPoint) []RealPoint {
	if len(points) == 0 {
		return nil
	}
	mapped := make([]RealPoint, len(points))
	for i, p := range points {
		mapped[i] = m.Map(p)
	}
	return mapped
}

// roundTo rounds half away from zero to the given number of decimals
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
