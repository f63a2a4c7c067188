package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCanvasConfig() CanvasConfig {
	return CanvasConfig{
		Width:           500,
		Height:          500,
		GroundWidthCM:   100,
		GroundHeightCM:  100,
		RefineThreshold: DefaultRefineThreshold,
	}
}

func TestCoordinateMapperFlipsYAxis(t *testing.T) {
	mapper := NewCoordinateMapper(testCanvasConfig())

	tests := []struct {
		name string
		in   CanvasPoint
		x, y float64
	}{
		{"top-left", CanvasPoint{X: 0, Y: 0}, 0, 100},
		{"bottom-left", CanvasPoint{X: 0, Y: 500}, 0, 0},
		{"center", CanvasPoint{X: 250, Y: 250}, 50, 50},
		{"bottom-right", CanvasPoint{X: 500, Y: 500}, 100, 0},
		{"inner", CanvasPoint{X: 100, Y: 400}, 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapper.Map(tt.in)
			assert.InDelta(t, tt.x, got.X(), 1e-9)
			assert.InDelta(t, tt.y, got.Y(), 1e-9)
		})
	}
}

func TestCoordinateMapperRoundsToTwoDecimals(t *testing.T) {
	mapper := NewCoordinateMapper(CanvasConfig{Width: 300, Height: 300, GroundWidthCM: 100, GroundHeightCM: 100})

	got := mapper.Map(CanvasPoint{X: 1, Y: 299})
	assert.InDelta(t, 0.33, got.X(), 1e-9)
	assert.InDelta(t, 0.33, got.Y(), 1e-9)
}

func TestCoordinateMapperAllowsOutOfBoundsPoints(t *testing.T) {
	mapper := NewCoordinateMapper(testCanvasConfig())

	got := mapper.Map(CanvasPoint{X: -10, Y: 600})
	assert.InDelta(t, -2, got.X(), 1e-9)
	assert.InDelta(t, -20, got.Y(), 1e-9)
}

func TestCoordinateMapperMapStroke(t *testing.T) {
	mapper := NewCoordinateMapper(testCanvasConfig())

	assert.Empty(t, mapper.MapStroke(nil))

	mapped := mapper.MapStroke([]CanvasPoint{{X: 0, Y: 500}, {X: 0, Y: 450}, {X: 50, Y: 450}})
	require.Len(t, mapped, 3)
	assert.Equal(t, RealPoint{0, 0}, mapped[0])
	assert.Equal(t, RealPoint{0, 10}, mapped[1])
	assert.Equal(t, RealPoint{10, 10}, mapped[2])
}

func TestRoundToHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 3.0, roundTo(2.5, 0))
	assert.Equal(t, -3.0, roundTo(-2.5, 0))
	assert.Equal(t, 14.1, roundTo(14.142135, 1))
}
