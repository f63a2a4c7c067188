package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimizeCommandsMergesRuns(t *testing.T) {
	commands := CommandList{
		{Type: MoveForward, Value: 10},
		{Type: MoveForward, Value: 5},
		{Type: TurnLeft, Value: 90},
		{Type: TurnLeft, Value: 10},
		{Type: MoveForward, Value: 3},
	}

	optimized := OptimizeCommands(commands)

	assert.Equal(t, CommandList{
		{Type: MoveForward, Value: 15},
		{Type: TurnLeft, Value: 100},
		{Type: MoveForward, Value: 3},
	}, optimized)
}

func TestOptimizeCommandsDoesNotMergeAcrossTypes(t *testing.T) {
	commands := CommandList{
		{Type: TurnLeft, Value: 30},
		{Type: TurnRight, Value: 30},
		{Type: TurnLeft, Value: 30},
	}

	assert.Equal(t, commands, OptimizeCommands(commands))
}

func TestOptimizeCommandsLeavesInputUntouched(t *testing.T) {
	commands := CommandList{
		{Type: MoveForward, Value: 1},
		{Type: MoveForward, Value: 2},
	}

	_ = OptimizeCommands(commands)

	assert.Equal(t, CommandList{
		{Type: MoveForward, Value: 1},
		{Type: MoveForward, Value: 2},
	}, commands)
}

func TestOptimizeCommandsEmpty(t *testing.T) {
	assert.Equal(t, CommandList{}, OptimizeCommands(nil))
	assert.Equal(t, CommandList{{Type: TurnRight, Value: 45}}, OptimizeCommands(CommandList{{Type: TurnRight, Value: 45}}))
}

func TestOptimizeCommandsIsIdempotent(t *testing.T) {
	commands := CompilePath(RefinedPath{{0, 0}, {0, 10}, {0, 20}, {10, 20}, {20, 20}, {20, 10}})

	once := OptimizeCommands(commands)

	assert.Equal(t, once, OptimizeCommands(once))
	for i := 1; i < len(once); i++ {
		assert.NotEqual(t, once[i-1].Type, once[i].Type)
	}
}
