package main

import (
	"math"

	"github.com/paulmach/orb/planar"
)

const (
	initialHeadingDeg = 90.0 // robot starts facing +y
	minSegmentCM      = 0.5
	turnToleranceDeg  = 5.0
)

// CompilePath converts a refined path into turn/move primitives.
//
// The robot is assumed to start at heading 90°. For each segment a turn is
// emitted only when the heading error exceeds 5°; smaller errors are absorbed
// and the tracked heading is left unchanged. Segments shorter than 0.5 cm are
// skipped. Reverse motion is never produced.
func CompilePath(path RefinedPath) CommandList {
	if len(path) < 2 {
		return CommandList{}
	}

	commands := make(CommandList, 0, len(path)*2)
	currentAngle := initialHeadingDeg

	for i := 1; i < len(path); i++ {
		prev, curr := path[i-1], path[i]
		dx := curr.X() - prev.X()
		dy := curr.Y() - prev.Y()

		distance := planar.Distance(prev, curr)
		if distance < minSegmentCM {
			continue
		}

		targetAngle := math.Atan2(dy, dx) * 180 / math.Pi
		angleDiff := normalizeAngle(targetAngle - currentAngle)

		if math.Abs(angleDiff) > turnToleranceDeg {
			if angleDiff > 0 {
				commands = append(commands, RobotCommand{Type: TurnLeft, Value: math.Round(angleDiff)})
			} else {
				commands = append(commands, RobotCommand{Type: TurnRight, Value: math.Round(math.Abs(angleDiff))})
			}
			currentAngle = targetAngle
		}

		commands = append(commands, RobotCommand{Type: MoveForward, Value: roundTo(distance, 1)})
	}

	return commands
}

// normalizeAngle brings a difference in degrees into (-180, 180]
func normalizeAngle(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}
