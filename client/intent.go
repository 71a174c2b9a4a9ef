package client

import "github.com/beka-birhanu/vinom-race-server/maze"

// FollowPath steers the local agent along the unique path to the goal.
func FollowPath() IntentFunc {
	return func(s *Session) maze.Direction {
		path, ok := maze.Path(s.Grid(), s.Self().Pos, s.Grid().Goal())
		if !ok || len(path) < 2 {
			return maze.NoDirection
		}
		d, _ := maze.StepBetween(path[0], path[1])
		return d
	}
}

// Steer returns an intent that replays the most recent direction received on
// ch, for keyboard style input.
func Steer(ch <-chan maze.Direction) IntentFunc {
	var current maze.Direction
	return func(*Session) maze.Direction {
		for {
			select {
			case d := <-ch:
				current = d
			default:
				return current
			}
		}
	}
}
