package object

import "math"

const sqrt2Inv = 1 / math.Sqrt2

// Direction is the boolean movement vector a client sends on a player
// movement frame (spec §6 "direction:{left,right,up,down:bool}").
type Direction struct {
	Left, Right, Up, Down bool
}

// Velocity derives (vx, vy) from a direction vector at the fixed
// PLAYER_SPEED, scaling each axis by 1/sqrt(2) when moving diagonally so
// the resulting speed stays constant regardless of direction (spec §3).
func (d Direction) Velocity() (vx, vy float64) {
	if d.Left == d.Right {
		vx = 0
	} else if d.Right {
		vx = 1
	} else {
		vx = -1
	}

	if d.Up == d.Down {
		vy = 0
	} else if d.Down {
		vy = 1
	} else {
		vy = -1
	}

	speed := playerSpeed
	if vx != 0 && vy != 0 {
		speed *= sqrt2Inv
	}
	return vx * speed, vy * speed
}

// DefaultPlayerHealth and DefaultPlayerSize are the join-message defaults
// from the wire schema (spec §6: health[100], size[20]).
const (
	DefaultPlayerHealth = 100
	DefaultPlayerSize   = 20.0
)

// DefaultUsername is the join-message default username (spec §6).
const DefaultUsername = "unknown"
