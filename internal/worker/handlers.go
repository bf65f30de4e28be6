package worker

import (
	"log"

	"snowfight/internal/object"
	"snowfight/internal/protocol"
)

// handleMessage routes a decoded inbound frame by type (spec §4.D). Any
// decode failure is a malformed frame: dropped silently, connection
// stays open (spec §7).
func (w *Worker) handleMessage(conn Conn, raw []byte) {
	c, ok := w.clients[conn]
	if !ok {
		return
	}

	msgType, objectType, err := protocol.PeekType(raw)
	if err != nil {
		return
	}
	switch msgType {
	case protocol.TypePing, protocol.TypeJoin, protocol.TypeMovement:
		w.metrics.IncMessage(msgType)
	default:
		return
	}

	switch msgType {
	case protocol.TypePing:
		w.handlePing(c, raw)
	case protocol.TypeJoin:
		w.handleJoin(c, raw)
	case protocol.TypeMovement:
		switch objectType {
		case protocol.ObjectTypeSnowball:
			w.handleSnowballMovement(c, raw)
		default:
			w.handlePlayerMovement(c, raw)
		}
	}
}

func (w *Worker) handlePing(c *Client, raw []byte) {
	p, err := protocol.DecodePing(raw)
	if err != nil {
		return
	}
	out, err := protocol.EncodePong(nowMs(), p.ClientTime)
	if err != nil {
		return
	}
	if err := c.Conn.Send(out, false); err != nil {
		log.Printf("⚠️ worker %d: pong send failed: %v", w.id, err)
	}
}

// inBounds reports whether (x,y) lies within the arena rectangle
// [0,width) x [0,height) (spec §3 invariant I3, §7 OOB handling).
func (w *Worker) inBounds(x, y float64) bool {
	return x >= 0 && x < w.world.Width && y >= 0 && y < w.world.Height
}

func (w *Worker) handleJoin(c *Client, raw []byte) {
	j, err := protocol.DecodeJoin(raw)
	if err != nil {
		return
	}
	if !w.inBounds(j.Position.X, j.Position.Y) {
		return // out-of-bounds join: silently ignored (spec §7 scenario 8)
	}

	now := j.TimeUpdate
	p := object.NewPlayer(j.ID, j.Username, j.Position.X, j.Position.Y, j.Size, j.Health, now)
	c.Player = p
	w.grid.Insert(p)
}

func (w *Worker) handlePlayerMovement(c *Client, raw []byte) {
	if c.Player.ID == "" {
		return // not joined yet
	}
	m, err := protocol.DecodePlayerMovement(raw)
	if err != nil {
		return
	}

	switch {
	case m.Position != nil:
		if !w.inBounds(m.Position.X, m.Position.Y) {
			return
		}
		c.Player.ApplyExplicitPosition(m.Position.X, m.Position.Y, m.TimeUpdate)
		w.grid.Update(c.Player, m.TimeUpdate)
	case m.Direction != nil:
		vx, vy := object.Direction{
			Left:  m.Direction.Left,
			Right: m.Direction.Right,
			Up:    m.Direction.Up,
			Down:  m.Direction.Down,
		}.Velocity()
		c.Player.SetVelocityAndAnchor(vx, vy, m.TimeUpdate)
	}
}

func (w *Worker) handleSnowballMovement(c *Client, raw []byte) {
	m, err := protocol.DecodeSnowballMovement(raw)
	if err != nil {
		return
	}

	params := object.SnowballParams{
		X: m.Position.X, Y: m.Position.Y,
		VX: m.Velocity.X, VY: m.Velocity.Y,
		Size:         m.Size,
		Damage:       m.Damage,
		Charging:     m.Charging,
		LifeLengthMs: m.LifeLength,
		TimeUpdateMs: m.TimeUpdate,
	}

	obj, ok := w.snowballs[m.ID]
	if !ok {
		obj = object.NewSnowball(m.ID, m.Position.X, m.Position.Y, m.Velocity.X, m.Velocity.Y, m.Size, m.Damage, m.Charging, m.LifeLength, m.TimeUpdate)
		w.snowballs[m.ID] = obj
		w.grid.Insert(obj)
		return
	}
	obj.ApplySnowballUpdate(params)
}
