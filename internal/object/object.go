// Package object implements the game object model: a single tagged
// variant over {player, snowball} with one position-projection formula,
// collision tests, damage, and wire-ready snapshotting.
//
// A Player's projection is the identity case of a Snowball's (velocity
// zero), so there is no need for the inheritance the original game used
// (GameObject -> Player, GameObject -> Snowball overriding projection).
package object

import (
	"strings"
	"sync"
)

// Kind distinguishes the two object variants carried by the tagged Object.
type Kind int

const (
	KindPlayer Kind = iota
	KindSnowball
)

func (k Kind) String() string {
	if k == KindSnowball {
		return "snowball"
	}
	return "player"
}

const snowballIDPrefix = "snowball_"

// OwnerIDFromSnowballID recovers the owning player id from a snowball id
// of the canonical shape "snowball_<playerId>_<seq>". It reports ok=false
// for any other id shape (P4): the sentinel zero value is the empty owner.
func OwnerIDFromSnowballID(id string) (owner string, ok bool) {
	if !strings.HasPrefix(id, snowballIDPrefix) {
		return "", false
	}
	rest := id[len(snowballIDPrefix):]
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 || idx == len(rest)-1 {
		return "", false
	}
	return rest[:idx], true
}

// Object is a live game entity: a player or a snowball. Identity fields
// (ID, Kind, Username, OwnerID, IsPenetrable) are set once at
// construction and never change, so they need no lock. Everything an
// owner mutates frame-to-frame, and everything a foreign worker's
// view_tick may read or write during collision resolution (§4.C step 5
// mutates a foreign snowball's death state), is guarded by mu.
//
// Grid cell coordinates (row, col) are touched only by the owning
// worker's calls into the Grid (I5/I6), so they ride along under the
// same lock for simplicity rather than needing a second one.
type Object struct {
	ID           string
	Kind         Kind
	Username     string
	OwnerID      string // snowballs only; "" for players and malformed ids
	IsPenetrable bool

	mu sync.RWMutex

	x, y         float64
	vx, vy       float64
	size         float64
	row, col     int
	health       int
	damage       int
	charging     bool
	timeUpdateMs int64
	lifeLengthMs int64
	isDead       bool
}

// playerSpeed mirrors PLAYER_SPEED=200 from spec §6; kept here so the
// object package has no dependency on the config package for this one
// constant used by velocity derivation in Direction.Velocity.
const playerSpeed = 200.0

// NewPlayer constructs a Player-kind object per spec §3: is_penetrable
// false, velocity starts at zero, life_length effectively infinite.
func NewPlayer(id, username string, x, y, size float64, health int, now int64) *Object {
	return &Object{
		ID:           id,
		Kind:         KindPlayer,
		Username:     username,
		IsPenetrable: false,
		x:            x,
		y:            y,
		size:         size,
		health:       health,
		timeUpdateMs: now,
		lifeLengthMs: 1 << 62, // effectively infinite TTL for a live player
	}
}

// NewSnowball constructs a Snowball-kind object per spec §3: is_penetrable
// true, nonzero velocity, finite client-declared life_length. The owning
// playerId is derived from the id's canonical shape.
func NewSnowball(id string, x, y, vx, vy, size float64, damage int, charging bool, lifeLengthMs, now int64) *Object {
	owner, _ := OwnerIDFromSnowballID(id)
	return &Object{
		ID:           id,
		Kind:         KindSnowball,
		OwnerID:      owner,
		IsPenetrable: true,
		x:            x,
		y:            y,
		vx:           vx,
		vy:           vy,
		size:         size,
		damage:       damage,
		charging:     charging,
		timeUpdateMs: now,
		lifeLengthMs: lifeLengthMs,
	}
}

// PlayerSpeed returns the fixed speed constant used to derive a player's
// velocity from a direction vector (spec §3, §6).
func PlayerSpeed() float64 { return playerSpeed }

// Cell returns the grid cell this object was last indexed under.
func (o *Object) Cell() (row, col int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.row, o.col
}

// SetCell records the grid cell this object is now indexed under. Called
// only by Grid.Insert/Update on the owning worker's goroutine.
func (o *Object) SetCell(row, col int) {
	o.mu.Lock()
	o.row, o.col = row, col
	o.mu.Unlock()
}

// Origin returns the last-anchored (non-projected) position and the
// anchor timestamp, as stored after the last grid transition.
func (o *Object) Origin() (x, y float64, timeUpdateMs int64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.x, o.y, o.timeUpdateMs
}

// Velocity returns the object's current velocity.
func (o *Object) Velocity() (vx, vy float64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.vx, o.vy
}

// Size returns the collision radius.
func (o *Object) Size() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.size
}

// Health returns the current health.
func (o *Object) Health() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.health
}

// Damage returns the damage this object inflicts on contact.
func (o *Object) Damage() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.damage
}

// IsDead reports whether the object has been marked dead.
func (o *Object) IsDead() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.isDead
}

// LifeLength returns the remaining TTL, in ms, from the last anchor.
func (o *Object) LifeLength() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lifeLengthMs
}

// Project computes the object's position at time now from its last
// anchor: cur_x(t) = x + vx*(t-time_update)/1000, likewise for y. For a
// pure Player with vx=vy=0 this reduces to the identity.
func (o *Object) Project(nowMs int64) (x, y float64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.projectLocked(nowMs)
}

func (o *Object) projectLocked(nowMs int64) (x, y float64) {
	dt := float64(nowMs-o.timeUpdateMs) / 1000.0
	return o.x + o.vx*dt, o.y + o.vy*dt
}

// Expired reports whether now - time_update > life_length.
func (o *Object) Expired(nowMs int64) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return nowMs-o.timeUpdateMs > o.lifeLengthMs
}

// SetVelocityAndAnchor sets velocity and re-anchors time_update, without
// touching position — spec §4.D: "Do not touch position directly; the
// next cell transition ... will project and re-anchor." Used by the
// direction-vector movement path.
func (o *Object) SetVelocityAndAnchor(vx, vy float64, nowMs int64) {
	o.mu.Lock()
	o.vx, o.vy = vx, vy
	o.timeUpdateMs = nowMs
	o.mu.Unlock()
}

// ApplyExplicitPosition overwrites position and re-anchors time_update —
// the explicit-position movement variant of spec §4.D.
func (o *Object) ApplyExplicitPosition(x, y float64, nowMs int64) {
	o.mu.Lock()
	o.x, o.y = x, y
	o.timeUpdateMs = nowMs
	o.mu.Unlock()
}

// ReanchorAtCellTransition writes the projected position back into x,y,
// decrements life_length by the elapsed time since the last anchor
// (clamped at zero), and re-anchors time_update to now — spec §4.B's
// cell-transition re-indexing step. Unlike ApplyExplicitPosition, this
// spends the object's TTL budget instead of resetting it, so a moving
// object still expires on schedule even though it crosses cells.
func (o *Object) ReanchorAtCellTransition(x, y float64, nowMs int64) {
	o.mu.Lock()
	elapsed := nowMs - o.timeUpdateMs
	o.lifeLengthMs -= elapsed
	if o.lifeLengthMs < 0 {
		o.lifeLengthMs = 0
	}
	o.x, o.y = x, y
	o.timeUpdateMs = nowMs
	o.mu.Unlock()
}

// SnowballParams bundles the fields a snowball movement frame overwrites
// in full, per spec §4.D ("overwrite x,y,vx,vy,size,time_update,
// life_length,damage,charging from the payload").
type SnowballParams struct {
	X, Y, VX, VY float64
	Size         float64
	Damage       int
	Charging     bool
	LifeLengthMs int64
	TimeUpdateMs int64
}

// ApplySnowballUpdate overwrites every snowball-mutable field from an
// inbound movement frame.
func (o *Object) ApplySnowballUpdate(p SnowballParams) {
	o.mu.Lock()
	o.x, o.y = p.X, p.Y
	o.vx, o.vy = p.VX, p.VY
	o.size = p.Size
	o.damage = p.Damage
	o.charging = p.Charging
	o.lifeLengthMs = p.LifeLengthMs
	o.timeUpdateMs = p.TimeUpdateMs
	o.mu.Unlock()
}

// anchorOnDeath re-anchors for the death grace window: time_update=now,
// life_length=deathGraceMs. Caller must hold mu.
func (o *Object) anchorOnDeath(nowMs, deathGraceMs int64) {
	o.isDead = true
	o.timeUpdateMs = nowMs
	o.lifeLengthMs = deathGraceMs
}

// Touch is a static overlap test against another object's stored (x,y),
// ignoring velocity: true iff the squared distance is within the summed
// radii. On a match it marks self dead (used for impenetrable barriers).
func (o *Object) Touch(other *Object, deathGraceMs, nowMs int64) bool {
	ox, oy := other.Origin2D()
	oSize := other.Size()

	o.mu.Lock()
	defer o.mu.Unlock()

	dx := o.x - ox
	dy := o.y - oy
	r := o.size + oSize
	hit := dx*dx+dy*dy <= r*r
	if hit {
		o.anchorOnDeath(nowMs, deathGraceMs)
	}
	return hit
}

// Origin2D is a convenience accessor returning just (x, y).
func (o *Object) Origin2D() (x, y float64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.x, o.y
}

// Collide tests overlap between other's stored (x,y) and self's
// projected position at now. On a match it marks self dead and starts
// the death grace window (spec §4.A). `self` is typically the
// damage-dealing snowball, `other` the candidate victim.
func (o *Object) Collide(other *Object, nowMs, deathGraceMs int64) bool {
	ox, oy := other.Origin2D()
	oSize := other.Size()

	o.mu.Lock()
	defer o.mu.Unlock()

	cx, cy := o.projectLocked(nowMs)
	dx := cx - ox
	dy := cy - oy
	r := o.size + oSize
	hit := dx*dx+dy*dy <= r*r
	if hit {
		o.anchorOnDeath(nowMs, deathGraceMs)
	}
	return hit
}

// Hurt reduces health by damage (floored at zero). If health reaches
// zero it marks the object dead and starts the 1s death grace window.
// Returns the resulting health for the caller to build a "hit" frame
// from (spec §4.A).
func (o *Object) Hurt(damage int, nowMs, deathGraceMs int64) (newHealth int, diedNow bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.health -= damage
	if o.health < 0 {
		o.health = 0
	}
	diedNow = o.health == 0 && !o.isDead
	if o.health == 0 {
		o.anchorOnDeath(nowMs, deathGraceMs)
	}
	return o.health, diedNow
}

// Snapshot is an immutable, already-projected view of an object taken
// under its read lock, ready for wire encoding by the protocol package.
type Snapshot struct {
	ID           string
	Kind         Kind
	Username     string
	OwnerID      string
	X, Y         float64
	VX, VY       float64
	Size         float64
	Damage       int
	Charging     bool
	IsDead       bool
	TimeUpdateMs int64
	ExpireAtMs   int64
	Health       int
}

// Snapshot projects the object to now and copies every field the wire
// schema needs (spec §4.A encode(now), §6 object-record schema).
func (o *Object) Snapshot(nowMs int64) Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	px, py := o.projectLocked(nowMs)
	return Snapshot{
		ID:           o.ID,
		Kind:         o.Kind,
		Username:     o.Username,
		OwnerID:      o.OwnerID,
		X:            px,
		Y:            py,
		VX:           o.vx,
		VY:           o.vy,
		Size:         o.size,
		Damage:       o.damage,
		Charging:     o.charging,
		IsDead:       o.isDead,
		TimeUpdateMs: o.timeUpdateMs,
		ExpireAtMs:   nowMs + o.lifeLengthMs,
		Health:       o.health,
	}
}
