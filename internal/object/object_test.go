package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerIDFromSnowballID(t *testing.T) {
	cases := []struct {
		id      string
		owner   string
		ok      bool
	}{
		{"snowball_B_1", "B", true},
		{"snowball_player-42_7", "player-42", true},
		{"snowball_a_b_3", "a_b", true},
		{"snowball_", "", false},
		{"snowball_onlyowner", "", false},
		{"player_A", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		owner, ok := OwnerIDFromSnowballID(c.id)
		assert.Equal(t, c.ok, ok, c.id)
		assert.Equal(t, c.owner, owner, c.id)
	}
}

func TestHurtToZeroStartsGraceWindow(t *testing.T) {
	p := NewPlayer("A", "alice", 100, 100, DefaultPlayerSize, 10, 0)

	newHealth, diedNow := p.Hurt(10, 5000, 1000)

	assert.Equal(t, 0, newHealth)
	assert.True(t, diedNow)
	assert.True(t, p.IsDead())

	_, _, timeUpdate := p.Origin()
	assert.Equal(t, int64(5000), timeUpdate)
	assert.Equal(t, int64(1000), p.LifeLength())
}

func TestHurtDoesNotDieTwice(t *testing.T) {
	p := NewPlayer("A", "alice", 0, 0, DefaultPlayerSize, 10, 0)

	_, diedNow := p.Hurt(10, 100, 1000)
	assert.True(t, diedNow)

	_, diedAgain := p.Hurt(5, 200, 1000)
	assert.False(t, diedAgain, "already dead: second lethal hit must not re-report death")
}

func TestProjectionIdentityAtAnchor(t *testing.T) {
	s := NewSnowball("snowball_A_1", 10, 20, 100, -50, 5, 10, false, 2000, 1000)

	x, y := s.Project(1000)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)

	x2, y2 := s.Project(1500)
	assert.InDelta(t, 10+100*0.5, x2, 1e-9)
	assert.InDelta(t, 20-50*0.5, y2, 1e-9)
}

func TestProjectionLinearInTime(t *testing.T) {
	s := NewSnowball("snowball_A_1", 0, 0, 40, 0, 5, 10, false, 5000, 0)

	x1, _ := s.Project(1000)
	x2, _ := s.Project(3000)

	assert.InDelta(t, x2-x1, 40*2.0, 1e-9)
}

func TestExpired(t *testing.T) {
	s := NewSnowball("snowball_A_1", 0, 0, 0, 0, 5, 10, false, 100, 0)

	assert.False(t, s.Expired(50))
	assert.True(t, s.Expired(201))
}

func TestDirectionVelocityDiagonalNormalized(t *testing.T) {
	d := Direction{Right: true, Down: true}
	vx, vy := d.Velocity()

	speed := vx*vx + vy*vy
	assert.InDelta(t, playerSpeed*playerSpeed, speed, 1e-6)
}

func TestDirectionVelocityOppositeCancels(t *testing.T) {
	d := Direction{Left: true, Right: true, Up: true, Down: true}
	vx, vy := d.Velocity()
	assert.Equal(t, 0.0, vx)
	assert.Equal(t, 0.0, vy)
}

func TestCollideSelfSafeByOwnerCheckIsCallerResponsibility(t *testing.T) {
	owner := NewPlayer("A", "alice", 100, 100, DefaultPlayerSize, 100, 0)
	snow := NewSnowball("snowball_A_1", 100, 100, 0, 0, 5, 10, false, 5000, 0)

	assert.True(t, snow.Collide(owner, 0, 1000), "geometry alone does not exclude the owner")
	assert.Equal(t, owner.ID, "A")
	assert.Equal(t, "A", snow.OwnerID)
}
