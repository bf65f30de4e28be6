package worker

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"snowfight/internal/config"
	"snowfight/internal/protocol"
	"snowfight/internal/spatial"
)

// fakeConn is a test double for the transport collaborator: it records
// every frame sent to it instead of writing to a socket.
type fakeConn struct {
	name   string
	text   [][]byte
	binary [][]byte
}

func (f *fakeConn) Send(frame []byte, binary bool) error {
	if binary {
		f.binary = append(f.binary, frame)
	} else {
		f.text = append(f.text, frame)
	}
	return nil
}

func (f *fakeConn) RemoteAddr() string { return f.name }

func (f *fakeConn) lastBatch() protocol.BatchUpdate {
	var b protocol.BatchUpdate
	if len(f.binary) == 0 {
		return b
	}
	_ = msgpack.Unmarshal(f.binary[len(f.binary)-1], &b)
	return b
}

func (f *fakeConn) lastHit() protocol.Hit {
	var h protocol.Hit
	if len(f.text) == 0 {
		return h
	}
	_ = json.Unmarshal(f.text[len(f.text)-1], &h)
	return h
}

func newTestWorker() *Worker {
	grid := spatial.New(1600, 1600, 100)
	return New(0, grid, config.DefaultWorld(), config.DefaultGameplay(), nil)
}

func joinFrame(id string, x, y float64) []byte {
	return []byte(fmt.Sprintf(`{"type":"join","id":%q,"username":"u","position":{"x":%f,"y":%f},"health":100,"size":20}`, id, x, y))
}

func TestScenarioPingPong(t *testing.T) {
	w := newTestWorker()
	c := &fakeConn{name: "c1"}
	w.handleOpen(c)
	client := w.clients[c]

	w.handleMessage(c, []byte(`{"type":"ping","clientTime":1000}`))

	require.Len(t, c.text, 1)
	var pong protocol.Pong
	require.NoError(t, json.Unmarshal(c.text[0], &pong))
	assert.Equal(t, int64(1000), pong.ClientTime)
	assert.GreaterOrEqual(t, pong.ServerTime, int64(0))
	_ = client
}

func TestScenarioJoinSelfExcluded(t *testing.T) {
	w := newTestWorker()
	c := &fakeConn{name: "A"}
	w.handleOpen(c)
	w.handleMessage(c, joinFrame("A", 200, 200))

	w.viewTick()

	batch := c.lastBatch()
	for _, u := range batch.Updates {
		assert.NotEqual(t, "A", u.ID)
	}
}

func TestScenarioTwoPlayersVisible(t *testing.T) {
	w := newTestWorker()
	ca := &fakeConn{name: "A"}
	cb := &fakeConn{name: "B"}
	w.handleOpen(ca)
	w.handleOpen(cb)
	w.handleMessage(ca, joinFrame("A", 200, 200))
	w.handleMessage(cb, joinFrame("B", 250, 200))

	w.viewTick()

	batchA := ca.lastBatch()
	foundB := false
	for _, u := range batchA.Updates {
		if u.ID == "B" {
			foundB = true
		}
	}
	assert.True(t, foundB, "A's batch must include B")
}

func TestScenarioSnowballHit(t *testing.T) {
	w := newTestWorker()
	ca := &fakeConn{name: "A"}
	w.handleOpen(ca)
	w.handleMessage(ca, joinFrame("A", 100, 100))

	snow := fmt.Sprintf(`{"type":"movement","objectType":"snowball","id":"snowball_B_1","position":{"x":100,"y":100},"velocity":{"x":0,"y":0},"size":5,"damage":10,"charging":false,"lifeLength":5000,"timeUpdate":0}`)
	w.handleMessage(ca, []byte(snow))

	w.viewTick()

	require.Len(t, ca.text, 1, "expect exactly one hit frame")
	hit := ca.lastHit()
	assert.Equal(t, "hit", hit.MessageType)
	assert.Equal(t, 90, hit.NewHealth)
	assert.False(t, hit.IsDead)

	// The snowball must be gone from the next batch_update.
	w.objectTick()
	w.viewTick()
	batch := ca.lastBatch()
	for _, u := range batch.Updates {
		assert.NotEqual(t, "snowball_B_1", u.ID)
	}
}

func TestScenarioSelfSafe(t *testing.T) {
	w := newTestWorker()
	ca := &fakeConn{name: "A"}
	w.handleOpen(ca)
	w.handleMessage(ca, joinFrame("A", 100, 100))

	snow := fmt.Sprintf(`{"type":"movement","objectType":"snowball","id":"snowball_A_1","position":{"x":100,"y":100},"velocity":{"x":0,"y":0},"size":5,"damage":10,"charging":false,"lifeLength":5000,"timeUpdate":0}`)
	w.handleMessage(ca, []byte(snow))

	w.viewTick()
	w.viewTick()

	assert.Empty(t, ca.text, "a player's own snowball must never hit them")
}

func TestScenarioOutOfBoundsJoinIgnored(t *testing.T) {
	w := newTestWorker()
	c := &fakeConn{name: "A"}
	w.handleOpen(c)
	w.handleMessage(c, joinFrame("A", -5, 0))

	assert.Empty(t, w.grid.Search(0, 1600, 0, 1600))
	assert.Equal(t, "", w.clients[c].Player.ID)
}

func TestScenarioTTLExpiry(t *testing.T) {
	w := newTestWorker()
	snow := fmt.Sprintf(`{"type":"movement","objectType":"snowball","id":"snowball_A_1","position":{"x":10,"y":10},"velocity":{"x":0,"y":0},"size":5,"damage":10,"charging":false,"lifeLength":100,"timeUpdate":0}`)
	c := &fakeConn{name: "A"}
	w.handleOpen(c)
	w.handleMessage(c, []byte(snow))

	require.Contains(t, w.snowballs, "snowball_A_1")
	assert.False(t, w.snowballs["snowball_A_1"].Expired(50))
	assert.True(t, w.snowballs["snowball_A_1"].Expired(201))
}

// TestScenarioTTLExpiryAcrossCellBoundary exercises the cell-transition
// path in Grid.Update: a moving snowball must spend down its life_length
// by the elapsed time when it crosses a cell, not have time_update reset
// for free, or it would never expire.
func TestScenarioTTLExpiryAcrossCellBoundary(t *testing.T) {
	w := newTestWorker()
	c := &fakeConn{name: "A"}
	w.handleOpen(c)
	w.handleMessage(c, joinFrame("A", 500, 500))

	start := nowMs()
	snow := fmt.Sprintf(`{"type":"movement","objectType":"snowball","id":"snowball_A_1","position":{"x":95,"y":10},"velocity":{"x":300,"y":0},"size":5,"damage":10,"charging":false,"lifeLength":150,"timeUpdate":%d}`, start)
	w.handleMessage(c, []byte(snow))

	// Shortly after creation the snowball has already moved past x=100
	// and crossed into the next cell; it must still be alive.
	time.Sleep(40 * time.Millisecond)
	w.objectTick()
	require.Contains(t, w.snowballs, "snowball_A_1", "must still be alive after only 40ms of a 150ms TTL")

	// Once the remaining budget elapses it must be gone, even though it
	// spent part of its life crossing a cell boundary along the way.
	time.Sleep(150 * time.Millisecond)
	w.objectTick()
	w.viewTick()

	assert.NotContains(t, w.snowballs, "snowball_A_1")
	batch := c.lastBatch()
	for _, u := range batch.Updates {
		assert.NotEqual(t, "snowball_A_1", u.ID)
	}
}
