// Package worker implements the sharded I/O reactor: one worker owns a
// subset of client connections and every snowball its own clients threw,
// and drives them with two periodic tickers against the single shared
// spatial grid.
//
// A worker is single-threaded and cooperative internally — Run is the
// only goroutine that ever touches a worker's client set or snowball
// map, so neither needs a lock (spec §5). Connection goroutines that
// read frames off the wire are producers into the worker's inbox; they
// never call into worker state directly.
package worker

import (
	"log"
	"time"

	"snowfight/internal/config"
	"snowfight/internal/object"
	"snowfight/internal/protocol"
	"snowfight/internal/spatial"
)

// Conn is the transport collaborator's contract with a worker: a sink
// for outbound frames. Accepting, framing, and the surrounding TLS
// listener are out of scope here (spec §1) and live in the api package.
type Conn interface {
	Send(frame []byte, binary bool) error
	RemoteAddr() string
}

// Metrics receives worker tick and traffic observations. The
// Prometheus-backed implementation lives in internal/api/observability;
// NopMetrics is used where no collector is wired (e.g. tests).
type Metrics interface {
	ObserveViewTick(d time.Duration)
	ObserveObjectTick(d time.Duration)
	SetLivePlayers(workerID, n int)
	SetLiveSnowballs(workerID, n int)
	IncMessage(msgType string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveViewTick(time.Duration)   {}
func (NopMetrics) ObserveObjectTick(time.Duration) {}
func (NopMetrics) SetLivePlayers(int, int)         {}
func (NopMetrics) SetLiveSnowballs(int, int)       {}
func (NopMetrics) IncMessage(string)               {}

// Client pairs a connection with the Player it owns.
type Client struct {
	Conn   Conn
	Player *object.Object
}

type eventKind int

const (
	eventOpen eventKind = iota
	eventMessage
	eventClose
)

type event struct {
	kind eventKind
	conn Conn
	data []byte
}

// Worker is one sharded I/O reactor: thread-local client set, thread-
// local snowball map, two tickers, and an MPSC inbox fed by connection
// goroutines (spec §4.C, §4.E).
type Worker struct {
	id       int
	grid     *spatial.Grid
	world    config.WorldConfig
	gameplay config.GameplayConfig
	metrics  Metrics

	clients   map[Conn]*Client
	snowballs map[string]*object.Object

	inbox *spatial.LockFreeQueue[event]

	stop chan struct{}
}

// New constructs a worker bound to the shared grid.
func New(id int, grid *spatial.Grid, world config.WorldConfig, gameplay config.GameplayConfig, metrics Metrics) *Worker {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Worker{
		id:        id,
		grid:      grid,
		world:     world,
		gameplay:  gameplay,
		metrics:   metrics,
		clients:   make(map[Conn]*Client),
		snowballs: make(map[string]*object.Object),
		inbox:     spatial.NewLockFreeQueue[event](4096),
		stop:      make(chan struct{}),
	}
}

// ID returns the worker's shard index, used in log lines and as the
// worker label on metrics.
func (w *Worker) ID() int { return w.id }

// EnqueueOpen schedules a newly-accepted connection for processing on
// this worker's loop.
func (w *Worker) EnqueueOpen(c Conn) {
	w.inbox.Push(event{kind: eventOpen, conn: c})
}

// EnqueueMessage schedules an inbound frame for processing on this
// worker's loop. Called from the connection's own read goroutine.
func (w *Worker) EnqueueMessage(c Conn, raw []byte) {
	w.inbox.Push(event{kind: eventMessage, conn: c, data: raw})
}

// EnqueueClose schedules connection teardown on this worker's loop.
func (w *Worker) EnqueueClose(c Conn) {
	w.inbox.Push(event{kind: eventClose, conn: c})
}

// Stop signals Run to return after its current iteration.
func (w *Worker) Stop() {
	close(w.stop)
}

const maxDrainPerPass = 512

// Run is the worker's reactor loop: it interleaves draining the inbox
// with firing the two tickers, and never lets tick phases overlap on
// the same worker (spec §5).
func (w *Worker) Run() {
	playerTicker := time.NewTicker(time.Duration(w.gameplay.PlayerTickMs) * time.Millisecond)
	objectTicker := time.NewTicker(time.Duration(w.gameplay.ObjectTickMs) * time.Millisecond)
	drainTicker := time.NewTicker(2 * time.Millisecond)
	defer playerTicker.Stop()
	defer objectTicker.Stop()
	defer drainTicker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-playerTicker.C:
			start := time.Now()
			w.viewTick()
			w.metrics.ObserveViewTick(time.Since(start))
		case <-objectTicker.C:
			start := time.Now()
			w.objectTick()
			w.metrics.ObserveObjectTick(time.Since(start))
		case <-drainTicker.C:
			w.drainInbox()
		}
	}
}

func (w *Worker) drainInbox() {
	for _, e := range w.inbox.Drain(maxDrainPerPass) {
		switch e.kind {
		case eventOpen:
			w.handleOpen(e.conn)
		case eventMessage:
			w.handleMessage(e.conn, e.data)
		case eventClose:
			w.handleClose(e.conn)
		}
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func (w *Worker) handleOpen(conn Conn) {
	now := nowMs()
	p := object.NewPlayer("", object.DefaultUsername, 0, 0, object.DefaultPlayerSize, object.DefaultPlayerHealth, now)
	w.clients[conn] = &Client{Conn: conn, Player: p}
}

func (w *Worker) handleClose(conn Conn) {
	c, ok := w.clients[conn]
	if !ok {
		return
	}
	if c.Player.ID != "" {
		w.grid.Remove(c.Player)
	}
	delete(w.clients, conn)
}

func (w *Worker) viewTick() {
	now := nowMs()
	view := w.gameplay
	dead := make([]Conn, 0)

	for conn, c := range w.clients {
		p := c.Player
		if p.ID == "" {
			continue // not joined yet
		}
		if p.IsDead() {
			dead = append(dead, conn)
			continue
		}
		if p.Expired(now) {
			w.grid.Remove(p)
			dead = append(dead, conn)
			continue
		}

		px, py := p.Project(now)
		yLo, yHi := py-view.ViewHeight, py+view.ViewHeight
		xLo, xHi := px-view.ViewWidth, px+view.ViewWidth

		neighbors := w.grid.Search(yLo, yHi, xLo, xHi)
		batch := make([]object.Snapshot, 0, len(neighbors))

		for _, obj := range neighbors {
			if obj.ID == p.ID {
				continue
			}
			if obj.IsDead() && obj.Expired(now) {
				continue
			}
			if obj.Damage() > 0 && obj.OwnerID != p.ID && obj.Collide(p, now, view.DeathGraceMs) {
				p.Hurt(obj.Damage(), now, view.DeathGraceMs)
				if raw, err := protocol.EncodeHit(p.Snapshot(now)); err == nil {
					if err := c.Conn.Send(raw, false); err != nil {
						log.Printf("🕹️ worker %d: hit send failed for %s: %v", w.id, p.ID, err)
					}
				}
				continue
			}
			batch = append(batch, obj.Snapshot(now))
		}

		raw, err := protocol.EncodeBatchUpdate(now, batch)
		if err != nil {
			log.Printf("⚠️ worker %d: encode batch_update for %s: %v", w.id, p.ID, err)
			continue
		}
		if err := c.Conn.Send(raw, true); err != nil {
			dead = append(dead, conn)
		}
	}

	for _, conn := range dead {
		w.handleClose(conn)
	}

	w.metrics.SetLivePlayers(w.id, len(w.clients))
}

func (w *Worker) objectTick() {
	now := nowMs()
	for id, obj := range w.snowballs {
		if obj == nil || obj.IsDead() {
			delete(w.snowballs, id)
			if obj != nil {
				w.grid.Remove(obj)
			}
			continue
		}
		if obj.Expired(now) {
			delete(w.snowballs, id)
			w.grid.Remove(obj)
			continue
		}
		w.grid.Update(obj, now)
	}
	w.metrics.SetLiveSnowballs(w.id, len(w.snowballs))
}
