// Package arena wires up the process-wide shared state: the single
// spatial grid and the pool of sharded workers that share it (spec
// §4.E). There is no cross-worker queue — work fans in only through
// each worker's own inbox, and fans out only to that worker's own
// clients.
package arena

import (
	"log"
	"sync/atomic"

	"snowfight/internal/config"
	"snowfight/internal/spatial"
	"snowfight/internal/worker"
)

// Arena owns the shared Grid and the fixed pool of Workers.
type Arena struct {
	cfg     config.AppConfig
	grid    *spatial.Grid
	workers []*worker.Worker

	nextWorker uint64 // round-robin cursor for connection assignment
}

// New allocates the shared grid and builds N workers against it
// (default N=4); the workers start running only when Run is called.
func New(cfg config.AppConfig, metrics worker.Metrics) *Arena {
	grid := spatial.New(cfg.World.Width, cfg.World.Height, cfg.World.CellSize)

	a := &Arena{cfg: cfg, grid: grid}
	for i := 0; i < cfg.Server.WorkerCount; i++ {
		a.workers = append(a.workers, worker.New(i, grid, cfg.World, cfg.Gameplay, metrics))
	}
	return a
}

// Run starts every worker's reactor loop. Each runs in its own
// goroutine, standing in for the "parallel OS-level worker loop" model
// of spec §5.
func (a *Arena) Run() {
	for _, w := range a.workers {
		go func(w *worker.Worker) {
			log.Printf("🎮 worker %d: starting", w.ID())
			w.Run()
		}(w)
	}
}

// Stop signals every worker to exit its reactor loop.
func (a *Arena) Stop() {
	for _, w := range a.workers {
		w.Stop()
	}
}

// Assign hands a freshly-accepted connection to a worker, round-robin,
// and enqueues its open event — the only load-balancing the runtime
// performs (spec §4.E: "work fans in via the listener's balancing").
func (a *Arena) Assign(conn worker.Conn) *worker.Worker {
	idx := int(atomic.AddUint64(&a.nextWorker, 1)-1) % len(a.workers)
	w := a.workers[idx]
	w.EnqueueOpen(conn)
	return w
}

// Grid returns the shared spatial index, for read-only operational
// endpoints (/api/state, /debug/arena.png).
func (a *Arena) Grid() *spatial.Grid { return a.grid }

// WorkerCount returns the number of workers in the pool.
func (a *Arena) WorkerCount() int { return len(a.workers) }
