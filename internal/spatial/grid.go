// Package spatial provides the concurrent uniform spatial grid that
// indexes every live game object and serves the range queries each
// worker's view_tick depends on.
//
// Cells are stored in row-major order (cells[row*cols+col]), the same
// memory layout as a single-threaded broad-phase grid; the only added
// cost is one reader/writer lock per cell, so readers across workers
// never contend on cells they don't touch.
package spatial

import (
	"math"
	"sync"

	"snowfight/internal/object"
)

// cell is one square tile of the grid: a membership set plus its own
// lock. No operation ever holds two cell locks at once.
type cell struct {
	mu      sync.RWMutex
	members map[string]*object.Object
}

// Grid is the process-wide shared spatial index. It is safe for
// concurrent use by any number of worker goroutines.
type Grid struct {
	width, height float64
	cellSize      float64
	cols, rows    int
	cells         []*cell
}

// New builds a grid over [0,width) x [0,height) with square cells of the
// given side length (spec §3: default 1600x1600, cell 100 -> 16x16).
func New(width, height, cellSize float64) *Grid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([]*cell, cols*rows)
	for i := range cells {
		cells[i] = &cell{members: make(map[string]*object.Object)}
	}

	return &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Dimensions returns the grid's column and row counts.
func (g *Grid) Dimensions() (cols, rows int) {
	return g.cols, g.rows
}

// cellIndex computes the row/col for a world coordinate and reports
// whether it lies inside the grid. Boundary coordinates map by floor
// division, so a point exactly on a cell edge belongs to the
// higher-indexed cell only when the division places it there.
func (g *Grid) cellIndex(x, y float64) (row, col int, inBounds bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, 0, false
	}
	col = int(x / g.cellSize)
	row = int(y / g.cellSize)
	if col >= g.cols {
		col = g.cols - 1
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return row, col, true
}

func (g *Grid) at(row, col int) *cell {
	return g.cells[row*g.cols+col]
}

// Insert computes the object's cell from its current (x,y) and adds it
// under that cell's write lock. Out-of-bounds objects are dropped
// silently (I3). Re-inserting a live id is a no-op at the old location
// the caller is responsible for removing first — Insert itself does not
// search other cells (I2 is maintained by callers never inserting twice).
func (g *Grid) Insert(obj *object.Object) {
	x, y, _ := obj.Origin()
	row, col, ok := g.cellIndex(x, y)
	if !ok {
		return
	}

	c := g.at(row, col)
	c.mu.Lock()
	c.members[obj.ID] = obj
	c.mu.Unlock()

	obj.SetCell(row, col)
}

// Remove deletes the object from the cell recorded in its own row/col
// (not recomputed from its current position). Idempotent: removing an
// absent object, or one whose recorded cell is out of range, is a silent
// no-op (I2).
func (g *Grid) Remove(obj *object.Object) {
	row, col := obj.Cell()
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return
	}

	c := g.at(row, col)
	c.mu.Lock()
	delete(c.members, obj.ID)
	c.mu.Unlock()
}

// Update projects the object to now, recomputes its cell, and re-indexes
// it only on an actual cell transition. Within a cell, advancement stays
// implicit in (vx, vy, time_update); the anchor is re-set, and
// life_length spent down by the elapsed time, only when the object
// crosses a cell boundary (spec §4.B).
func (g *Grid) Update(obj *object.Object, nowMs int64) {
	oldRow, oldCol := obj.Cell()
	px, py := obj.Project(nowMs)

	newRow, newCol, ok := g.cellIndex(px, py)
	if !ok {
		return
	}
	if newRow == oldRow && newCol == oldCol {
		return
	}

	oldCell := g.at(oldRow, oldCol)
	oldCell.mu.Lock()
	delete(oldCell.members, obj.ID)
	oldCell.mu.Unlock()

	obj.ReanchorAtCellTransition(px, py, nowMs)

	newCell := g.at(newRow, newCol)
	newCell.mu.Lock()
	newCell.members[obj.ID] = obj
	newCell.mu.Unlock()

	obj.SetCell(newRow, newCol)
}

// Search returns every object in the inclusive cell rectangle covering
// [xLo,xHi] x [yLo,yHi], clipped to the grid. Each cell contributes its
// membership under its own read lock; I1 guarantees single-cell
// residency, so no deduplication is needed. The result is a point-in-time
// snapshot per cell, not a globally consistent one (spec §4.B).
func (g *Grid) Search(yLo, yHi, xLo, xHi float64) []*object.Object {
	if yLo > yHi || xLo > xHi {
		return nil
	}

	rowLo, colLo, _ := g.clampIndex(xLo, yLo)
	rowHi, colHi, _ := g.clampIndex(xHi, yHi)

	var out []*object.Object
	for row := rowLo; row <= rowHi; row++ {
		for col := colLo; col <= colHi; col++ {
			c := g.at(row, col)
			c.mu.RLock()
			for _, obj := range c.members {
				out = append(out, obj)
			}
			c.mu.RUnlock()
		}
	}
	return out
}

// clampIndex computes a cell index for a coordinate that may itself be
// out of world bounds (a search window commonly extends past the arena
// edge), clamping into range rather than dropping the query.
func (g *Grid) clampIndex(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor(x / g.cellSize))
	row = int(math.Floor(y / g.cellSize))
	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return row, col, true
}

// Stats reports live occupancy for the /api/state operational endpoint.
type Stats struct {
	Cols, Rows int
	Occupied   []CellOccupancy
}

// CellOccupancy names one non-empty cell and its member count, used by
// /api/state to report occupancy without exposing object internals.
type CellOccupancy struct {
	Row, Col int
	Count    int
}

// Snapshot walks every cell under its read lock and returns a point-in-
// time occupancy report plus the full object list, for /api/state and
// /debug/arena.png.
func (g *Grid) Snapshot() (Stats, []*object.Object) {
	stats := Stats{Cols: g.cols, Rows: g.rows}
	var all []*object.Object

	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			c := g.at(row, col)
			c.mu.RLock()
			n := len(c.members)
			if n > 0 {
				stats.Occupied = append(stats.Occupied, CellOccupancy{Row: row, Col: col, Count: n})
				for _, obj := range c.members {
					all = append(all, obj)
				}
			}
			c.mu.RUnlock()
		}
	}
	return stats, all
}
