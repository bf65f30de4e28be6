package spatial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowfight/internal/object"
)

func newTestGrid() *Grid {
	return New(1600, 1600, 100)
}

func TestInsertPlacesObjectInExactCell(t *testing.T) {
	g := newTestGrid()
	p := object.NewPlayer("A", "alice", 250, 150, 20, 100, 0)

	g.Insert(p)

	row, col := p.Cell()
	assert.Equal(t, 1, row) // floor(150/100)
	assert.Equal(t, 2, col) // floor(250/100)

	found := g.Search(0, 1600, 0, 1600)
	require.Len(t, found, 1)
	assert.Equal(t, "A", found[0].ID)
}

func TestInsertOutOfBoundsIsNoOp(t *testing.T) {
	g := newTestGrid()
	p := object.NewPlayer("A", "alice", -5, 0, 20, 100, 0)

	g.Insert(p)

	found := g.Search(0, 1600, 0, 1600)
	assert.Empty(t, found)
}

func TestRemoveIsIdempotent(t *testing.T) {
	g := newTestGrid()
	p := object.NewPlayer("A", "alice", 10, 10, 20, 100, 0)
	g.Insert(p)

	g.Remove(p)
	assert.Empty(t, g.Search(0, 1600, 0, 1600))

	assert.NotPanics(t, func() { g.Remove(p) })
}

func TestUpdateReindexesOnlyOnCellTransition(t *testing.T) {
	g := newTestGrid()
	s := object.NewSnowball("snowball_A_1", 95, 95, 10, 0, 5, 10, false, 5000, 0)
	g.Insert(s)
	rowBefore, colBefore := s.Cell()

	// moves from x=95 to x=95+10*0.1=96: still inside the same cell.
	g.Update(s, 100)
	rowAfter, colAfter := s.Cell()
	assert.Equal(t, rowBefore, rowAfter)
	assert.Equal(t, colBefore, colAfter)

	// now push far enough to cross into the next cell.
	g.Update(s, 2000)
	_, colFinal := s.Cell()
	assert.NotEqual(t, colBefore, colFinal)

	found := g.Search(0, 1600, 0, 1600)
	require.Len(t, found, 1, "object must still appear exactly once after reindexing")
}

func TestSearchIsEmptyOnInvertedRange(t *testing.T) {
	g := newTestGrid()
	assert.Empty(t, g.Search(100, 0, 0, 100))
	assert.Empty(t, g.Search(0, 100, 100, 0))
}

func TestSearchFindsObjectsWithinWindow(t *testing.T) {
	g := newTestGrid()
	a := object.NewPlayer("A", "a", 200, 200, 20, 100, 0)
	b := object.NewPlayer("B", "b", 250, 200, 20, 100, 0)
	far := object.NewPlayer("far", "far", 1500, 1500, 20, 100, 0)
	g.Insert(a)
	g.Insert(b)
	g.Insert(far)

	found := g.Search(200-900, 200+900, 200-1600, 200+1600)
	ids := map[string]bool{}
	for _, o := range found {
		ids[o.ID] = true
	}
	assert.True(t, ids["A"])
	assert.True(t, ids["B"])
	assert.False(t, ids["far"])
}

// TestConcurrentInsertSearchNoRace exercises many goroutines inserting
// into, updating, and searching the same grid concurrently; run with
// -race to validate the per-cell locking.
func TestConcurrentInsertSearchNoRace(t *testing.T) {
	g := newTestGrid()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := object.NextSnowballID("owner")
			s := object.NewSnowball(id, float64(i*10), float64(i*10), 50, 50, 5, 10, false, 5000, 0)
			g.Insert(s)
			g.Update(s, int64(i)*10)
			_ = g.Search(0, 1600, 0, 1600)
			g.Remove(s)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, g.Search(0, 1600, 0, 1600))
}
