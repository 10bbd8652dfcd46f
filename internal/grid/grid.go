package grid

import (
	"sync"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// Grid reconciles a rows x cols rectangle of cells against desired
// contents. Cells are created once and patched in place; a full rebuild
// happens only when the cell count changes.
type Grid struct {
	rows, cols   int
	items        map[string]*state.CellData
	cells        []*Cell
	node         *render.Node
	observer     render.Observer
	surfaceIndex int
	callbacks    Callbacks
}

// New constructs a grid and renders its initial cells.
func New(rows, cols, surfaceIndex int, observer render.Observer, callbacks Callbacks) *Grid {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	g := &Grid{
		rows:         rows,
		cols:         cols,
		items:        make(map[string]*state.CellData),
		node:         render.NewNode("grid", observer),
		observer:     observer,
		surfaceIndex: surfaceIndex,
		callbacks:    callbacks,
	}
	g.rebuild()
	return g
}

// Rows returns the current row count.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the current column count.
func (g *Grid) Cols() int { return g.cols }

// Node exposes the grid's render node.
func (g *Grid) Node() *render.Node { return g.node }

// CellAt returns the cell at the coordinates, or nil when out of range.
func (g *Grid) CellAt(col, row int) *Cell {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return nil
	}
	return g.cells[row*g.cols+col]
}

// Cells returns the live cells in row-major order.
func (g *Grid) Cells() []*Cell {
	return g.cells
}

// SetDimensions updates the desired shape. Items keyed outside the new
// bounds become orphans and are dropped by the next Render.
func (g *Grid) SetDimensions(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	g.rows = rows
	g.cols = cols
}

// SetItems replaces the desired contents wholesale. The map is cloned so
// later caller mutations cannot bypass the diff.
func (g *Grid) SetItems(items map[string]*state.CellData) {
	replaced := make(map[string]*state.CellData, len(items))
	for key, data := range items {
		if data == nil {
			continue
		}
		replaced[key] = data.Clone()
	}
	g.items = replaced
}

// SetItem updates a single desired slot; nil clears it.
func (g *Grid) SetItem(key string, data *state.CellData) {
	if data == nil {
		delete(g.items, key)
		return
	}
	g.items[key] = data.Clone()
}

// Items returns a detached copy of the desired contents, orphans pruned
// to the current bounds.
func (g *Grid) Items() map[string]*state.CellData {
	items := make(map[string]*state.CellData, len(g.items))
	for key, data := range g.items {
		col, row, err := state.ParseSlotKey(key)
		if err != nil || col >= g.cols || row >= g.rows {
			continue
		}
		items[key] = data.Clone()
	}
	return items
}

// State captures the grid's desired shape and pruned contents.
func (g *Grid) State() *state.GridState {
	return &state.GridState{Rows: g.rows, Cols: g.cols, Items: g.Items()}
}

// Apply pushes a persisted grid state into the desired shape and
// contents, then renders.
func (g *Grid) Apply(st *state.GridState) {
	if st == nil {
		return
	}
	g.SetDimensions(st.Rows, st.Cols)
	g.SetItems(st.Items)
	g.Render()
}

// Render reconciles cells with the desired state. A changed cell count
// triggers a full rebuild in row-major order; otherwise each cell whose
// data differs is patched, with independent patches issued concurrently.
func (g *Grid) Render() {
	g.pruneOrphans()
	if g.rows*g.cols != len(g.cells) {
		g.rebuild()
		return
	}

	var wg sync.WaitGroup
	for i, cell := range g.cells {
		col, row := i%g.cols, i/g.cols
		if cell.col != col || cell.row != row {
			cell.setPosition(col, row)
		}
		next := g.items[cell.Slot()]
		if cell.Data().Equal(next) {
			continue
		}
		wg.Add(1)
		go func(c *Cell, data *state.CellData) {
			defer wg.Done()
			c.SetData(data)
		}(cell, next)
	}
	wg.Wait()
}

// rebuild discards every cell and constructs rows*cols new ones seeded
// from the desired items. The grid's own node survives; only its child
// list is swapped.
func (g *Grid) rebuild() {
	g.cells = make([]*Cell, 0, g.rows*g.cols)
	children := make([]*render.Node, 0, g.rows*g.cols)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			cell := NewCell(col, row, g.surfaceIndex, g.observer, g.callbacks)
			if data := g.items[cell.Slot()]; data != nil {
				cell.SetData(data)
			}
			g.cells = append(g.cells, cell)
			children = append(children, cell.Node())
		}
	}
	g.node.ReplaceChildren(children...)
}

func (g *Grid) pruneOrphans() {
	for key := range g.items {
		col, row, err := state.ParseSlotKey(key)
		if err != nil || col >= g.cols || row >= g.rows {
			delete(g.items, key)
		}
	}
}
