package grid

import (
	"testing"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/render"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

func newTestGrid(rows, cols int) (*Grid, *render.Recorder) {
	recorder := render.NewRecorder()
	return New(rows, cols, 0, recorder, Callbacks{}), recorder
}

func TestRenderIsIdempotent(t *testing.T) {
	g, recorder := newTestGrid(1, 3)
	g.SetItems(map[string]*state.CellData{
		"0-0": {UUID: "a", Name: "Sword", Img: "sword.png"},
	})
	g.Render()

	recorder.Reset()
	g.Render()
	if recorder.Total() != 0 {
		t.Fatalf("expected second render with same items to mutate nothing, got %d mutations", recorder.Total())
	}
}

func TestShapeChangeRebuildsExactCellCount(t *testing.T) {
	g, _ := newTestGrid(2, 3)
	before := g.Cells()

	g.SetDimensions(3, 4)
	g.Render()
	after := g.Cells()
	if len(after) != 12 {
		t.Fatalf("expected 12 cells after resize, got %d", len(after))
	}
	for _, old := range before {
		for _, cell := range after {
			if cell == old {
				t.Fatalf("expected all cells recreated on shape change")
			}
		}
	}
}

func TestEqualAreaShapeChangeKeepsCells(t *testing.T) {
	g, _ := newTestGrid(2, 3)
	before := g.Cells()

	g.SetDimensions(3, 2)
	g.Render()
	after := g.Cells()
	if len(after) != len(before) {
		t.Fatalf("expected cell count unchanged, got %d", len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("expected cell %d to survive an equal-area shape change", i)
		}
	}
}

func TestShrinkDropsOrphanedItems(t *testing.T) {
	g, _ := newTestGrid(1, 4)
	g.SetItems(map[string]*state.CellData{
		"0-0": {UUID: "keep"},
		"3-0": {UUID: "orphan"},
	})
	g.Render()

	g.SetDimensions(1, 2)
	g.Render()

	items := g.Items()
	if _, ok := items["3-0"]; ok {
		t.Fatalf("expected orphaned key 3-0 to be dropped after shrink")
	}
	if items["0-0"] == nil || items["0-0"].UUID != "keep" {
		t.Fatalf("expected in-bounds item to survive shrink")
	}
}

func TestSetItemsPatchesOnlyChangedCells(t *testing.T) {
	g, recorder := newTestGrid(1, 3)
	g.SetItems(map[string]*state.CellData{
		"0-0": {UUID: "a", Name: "A", Img: "a.png"},
	})
	g.Render()

	cell0 := g.CellAt(0, 0)
	cell1 := g.CellAt(1, 0)
	cell2 := g.CellAt(2, 0)
	recorder.Reset()

	g.SetItems(map[string]*state.CellData{
		"1-0": {UUID: "b", Name: "B", Img: "b.png"},
	})
	g.Render()

	if cell0.Data() != nil {
		t.Fatalf("expected cell 0 emptied")
	}
	if cell1.Data() == nil || cell1.Data().UUID != "b" {
		t.Fatalf("expected cell 1 to hold b")
	}
	if cell2.Data() != nil {
		t.Fatalf("expected cell 2 empty")
	}

	if recorder.NodeCount(cell0.Node()) == 0 {
		t.Fatalf("expected cell 0 node to be patched")
	}
	if recorder.NodeCount(cell1.Node()) == 0 {
		t.Fatalf("expected cell 1 node to be patched")
	}
	if recorder.NodeCount(cell2.Node()) != 0 {
		t.Fatalf("expected cell 2 node untouched, got %d mutations", recorder.NodeCount(cell2.Node()))
	}
}

func TestCellRootNodeSurvivesToggling(t *testing.T) {
	g, _ := newTestGrid(1, 1)
	cell := g.CellAt(0, 0)
	node := cell.Node()

	cell.SetData(&state.CellData{UUID: "a", Img: "a.png"})
	if cell.Node() != node {
		t.Fatalf("expected root node to survive fill")
	}
	if !node.HasClass("filled") || node.HasClass("empty") {
		t.Fatalf("expected filled flags after SetData")
	}
	if _, ok := node.Attr("draggable"); !ok {
		t.Fatalf("expected draggable attribute on filled cell")
	}

	cell.SetData(nil)
	if cell.Node() != node {
		t.Fatalf("expected root node to survive clear")
	}
	if node.HasClass("filled") || !node.HasClass("empty") {
		t.Fatalf("expected empty flags after clear")
	}
	if _, ok := node.Attr("draggable"); ok {
		t.Fatalf("expected draggable attribute removed on empty cell")
	}
	if len(node.Children()) != 0 {
		t.Fatalf("expected empty cell subtree cleared")
	}
}

func TestCellAtGuardsOutOfRange(t *testing.T) {
	g, _ := newTestGrid(2, 2)
	if g.CellAt(2, 0) != nil || g.CellAt(0, 2) != nil || g.CellAt(-1, 0) != nil {
		t.Fatalf("expected out-of-range lookups to return nil")
	}
}

func TestDragPayloadRoundTrip(t *testing.T) {
	g, _ := newTestGrid(1, 2)
	g.SetItems(map[string]*state.CellData{
		"1-0": {UUID: "u1", Type: "weapon", Img: "x.png"},
	})
	g.Render()

	if _, ok := g.CellAt(0, 0).StartDrag(); ok {
		t.Fatalf("expected empty cell to refuse drag")
	}

	raw, ok := g.CellAt(1, 0).StartDrag()
	if !ok {
		t.Fatalf("expected filled cell to start a drag")
	}
	payload, ok := ParseDragPayload(raw)
	if !ok {
		t.Fatalf("expected payload to parse")
	}
	if payload.UUID != "u1" || payload.SourceSlot != "1-0" || payload.SourceIndex != 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestHandleDropFallsBackToExternal(t *testing.T) {
	var internal *DragPayload
	var external string
	callbacks := Callbacks{
		OnDrop:         func(_ *Cell, p DragPayload) { internal = &p },
		OnExternalDrop: func(_ *Cell, raw string) { external = raw },
	}
	g := New(1, 1, 0, render.NewRecorder(), callbacks)
	cell := g.CellAt(0, 0)

	cell.HandleDrop(`{"uuid":"u9","type":"spell","sourceSlot":"0-0","sourceIndex":2}`)
	if internal == nil || internal.UUID != "u9" || internal.SourceIndex != 2 {
		t.Fatalf("expected internal drop, got %+v", internal)
	}

	internal = nil
	cell.HandleDrop(`{"Type":"Item","id":"host-item"}`)
	if internal != nil {
		t.Fatalf("expected payload without uuid to be treated as external")
	}
	if external == "" {
		t.Fatalf("expected external drop handler to receive raw data")
	}

	external = ""
	cell.HandleDrop("not json at all")
	if external == "" {
		t.Fatalf("expected unparseable drop to be treated as external")
	}
}
