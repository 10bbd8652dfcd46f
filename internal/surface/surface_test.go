package surface

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/adapter"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/grid"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

type recordingNotifier struct {
	mu          sync.Mutex
	gridConfigs []struct{ Index, Rows, Cols int }
	cells       []struct {
		Surface state.Surface
		Index   int
		Slot    string
	}
	containers []struct {
		Surface state.Surface
		Index   int
	}
	weaponSets []int
	clearAlls  int
}

func (r *recordingNotifier) NotifyGridConfig(index, rows, cols int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gridConfigs = append(r.gridConfigs, struct{ Index, Rows, Cols int }{index, rows, cols})
}

func (r *recordingNotifier) NotifyCell(surface state.Surface, index int, slot string, _ *state.CellData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cells = append(r.cells, struct {
		Surface state.Surface
		Index   int
		Slot    string
	}{surface, index, slot})
}

func (r *recordingNotifier) NotifyContainer(surface state.Surface, index int, _ map[string]*state.CellData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers = append(r.containers, struct {
		Surface state.Surface
		Index   int
	}{surface, index})
}

func (r *recordingNotifier) NotifyWeaponSet(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weaponSets = append(r.weaponSets, index)
}

func (r *recordingNotifier) NotifyClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearAlls++
}

type switchRecorder struct {
	adapter.Base
	calls []int
	err   error
}

func (s *switchRecorder) OnSetSwitch(_ context.Context, _ string, index int) error {
	s.calls = append(s.calls, index)
	return s.err
}

func newManager(t *testing.T) *persist.Manager {
	t.Helper()
	m := persist.NewManager(persist.NewMemoryStore(), "actor-1", nil)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return m
}

func TestHotbarAddRowResizesEveryGridAndNotifies(t *testing.T) {
	m := newManager(t)
	notifier := &recordingNotifier{}
	h := NewHotbar(HotbarConfig{Manager: m, Notifier: notifier})

	if err := h.AddRow(context.Background()); err != nil {
		t.Fatalf("add row failed: %v", err)
	}
	for i, g := range h.Grids() {
		if g.Rows() != state.DefaultHotbarRows+1 {
			t.Fatalf("grid %d has %d rows, want %d", i, g.Rows(), state.DefaultHotbarRows+1)
		}
	}
	if len(notifier.gridConfigs) != state.HotbarGridCount {
		t.Fatalf("expected %d grid config notifications, got %d", state.HotbarGridCount, len(notifier.gridConfigs))
	}
	st := m.State()
	for i, gs := range st.Hotbar.Grids {
		if gs.Rows != state.DefaultHotbarRows+1 {
			t.Fatalf("persisted grid %d not resized", i)
		}
	}
}

func TestHotbarRemoveRowRejectsBelowOne(t *testing.T) {
	m := newManager(t)
	h := NewHotbar(HotbarConfig{Manager: m})
	if err := h.RemoveRow(context.Background()); err != nil {
		t.Fatalf("first shrink should succeed: %v", err)
	}
	if err := h.RemoveRow(context.Background()); !errors.Is(err, ErrMinRows) {
		t.Fatalf("expected ErrMinRows, got %v", err)
	}
	for _, g := range h.Grids() {
		if g.Rows() != 1 {
			t.Fatalf("expected grids left at one row, got %d", g.Rows())
		}
	}
}

func TestHotbarRemoveRowDropsOrphanedItems(t *testing.T) {
	m := newManager(t)
	h := NewHotbar(HotbarConfig{Manager: m})
	ctx := context.Background()

	if err := h.SetCell(ctx, 0, "0-1", &state.CellData{UUID: "doomed", Name: "Doomed"}); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	if err := h.SetCell(ctx, 0, "0-0", &state.CellData{UUID: "safe", Name: "Safe"}); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	if err := h.RemoveRow(ctx); err != nil {
		t.Fatalf("remove row failed: %v", err)
	}

	items := h.Grid(0).Items()
	if _, ok := items["0-1"]; ok {
		t.Fatalf("expected item beyond the new bounds to be dropped")
	}
	if _, ok := items["0-0"]; !ok {
		t.Fatalf("expected in-bounds item to survive")
	}
	persisted := m.State().Hotbar.Grids[0].Items
	if _, ok := persisted["0-1"]; ok {
		t.Fatalf("expected the orphan pruned from persisted state too")
	}
}

func TestHotbarSetCellPersistsPatchesAndNotifies(t *testing.T) {
	m := newManager(t)
	notifier := &recordingNotifier{}
	h := NewHotbar(HotbarConfig{Manager: m, Notifier: notifier})

	data := &state.CellData{UUID: "item-1", Name: "Potion"}
	if err := h.SetCell(context.Background(), 1, "2-0", data); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	cell := h.Grid(1).CellAt(2, 0)
	if cell == nil || cell.Data() == nil || cell.Data().UUID != "item-1" {
		t.Fatalf("expected the grid patched in place")
	}
	if got := m.State().Hotbar.Grids[1].Items["2-0"]; got == nil || got.UUID != "item-1" {
		t.Fatalf("expected the slot persisted")
	}
	if len(notifier.cells) != 1 || notifier.cells[0].Slot != "2-0" || notifier.cells[0].Index != 1 {
		t.Fatalf("unexpected cell notifications %+v", notifier.cells)
	}
}

func TestHotbarSetCellRejectsBadIndex(t *testing.T) {
	m := newManager(t)
	h := NewHotbar(HotbarConfig{Manager: m})
	err := h.SetCell(context.Background(), 99, "0-0", &state.CellData{UUID: "x"})
	if !errors.Is(err, persist.ErrBadIndex) {
		t.Fatalf("expected ErrBadIndex, got %v", err)
	}
}

func TestWeaponSetsSwitchRunsAdapterPersistsAndNotifies(t *testing.T) {
	m := newManager(t)
	notifier := &recordingNotifier{}
	sys := &switchRecorder{}
	w := NewWeaponSets(WeaponSetsConfig{Manager: m, Adapter: sys, Notifier: notifier})

	if err := w.SwitchTo(context.Background(), 2); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if w.ActiveSet() != 2 || m.ActiveWeaponSet() != 2 {
		t.Fatalf("expected set 2 active, got local %d persisted %d", w.ActiveSet(), m.ActiveWeaponSet())
	}
	if len(sys.calls) != 1 || sys.calls[0] != 2 {
		t.Fatalf("expected adapter hook called once with 2, got %v", sys.calls)
	}
	if len(notifier.weaponSets) != 1 || notifier.weaponSets[0] != 2 {
		t.Fatalf("expected one weapon set notification, got %v", notifier.weaponSets)
	}
}

func TestWeaponSetsSwitchToActiveIsNoOp(t *testing.T) {
	m := newManager(t)
	sys := &switchRecorder{}
	w := NewWeaponSets(WeaponSetsConfig{Manager: m, Adapter: sys})

	if err := w.SwitchTo(context.Background(), 0); err != nil {
		t.Fatalf("no-op switch returned error: %v", err)
	}
	if len(sys.calls) != 0 {
		t.Fatalf("expected adapter hook skipped for the active set")
	}
}

func TestWeaponSetsSwitchProceedsWhenAdapterFails(t *testing.T) {
	m := newManager(t)
	sys := &switchRecorder{err: errors.New("equip failed")}
	w := NewWeaponSets(WeaponSetsConfig{Manager: m, Adapter: sys})

	if err := w.SwitchTo(context.Background(), 1); err != nil {
		t.Fatalf("switch should survive an adapter failure, got %v", err)
	}
	if w.ActiveSet() != 1 || m.ActiveWeaponSet() != 1 {
		t.Fatalf("expected the switch applied despite the adapter error")
	}
}

func TestWeaponSetsExactlyOneActiveWithTooltipSuppressed(t *testing.T) {
	m := newManager(t)
	w := NewWeaponSets(WeaponSetsConfig{Manager: m})
	if err := w.SwitchTo(context.Background(), 1); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	for i, node := range w.SetNodes() {
		wantActive := i == 1
		if node.HasClass("active") != wantActive {
			t.Fatalf("set %d active class = %v, want %v", i, node.HasClass("active"), wantActive)
		}
		_, suppressed := node.Attr("data-tooltip-disabled")
		if suppressed != wantActive {
			t.Fatalf("set %d tooltip suppression = %v, want %v", i, suppressed, wantActive)
		}
	}
}

func TestWeaponSetsClickOnInactiveSetSwitchesInsteadOfActing(t *testing.T) {
	m := newManager(t)
	clicked := false
	w := NewWeaponSets(WeaponSetsConfig{
		Manager: m,
		Cells:   grid.Callbacks{OnClick: func(*grid.Cell) { clicked = true }},
	})

	target := w.Sets()[1].CellAt(0, 0)
	if err := w.HandleClick(context.Background(), 1, target); err != nil {
		t.Fatalf("handle click failed: %v", err)
	}
	if clicked {
		t.Fatalf("expected the click swallowed by the switch")
	}
	if w.ActiveSet() != 1 {
		t.Fatalf("expected the click to switch sets")
	}

	active := w.Sets()[1].CellAt(0, 0)
	if err := w.HandleClick(context.Background(), 1, active); err != nil {
		t.Fatalf("handle click failed: %v", err)
	}
	if !clicked {
		t.Fatalf("expected the active set's cell click forwarded")
	}
}

func TestQuickAccessSetCellPersistsAndNotifies(t *testing.T) {
	m := newManager(t)
	notifier := &recordingNotifier{}
	q := NewQuickAccess(QuickAccessConfig{Manager: m, Notifier: notifier})

	if err := q.SetCell(context.Background(), "1-2", &state.CellData{UUID: "potion"}); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	if got := m.State().QuickAccess.Items["1-2"]; got == nil || got.UUID != "potion" {
		t.Fatalf("expected the slot persisted")
	}
	if len(notifier.cells) != 1 || notifier.cells[0].Surface != state.SurfaceQuickAccess {
		t.Fatalf("unexpected notifications %+v", notifier.cells)
	}
}

func TestViewsSwitchLoadsSnapshotAndBroadcasts(t *testing.T) {
	m := newManager(t)
	notifier := &recordingNotifier{}
	h := NewHotbar(HotbarConfig{Manager: m, Notifier: notifier})
	v := NewViews(ViewsConfig{Manager: m, Hotbar: h, Notifier: notifier})
	ctx := context.Background()

	if err := h.SetCell(ctx, 0, "0-0", &state.CellData{UUID: "sword"}); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	other, err := v.Create(ctx, "Exploration", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := v.Switch(ctx, other.ID); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if m.ActiveViewID() != other.ID {
		t.Fatalf("expected the new view active")
	}
	if cell := h.Grid(0).CellAt(0, 0); cell.Data() != nil {
		t.Fatalf("expected the empty view's snapshot on screen")
	}
	if len(notifier.gridConfigs) < state.HotbarGridCount {
		t.Fatalf("expected a shape broadcast per hotbar grid, got %d", len(notifier.gridConfigs))
	}
	if len(notifier.containers) != state.HotbarGridCount {
		t.Fatalf("expected a contents broadcast per hotbar grid, got %d", len(notifier.containers))
	}

	if err := v.Switch(ctx, m.Views()[0].ID); err != nil {
		t.Fatalf("switch back failed: %v", err)
	}
	if cell := h.Grid(0).CellAt(0, 0); cell.Data() == nil || cell.Data().UUID != "sword" {
		t.Fatalf("expected the original layout restored")
	}
}

func TestViewsSwitchToActiveIsNoOp(t *testing.T) {
	m := newManager(t)
	notifier := &recordingNotifier{}
	h := NewHotbar(HotbarConfig{Manager: m})
	v := NewViews(ViewsConfig{Manager: m, Hotbar: h, Notifier: notifier})

	if err := v.Switch(context.Background(), m.ActiveViewID()); err != nil {
		t.Fatalf("no-op switch returned error: %v", err)
	}
	if len(notifier.containers) != 0 {
		t.Fatalf("expected no broadcast for a no-op switch")
	}
}

func TestViewsDeleteActiveLoadsReplacementSnapshot(t *testing.T) {
	m := newManager(t)
	h := NewHotbar(HotbarConfig{Manager: m})
	v := NewViews(ViewsConfig{Manager: m, Hotbar: h})
	ctx := context.Background()

	if err := h.SetCell(ctx, 0, "0-0", &state.CellData{UUID: "kept"}); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	first := m.ActiveViewID()
	other, err := v.Create(ctx, "Scratch", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := v.Switch(ctx, other.ID); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if err := v.Delete(ctx, other.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if m.ActiveViewID() != first {
		t.Fatalf("expected the first view reactivated")
	}
	if cell := h.Grid(0).CellAt(0, 0); cell.Data() == nil || cell.Data().UUID != "kept" {
		t.Fatalf("expected the replacement view's snapshot loaded")
	}
}

func TestViewsStripMarksActiveButton(t *testing.T) {
	m := newManager(t)
	h := NewHotbar(HotbarConfig{Manager: m})
	v := NewViews(ViewsConfig{Manager: m, Hotbar: h})
	ctx := context.Background()

	other, err := v.Create(ctx, "Second", "icons/second.png")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if v.Button(other.ID).HasClass("active") {
		t.Fatalf("creating a view must not steal focus")
	}
	if err := v.Switch(ctx, other.ID); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if !v.Button(other.ID).HasClass("active") {
		t.Fatalf("expected the switched-to button highlighted")
	}
	if v.Button(m.Views()[0].ID).HasClass("active") {
		t.Fatalf("expected the previous button unhighlighted")
	}
}

func TestHotbarApplyGridsSkipsNilEntries(t *testing.T) {
	m := newManager(t)
	h := NewHotbar(HotbarConfig{Manager: m})

	grids := m.State().Hotbar.Grids
	grids[2].Items["0-0"] = &state.CellData{UUID: "after-gap", Name: "After"}
	grids[1] = nil

	h.ApplyGrids(grids)
	if cell := h.Grid(2).CellAt(0, 0); cell.Data() == nil || cell.Data().UUID != "after-gap" {
		t.Fatalf("expected grids past a nil entry still applied")
	}
}

func TestWeaponSetsApplySetsSkipsNilEntries(t *testing.T) {
	m := newManager(t)
	w := NewWeaponSets(WeaponSetsConfig{Manager: m})

	sets := m.State().WeaponSets.Sets
	sets[2].Items["0-0"] = &state.CellData{UUID: "after-gap", Name: "After"}
	sets[1] = nil

	w.ApplySets(sets)
	if cell := w.Sets()[2].CellAt(0, 0); cell.Data() == nil || cell.Data().UUID != "after-gap" {
		t.Fatalf("expected sets past a nil entry still applied")
	}
}
