package filters

import (
	"reflect"
	"testing"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

func testFilters() []*state.Filter {
	return []*state.Filter{
		{ID: "weapon", Label: "Weapons", Symbol: "sword", Color: "#c33"},
		{ID: "spell", Label: "Spells", Symbol: "star", Color: "#36c"},
		{ID: "consumable", Label: "Consumables", Symbol: "flask", Color: "#3c6"},
	}
}

func TestSetHighlightToggles(t *testing.T) {
	s := NewSet(testFilters(), nil)

	if !s.ToggleHighlight("weapon") {
		t.Fatalf("expected weapon highlighted")
	}
	if s.Highlighted() == nil || s.Highlighted().ID != "weapon" {
		t.Fatalf("unexpected highlight %+v", s.Highlighted())
	}
	// Highlighting another filter moves the highlight rather than stacking.
	if !s.ToggleHighlight("spell") {
		t.Fatalf("expected spell highlighted")
	}
	if s.Highlighted().ID != "spell" {
		t.Fatalf("expected highlight moved to spell")
	}
	if s.ToggleHighlight("spell") {
		t.Fatalf("expected second toggle to clear the highlight")
	}
	if s.Highlighted() != nil {
		t.Fatalf("expected no highlight after clearing")
	}
	if s.ToggleHighlight("mystery") {
		t.Fatalf("expected unknown id ignored")
	}
}

func TestSetUsedMembership(t *testing.T) {
	s := NewSet(testFilters(), nil)

	s.ToggleUsed("spell")
	s.ToggleUsed("weapon")
	used := s.Used()
	if len(used) != 2 || used[0].ID != "weapon" || used[1].ID != "spell" {
		t.Fatalf("expected used filters in declaration order, got %+v", used)
	}
	if s.ToggleUsed("spell") {
		t.Fatalf("expected second toggle to remove membership")
	}
	if len(s.Used()) != 1 {
		t.Fatalf("expected one used filter after removal")
	}
}

func TestSetMatchesClassifiesByUsedFilters(t *testing.T) {
	s := NewSet(testFilters(), nil)
	s.ToggleUsed("weapon")
	s.ToggleUsed("consumable")

	sword := &state.CellData{UUID: "u1", Type: "weapon"}
	if ids := s.Matches(sword); !reflect.DeepEqual(ids, []string{"weapon"}) {
		t.Fatalf("unexpected classification %v", ids)
	}
	scroll := &state.CellData{UUID: "u2", Type: "spell"}
	if ids := s.Matches(scroll); ids != nil {
		t.Fatalf("expected no match for an unused filter, got %v", ids)
	}
}

func TestSetCustomMatcher(t *testing.T) {
	everything := func(f *state.Filter, cell *state.CellData) bool {
		return f != nil && cell != nil
	}
	s := NewSet(testFilters(), everything)
	s.ToggleHighlight("spell")
	if !s.MatchesHighlighted(&state.CellData{UUID: "u1", Type: "weapon"}) {
		t.Fatalf("expected the injected matcher to classify the cell")
	}
}

func TestMatchesHighlightedFalseWhenNothingHighlighted(t *testing.T) {
	s := NewSet(testFilters(), nil)
	if s.MatchesHighlighted(&state.CellData{UUID: "u1", Type: "weapon"}) {
		t.Fatalf("expected no highlight match without a highlight")
	}
}

func TestAutoPopulateFillsFreeSlotsRowMajor(t *testing.T) {
	g := state.NewGridState(2, 3)
	g.Items["1-0"] = &state.CellData{UUID: "held"}

	items := []*state.CellData{
		{UUID: "a", Name: "A"},
		{UUID: "b", Name: "B"},
		{UUID: "c", Name: "C"},
	}
	placed, leftover := AutoPopulate(g, items, nil)
	if len(leftover) != 0 {
		t.Fatalf("expected everything placed, leftover %+v", leftover)
	}
	want := map[string]string{"0-0": "a", "2-0": "b", "0-1": "c"}
	if len(placed) != len(want) {
		t.Fatalf("expected %d placements, got %d", len(want), len(placed))
	}
	for slot, uuid := range want {
		if placed[slot] == nil || placed[slot].UUID != uuid {
			t.Fatalf("expected %s at %s, got %+v", uuid, slot, placed[slot])
		}
	}
}

func TestAutoPopulateSkipsUUIDsAlreadyInHUD(t *testing.T) {
	g := state.NewGridState(1, 3)
	inHUD := map[string]bool{"dup": true}
	placed, leftover := AutoPopulate(g, []*state.CellData{
		{UUID: "dup"},
		{UUID: "fresh"},
	}, func(uuid string) bool { return inHUD[uuid] })

	if len(placed) != 1 || placed["0-0"] == nil || placed["0-0"].UUID != "fresh" {
		t.Fatalf("expected only the fresh item placed, got %+v", placed)
	}
	if len(leftover) != 0 {
		t.Fatalf("skipped duplicates must not count as leftovers, got %+v", leftover)
	}
}

func TestAutoPopulateSkipsDuplicatesWithinCandidates(t *testing.T) {
	g := state.NewGridState(1, 3)
	placed, _ := AutoPopulate(g, []*state.CellData{
		{UUID: "a"},
		{UUID: "a"},
		{UUID: "b"},
	}, nil)
	if len(placed) != 2 {
		t.Fatalf("expected repeated candidate placed once, got %+v", placed)
	}
}

func TestAutoPopulateRespectsCapacity(t *testing.T) {
	g := state.NewGridState(1, 2)
	placed, leftover := AutoPopulate(g, []*state.CellData{
		{UUID: "a"}, {UUID: "b"}, {UUID: "c"},
	}, nil)
	if len(placed) != 2 {
		t.Fatalf("expected the grid filled to capacity, got %d placements", len(placed))
	}
	if len(leftover) != 1 || leftover[0].UUID != "c" {
		t.Fatalf("expected the overflow item returned, got %+v", leftover)
	}
}

func TestAutoSortCompactsRowMajorByName(t *testing.T) {
	g := state.NewGridState(2, 2)
	g.Items["1-1"] = &state.CellData{UUID: "u1", Name: "Axe"}
	g.Items["0-1"] = &state.CellData{UUID: "u2", Name: "Bow"}

	sorted := AutoSort(g, ByName)
	if sorted["0-0"] == nil || sorted["0-0"].Name != "Axe" {
		t.Fatalf("expected Axe first, got %+v", sorted["0-0"])
	}
	if sorted["1-0"] == nil || sorted["1-0"].Name != "Bow" {
		t.Fatalf("expected Bow second, got %+v", sorted["1-0"])
	}
	if len(sorted) != 2 {
		t.Fatalf("expected no gaps or extras, got %+v", sorted)
	}
	// Input grid untouched.
	if g.Items["1-1"] == nil {
		t.Fatalf("expected the source grid unmutated")
	}
}

func TestAutoSortGroupsByTypeThenName(t *testing.T) {
	g := state.NewGridState(1, 4)
	g.Items["0-0"] = &state.CellData{UUID: "u1", Name: "Zap", Type: "spell"}
	g.Items["1-0"] = &state.CellData{UUID: "u2", Name: "Axe", Type: "weapon"}
	g.Items["2-0"] = &state.CellData{UUID: "u3", Name: "Fireball", Type: "spell"}

	sorted := AutoSort(g, ByTypeThenName)
	order := []string{sorted["0-0"].Name, sorted["1-0"].Name, sorted["2-0"].Name}
	want := []string{"Fireball", "Zap", "Axe"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("unexpected order %v, want %v", order, want)
	}
}

func TestAutoSortDropsOrphanedKeys(t *testing.T) {
	g := state.NewGridState(1, 2)
	g.Items["0-0"] = &state.CellData{UUID: "u1", Name: "Keep"}
	g.Items["5-5"] = &state.CellData{UUID: "u2", Name: "Orphan"}

	sorted := AutoSort(g, ByName)
	if len(sorted) != 1 || sorted["0-0"].Name != "Keep" {
		t.Fatalf("expected the orphan excluded, got %+v", sorted)
	}
}
