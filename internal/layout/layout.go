// Package layout implements the export/import file format: a JSON
// document carrying the hotbar, weapon sets, active set index, and quick
// access contents for one subject. Decoding validates the top-level
// shape before anything is applied, so a malformed file can never
// partially mutate live state.
package layout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// ModuleName identifies documents produced by this module.
const ModuleName = "bg3-hud-core"

// FormatVersion is bumped when the document shape changes.
const FormatVersion = "1.0.0"

// Meta describes the document's provenance.
type Meta struct {
	Module    string `json:"module"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	ActorUUID string `json:"actorUuid"`
	TokenID   string `json:"tokenId"`
}

// Document is the on-disk export format.
type Document struct {
	Meta            Meta               `json:"meta"`
	Hotbar          state.HotbarState  `json:"hotbar"`
	WeaponSets      []*state.GridState `json:"weaponSets"`
	ActiveWeaponSet int                `json:"activeWeaponSet"`
	QuickAccess     *state.GridState   `json:"quickAccess"`
}

// Export snapshots the surfaces of a state blob into a document.
func Export(st *state.State, actorUUID, tokenID string) *Document {
	return &Document{
		Meta: Meta{
			Module:    ModuleName,
			Version:   FormatVersion,
			Timestamp: time.Now().UnixMilli(),
			ActorUUID: actorUUID,
			TokenID:   tokenID,
		},
		Hotbar:          state.HotbarState{Grids: state.CloneGrids(st.Hotbar.Grids)},
		WeaponSets:      state.CloneGrids(st.WeaponSets.Sets),
		ActiveWeaponSet: st.WeaponSets.ActiveSet,
		QuickAccess:     st.QuickAccess.Clone(),
	}
}

// Encode renders the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("layout: failed to encode document: %w", err)
	}
	return data, nil
}

// Decode parses and validates an exported document. The top-level shape
// is checked against raw JSON before the typed unmarshal so type
// mismatches surface as a rejection, not a partial result.
func Decode(raw []byte) (*Document, error) {
	var shape struct {
		Meta            json.RawMessage `json:"meta"`
		Hotbar          json.RawMessage `json:"hotbar"`
		WeaponSets      json.RawMessage `json:"weaponSets"`
		ActiveWeaponSet json.RawMessage `json:"activeWeaponSet"`
		QuickAccess     json.RawMessage `json:"quickAccess"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("layout: not a layout document: %w", err)
	}
	if err := expectKind(shape.Meta, '{', "meta"); err != nil {
		return nil, err
	}
	if err := expectKind(shape.Hotbar, '{', "hotbar"); err != nil {
		return nil, err
	}
	if err := expectKind(shape.WeaponSets, '[', "weaponSets"); err != nil {
		return nil, err
	}
	if err := expectKind(shape.QuickAccess, '{', "quickAccess"); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("layout: malformed layout document: %w", err)
	}
	if len(doc.Hotbar.Grids) == 0 {
		return nil, fmt.Errorf("layout: document has no hotbar grids")
	}
	if doc.ActiveWeaponSet < 0 || doc.ActiveWeaponSet >= len(doc.WeaponSets) {
		return nil, fmt.Errorf("layout: active weapon set %d out of range", doc.ActiveWeaponSet)
	}
	return &doc, nil
}

// ApplyTo builds a new state blob with the document's surfaces swapped
// in. Views are not part of the format; the active view snapshot is
// re-mirrored from the imported hotbar so the view invariant holds. The
// input state is not mutated.
func (d *Document) ApplyTo(st *state.State) *state.State {
	next := st.Clone()
	next.Hotbar.Grids = state.CloneGrids(d.Hotbar.Grids)
	next.WeaponSets.Sets = state.CloneGrids(d.WeaponSets)
	next.WeaponSets.ActiveSet = d.ActiveWeaponSet
	next.QuickAccess = d.QuickAccess.Clone()
	next.Normalize()
	for _, view := range next.Views.List {
		if view.ID == next.Views.ActiveID {
			view.Grids = state.CloneGrids(next.Hotbar.Grids)
		}
	}
	return next
}

func expectKind(raw json.RawMessage, open byte, field string) error {
	if len(raw) == 0 {
		return fmt.Errorf("layout: document is missing %q", field)
	}
	if raw[0] != open {
		return fmt.Errorf("layout: field %q has the wrong shape", field)
	}
	return nil
}
