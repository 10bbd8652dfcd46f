// Package adapter declares the capability interface a game-system
// package implements to supply rule-specific behavior. The concrete
// adapter is chosen once at startup and handed to the HUD through its
// context; the core never special-cases any system.
package adapter

import (
	"context"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// Ability is one rollable ability score exposed by the system.
type Ability struct {
	ID    string
	Label string
	Mod   int
}

// RollResult is the outcome of a system-side roll.
type RollResult struct {
	Formula string
	Total   int
}

// System is the capability surface a game-system adapter provides.
type System interface {
	// ID names the adapter, e.g. "dnd5e".
	ID() string
	// Abilities lists the subject's ability scores.
	Abilities(ctx context.Context, subject string) ([]Ability, error)
	// RollAbility performs an ability check for the subject.
	RollAbility(ctx context.Context, subject, abilityID string) (RollResult, error)
	// SaveModifier returns the subject's save modifier for an ability.
	SaveModifier(ctx context.Context, subject, abilityID string) (int, error)
	// OnSetSwitch runs equip/unequip side effects when the active weapon
	// set changes. The HUD switches sets even if this returns an error.
	OnSetSwitch(ctx context.Context, subject string, index int) error
	// HandleExternalDrop interprets a drop whose payload did not parse as
	// a HUD drag. A nil cell with nil error means the drop carried no
	// usable data.
	HandleExternalDrop(ctx context.Context, subject, raw string) (*state.CellData, error)
	// CollectItems gathers the subject's items for auto-populate.
	CollectItems(ctx context.Context, subject string) ([]*state.CellData, error)
}

// Base is a no-op System suitable for embedding, so adapters only
// implement the capabilities their system actually has.
type Base struct{}

var _ System = Base{}

// ID implements System.
func (Base) ID() string { return "base" }

// Abilities implements System.
func (Base) Abilities(context.Context, string) ([]Ability, error) { return nil, nil }

// RollAbility implements System.
func (Base) RollAbility(context.Context, string, string) (RollResult, error) {
	return RollResult{}, nil
}

// SaveModifier implements System.
func (Base) SaveModifier(context.Context, string, string) (int, error) { return 0, nil }

// OnSetSwitch implements System.
func (Base) OnSetSwitch(context.Context, string, int) error { return nil }

// HandleExternalDrop implements System.
func (Base) HandleExternalDrop(context.Context, string, string) (*state.CellData, error) {
	return nil, nil
}

// CollectItems implements System.
func (Base) CollectItems(context.Context, string) ([]*state.CellData, error) { return nil, nil }
