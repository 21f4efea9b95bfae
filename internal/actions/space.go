// Package actions defines the discrete action space and the resolver that
// applies one batch of per-agent action codes to the world each timestep.
package actions

import (
	"fmt"

	"github.com/talgya/gridworld/internal/resources"
)

// Kind classifies a decoded action.
type Kind uint8

const (
	KindMoveNorth Kind = iota
	KindMoveSouth
	KindMoveEast
	KindMoveWest
	KindHarvest
	KindSell
	KindBuy
)

// Fixed codes for movement and harvest; trade codes follow, one sell and
// one buy per resource kind in catalog order.
const (
	CodeMoveNorth = 0
	CodeMoveSouth = 1
	CodeMoveEast  = 2
	CodeMoveWest  = 3
	CodeHarvest   = 4
	tradeBase     = 5
)

// ErrCode rejects an action code outside [0, Space.Size()).
var ErrCode = fmt.Errorf("action code out of range")

// Action is one decoded action. Resource is set for trade kinds only.
type Action struct {
	Kind     Kind
	Resource resources.ID
}

// Space is the fixed action code enumeration for a catalog. Its size is
// computed once at setup and never changes within an environment.
type Space struct {
	kinds []resources.ID
}

// NewSpace builds the action space over a catalog.
func NewSpace(catalog *resources.Catalog) Space {
	return Space{kinds: catalog.IDs()}
}

// Size returns the number of action codes: four moves, harvest, then a
// sell and a buy per resource kind.
func (s Space) Size() int {
	return tradeBase + 2*len(s.kinds)
}

// Decode maps a code to an Action.
func (s Space) Decode(code int) (Action, error) {
	switch code {
	case CodeMoveNorth:
		return Action{Kind: KindMoveNorth}, nil
	case CodeMoveSouth:
		return Action{Kind: KindMoveSouth}, nil
	case CodeMoveEast:
		return Action{Kind: KindMoveEast}, nil
	case CodeMoveWest:
		return Action{Kind: KindMoveWest}, nil
	case CodeHarvest:
		return Action{Kind: KindHarvest}, nil
	}
	idx := code - tradeBase
	if idx < 0 || idx >= 2*len(s.kinds) {
		return Action{}, fmt.Errorf("%w: %d (space size %d)", ErrCode, code, s.Size())
	}
	if idx < len(s.kinds) {
		return Action{Kind: KindSell, Resource: s.kinds[idx]}, nil
	}
	return Action{Kind: KindBuy, Resource: s.kinds[idx-len(s.kinds)]}, nil
}

// SellCode returns the action code that sells one unit of the resource.
func (s Space) SellCode(res resources.ID) int {
	for i, id := range s.kinds {
		if id == res {
			return tradeBase + i
		}
	}
	return -1
}

// BuyCode returns the action code that buys one unit of the resource.
func (s Space) BuyCode(res resources.ID) int {
	for i, id := range s.kinds {
		if id == res {
			return tradeBase + len(s.kinds) + i
		}
	}
	return -1
}
