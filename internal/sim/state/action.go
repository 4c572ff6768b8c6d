package state

import (
	"fmt"

	"github.com/signalsfoundry/constellation-planner/model"
)

// ActionKind enumerates what a satellite can do in one hour.
type ActionKind int

const (
	Idle ActionKind = iota
	Recharge
	Measure
	Downlink
	Turn
)

func (k ActionKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Recharge:
		return "recharge"
	case Measure:
		return "measure"
	case Downlink:
		return "downlink"
	case Turn:
		return "turn"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is the label on the edge from a parent State to a child. Satellite
// and Object are 0-based indices; Object is -1 unless Kind is Measure or
// Downlink. Direction is only meaningful for Turn.
type Action struct {
	Satellite int
	Kind      ActionKind
	Object    int
	Direction model.Direction
}

// String renders the action the way the plan output prints it, with
// 1-based satellite and object numbers.
func (a Action) String() string {
	sat := fmt.Sprintf("SAT%d", a.Satellite+1)
	switch a.Kind {
	case Idle:
		return sat + ": IDLE"
	case Recharge:
		return sat + ": Charge"
	case Measure:
		return fmt.Sprintf("%s: Measure O%d", sat, a.Object+1)
	case Downlink:
		return fmt.Sprintf("%s: Downlink O%d", sat, a.Object+1)
	case Turn:
		return sat + ": Turn"
	default:
		return fmt.Sprintf("%s: %s", sat, a.Kind)
	}
}
