package search

import (
	"fmt"

	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
)

// Trace walks from goal up to the root and returns the actions in
// root-to-goal order. A nil goal or a root yields an empty trace.
func Trace(goal *state.State) []state.Action {
	var reversed []state.Action
	for node := goal; node != nil; node = node.Parent() {
		if a, ok := node.Action(); ok {
			reversed = append(reversed, a)
		}
	}
	actions := make([]state.Action, len(reversed))
	for i, a := range reversed {
		actions[len(reversed)-1-i] = a
	}
	return actions
}

// GroupSteps splits a trace into time steps of numSatellites actions each.
// Satellites act round-robin, so each group holds one action per satellite
// except possibly the last.
func GroupSteps(actions []state.Action, numSatellites int) [][]state.Action {
	if numSatellites <= 0 || len(actions) == 0 {
		return nil
	}
	groups := make([][]state.Action, 0, (len(actions)+numSatellites-1)/numSatellites)
	for start := 0; start < len(actions); start += numSatellites {
		end := start + numSatellites
		if end > len(actions) {
			end = len(actions)
		}
		groups = append(groups, actions[start:end])
	}
	return groups
}

// Replay applies actions to root in order and returns the final state.
func Replay(root *state.State, actions []state.Action) (*state.State, error) {
	node := root
	for i, a := range actions {
		next, err := node.Apply(a)
		if err != nil {
			return nil, fmt.Errorf("replay step %d: %w", i+1, err)
		}
		node = next
	}
	return node, nil
}
