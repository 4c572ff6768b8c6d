// Package state holds the search node of the observation planner: a full
// snapshot of every satellite and object, the cost paid to reach it and the
// action that produced it from its parent.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/signalsfoundry/constellation-planner/model"
)

// ErrInfeasibleAction is returned by Apply when the action cannot be taken
// from the state it is applied to.
var ErrInfeasibleAction = errors.New("infeasible action")

// State is one node of the search tree.
//
// Satellites and Objects are owned by the State; no other State shares
// their backing arrays. Callers MUST treat them as read-only and derive new
// states through Children or Apply.
type State struct {
	Satellites []model.Satellite
	Objects    []model.Object

	// G is the energy spent from the root to this state.
	G float64

	// Downlinked counts downlink actions along the path from the root.
	Downlinked int

	// Heuristic names the cost-to-go estimator selected for this search.
	// Children inherit it.
	Heuristic string

	parent *State
	action Action
}

// Key is the reduced identity of a State used by closed sets. Two states
// share a Key when every object's measured flag, the downlink counter and
// every satellite's battery, band and clock hour (mod 12) match. The
// absolute hour is left out so states that differ only in elapsed time
// collapse into one.
type Key string

// New builds a root state from deep copies of satellites and objects.
func New(satellites []model.Satellite, objects []model.Object, heuristic string) *State {
	s := &State{
		Satellites: make([]model.Satellite, len(satellites)),
		Objects:    append([]model.Object(nil), objects...),
		Heuristic:  heuristic,
	}
	for i := range satellites {
		s.Satellites[i] = satellites[i].Clone()
	}
	return s
}

// Parent returns the state this one was generated from, or nil for the root.
func (s *State) Parent() *State { return s.parent }

// Action returns the action that produced s. ok is false for the root.
func (s *State) Action() (a Action, ok bool) {
	if s.parent == nil {
		return Action{}, false
	}
	return s.action, true
}

// Steps is the number of hours satellite 0 has lived through.
func (s *State) Steps() int {
	if len(s.Satellites) == 0 {
		return 0
	}
	return s.Satellites[0].Hour
}

// NextSatelliteIndex picks the satellite that acts next: the one with the
// smallest Hour, lowest index on ties.
func (s *State) NextSatelliteIndex() int {
	next := 0
	for i := 1; i < len(s.Satellites); i++ {
		if s.Satellites[i].Hour < s.Satellites[next].Hour {
			next = i
		}
	}
	return next
}

// IsGoal reports whether every object has been downlinked and all satellite
// clocks agree.
func (s *State) IsGoal() bool {
	if s.Downlinked != len(s.Objects) {
		return false
	}
	for i := 1; i < len(s.Satellites); i++ {
		if s.Satellites[i].Hour != s.Satellites[0].Hour {
			return false
		}
	}
	return true
}

// Key computes the closed-set identity of s.
func (s *State) Key() Key {
	buf := make([]byte, 0, len(s.Objects)+binary.MaxVarintLen64+3*len(s.Satellites))
	for _, obj := range s.Objects {
		if obj.Measured {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	buf = binary.AppendUvarint(buf, uint64(s.Downlinked))
	for i := range s.Satellites {
		sat := &s.Satellites[i]
		buf = binary.AppendVarint(buf, int64(sat.Battery))
		buf = binary.AppendVarint(buf, int64(sat.Bands))
		buf = binary.AppendUvarint(buf, uint64(sat.ClockHour()))
	}
	return Key(buf)
}

// Actions lists the feasible actions of the next satellite in generation
// order: idle or recharge, measure, downlink, then turns (up before down).
func (s *State) Actions() []Action {
	if len(s.Satellites) == 0 {
		return nil
	}
	idx := s.NextSatelliteIndex()
	sat := &s.Satellites[idx]
	actions := make([]Action, 0, 5)

	if sat.IsBatteryFull() {
		actions = append(actions, Action{Satellite: idx, Kind: Idle, Object: -1})
	} else {
		actions = append(actions, Action{Satellite: idx, Kind: Recharge, Object: -1})
	}

	if obj := s.measurableObject(idx); obj >= 0 {
		actions = append(actions, Action{Satellite: idx, Kind: Measure, Object: obj})
	}

	if sat.CanDownlink() {
		top := sat.MeasurementsStack[len(sat.MeasurementsStack)-1]
		actions = append(actions, Action{Satellite: idx, Kind: Downlink, Object: top})
	}

	switch sat.CanMoveBands(len(s.Satellites)) {
	case 1:
		dir := model.Down
		if sat.Bands == 0 {
			dir = model.Up
		}
		actions = append(actions, Action{Satellite: idx, Kind: Turn, Object: -1, Direction: dir})
	case 2:
		actions = append(actions,
			Action{Satellite: idx, Kind: Turn, Object: -1, Direction: model.Up},
			Action{Satellite: idx, Kind: Turn, Object: -1, Direction: model.Down},
		)
	}
	return actions
}

// Children expands s into one successor per feasible action. The slice is
// empty when nothing is feasible.
func (s *State) Children() []*State {
	actions := s.Actions()
	children := make([]*State, 0, len(actions))
	for _, a := range actions {
		children = append(children, s.successor(a))
	}
	return children
}

// Apply produces the child reached by a. It fails with ErrInfeasibleAction
// unless a is one of s.Actions().
func (s *State) Apply(a Action) (*State, error) {
	for _, candidate := range s.Actions() {
		if candidate == a {
			return s.successor(a), nil
		}
	}
	return nil, fmt.Errorf("%w: %s at hour %d", ErrInfeasibleAction, a, s.hourOf(a.Satellite))
}

func (s *State) hourOf(idx int) int {
	if idx < 0 || idx >= len(s.Satellites) {
		return -1
	}
	return s.Satellites[idx].Hour
}

// measurableObject returns the first unmeasured object inside the footprint
// of satellite idx, or -1.
func (s *State) measurableObject(idx int) int {
	sat := &s.Satellites[idx]
	if !sat.CanMeasure() {
		return -1
	}
	for i := range s.Objects {
		obj := &s.Objects[i]
		if !obj.Measured && sat.CheckMeasurementObject(obj.Band, obj.Hour) {
			return i
		}
	}
	return -1
}

func (s *State) clone() *State {
	next := &State{
		Satellites: make([]model.Satellite, len(s.Satellites)),
		Objects:    append([]model.Object(nil), s.Objects...),
		G:          s.G,
		Downlinked: s.Downlinked,
		Heuristic:  s.Heuristic,
	}
	for i := range s.Satellites {
		next.Satellites[i] = s.Satellites[i].Clone()
	}
	return next
}

// successor applies a feasible action to a deep copy of s.
func (s *State) successor(a Action) *State {
	next := s.clone()
	next.parent = s
	next.action = a

	sat := &next.Satellites[a.Satellite]
	switch a.Kind {
	case Idle:
	case Recharge:
		sat.Recharge()
	case Measure:
		next.Objects[a.Object].Measure()
		sat.Measure(a.Object)
		next.G += float64(sat.MeasurementCost)
	case Downlink:
		if got := sat.Downlink(); got != a.Object {
			panic(fmt.Sprintf("state: downlink popped object %d, action says %d", got, a.Object))
		}
		next.Downlinked++
		next.G += float64(sat.DownlinkCost)
	case Turn:
		sat.Turn(a.Direction)
		next.G += float64(sat.TurnCost)
	default:
		panic(fmt.Sprintf("state: unknown action kind %d", int(a.Kind)))
	}
	sat.NextHour()
	return next
}
