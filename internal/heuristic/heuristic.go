// Package heuristic provides the cost-to-go estimators used to order the
// best-first frontier.
package heuristic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
)

// ErrUnknownHeuristic is returned by ByName for unsupported selectors.
var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Heuristic estimates the remaining cost from a state to a goal.
type Heuristic interface {
	Name() string
	Estimate(s *state.State) float64
}

// F is the best-first priority of s: cost so far plus estimated cost to go.
func F(s *state.State, h Heuristic) float64 {
	return s.G + h.Estimate(s)
}

// ByName resolves "h1" or "h2" (case-insensitive).
func ByName(name string) (Heuristic, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "h1":
		return H1{}, nil
	case "h2":
		return H2{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want h1 or h2)", ErrUnknownHeuristic, name)
	}
}

// H1 charges the band distance between every satellite and every object
// still to be measured, averaged over satellites, plus one unit for each
// object not yet downlinked. A satellite already sees its own band and the
// one above it, so objects in that window cost nothing.
type H1 struct{}

func (H1) Name() string { return "h1" }

func (H1) Estimate(s *state.State) float64 {
	if len(s.Satellites) == 0 {
		return 0
	}
	distance := 0
	for i := range s.Satellites {
		band := s.Satellites[i].Bands
		for j := range s.Objects {
			obj := &s.Objects[j]
			if obj.Measured {
				continue
			}
			switch {
			case band+1 < obj.Band:
				distance += obj.Band - 1 - band
			case obj.Band < band:
				distance += band - obj.Band
			}
		}
	}
	return float64(distance)/float64(len(s.Satellites)) + float64(len(s.Objects)-s.Downlinked)
}

// H2 charges one unit per object not yet downlinked, one more per object not
// yet measured, and the distance every satellite has drifted from its
// starting band. The starting layout already covers every band, so each
// turn away from it is treated as energy that must be paid back.
type H2 struct{}

func (H2) Name() string { return "h2" }

func (H2) Estimate(s *state.State) float64 {
	result := len(s.Objects) - s.Downlinked
	for i := range s.Objects {
		if !s.Objects[i].Measured {
			result++
		}
	}
	for i := range s.Satellites {
		drift := s.Satellites[i].Bands - s.Satellites[i].OriginalBands
		if drift < 0 {
			drift = -drift
		}
		result += drift
	}
	return float64(result)
}

// Zero estimates nothing; best-first search with Zero is uniform-cost search.
type Zero struct{}

func (Zero) Name() string { return "zero" }

func (Zero) Estimate(*state.State) float64 { return 0 }
