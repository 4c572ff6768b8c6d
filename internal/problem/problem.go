// Package problem loads observation problems from the line-oriented ".prob" text
// format or from YAML, validates them and lays satellites out over the
// bands.
package problem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
	"github.com/signalsfoundry/constellation-planner/model"
)

var (
	// ErrParse reports a malformed object or satellite record.
	ErrParse = errors.New("malformed problem")
	// ErrConfig reports a well-formed problem whose values cannot be planned.
	ErrConfig = errors.New("invalid problem configuration")
)

// Format selects the problem encoding.
type Format string

const (
	FormatText Format = "prob"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and the text format for
// everything else.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// ParseFormat accepts "prob"/"text" and "yaml"/"yml". Empty means text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "prob", "text":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrParse, name)
	}
}

// Problem is a loaded, validated planning problem.
type Problem struct {
	Objects    []model.Object
	Satellites []model.Satellite

	// Heuristic is the selector named by the problem file, if any. YAML
	// problems may carry one; the text format never does.
	Heuristic string
}

// Root builds the initial search state. An empty heuristic falls back to
// the one named by the problem file.
func (p *Problem) Root(heuristic string) *state.State {
	if heuristic == "" {
		heuristic = p.Heuristic
	}
	return state.New(p.Satellites, p.Objects, heuristic)
}

// Load decodes a problem from r in the given format and validates it.
func Load(r io.Reader, format Format) (*Problem, error) {
	var (
		p   *Problem
		err error
	)
	switch format {
	case FormatText, "":
		p, err = parseText(r)
	case FormatYAML:
		p, err = parseYAML(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrParse, string(format))
	}
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile opens path and loads it with the format implied by its extension.
func LoadFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open problem %s: %w", path, err)
	}
	defer f.Close()

	p, err := Load(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Validate checks value ranges. Band limits follow the turn rule: a
// satellite may point at bands 0..model.TopBand(n) for n satellites and sees
// one band above that, which bounds where objects may sit.
func (p *Problem) Validate() error {
	if len(p.Objects) == 0 {
		return fmt.Errorf("%w: no objects", ErrConfig)
	}
	if len(p.Satellites) == 0 {
		return fmt.Errorf("%w: no satellites", ErrConfig)
	}
	top := model.TopBand(len(p.Satellites))

	for i, obj := range p.Objects {
		if obj.Hour < 0 || obj.Hour >= model.HoursPerDay {
			return fmt.Errorf("%w: object %d hour %d outside 0..%d", ErrConfig, i+1, obj.Hour, model.HoursPerDay-1)
		}
		if obj.Band < 0 || obj.Band > top+1 {
			return fmt.Errorf("%w: object %d band %d outside 0..%d", ErrConfig, i+1, obj.Band, top+1)
		}
		if obj.Measured {
			return fmt.Errorf("%w: object %d already measured", ErrConfig, i+1)
		}
	}

	for i, sat := range p.Satellites {
		name := fmt.Sprintf("SAT%d", i+1)
		for _, field := range []struct {
			label string
			value int
		}{
			{"measurement cost", sat.MeasurementCost},
			{"downlink cost", sat.DownlinkCost},
			{"turn cost", sat.TurnCost},
			{"battery recharge", sat.BatteryRecharge},
			{"max battery", sat.MaxBattery},
		} {
			if field.value < 0 {
				return fmt.Errorf("%w: %s %s is negative (%d)", ErrConfig, name, field.label, field.value)
			}
		}
		if sat.Bands < 0 || sat.Bands > top {
			return fmt.Errorf("%w: %s band %d outside 0..%d", ErrConfig, name, sat.Bands, top)
		}
		if sat.Battery != sat.MaxBattery || sat.Hour != 0 || len(sat.MeasurementsStack) != 0 {
			return fmt.Errorf("%w: %s must start charged, at hour 0 with no measurements", ErrConfig, name)
		}
	}
	return nil
}

// placeSatellites builds satellites from specs, using pinned bands where
// given and the default layout otherwise.
func placeSatellites(specs []model.SatelliteSpec, pinned []*int) []model.Satellite {
	defaults := model.InitialBands(len(specs))
	sats := make([]model.Satellite, len(specs))
	for i, spec := range specs {
		band := defaults[i]
		if i < len(pinned) && pinned[i] != nil {
			band = *pinned[i]
		}
		sats[i] = model.NewSatellite(band, spec)
	}
	return sats
}
