package problem

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/signalsfoundry/constellation-planner/model"
)

var (
	objectPattern    = regexp.MustCompile(`^\((\d+),(\d+)\)$`)
	satellitePattern = regexp.MustCompile(`^SAT(\d+):\s*(\d+);(\d+);(\d+);(\d+);(\d+)$`)
)

// parseText reads the line format
//
//	OBS: (0,1);(0,3);(1,3)
//	SAT1: 1;1;1;1;1
//	SAT2: 1;1;1;1;8
//
// Satellite fields are measurement cost, downlink cost, turn cost, battery
// recharge and max battery. Blank lines and lines starting with '#' are
// skipped.
func parseText(r io.Reader) (*Problem, error) {
	var (
		objects []model.Object
		specs   []model.SatelliteSpec
		seenObs bool
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "OBS:"); ok {
			if seenObs {
				return nil, fmt.Errorf("%w: line %d: duplicate OBS line", ErrParse, lineNo)
			}
			seenObs = true
			objs, err := parseObjects(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			objects = objs
			continue
		}

		if !seenObs {
			return nil, fmt.Errorf("%w: line %d: expected OBS line first", ErrParse, lineNo)
		}
		spec, num, err := parseSatellite(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if num != len(specs)+1 {
			return nil, fmt.Errorf("%w: line %d: SAT%d out of order, want SAT%d", ErrParse, lineNo, num, len(specs)+1)
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}
	if !seenObs {
		return nil, fmt.Errorf("%w: missing OBS line", ErrParse)
	}

	return &Problem{
		Objects:    objects,
		Satellites: placeSatellites(specs, nil),
	}, nil
}

func parseObjects(list string) ([]model.Object, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	fields := strings.Split(list, ";")
	objects := make([]model.Object, 0, len(fields))
	for _, field := range fields {
		field = strings.ReplaceAll(strings.TrimSpace(field), " ", "")
		m := objectPattern.FindStringSubmatch(field)
		if m == nil {
			return nil, fmt.Errorf("%w: object %q is not (band,hour)", ErrParse, field)
		}
		band, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: object %q band: %v", ErrParse, field, err)
		}
		hour, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: object %q hour: %v", ErrParse, field, err)
		}
		objects = append(objects, model.NewObject(band, hour))
	}
	return objects, nil
}

func parseSatellite(line string) (model.SatelliteSpec, int, error) {
	m := satellitePattern.FindStringSubmatch(line)
	if m == nil {
		return model.SatelliteSpec{}, 0, fmt.Errorf("%w: satellite record %q", ErrParse, line)
	}
	values := make([]int, len(m)-1)
	for i, raw := range m[1:] {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return model.SatelliteSpec{}, 0, fmt.Errorf("%w: satellite record %q: %v", ErrParse, line, err)
		}
		values[i] = v
	}
	return model.SatelliteSpec{
		MeasurementCost: values[1],
		DownlinkCost:    values[2],
		TurnCost:        values[3],
		BatteryRecharge: values[4],
		MaxBattery:      values[5],
	}, values[0], nil
}
