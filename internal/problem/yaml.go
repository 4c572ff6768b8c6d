package problem

import (
	"errors"
	"fmt"
	"io"

	"github.com/signalsfoundry/constellation-planner/model"
	"gopkg.in/yaml.v3"
)

type problemYAML struct {
	Heuristic  string          `yaml:"heuristic"`
	Objects    []objectYAML    `yaml:"objects"`
	Satellites []satelliteYAML `yaml:"satellites"`
}

type objectYAML struct {
	Band int `yaml:"band"`
	Hour int `yaml:"hour"`
}

type satelliteYAML struct {
	MeasurementCost int  `yaml:"measurement_cost"`
	DownlinkCost    int  `yaml:"downlink_cost"`
	TurnCost        int  `yaml:"turn_cost"`
	BatteryRecharge int  `yaml:"battery_recharge"`
	MaxBattery      int  `yaml:"max_battery"`
	Band            *int `yaml:"band"` // optional; defaults to model.InitialBands
}

func parseYAML(r io.Reader) (*Problem, error) {
	var payload problemYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	objects := make([]model.Object, 0, len(payload.Objects))
	for _, o := range payload.Objects {
		objects = append(objects, model.NewObject(o.Band, o.Hour))
	}

	specs := make([]model.SatelliteSpec, 0, len(payload.Satellites))
	pinned := make([]*int, 0, len(payload.Satellites))
	for _, s := range payload.Satellites {
		specs = append(specs, model.SatelliteSpec{
			MeasurementCost: s.MeasurementCost,
			DownlinkCost:    s.DownlinkCost,
			TurnCost:        s.TurnCost,
			BatteryRecharge: s.BatteryRecharge,
			MaxBattery:      s.MaxBattery,
		})
		pinned = append(pinned, s.Band)
	}

	return &Problem{
		Objects:    objects,
		Satellites: placeSatellites(specs, pinned),
		Heuristic:  payload.Heuristic,
	}, nil
}
