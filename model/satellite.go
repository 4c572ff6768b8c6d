package model

import "fmt"

// Direction selects which way a satellite turns its sensor.
type Direction int

const (
	// Down moves the sensor one band towards band 0.
	Down Direction = iota
	// Up moves the sensor one band away from band 0.
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Satellite is a battery-limited platform that measures objects in the band
// it points at (and the one above it) and downlinks them later.
//
// Costs, recharge rate and MaxBattery are fixed at load time. Bands, Battery,
// Hour and MeasurementsStack change as actions are applied.
type Satellite struct {
	Bands           int
	Battery         int
	BatteryRecharge int
	DownlinkCost    int
	MeasurementCost int
	TurnCost        int
	MaxBattery      int

	// Hour counts actions taken by this satellite; it never decreases.
	Hour int

	// MeasurementsStack holds object indices captured but not yet
	// downlinked. The last element is downlinked first.
	MeasurementsStack []int

	// OriginalBands is the band assigned at load time.
	OriginalBands int
}

// SatelliteSpec carries the fixed parameters of a satellite as read from a
// problem description.
type SatelliteSpec struct {
	MeasurementCost int
	DownlinkCost    int
	TurnCost        int
	BatteryRecharge int
	MaxBattery      int
}

// NewSatellite places a fully charged satellite at band with its clock at 0.
func NewSatellite(band int, spec SatelliteSpec) Satellite {
	return Satellite{
		Bands:           band,
		Battery:         spec.MaxBattery,
		BatteryRecharge: spec.BatteryRecharge,
		DownlinkCost:    spec.DownlinkCost,
		MeasurementCost: spec.MeasurementCost,
		TurnCost:        spec.TurnCost,
		MaxBattery:      spec.MaxBattery,
		OriginalBands:   band,
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s Satellite) Clone() Satellite {
	out := s
	if s.MeasurementsStack != nil {
		out.MeasurementsStack = append(make([]int, 0, len(s.MeasurementsStack)), s.MeasurementsStack...)
	}
	return out
}

// CheckBattery reports whether the battery covers cost.
func (s *Satellite) CheckBattery(cost int) bool {
	return s.Battery >= cost
}

// IsBatteryFull reports whether the battery sits at MaxBattery.
func (s *Satellite) IsBatteryFull() bool {
	return s.Battery == s.MaxBattery
}

// Recharge adds BatteryRecharge, clamped to MaxBattery. It returns false
// when the battery was already full.
func (s *Satellite) Recharge() bool {
	before := s.Battery
	if before >= s.MaxBattery {
		return false
	}
	s.Battery += s.BatteryRecharge
	if s.Battery > s.MaxBattery {
		s.Battery = s.MaxBattery
	}
	return s.Battery > before
}

// CanMeasure reports whether the battery covers a measurement.
func (s *Satellite) CanMeasure() bool {
	return s.CheckBattery(s.MeasurementCost)
}

// Measure captures objectIndex onto the stack and pays for it.
func (s *Satellite) Measure(objectIndex int) {
	if !s.CanMeasure() {
		panic(fmt.Sprintf("model: measure needs %d battery, have %d", s.MeasurementCost, s.Battery))
	}
	s.Battery -= s.MeasurementCost
	s.MeasurementsStack = append(s.MeasurementsStack, objectIndex)
}

// CanDownlink reports whether there is something to downlink and the battery
// covers it.
func (s *Satellite) CanDownlink() bool {
	return len(s.MeasurementsStack) > 0 && s.CheckBattery(s.DownlinkCost)
}

// Downlink pops the most recent measurement and pays for it.
func (s *Satellite) Downlink() int {
	if !s.CanDownlink() {
		panic(fmt.Sprintf("model: downlink with %d pending measurements and %d battery (cost %d)",
			len(s.MeasurementsStack), s.Battery, s.DownlinkCost))
	}
	last := len(s.MeasurementsStack) - 1
	objectIndex := s.MeasurementsStack[last]
	s.MeasurementsStack = s.MeasurementsStack[:last]
	s.Battery -= s.DownlinkCost
	return objectIndex
}

// CanTurn reports whether the battery covers a turn.
func (s *Satellite) CanTurn() bool {
	return s.CheckBattery(s.TurnCost)
}

// Turn moves the sensor one band in dir and pays for it.
func (s *Satellite) Turn(dir Direction) {
	if !s.CanTurn() {
		panic(fmt.Sprintf("model: turn needs %d battery, have %d", s.TurnCost, s.Battery))
	}
	s.Battery -= s.TurnCost
	if dir == Up {
		s.Bands++
	} else {
		s.Bands--
	}
}

// NextHour advances the satellite clock by one action.
func (s *Satellite) NextHour() {
	s.Hour++
}

// ClockHour is Hour reduced to the observation window.
func (s *Satellite) ClockHour() int {
	return s.Hour % HoursPerDay
}

// CheckMeasurementObject reports whether an object at band/hour is inside the
// sensor footprint right now: the object sits in the pointed band or the one
// above it, and the clock matches its hour.
func (s *Satellite) CheckMeasurementObject(band, hour int) bool {
	return (band == s.Bands || band == s.Bands+1) && s.ClockHour() == hour
}

// CanMoveBands returns how many distinct turns are possible: -1 when the
// battery cannot pay for a turn, 1 at either end of the band range
// (0 or TopBand(numSatellites)), 2 otherwise.
func (s *Satellite) CanMoveBands(numSatellites int) int {
	if !s.CanTurn() {
		return -1
	}
	if s.Bands <= 0 || s.Bands >= TopBand(numSatellites) {
		return 1
	}
	return 2
}
