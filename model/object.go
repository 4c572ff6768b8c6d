package model

import "fmt"

// HoursPerDay is the length of the recurring observation window. Satellite
// clocks run forever; visibility checks reduce them modulo HoursPerDay.
const HoursPerDay = 12

// Object is an observable target sitting in a band and visible at one hour
// of the day.
type Object struct {
	Band     int
	Hour     int
	Measured bool
}

// NewObject returns an unmeasured object.
func NewObject(band, hour int) Object {
	return Object{Band: band, Hour: hour}
}

// Measure flips the object to measured. Measuring twice is a caller bug.
func (o *Object) Measure() {
	if o.Measured {
		panic(fmt.Sprintf("model: object at band %d hour %d already measured", o.Band, o.Hour))
	}
	o.Measured = true
}
