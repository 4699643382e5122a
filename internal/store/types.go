package store

// DeviceReport is one state push from an embedded controller (or an
// administrative update travelling the same path). Nil fields were omitted
// from the request and leave the stored value untouched.
type DeviceReport struct {
	Sensor1 *bool
	Sensor2 *bool
	Sensor3 *bool

	// Actuation fields are only honored when the caller is the
	// administrative/device channel; the public surface never sets them.
	Gate  *string
	Led   *string
	State *string

	Actuation bool
}

// FullFrame reports whether the push carries readings for all three sensors.
// Removal detection requires a full frame so that a partial echo can never
// free a locker.
func (r DeviceReport) FullFrame() bool {
	return r.Sensor1 != nil && r.Sensor2 != nil && r.Sensor3 != nil
}
