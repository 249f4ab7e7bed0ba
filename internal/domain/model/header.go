// Package model contains the records passed between the service layers.
package model

// Header identifies where a card was recorded. Card files carry these
// fields in their comment block.
type Header struct {
	WellID       string `json:"well_id"`
	Timestamp    string `json:"timestamp"`
	DeviceSerial string `json:"device_serial"`
	SensorSerial string `json:"sensor_serial"`
}

// Complete reports whether every header field is set.
func (h Header) Complete() bool {
	return h.WellID != "" && h.Timestamp != "" && h.DeviceSerial != "" && h.SensorSerial != ""
}

// Merge returns h with every non-empty field of o copied over it.
func (h Header) Merge(o Header) Header {
	if o.WellID != "" {
		h.WellID = o.WellID
	}
	if o.Timestamp != "" {
		h.Timestamp = o.Timestamp
	}
	if o.DeviceSerial != "" {
		h.DeviceSerial = o.DeviceSerial
	}
	if o.SensorSerial != "" {
		h.SensorSerial = o.SensorSerial
	}
	return h
}
