package core

import "strings"

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeSpeaker  DeviceType = "speaker"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTV       DeviceType = "tv"
	DeviceTypeUnknown  DeviceType = "unknown"
)

// Device describes an output device in the account's device registry.
// It is read-only to this system.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         DeviceType `json:"type"`
	IsActive     bool       `json:"is_active"`
	IsRestricted bool       `json:"is_restricted"`
}

// DeviceSelector names the target device. An empty Name selects the
// currently active device.
type DeviceSelector struct {
	Name string `json:"name,omitempty"`
}

// UsesActive returns true if the selector defers to the active device.
func (s DeviceSelector) UsesActive() bool {
	return strings.TrimSpace(s.Name) == ""
}

// String returns the selector in human-readable form.
func (s DeviceSelector) String() string {
	if s.UsesActive() {
		return "active device"
	}
	return s.Name
}
