package enums

import "fmt"

// DeviceType classifies the e-waste devices a pickup request covers.
type DeviceType string

const (
	DeviceTypeLaptop   DeviceType = "laptop"
	DeviceTypeDesktop  DeviceType = "desktop"
	DeviceTypeMobile   DeviceType = "mobile"
	DeviceTypeTablet   DeviceType = "tablet"
	DeviceTypePrinter  DeviceType = "printer"
	DeviceTypeMonitor  DeviceType = "monitor"
	DeviceTypeKeyboard DeviceType = "keyboard"
	DeviceTypeMouse    DeviceType = "mouse"
	DeviceTypeOther    DeviceType = "other"
)

var validDeviceTypes = []DeviceType{
	DeviceTypeLaptop,
	DeviceTypeDesktop,
	DeviceTypeMobile,
	DeviceTypeTablet,
	DeviceTypePrinter,
	DeviceTypeMonitor,
	DeviceTypeKeyboard,
	DeviceTypeMouse,
	DeviceTypeOther,
}

// String implements fmt.Stringer.
func (d DeviceType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeviceType.
func (d DeviceType) IsValid() bool {
	for _, candidate := range validDeviceTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceType converts raw input into a DeviceType.
func ParseDeviceType(value string) (DeviceType, error) {
	for _, candidate := range validDeviceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device type %q", value)
}
