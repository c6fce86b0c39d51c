package enums

type DeviceType string

const (
	DeviceWeb           DeviceType = "web"
	DeviceMobileIOS     DeviceType = "mobile-ios"
	DeviceMobileAndroid DeviceType = "mobile-android"
	DeviceDesktop       DeviceType = "desktop"
)

func (d DeviceType) Valid() bool {
	switch d {
	case DeviceWeb, DeviceMobileIOS, DeviceMobileAndroid, DeviceDesktop:
		return true
	}
	return false
}
