// internal/status/constants.go
package status

// Ventilator status block layout constants.
// These values define the mirror protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per device.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the device health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the device has been in error.
const SlotSecondsInError = 2

// SlotRelayState holds the relay machine state.
const SlotRelayState = 3

// SlotCycleCountHi and SlotCycleCountLo hold the relay stall cycle count.
const SlotCycleCountHi = 4
const SlotCycleCountLo = 5

// SlotRunState holds the configured run state.
const SlotRunState = 6

// SlotRunMode holds the configured run mode.
const SlotRunMode = 7

// SlotSerialHi and SlotSerialLo hold the configuration serial number.
const SlotSerialHi = 8
const SlotSerialLo = 9

// SlotFlags holds the relay flag bits.
const SlotFlags = 10

// SlotLiveEnd is one past the last slot written incrementally.
const SlotLiveEnd = 11

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// Slot 19 is reserved.

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- FLAGS ----

const (
	FlagEnergized     uint16 = 1 << 0
	FlagInterlockHeld uint16 = 1 << 1
	FlagAlarmMuted    uint16 = 1 << 2
)

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// ---- ERROR CODES ----

const (
	ErrNone     uint16 = 0
	ErrPersist  uint16 = 1 // last parameter save failed
	ErrActuator uint16 = 2 // relay command unconfirmed
	ErrSensor   uint16 = 3 // pressure poll failing
)
