package spc

import (
	"fmt"
	"strings"
)

type spcError string

func (e spcError) Error() string {
	return string(e)
}

const (
	ErrTopologyUnavailable = spcError("spc topology could not be loaded")
	ErrAlreadyStarted      = spcError("spc gateway already started")
	ErrInvalidMode         = spcError("invalid area mode")
	ErrRequestFailed       = spcError("request to spc web gateway failed")
	ErrUnknownArea         = spcError("unknown area")
	ErrUnknownZone         = spcError("unknown zone")
)

type Resource string

const (
	ResourceArea Resource = "area"
	ResourceZone Resource = "zone"
)

type AreaMode int

const (
	AreaModeUnset AreaMode = iota
	AreaModePartSetA
	AreaModePartSetB
	AreaModeFullSet
)

var areaModeNames = map[AreaMode]string{
	AreaModeUnset:    "unset",
	AreaModePartSetA: "part_set_a",
	AreaModePartSetB: "part_set_b",
	AreaModeFullSet:  "full_set",
}

func (m AreaMode) String() string {
	if name, ok := areaModeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("AreaMode(%d)", int(m))
}

// Command returns the SPC Web Gateway command token used to move an area into this mode.
func (m AreaMode) Command() (string, error) {
	switch m {
	case AreaModeUnset:
		return "unset", nil
	case AreaModePartSetA:
		return "set_a", nil
	case AreaModePartSetB:
		return "set_b", nil
	case AreaModeFullSet:
		return "set", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
}

func (m AreaMode) MarshalText() ([]byte, error) {
	if _, err := m.Command(); err != nil {
		return nil, err
	}

	return []byte(m.String()), nil
}

func (m *AreaMode) UnmarshalText(text []byte) error {
	parsed, err := ParseAreaMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}

func ParseAreaMode(s string) (AreaMode, error) {
	needle := strings.ToLower(strings.TrimSpace(s))

	for mode, name := range areaModeNames {
		if name == needle {
			return mode, nil
		}
	}

	return AreaModeUnset, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

type ZoneInput int

const (
	ZoneInputClosed ZoneInput = iota
	ZoneInputOpen
	ZoneInputShort
	ZoneInputDisconnected
	ZoneInputPIRMasked
	ZoneInputDCSubstitution
	ZoneInputSensorMissing
	ZoneInputOffline
)

var zoneInputNames = []string{"closed", "open", "short", "disconnected", "pir_masked", "dc_substitution", "sensor_missing", "offline"}

func (i ZoneInput) String() string {
	if i >= 0 && int(i) < len(zoneInputNames) {
		return zoneInputNames[i]
	}

	return fmt.Sprintf("ZoneInput(%d)", int(i))
}

type ZoneStatus int

const (
	ZoneStatusOK ZoneStatus = iota
	ZoneStatusInhibit
	ZoneStatusIsolate
	ZoneStatusSoak
	ZoneStatusTamper
	ZoneStatusAlarm
	ZoneStatusOKRestored
	ZoneStatusTrouble
)

var zoneStatusNames = []string{"ok", "inhibit", "isolate", "soak", "tamper", "alarm", "ok_restored", "trouble"}

func (s ZoneStatus) String() string {
	if s >= 0 && int(s) < len(zoneStatusNames) {
		return zoneStatusNames[s]
	}

	return fmt.Sprintf("ZoneStatus(%d)", int(s))
}

type ZoneType int

const (
	ZoneTypeAlarm ZoneType = iota
	ZoneTypeEntryExit
	ZoneTypeEntryExit2
	ZoneTypeFire
	ZoneTypeTechnical
	ZoneTypePanic
	ZoneTypeHoldUp
	ZoneTypeTamper
)

var zoneTypeNames = []string{"alarm", "entry_exit", "entry_exit_2", "fire", "technical", "panic", "hold_up", "tamper"}

func (t ZoneType) String() string {
	if t >= 0 && int(t) < len(zoneTypeNames) {
		return zoneTypeNames[t]
	}

	return fmt.Sprintf("ZoneType(%d)", int(t))
}
