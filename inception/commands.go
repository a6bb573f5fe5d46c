package inception

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindInput  Kind = "input"
	KindArea   Kind = "area"
	KindDoor   Kind = "door"
	KindOutput Kind = "output"
)

var Kinds = []Kind{KindInput, KindArea, KindDoor, KindOutput}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Command is a control activity which may be performed against an Inception entity.
type Command interface {
	Kind() Kind
	String() string
	valid() bool
}

type InputCommand int

const (
	InputIsolate InputCommand = iota
	InputDeIsolate
)

var inputCommandNames = []string{"Isolate", "DeIsolate"}

func (c InputCommand) Kind() Kind     { return KindInput }
func (c InputCommand) String() string { return commandName(inputCommandNames, int(c)) }
func (c InputCommand) valid() bool    { return c >= 0 && int(c) < len(inputCommandNames) }

type AreaCommand int

const (
	AreaArm AreaCommand = iota
	AreaDisarm
)

var areaCommandNames = []string{"Arm", "Disarm"}

func (c AreaCommand) Kind() Kind     { return KindArea }
func (c AreaCommand) String() string { return commandName(areaCommandNames, int(c)) }
func (c AreaCommand) valid() bool    { return c >= 0 && int(c) < len(areaCommandNames) }

type DoorCommand int

const (
	DoorLock DoorCommand = iota
	DoorUnlock
	DoorOpen
	DoorLockout
	DoorReinstate
)

var doorCommandNames = []string{"Lock", "Unlock", "Open", "Lockout", "Reinstate"}

func (c DoorCommand) Kind() Kind     { return KindDoor }
func (c DoorCommand) String() string { return commandName(doorCommandNames, int(c)) }
func (c DoorCommand) valid() bool    { return c >= 0 && int(c) < len(doorCommandNames) }

type OutputCommand int

const (
	OutputOff OutputCommand = iota
	OutputOn
	OutputToggle
)

var outputCommandNames = []string{"Off", "On", "Toggle"}

func (c OutputCommand) Kind() Kind     { return KindOutput }
func (c OutputCommand) String() string { return commandName(outputCommandNames, int(c)) }
func (c OutputCommand) valid() bool    { return c >= 0 && int(c) < len(outputCommandNames) }

func commandName(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}

	return fmt.Sprintf("Command(%d)", i)
}

// ParseCommand resolves a command name, case insensitively, against the commands valid for a kind.
func ParseCommand(kind Kind, name string) (Command, error) {
	var names []string

	switch kind {
	case KindInput:
		names = inputCommandNames
	case KindArea:
		names = areaCommandNames
	case KindDoor:
		names = doorCommandNames
	case KindOutput:
		names = outputCommandNames
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	for i, n := range names {
		if !strings.EqualFold(n, name) {
			continue
		}

		switch kind {
		case KindInput:
			return InputCommand(i), nil
		case KindArea:
			return AreaCommand(i), nil
		case KindDoor:
			return DoorCommand(i), nil
		default:
			return OutputCommand(i), nil
		}
	}

	return nil, fmt.Errorf("%w: %q is not a %s command", ErrInvalidCommand, name, kind)
}

func activityPayload(c Command, entity string, pin string) map[string]string {
	kindTitle := strings.ToUpper(string(c.Kind())[:1]) + string(c.Kind())[1:]

	payload := map[string]string{
		"Type":               "Control" + kindTitle,
		"Entity":             entity,
		"ExecuteAsOtherUser": "True",
		"OtherUserPIN":       pin,
	}

	payload[kindTitle+"ControlType"] = c.String()

	if c.Kind() == KindArea {
		payload["ExitDelay"] = "True"
	}

	return payload
}
