package spc

import (
	"github.com/tidwall/gjson"
	"time"
)

type Entity interface {
	Identifier() string
	Resource() Resource
}

var _ Entity = Area{}
var _ Entity = Zone{}

type codeSet map[string]struct{}

func newCodeSet(codes ...string) codeSet {
	s := make(codeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s codeSet) Contains(code string) bool {
	_, found := s[code]
	return found
}

// AreaSupportedSIACodes are the SIA codes which are routed to an area.
var AreaSupportedSIACodes = newCodeSet(
	"BV", // verified burglary alarm
	"CG", // area set
	"NL", // area part set
	"OG", // area unset
	"CL", // set by user
	"OP", // unset by user
	"BC", // alarm cancelled
)

// ZoneSupportedSIACodes are the SIA codes which are routed to a zone.
var ZoneSupportedSIACodes = newCodeSet(
	"ZC", // zone closed
	"ZO", // zone opened
	"ZD", // zone disconnected
	"ZX", // zone short circuit
	"BA", // burglary alarm
	"BR", // burglary restore
	"BB", // zone inhibited
	"BU", // zone uninhibited
	"TA", // tamper alarm
	"TR", // tamper restore
)

type Area struct {
	ID            string
	Name          string
	Mode          AreaMode
	LastChangedBy string
	VerifiedAlarm bool
	LastUpdate    time.Time

	// ZoneIDs refers to zones owned by the gateway, looked up through it.
	ZoneIDs []string
}

func newArea(data gjson.Result) *Area {
	a := &Area{
		ID:   data.Get("id").String(),
		Name: data.Get("name").String(),
	}

	a.update(data, "")
	return a
}

func (a Area) Identifier() string {
	return a.ID
}

func (a Area) Resource() Resource {
	return ResourceArea
}

func (a *Area) update(data gjson.Result, siaCode string) {
	if mode := data.Get("mode"); mode.Exists() {
		a.Mode = AreaMode(mode.Int())
	}

	lastUserField := "last_set_user_name"
	if a.Mode == AreaModeUnset {
		lastUserField = "last_unset_user_name"
	}

	if user := data.Get(lastUserField); user.Exists() {
		a.LastChangedBy = user.String()
	} else {
		a.LastChangedBy = "N/A"
	}

	switch siaCode {
	case "BV":
		a.VerifiedAlarm = true
	case "OG", "OP", "BC":
		a.VerifiedAlarm = false
	}

	a.LastUpdate = time.Now()
}

func (a Area) clone() Area {
	c := a
	c.ZoneIDs = append([]string(nil), a.ZoneIDs...)
	return c
}

type Zone struct {
	ID          string
	Name        string
	AreaID      string
	Input       ZoneInput
	Status      ZoneStatus
	Type        ZoneType
	LastSIACode string
	LastUpdate  time.Time
}

func newZone(areaID string, data gjson.Result) *Zone {
	z := &Zone{
		ID:     data.Get("id").String(),
		Name:   data.Get("zone_name").String(),
		AreaID: areaID,
		Type:   ZoneType(data.Get("type").Int()),
	}

	z.update(data, "")
	return z
}

func (z Zone) Identifier() string {
	return z.ID
}

func (z Zone) Resource() Resource {
	return ResourceZone
}

func (z *Zone) update(data gjson.Result, siaCode string) {
	if input := data.Get("input"); input.Exists() {
		z.Input = ZoneInput(input.Int())
	}

	if status := data.Get("status"); status.Exists() {
		z.Status = ZoneStatus(status.Int())
	}

	if siaCode != "" {
		z.LastSIACode = siaCode
	}

	z.LastUpdate = time.Now()
}
