package exporter

import (
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/shimmeringbee/panelbridge/state"
	"sort"
)

type ExportedPanel struct {
	Identifier string
	PanelType  string
	Areas      []string `json:",omitempty"`
}

type ExportedArea struct {
	Panel         string
	Identifier    string
	Name          string
	Mode          string
	LastChangedBy string
	VerifiedAlarm bool
	Alarmed       bool
	Zones         []string
	LastUpdate
}

type ExportedZone struct {
	Panel       string
	Identifier  string
	Name        string
	Area        string
	Input       string
	Status      string
	ZoneType    string
	LastSIACode string `json:",omitempty"`
	LastUpdate
}

func ExportPanel(name string, panelType state.PanelType, gw state.SPCGateway) ExportedPanel {
	ep := ExportedPanel{
		Identifier: name,
		PanelType:  string(panelType),
	}

	if gw != nil {
		for id := range gw.Areas() {
			ep.Areas = append(ep.Areas, id)
		}
		sort.Strings(ep.Areas)
	}

	return ep
}

// ExportArea converts an area, the alarmed flag is derived from the zones of the area held by the gateway.
func ExportArea(panel string, a spc.Area, gw state.SPCGateway) ExportedArea {
	zones := append([]string{}, a.ZoneIDs...)
	sort.Strings(zones)

	ea := ExportedArea{
		Panel:         panel,
		Identifier:    a.ID,
		Name:          a.Name,
		Mode:          a.Mode.String(),
		LastChangedBy: a.LastChangedBy,
		VerifiedAlarm: a.VerifiedAlarm,
		Zones:         zones,
	}

	if gw != nil {
		ea.Alarmed, _ = gw.AreaAlarmed(a.ID)
	}

	if !a.LastUpdate.IsZero() {
		ea.SetUpdateTime(a.LastUpdate)
	}

	return ea
}

func ExportZone(panel string, z spc.Zone) ExportedZone {
	ez := ExportedZone{
		Panel:       panel,
		Identifier:  z.ID,
		Name:        z.Name,
		Area:        z.AreaID,
		Input:       z.Input.String(),
		Status:      z.Status.String(),
		ZoneType:    z.Type.String(),
		LastSIACode: z.LastSIACode,
	}

	if !z.LastUpdate.IsZero() {
		ez.SetUpdateTime(z.LastUpdate)
	}

	return ez
}

func SortedAreas(areas map[string]spc.Area) []spc.Area {
	sorted := make([]spc.Area, 0, len(areas))
	for _, a := range areas {
		sorted = append(sorted, a)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}

func SortedZones(zones map[string]spc.Zone) []spc.Zone {
	sorted := make([]spc.Zone, 0, len(zones))
	for _, z := range zones {
		sorted = append(sorted, z)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}
