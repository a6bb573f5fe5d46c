package exporter

import (
	"context"
	"github.com/shimmeringbee/panelbridge/state"
)

type EventExporter interface {
	MapEvent(ctx context.Context, e any) ([]any, error)
	InitialEvents(ctx context.Context) ([]any, error)
}

var _ EventExporter = (*eventExporter)(nil)

type eventExporter struct {
	panelMapper state.PanelMapper
}

func NewEventExporter(pm state.PanelMapper) EventExporter {
	return &eventExporter{panelMapper: pm}
}

func (e *eventExporter) MapEvent(_ context.Context, v any) ([]any, error) {
	switch ev := v.(type) {
	case state.AreaUpdate:
		gw, _ := e.panelMapper.SPCGateway(ev.Panel)
		return []any{areaMessage(ExportArea(ev.Panel, ev.Area, gw))}, nil

	case state.ZoneUpdate:
		messages := []any{zoneMessage(ExportZone(ev.Panel, ev.Zone))}

		// A zone changing may alter the alarm status of the owning area.
		if gw, found := e.panelMapper.SPCGateway(ev.Panel); found {
			if area, found := gw.Area(ev.Zone.AreaID); found {
				messages = append(messages, areaMessage(ExportArea(ev.Panel, area, gw)))
			}
		}

		return messages, nil

	default:
		return nil, nil
	}
}

func (e *eventExporter) InitialEvents(ctx context.Context) ([]any, error) {
	var messages []any

	panels := e.panelMapper.Panels()

	for _, name := range e.panelMapper.PanelNames() {
		panelType := panels[name]

		gw, _ := e.panelMapper.SPCGateway(name)

		messages = append(messages, PanelUpdateMessage{
			Message:       Message{Type: PanelUpdateMessageName},
			ExportedPanel: ExportPanel(name, panelType, gw),
		})

		if gw == nil {
			continue
		}

		for _, area := range SortedAreas(gw.Areas()) {
			messages = append(messages, areaMessage(ExportArea(name, area, gw)))
		}

		for _, zone := range SortedZones(gw.Zones()) {
			messages = append(messages, zoneMessage(ExportZone(name, zone)))
		}
	}

	return messages, nil
}

func areaMessage(ea ExportedArea) AreaUpdateMessage {
	return AreaUpdateMessage{
		Message:      Message{Type: AreaUpdateMessageName},
		ExportedArea: ea,
	}
}

func zoneMessage(ez ExportedZone) ZoneUpdateMessage {
	return ZoneUpdateMessage{
		Message:      Message{Type: ZoneUpdateMessageName},
		ExportedZone: ez,
	}
}
