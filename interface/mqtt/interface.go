package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/panelbridge/interface/converters/exporter"
	"github.com/shimmeringbee/panelbridge/state"
	"github.com/tidwall/gjson"
	"strings"
	"time"
)

type Publisher func(ctx context.Context, topic string, payload []byte) error

type AreaModeChanger func(ctx context.Context, pm state.PanelMapper, panel string, areaID string, modeName string) (gjson.Result, error)
type InceptionCommander func(ctx context.Context, pm state.PanelMapper, panel string, kind string, id string, command string) (gjson.Result, error)

type mqttError string

func (m mqttError) Error() string {
	return string(m)
}

const UnknownTopic = mqttError("unknown topic")
const UnknownPanel = mqttError("unknown panel")
const UnsupportedAction = mqttError("action not supported on interface")

type Interface struct {
	Publisher Publisher
	stop      chan bool

	PanelMapper        state.PanelMapper
	EventSubscriber    state.EventSubscriber
	AreaModeChanger    AreaModeChanger
	InceptionCommander InceptionCommander

	Logger logwrap.Logger

	PublishStateOnConnect  bool
	PublishAggregatedState bool
	PublishIndividualState bool
}

func (i *Interface) IncomingMessage(ctx context.Context, topic string, payload []byte) error {
	topicParts := strings.Split(topic, "/")

	if len(topicParts) > 0 {
		switch topicParts[0] {
		case "panels":
			return i.IncomingMessagePanels(ctx, topicParts[1:], payload)
		case "inception":
			return i.IncomingMessageInception(ctx, topicParts[1:], payload)
		}
	}

	return fmt.Errorf("%w: %s", UnknownTopic, topic)
}

// IncomingMessagePanels handles panels/<panel>/areas/<id>/mode/set, the payload is the mode name.
func (i *Interface) IncomingMessagePanels(ctx context.Context, topic []string, payload []byte) error {
	if len(topic) == 0 {
		return fmt.Errorf("%w: %s", UnknownTopic, topic)
	}

	if _, found := i.PanelMapper.Panels()[topic[0]]; !found {
		return fmt.Errorf("%w: %s", UnknownPanel, topic[0])
	}

	if len(topic) == 5 && topic[1] == "areas" && topic[3] == "mode" && topic[4] == "set" {
		if i.AreaModeChanger == nil {
			return UnsupportedAction
		}

		mode := strings.TrimSpace(string(payload))

		if _, err := i.AreaModeChanger(ctx, i.PanelMapper, topic[0], topic[2], mode); err != nil {
			return fmt.Errorf("unable to change mode of area: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%w: %s", UnknownTopic, topic)
}

// IncomingMessageInception handles inception/<panel>/<kind>/<id>/<command>/invoke.
func (i *Interface) IncomingMessageInception(ctx context.Context, topic []string, _ []byte) error {
	if len(topic) == 5 && topic[4] == "invoke" {
		if i.InceptionCommander == nil {
			return UnsupportedAction
		}

		if _, err := i.InceptionCommander(ctx, i.PanelMapper, topic[0], topic[1], topic[2], topic[3]); err != nil {
			return fmt.Errorf("unable to invoke command on inception entity: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%w: %s", UnknownTopic, topic)
}

func EmptyPublisher(ctx context.Context, topic string, payload []byte) error {
	return nil
}

func (i *Interface) Connected(ctx context.Context, publisher Publisher) error {
	i.Publisher = publisher

	if i.PublishStateOnConnect {
		i.Logger.LogInfo(ctx, "MQTT connected, publishing current state of all areas and zones.")
		go i.publishAll()
	}

	return nil
}

func (i *Interface) publishAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, gw := range i.PanelMapper.SPCGateways() {
		panelCtx := i.Logger.AddOptionsToContext(ctx, logwrap.Datum("panel", name))

		for _, area := range exporter.SortedAreas(gw.Areas()) {
			i.publishArea(panelCtx, exporter.ExportArea(name, area, gw))
		}

		for _, zone := range exporter.SortedZones(gw.Zones()) {
			i.publishZone(panelCtx, exporter.ExportZone(name, zone))
		}
	}
}

func (i *Interface) publishArea(ctx context.Context, ea exporter.ExportedArea) {
	topic := fmt.Sprintf("panels/%s/areas/%s", ea.Panel, ea.Identifier)

	if i.PublishAggregatedState {
		if err := i.publishAggregated(ctx, topic, ea); err != nil {
			i.Logger.LogError(ctx, "Failed to publish aggregated state of area.", logwrap.Datum("area", ea.Identifier), logwrap.Err(err))
		}
	}

	if i.PublishIndividualState {
		if err := i.publishIndividual(ctx, topic, areaFields(ea)); err != nil {
			i.Logger.LogError(ctx, "Failed to publish individual state of area.", logwrap.Datum("area", ea.Identifier), logwrap.Err(err))
		}
	}
}

func (i *Interface) publishZone(ctx context.Context, ez exporter.ExportedZone) {
	topic := fmt.Sprintf("panels/%s/zones/%s", ez.Panel, ez.Identifier)

	if i.PublishAggregatedState {
		if err := i.publishAggregated(ctx, topic, ez); err != nil {
			i.Logger.LogError(ctx, "Failed to publish aggregated state of zone.", logwrap.Datum("zone", ez.Identifier), logwrap.Err(err))
		}
	}

	if i.PublishIndividualState {
		if err := i.publishIndividual(ctx, topic, zoneFields(ez)); err != nil {
			i.Logger.LogError(ctx, "Failed to publish individual state of zone.", logwrap.Datum("zone", ez.Identifier), logwrap.Err(err))
		}
	}
}

type field struct {
	name  string
	value []byte
}

func areaFields(ea exporter.ExportedArea) []field {
	return []field{
		{name: "Name", value: fmtString(ea.Name)},
		{name: "Mode", value: fmtString(ea.Mode)},
		{name: "LastChangedBy", value: fmtString(ea.LastChangedBy)},
		{name: "VerifiedAlarm", value: fmtBool(ea.VerifiedAlarm)},
		{name: "Alarmed", value: fmtBool(ea.Alarmed)},
	}
}

func zoneFields(ez exporter.ExportedZone) []field {
	return []field{
		{name: "Name", value: fmtString(ez.Name)},
		{name: "Area", value: fmtString(ez.Area)},
		{name: "Input", value: fmtString(ez.Input)},
		{name: "Status", value: fmtString(ez.Status)},
		{name: "LastSIACode", value: fmtString(ez.LastSIACode)},
	}
}

func (i *Interface) publishAggregated(ctx context.Context, topic string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err = i.Publisher(ctx, topic, payload); err != nil {
		return fmt.Errorf("failed to publish data to mqtt: %w", err)
	}

	return nil
}

func (i *Interface) publishIndividual(ctx context.Context, topic string, fields []field) error {
	for _, f := range fields {
		if err := i.Publisher(ctx, fmt.Sprintf("%s/%s", topic, f.name), f.value); err != nil {
			return fmt.Errorf("failed to publish data to mqtt: %w", err)
		}
	}

	return nil
}

func (i *Interface) Disconnected() {
	i.Publisher = EmptyPublisher
}

func (i *Interface) Start() {
	i.stop = make(chan bool, 1)

	ch := make(chan any, 100)
	i.EventSubscriber.Subscribe(ch)

	go i.handleEvents(ch)
}

func (i *Interface) Stop() {
	if i.stop != nil {
		i.stop <- true
	}
}

func (i *Interface) handleEvents(ch chan any) {
	defer i.EventSubscriber.Unsubscribe(ch)

	for {
		select {
		case event := <-ch:
			i.serviceUpdateOnEvent(event)
		case <-i.stop:
			return
		}
	}
}

const MaximumServiceUpdateTime = 1 * time.Second

func (i *Interface) serviceUpdateOnEvent(e any) {
	ctx, cancel := context.WithTimeout(context.Background(), MaximumServiceUpdateTime)
	defer cancel()

	switch event := e.(type) {
	case state.AreaUpdate:
		gw, _ := i.PanelMapper.SPCGateway(event.Panel)
		i.publishArea(ctx, exporter.ExportArea(event.Panel, event.Area, gw))
	case state.ZoneUpdate:
		i.publishZone(ctx, exporter.ExportZone(event.Panel, event.Zone))

		gw, found := i.PanelMapper.SPCGateway(event.Panel)
		if !found {
			return
		}

		if area, found := gw.Area(event.Zone.AreaID); found {
			i.publishArea(ctx, exporter.ExportArea(event.Panel, area, gw))
		}
	}
}

func fmtString(s string) []byte {
	if len(s) == 0 {
		return []byte("null")
	}

	return []byte(s)
}

func fmtBool(b bool) []byte {
	return []byte(fmt.Sprintf("%v", b))
}
