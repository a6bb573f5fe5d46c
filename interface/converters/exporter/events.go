package exporter

import (
	"encoding/json"
	"time"
)

const (
	HeartBeatMessageName = "HeartBeat"

	PanelUpdateMessageName = "PanelUpdate"
	AreaUpdateMessageName  = "AreaUpdate"
	ZoneUpdateMessageName  = "ZoneUpdate"
)

type Message struct {
	Type string
}

func (m Message) MessageType() string {
	return m.Type
}

type Typer interface {
	MessageType() string
}

type HeartBeatMessage struct {
	Message
}

type PanelUpdateMessage struct {
	Message
	ExportedPanel
}

type AreaUpdateMessage struct {
	Message
	ExportedArea
}

type ZoneUpdateMessage struct {
	Message
	ExportedZone
}

type NullableTime time.Time

func (n NullableTime) MarshalJSON() ([]byte, error) {
	under := time.Time(n)

	if under.IsZero() {
		return []byte("null"), nil
	} else {
		return json.Marshal(under)
	}
}

type LastUpdate struct {
	LastUpdate *NullableTime `json:",omitempty"`
}

func (lut *LastUpdate) SetUpdateTime(t time.Time) {
	nullableTime := NullableTime(t)
	lut.LastUpdate = &nullableTime
}
