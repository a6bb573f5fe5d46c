package config

import (
	"encoding/json"
	"fmt"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/tidwall/gjson"
)

type PanelConfig struct {
	Name   string `json:"-"`
	Type   string
	Config any
}

func (p *PanelConfig) UnmarshalJSON(data []byte) error {
	if result := gjson.GetBytes(data, "Type"); !result.Exists() {
		return fmt.Errorf("failed to find panel type information")
	} else {
		p.Type = result.String()
	}

	switch p.Type {
	case "spc":
		p.Config = &SPCConfig{}
	case "inception":
		p.Config = &InceptionConfig{}
	default:
		return fmt.Errorf("unknown panel configuration type: %s", p.Type)
	}

	if result := gjson.GetBytes(data, "Config"); result.Exists() {
		return json.Unmarshal([]byte(result.Raw), p.Config)
	} else {
		return fmt.Errorf("unable to find Config stanza: %s", p.Type)
	}
}

type SPCConfig struct {
	APIURL         string
	WebsocketURL   string
	RequestTimeout int

	ArrayWrappedResources []spc.Resource
	Reconnect             *ReconnectConfig
}

// ReconnectConfig intervals are in seconds.
type ReconnectConfig struct {
	InitialInterval float64
	MaxInterval     float64
	Multiplier      float64
}

type InceptionConfig struct {
	Host           string
	Username       string
	Password       string
	PIN            string
	RequestTimeout int
}
