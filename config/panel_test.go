package config

import (
	"encoding/json"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParsePanel(t *testing.T) {
	t.Run("errors if json is invalid", func(t *testing.T) {
		data := []byte(`"`)
		p := PanelConfig{}

		err := json.Unmarshal(data, &p)
		assert.Error(t, err)
	})

	t.Run("errors if type is unknown", func(t *testing.T) {
		data := []byte(`{"Type":"unknown"}`)
		p := PanelConfig{}

		err := json.Unmarshal(data, &p)
		assert.Error(t, err)
	})

	t.Run("errors if the config stanza is missing", func(t *testing.T) {
		data := []byte(`{"Type":"spc"}`)
		p := PanelConfig{}

		err := json.Unmarshal(data, &p)
		assert.Error(t, err)
	})

	t.Run("spc panel", func(t *testing.T) {
		t.Run("parses successfully", func(t *testing.T) {
			data := []byte(`{
  "Type": "spc",
  "Config": {
    "APIURL": "http://192.168.1.20:8088/",
    "WebsocketURL": "ws://192.168.1.20:8088/ws/spc",
    "RequestTimeout": 5,
    "ArrayWrappedResources": ["area"],
    "Reconnect": {
      "InitialInterval": 0.5,
      "MaxInterval": 30,
      "Multiplier": 1.5
    }
  }
}`)
			p := PanelConfig{}

			err := json.Unmarshal(data, &p)
			require.NoError(t, err)

			spcCfg, ok := p.Config.(*SPCConfig)
			require.True(t, ok)

			assert.Equal(t, "http://192.168.1.20:8088/", spcCfg.APIURL)
			assert.Equal(t, "ws://192.168.1.20:8088/ws/spc", spcCfg.WebsocketURL)
			assert.Equal(t, 5, spcCfg.RequestTimeout)
			assert.Equal(t, []spc.Resource{spc.ResourceArea}, spcCfg.ArrayWrappedResources)
			require.NotNil(t, spcCfg.Reconnect)
			assert.Equal(t, 0.5, spcCfg.Reconnect.InitialInterval)
			assert.Equal(t, 30.0, spcCfg.Reconnect.MaxInterval)
		})
	})

	t.Run("inception panel", func(t *testing.T) {
		t.Run("parses successfully", func(t *testing.T) {
			data := []byte(`{"Type":"inception","Config":{"Host":"10.0.0.4","Username":"installer","Password":"secret","PIN":"1234"}}`)
			p := PanelConfig{}

			err := json.Unmarshal(data, &p)
			require.NoError(t, err)

			incCfg, ok := p.Config.(*InceptionConfig)
			require.True(t, ok)

			assert.Equal(t, "10.0.0.4", incCfg.Host)
			assert.Equal(t, "installer", incCfg.Username)
			assert.Equal(t, "1234", incCfg.PIN)
		})
	})
}
