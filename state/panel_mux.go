package state

import (
	"context"
	"github.com/shimmeringbee/panelbridge/inception"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/tidwall/gjson"
	"sort"
	"sync"
)

type PanelType string

const (
	PanelTypeSPC       PanelType = "spc"
	PanelTypeInception PanelType = "inception"
)

type SPCGateway interface {
	Areas() map[string]spc.Area
	Zones() map[string]spc.Zone
	Area(string) (spc.Area, bool)
	Zone(string) (spc.Zone, bool)
	ZonesInArea(string) ([]spc.Zone, error)
	AreaAlarmed(string) (bool, error)
	ChangeMode(context.Context, string, spc.AreaMode) (gjson.Result, error)
}

type InceptionPanel interface {
	Login(context.Context) error
	Get(context.Context, inception.Kind, string) (gjson.Result, error)
	Control(context.Context, string, inception.Command) (gjson.Result, error)
}

var _ SPCGateway = (*spc.Gateway)(nil)
var _ InceptionPanel = (*inception.Client)(nil)

type PanelMapper interface {
	Panels() map[string]PanelType
	PanelNames() []string
	SPCGateway(string) (SPCGateway, bool)
	SPCGateways() map[string]SPCGateway
	InceptionPanel(string) (InceptionPanel, bool)
}

var _ PanelMapper = (*PanelMux)(nil)

type PanelMux struct {
	lock sync.RWMutex

	spcByName       map[string]SPCGateway
	inceptionByName map[string]InceptionPanel

	eventPublisher EventPublisher
}

func NewPanelMux(publisher EventPublisher) *PanelMux {
	return &PanelMux{
		spcByName:       map[string]SPCGateway{},
		inceptionByName: map[string]InceptionPanel{},
		eventPublisher:  publisher,
	}
}

func (m *PanelMux) AddSPC(n string, g SPCGateway) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.spcByName[n] = g
}

func (m *PanelMux) AddInception(n string, c InceptionPanel) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.inceptionByName[n] = c
}

// Callback produces an SPC gateway callback which republishes entity updates for the named panel onto the event bus.
func (m *PanelMux) Callback(n string) spc.Callback {
	return func(ctx context.Context, e spc.Entity) {
		switch entity := e.(type) {
		case spc.Area:
			m.eventPublisher.Publish(AreaUpdate{Panel: n, Area: entity})
		case spc.Zone:
			m.eventPublisher.Publish(ZoneUpdate{Panel: n, Zone: entity})
		}
	}
}

func (m *PanelMux) Panels() map[string]PanelType {
	m.lock.RLock()
	defer m.lock.RUnlock()

	result := make(map[string]PanelType, len(m.spcByName)+len(m.inceptionByName))
	for k := range m.spcByName {
		result[k] = PanelTypeSPC
	}
	for k := range m.inceptionByName {
		result[k] = PanelTypeInception
	}
	return result
}

func (m *PanelMux) PanelNames() []string {
	panels := m.Panels()

	names := make([]string, 0, len(panels))
	for k := range panels {
		names = append(names, k)
	}

	sort.Strings(names)
	return names
}

func (m *PanelMux) SPCGateway(n string) (SPCGateway, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	g, found := m.spcByName[n]
	return g, found
}

func (m *PanelMux) SPCGateways() map[string]SPCGateway {
	m.lock.RLock()
	defer m.lock.RUnlock()

	result := make(map[string]SPCGateway, len(m.spcByName))
	for k, v := range m.spcByName {
		result[k] = v
	}
	return result
}

func (m *PanelMux) InceptionPanel(n string) (InceptionPanel, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	c, found := m.inceptionByName[n]
	return c, found
}
