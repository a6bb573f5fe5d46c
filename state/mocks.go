package state

import (
	"context"
	"github.com/shimmeringbee/panelbridge/inception"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/stretchr/testify/mock"
	"github.com/tidwall/gjson"
)

var _ PanelMapper = (*MockPanelMapper)(nil)

type MockPanelMapper struct {
	mock.Mock
}

func (m *MockPanelMapper) Panels() map[string]PanelType {
	args := m.Called()
	return args.Get(0).(map[string]PanelType)
}

func (m *MockPanelMapper) PanelNames() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockPanelMapper) SPCGateway(n string) (SPCGateway, bool) {
	args := m.Called(n)

	if gw, ok := args.Get(0).(SPCGateway); ok {
		return gw, args.Bool(1)
	}

	return nil, args.Bool(1)
}

func (m *MockPanelMapper) SPCGateways() map[string]SPCGateway {
	args := m.Called()
	return args.Get(0).(map[string]SPCGateway)
}

func (m *MockPanelMapper) InceptionPanel(n string) (InceptionPanel, bool) {
	args := m.Called(n)

	if p, ok := args.Get(0).(InceptionPanel); ok {
		return p, args.Bool(1)
	}

	return nil, args.Bool(1)
}

var _ SPCGateway = (*MockSPCGateway)(nil)

type MockSPCGateway struct {
	mock.Mock
}

func (m *MockSPCGateway) Areas() map[string]spc.Area {
	args := m.Called()
	return args.Get(0).(map[string]spc.Area)
}

func (m *MockSPCGateway) Zones() map[string]spc.Zone {
	args := m.Called()
	return args.Get(0).(map[string]spc.Zone)
}

func (m *MockSPCGateway) Area(id string) (spc.Area, bool) {
	args := m.Called(id)
	return args.Get(0).(spc.Area), args.Bool(1)
}

func (m *MockSPCGateway) Zone(id string) (spc.Zone, bool) {
	args := m.Called(id)
	return args.Get(0).(spc.Zone), args.Bool(1)
}

func (m *MockSPCGateway) ZonesInArea(id string) ([]spc.Zone, error) {
	args := m.Called(id)
	return args.Get(0).([]spc.Zone), args.Error(1)
}

func (m *MockSPCGateway) AreaAlarmed(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSPCGateway) ChangeMode(ctx context.Context, id string, mode spc.AreaMode) (gjson.Result, error) {
	args := m.Called(ctx, id, mode)
	return args.Get(0).(gjson.Result), args.Error(1)
}

var _ InceptionPanel = (*MockInceptionPanel)(nil)

type MockInceptionPanel struct {
	mock.Mock
}

func (m *MockInceptionPanel) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockInceptionPanel) Get(ctx context.Context, kind inception.Kind, id string) (gjson.Result, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(gjson.Result), args.Error(1)
}

func (m *MockInceptionPanel) Control(ctx context.Context, id string, command inception.Command) (gjson.Result, error) {
	args := m.Called(ctx, id, command)
	return args.Get(0).(gjson.Result), args.Error(1)
}
