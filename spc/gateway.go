package spc

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Callback is invoked with a snapshot of an entity after it has been updated by an event. Callbacks run on their
// own goroutine, there is no ordering guarantee between overlapping invocations.
type Callback func(ctx context.Context, e Entity)

type Config struct {
	APIURL         string
	WebsocketURL   string
	RequestTimeout int

	// ArrayWrappedResources lists resource kinds returned as a single element array when fetched by id.
	ArrayWrappedResources []Resource
	Reconnect             ReconnectConfig
}

type Gateway struct {
	fetcher      *Fetcher
	websocketURL string
	subscriber   SubscriberFactory
	callback     Callback

	lock  sync.RWMutex
	areas map[string]*Area
	zones map[string]*Zone

	startLock sync.Mutex
	ws        Subscriber
	cancel    context.CancelFunc
	callbacks sync.WaitGroup

	logger  logwrap.Logger
	metrics *Metrics
}

type Option func(*Gateway)

func WithHTTPClient(d Doer) Option {
	return func(g *Gateway) {
		g.fetcher.client = d
	}
}

func WithSubscriberFactory(f SubscriberFactory) Option {
	return func(g *Gateway) {
		g.subscriber = f
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
		g.fetcher.metrics = m
	}
}

func New(cfg Config, callback Callback, opts ...Option) (*Gateway, error) {
	apiURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse spc api url: %w", err)
	}

	arrayWrapped := cfg.ArrayWrappedResources
	if arrayWrapped == nil {
		arrayWrapped = []Resource{ResourceArea}
	}

	g := &Gateway{
		fetcher:      NewFetcher(nil, apiURL, secondsOrDefault(cfg.RequestTimeout), arrayWrapped),
		websocketURL: cfg.WebsocketURL,
		callback:     callback,
		areas:        map[string]*Area{},
		zones:        map[string]*Zone{},
		logger:       logwrap.New(discard.Discard()),
	}

	g.subscriber = func(url string, handler MessageHandler) Subscriber {
		c := NewWebsocketClient(url, handler, cfg.Reconnect)
		c.WithLogWrapLogger(g.logger)
		c.metrics = g.metrics
		return c
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func secondsOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultRequestTimeout
	}

	return time.Duration(seconds) * time.Second
}

func (g *Gateway) WithLogWrapLogger(l logwrap.Logger) {
	g.logger = l
	g.fetcher.logger = l
}

// LoadParameters fetches the full area and zone topology, replacing any previously loaded entities. If either
// collection cannot be fetched no entities are created and ErrTopologyUnavailable is returned.
func (g *Gateway) LoadParameters(ctx context.Context) error {
	var areaData, zoneData []gjson.Result
	var areasOk, zonesOk bool

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		zoneData, zonesOk = g.fetcher.Collection(egCtx, ResourceZone)
		return nil
	})

	eg.Go(func() error {
		areaData, areasOk = g.fetcher.Collection(egCtx, ResourceArea)
		return nil
	})

	_ = eg.Wait()

	if !zonesOk || !areasOk {
		return fmt.Errorf("%w: areas fetched=%v zones fetched=%v", ErrTopologyUnavailable, areasOk, zonesOk)
	}

	areas := make(map[string]*Area, len(areaData))
	zones := make(map[string]*Zone, len(zoneData))

	for _, spcArea := range areaData {
		area := newArea(spcArea)

		for _, spcZone := range zoneData {
			if spcZone.Get("area").String() != area.ID {
				continue
			}

			zone := newZone(area.ID, spcZone)
			area.ZoneIDs = append(area.ZoneIDs, zone.ID)
			zones[zone.ID] = zone
		}

		areas[area.ID] = area
	}

	for _, spcZone := range zoneData {
		if _, found := areas[spcZone.Get("area").String()]; !found {
			g.logger.LogWarn(ctx, "Zone references an area which does not exist, ignoring.", logwrap.Datum("zone", spcZone.Get("id").String()), logwrap.Datum("area", spcZone.Get("area").String()))
		}
	}

	g.lock.Lock()
	g.areas = areas
	g.zones = zones
	g.lock.Unlock()

	g.logger.LogInfo(ctx, "Loaded SPC topology.", logwrap.Datum("areas", len(areas)), logwrap.Datum("zones", len(zones)))

	return nil
}

// Start connects to the event stream, it may only succeed once per gateway.
func (g *Gateway) Start(ctx context.Context) error {
	g.startLock.Lock()
	defer g.startLock.Unlock()

	if g.ws != nil {
		return ErrAlreadyStarted
	}

	wsCtx, cancel := context.WithCancel(ctx)
	ws := g.subscriber(g.websocketURL, g.handleMessage)

	if err := ws.Start(wsCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start spc event stream: %w", err)
	}

	g.cancel = cancel
	g.ws = ws

	return nil
}

// Stop disconnects the event stream and waits for in flight callbacks to complete.
func (g *Gateway) Stop() {
	g.startLock.Lock()
	ws := g.ws
	if g.cancel != nil {
		g.cancel()
	}
	g.startLock.Unlock()

	if ws != nil {
		ws.Stop()
	}

	g.callbacks.Wait()
}

func (g *Gateway) handleMessage(ctx context.Context, payload []byte) {
	sia := gjson.GetBytes(payload, "data.sia")
	spcID := sia.Get("sia_address").String()
	siaCode := sia.Get("sia_code").String()

	g.logger.LogDebug(ctx, "SIA event received.", logwrap.Datum("code", siaCode), logwrap.Datum("id", spcID))

	var resource Resource

	switch {
	case AreaSupportedSIACodes.Contains(siaCode):
		resource = ResourceArea
	case ZoneSupportedSIACodes.Contains(siaCode):
		resource = ResourceZone
	default:
		g.logger.LogDebug(ctx, "Not interested in SIA code.", logwrap.Datum("code", siaCode))
		g.metrics.eventDiscarded("unsupported_code")
		return
	}

	if !g.known(resource, spcID) {
		g.logger.LogError(ctx, "Received message for unregistered ID.", logwrap.Datum("resource", string(resource)), logwrap.Datum("id", spcID))
		g.metrics.eventDiscarded("unknown_id")
		return
	}

	data, ok := g.fetcher.Resource(ctx, resource, spcID)
	if !ok {
		g.logger.LogError(ctx, "Failed to refresh entity after SIA event.", logwrap.Datum("resource", string(resource)), logwrap.Datum("id", spcID))
		g.metrics.eventDiscarded("fetch_failed")
		return
	}

	entity := g.apply(resource, spcID, data, siaCode)
	if entity == nil {
		return
	}

	g.metrics.eventReceived(resource)
	g.dispatch(ctx, entity)
}

func (g *Gateway) known(resource Resource, id string) bool {
	g.lock.RLock()
	defer g.lock.RUnlock()

	switch resource {
	case ResourceArea:
		_, found := g.areas[id]
		return found
	case ResourceZone:
		_, found := g.zones[id]
		return found
	default:
		return false
	}
}

func (g *Gateway) apply(resource Resource, id string, data gjson.Result, siaCode string) Entity {
	g.lock.Lock()
	defer g.lock.Unlock()

	switch resource {
	case ResourceArea:
		if a, found := g.areas[id]; found {
			a.update(data, siaCode)
			return a.clone()
		}
	case ResourceZone:
		if z, found := g.zones[id]; found {
			z.update(data, siaCode)
			return *z
		}
	}

	return nil
}

func (g *Gateway) dispatch(ctx context.Context, e Entity) {
	if g.callback == nil {
		return
	}

	g.callbacks.Add(1)

	go func() {
		defer g.callbacks.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.LogError(ctx, "Consumer callback panicked.", logwrap.Datum("id", e.Identifier()), logwrap.Datum("panic", fmt.Sprintf("%v", r)))
			}
		}()

		g.callback(ctx, e)
	}()
}

// ChangeMode requests the SPC Web Gateway move an area into a new mode. The mode is validated before any request
// is made.
func (g *Gateway) ChangeMode(ctx context.Context, areaID string, mode AreaMode) (gjson.Result, error) {
	command, err := mode.Command()
	if err != nil {
		return gjson.Result{}, err
	}

	target := g.fetcher.resolve(fmt.Sprintf("spc/area/%s/%s", areaID, command))

	result, ok := g.fetcher.Request(ctx, http.MethodPut, target)
	if !ok {
		return gjson.Result{}, fmt.Errorf("%w: change mode of area %s to %s", ErrRequestFailed, areaID, mode)
	}

	g.logger.LogInfo(ctx, "Requested area mode change.", logwrap.Datum("area", areaID), logwrap.Datum("mode", mode.String()))

	return result, nil
}

func (g *Gateway) Areas() map[string]Area {
	g.lock.RLock()
	defer g.lock.RUnlock()

	result := make(map[string]Area, len(g.areas))
	for k, v := range g.areas {
		result[k] = v.clone()
	}
	return result
}

func (g *Gateway) Zones() map[string]Zone {
	g.lock.RLock()
	defer g.lock.RUnlock()

	result := make(map[string]Zone, len(g.zones))
	for k, v := range g.zones {
		result[k] = *v
	}
	return result
}

func (g *Gateway) Area(id string) (Area, bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	if a, found := g.areas[id]; found {
		return a.clone(), true
	}

	return Area{}, false
}

func (g *Gateway) Zone(id string) (Zone, bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	if z, found := g.zones[id]; found {
		return *z, true
	}

	return Zone{}, false
}

// ZonesInArea returns the zones belonging to an area, ordered by identifier.
func (g *Gateway) ZonesInArea(id string) ([]Zone, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	a, found := g.areas[id]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArea, id)
	}

	zones := make([]Zone, 0, len(a.ZoneIDs))
	for _, zid := range a.ZoneIDs {
		if z, found := g.zones[zid]; found {
			zones = append(zones, *z)
		}
	}

	sort.Slice(zones, func(i, j int) bool {
		return zones[i].ID < zones[j].ID
	})

	return zones, nil
}

// AreaAlarmed reports if any zone within the area is currently in alarm.
func (g *Gateway) AreaAlarmed(id string) (bool, error) {
	zones, err := g.ZonesInArea(id)
	if err != nil {
		return false, err
	}

	for _, z := range zones {
		if z.Status == ZoneStatusAlarm {
			return true, nil
		}
	}

	return false, nil
}
