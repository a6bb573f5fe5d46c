package main

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/nest"
	"github.com/shimmeringbee/panelbridge/config"
	"github.com/shimmeringbee/panelbridge/inception"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/shimmeringbee/panelbridge/state"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

const DefaultPanelStartTimeout = 1 * time.Minute

type StartedPanel struct {
	Name     string
	Type     state.PanelType
	Shutdown func()
}

func loadPanelConfigurations(dir string) ([]*config.PanelConfig, error) {
	return loadConfigurations(dir, "panel", func(name string) *config.PanelConfig {
		return &config.PanelConfig{Name: name}
	})
}

// startPanels brings up every configured panel concurrently, a failure of any panel stops all that did start.
func startPanels(ctx context.Context, cfgs []*config.PanelConfig, mux *state.PanelMux, registerer prometheus.Registerer, l logwrap.Logger) ([]StartedPanel, error) {
	var lock sync.Mutex
	var started []StartedPanel

	eg, egCtx := errgroup.WithContext(ctx)

	for _, cfg := range cfgs {
		cfg := cfg

		eg.Go(func() error {
			sp, err := startPanel(egCtx, cfg, mux, registerer, l)
			if err != nil {
				return fmt.Errorf("failed to start panel '%s': %w", cfg.Name, err)
			}

			lock.Lock()
			started = append(started, sp)
			lock.Unlock()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		for _, sp := range started {
			sp.Shutdown()
		}

		return nil, err
	}

	return started, nil
}

func startPanel(ctx context.Context, cfg *config.PanelConfig, mux *state.PanelMux, registerer prometheus.Registerer, l logwrap.Logger) (StartedPanel, error) {
	wl := logwrap.New(nest.Wrap(l))
	wl.AddOptionsToLogger(logwrap.Datum("panel", cfg.Name))

	switch pCfg := cfg.Config.(type) {
	case *config.SPCConfig:
		wl.AddOptionsToLogger(logwrap.Source("spc"))
		return startSPCPanel(ctx, cfg.Name, *pCfg, mux, registerer, wl)
	case *config.InceptionConfig:
		wl.AddOptionsToLogger(logwrap.Source("inception"))
		return startInceptionPanel(ctx, cfg.Name, *pCfg, mux, wl)
	default:
		return StartedPanel{}, fmt.Errorf("unknown panel type loaded: %s", cfg.Type)
	}
}

func spcGatewayConfig(cfg config.SPCConfig) spc.Config {
	gwCfg := spc.Config{
		APIURL:                cfg.APIURL,
		WebsocketURL:          cfg.WebsocketURL,
		RequestTimeout:        cfg.RequestTimeout,
		ArrayWrappedResources: cfg.ArrayWrappedResources,
		Reconnect:             spc.DefaultReconnectConfig(),
	}

	if r := cfg.Reconnect; r != nil {
		if r.InitialInterval > 0 {
			gwCfg.Reconnect.InitialInterval = time.Duration(r.InitialInterval * float64(time.Second))
		}

		if r.MaxInterval > 0 {
			gwCfg.Reconnect.MaxInterval = time.Duration(r.MaxInterval * float64(time.Second))
		}

		if r.Multiplier >= 1 {
			gwCfg.Reconnect.Multiplier = r.Multiplier
		}
	}

	return gwCfg
}

func startSPCPanel(ctx context.Context, name string, cfg config.SPCConfig, mux *state.PanelMux, registerer prometheus.Registerer, l logwrap.Logger) (StartedPanel, error) {
	metrics, err := spc.NewMetrics(registerer, name)
	if err != nil {
		return StartedPanel{}, fmt.Errorf("failed to register metrics: %w", err)
	}

	gw, err := spc.New(spcGatewayConfig(cfg), mux.Callback(name), spc.WithMetrics(metrics))
	if err != nil {
		return StartedPanel{}, fmt.Errorf("failed to construct spc gateway: %w", err)
	}

	gw.WithLogWrapLogger(l)

	loadCtx, cancel := context.WithTimeout(ctx, DefaultPanelStartTimeout)
	defer cancel()

	l.LogInfo(loadCtx, "Loading areas and zones from SPC web gateway.", logwrap.Datum("url", cfg.APIURL))

	if err := gw.LoadParameters(loadCtx); err != nil {
		return StartedPanel{}, err
	}

	if err := gw.Start(context.Background()); err != nil {
		return StartedPanel{}, err
	}

	mux.AddSPC(name, gw)

	return StartedPanel{
		Name:     name,
		Type:     state.PanelTypeSPC,
		Shutdown: gw.Stop,
	}, nil
}

// startInceptionPanel registers the panel even if the first login fails, later requests log in again on demand.
func startInceptionPanel(ctx context.Context, name string, cfg config.InceptionConfig, mux *state.PanelMux, l logwrap.Logger) (StartedPanel, error) {
	c, err := inception.New(inception.Config{
		Host:           cfg.Host,
		Username:       cfg.Username,
		Password:       cfg.Password,
		PIN:            cfg.PIN,
		RequestTimeout: cfg.RequestTimeout,
	}, nil)
	if err != nil {
		return StartedPanel{}, fmt.Errorf("failed to construct inception client: %w", err)
	}

	c.WithLogWrapLogger(l)

	loginCtx, cancel := context.WithTimeout(ctx, DefaultPanelStartTimeout)
	defer cancel()

	if err := c.Login(loginCtx); err != nil {
		l.LogWarn(loginCtx, "Initial login to inception panel failed, will retry on first request.", logwrap.Err(err))
	}

	mux.AddInception(name, c)

	return StartedPanel{
		Name:     name,
		Type:     state.PanelTypeInception,
		Shutdown: func() {},
	}, nil
}
