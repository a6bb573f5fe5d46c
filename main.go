package main

import (
	"context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	lw "github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/panelbridge/state"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx := context.Background()
	l := lw.New(golog.Wrap(log.New(os.Stderr, "", log.LstdFlags)))

	l.LogInfo(ctx, "Shimmering Bee: Panel Bridge - Copyright 2019-2024 Shimmering Bee Contributors - Starting...")

	directories := enumerateDirectories(ctx, l)

	l.LogInfo(ctx, "Directory enumeration complete.", lw.Datum("directories", directories))

	l, err := configureLogging(directories.Logging(), directories.Log, l)
	if err != nil {
		l.LogFatal(ctx, "Failed to configure logging.", lw.Err(err))
	}

	panelCfgs, err := loadPanelConfigurations(directories.Panels())
	if err != nil {
		l.LogFatal(ctx, "Failed to load panel configurations.", lw.Err(err))
	}

	interfaceCfgs, err := loadInterfaceConfigurations(directories.Interfaces())
	if err != nil {
		l.LogFatal(ctx, "Failed to load interface configurations.", lw.Err(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	droppedEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "panelbridge",
		Subsystem: "eventbus",
		Name:      "dropped_events_total",
		Help:      "Events not delivered to a subscriber because its channel was full.",
	})
	registry.MustRegister(droppedEvents)

	eventBus := state.NewEventBus()
	eventBus.WithDroppedCounter(droppedEvents)

	panelMux := state.NewPanelMux(eventBus)

	l.LogInfo(ctx, "Loaded panel configurations.", lw.Datum("configCount", len(panelCfgs)))
	l.LogInfo(ctx, "Starting panels.")
	startedPanels, err := startPanels(ctx, panelCfgs, panelMux, registry, l)
	if err != nil {
		l.LogFatal(ctx, "Failed to start panels.", lw.Err(err))
	}

	l.LogInfo(ctx, "Starting interfaces.")
	startedInterfaces, err := startInterfaces(interfaceCfgs, interfaceDependencies{
		panels:   panelMux,
		eventbus: eventBus,
		gatherer: registry,
	}, l)
	if err != nil {
		l.LogFatal(ctx, "Failed to start interfaces.", lw.Err(err))
	}

	l.LogInfo(ctx, "Panel bridge ready.", lw.Datum("panels", panelMux.PanelNames()))

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	s := <-signalCh
	l.LogInfo(ctx, "Signal received, shutting down.", lw.Datum("signal", s.String()))

	for _, intf := range startedInterfaces {
		l.LogInfo(ctx, "Shutting down interface.", lw.Datum("interface", intf.Name))

		if err := intf.Shutdown(); err != nil {
			l.LogError(ctx, "Failed to shutdown interface.", lw.Err(err), lw.Datum("interface", intf.Name))
		}
	}

	for _, p := range startedPanels {
		l.LogInfo(ctx, "Shutting down panel.", lw.Datum("panel", p.Name), lw.Datum("type", p.Type))
		p.Shutdown()
	}

	l.LogInfo(ctx, "Shut down complete.")
}
