package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	gorillamux "github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/nest"
	"github.com/shimmeringbee/panelbridge/config"
	"github.com/shimmeringbee/panelbridge/interface/converters/invoker"
	"github.com/shimmeringbee/panelbridge/interface/http/auth"
	"github.com/shimmeringbee/panelbridge/interface/http/auth/external"
	"github.com/shimmeringbee/panelbridge/interface/http/auth/jwt"
	"github.com/shimmeringbee/panelbridge/interface/http/auth/null"
	"github.com/shimmeringbee/panelbridge/interface/http/pprof"
	"github.com/shimmeringbee/panelbridge/interface/http/v1"
	"github.com/shimmeringbee/panelbridge/interface/mqtt"
	"github.com/shimmeringbee/panelbridge/state"
	"net/http"
	url2 "net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

type StartedInterface struct {
	Name     string
	Shutdown func() error
}

const DefaultMQTTEventDuration = 1 * time.Second

func loadInterfaceConfigurations(dir string) ([]*config.InterfaceConfig, error) {
	return loadConfigurations(dir, "interface", func(name string) *config.InterfaceConfig {
		return &config.InterfaceConfig{Name: name}
	})
}

type interfaceDependencies struct {
	panels   state.PanelMapper
	eventbus state.EventSubscriber
	gatherer prometheus.Gatherer
}

func startInterfaces(cfgs []*config.InterfaceConfig, deps interfaceDependencies, l logwrap.Logger) ([]StartedInterface, error) {
	var retInts []StartedInterface

	for _, cfg := range cfgs {
		if shutdown, err := startInterface(cfg, deps, l); err != nil {
			for _, started := range retInts {
				_ = started.Shutdown()
			}

			return nil, fmt.Errorf("failed to start interface '%s': %w", cfg.Name, err)
		} else {
			retInts = append(retInts, StartedInterface{
				Name:     cfg.Name,
				Shutdown: shutdown,
			})
		}
	}

	return retInts, nil
}

func startInterface(cfg *config.InterfaceConfig, deps interfaceDependencies, l logwrap.Logger) (func() error, error) {
	wl := logwrap.New(nest.Wrap(l))
	wl.AddOptionsToLogger(logwrap.Datum("interface", cfg.Name))

	switch intCfg := cfg.Config.(type) {
	case *config.HTTPInterfaceConfig:
		wl.AddOptionsToLogger(logwrap.Source("http"))
		return startHTTPInterface(*intCfg, deps, wl)
	case *config.MQTTInterfaceConfig:
		wl.AddOptionsToLogger(logwrap.Source("mqtt"))
		return startMQTTInterface(*intCfg, deps, wl)
	default:
		return nil, fmt.Errorf("unknown interface type loaded: %s", cfg.Type)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func constructAuthenticationProvider(cfg *config.HTTPAuthentication) (auth.AuthenticationProvider, error) {
	if cfg == nil {
		return null.Authenticator{}, nil
	}

	switch aCfg := cfg.Config.(type) {
	case *config.NullAuthentication:
		return null.Authenticator{}, nil
	case *config.ExternalAuthentication:
		header := aCfg.UserHeader
		if len(header) == 0 {
			header = external.HttpUserHeader
		}

		return external.Authenticator{UserHeader: header}, nil
	case *config.JWTAuthentication:
		data, err := os.ReadFile(filepath.Clean(aCfg.PrivateKeyFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read jwt private key: %w", err)
		}

		key, err := jwt.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jwt private key: %w", err)
		}

		ttl := time.Duration(aCfg.TTL) * time.Second
		if ttl <= 0 {
			ttl = 1 * time.Hour
		}

		return jwt.Authenticator{
			SystemIdentifier: aCfg.SystemIdentifier,
			TTL:              ttl,
			KeyIdentifier:    aCfg.KeyIdentifier,
			PrivateKey:       key,
		}, nil
	default:
		return nil, fmt.Errorf("unknown authentication type loaded: %s", cfg.Type)
	}
}

func constructHTTPRouter(cfg config.HTTPInterfaceConfig, deps interfaceDependencies, l logwrap.Logger) (http.Handler, error) {
	ap, err := constructAuthenticationProvider(cfg.Authentication)
	if err != nil {
		return nil, err
	}

	r := gorillamux.NewRouter()

	if containsString(cfg.EnabledAPIs, "v1") {
		l.LogInfo(context.Background(), "Mounting v1 API endpoint on /api/v1.")

		v1Router := v1.ConstructRouter(deps.panels, l, ap, deps.eventbus)
		// Use http.StripPrefix to obscure the real path from the v1 api code, though this will cause issues if we
		// ever issue redirects from the API.
		r.PathPrefix("/api/v1").Handler(http.StripPrefix("/api/v1", v1Router))
	}

	if containsString(cfg.EnabledAPIs, "metrics") && deps.gatherer != nil {
		l.LogInfo(context.Background(), "Mounting prometheus metrics on /metrics.")
		r.Path("/metrics").Handler(promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{}))
	}

	if containsString(cfg.EnabledAPIs, "pprof") {
		l.LogInfo(context.Background(), "Mounting pprof endpoint on /debug/pprof.")
		r.PathPrefix("/debug/pprof").Handler(http.StripPrefix("/debug/pprof", pprof.ConstructRouter(ap)))
	}

	return r, nil
}

func startHTTPInterface(cfg config.HTTPInterfaceConfig, deps interfaceDependencies, l logwrap.Logger) (func() error, error) {
	r, err := constructHTTPRouter(cfg, deps, l)
	if err != nil {
		return nil, err
	}

	bindAddress := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: bindAddress, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.LogError(context.Background(), "Failed to start http server.", logwrap.Err(err))
		}
	}()

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(ctx)
	}, nil
}

func awaitToken(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return context.DeadlineExceeded
	}
}

func startMQTTInterface(cfg config.MQTTInterfaceConfig, deps interfaceDependencies, l logwrap.Logger) (func() error, error) {
	clientId, err := randomClientID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate random client id: %w", err)
	}

	l.LogInfo(context.Background(), "Constructing new MQTT client.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server))

	clientOptions := pahomqtt.NewClientOptions()
	clientOptions.ClientID = clientId

	if url, err := url2.Parse(cfg.Server); err != nil {
		l.LogError(context.Background(), "Failed to parse MQTT server URL.", logwrap.Err(err))
		return nil, err
	} else {
		clientOptions.Servers = []*url2.URL{url}
	}

	i := mqtt.Interface{
		PanelMapper:            deps.panels,
		EventSubscriber:        deps.eventbus,
		AreaModeChanger:        invoker.ChangeAreaMode,
		InceptionCommander:     invoker.InvokeInceptionCommand,
		Logger:                 l,
		Publisher:              mqtt.EmptyPublisher,
		PublishStateOnConnect:  cfg.PublishStateOnConnect,
		PublishIndividualState: cfg.PublishIndividualState,
		PublishAggregatedState: cfg.PublishAggregatedState,
	}

	lastWillTopic := prefixTopic(cfg.TopicPrefix, "panelbridge/online")

	clientOptions.OnConnect = func(client pahomqtt.Client) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultMQTTEventDuration)
		defer cancel()

		l.LogInfo(context.Background(), "MQTT client successfully connected.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server))

		subscribeToken := client.SubscribeMultiple(map[string]byte{
			prefixTopic(cfg.TopicPrefix, "panels/+/areas/+/mode/set"): cfg.QOS,
			prefixTopic(cfg.TopicPrefix, "inception/+/+/+/+/invoke"):  cfg.QOS,
		}, func(client pahomqtt.Client, message pahomqtt.Message) {
			ctx, cancel := context.WithTimeout(context.Background(), invoker.DefaultActionTimeout)
			defer cancel()

			if err := i.IncomingMessage(ctx, stripPrefixTopic(cfg.TopicPrefix, message.Topic()), message.Payload()); err != nil {
				l.LogError(ctx, "Failed to handle incoming message.", logwrap.Datum("topic", message.Topic()), logwrap.Err(err))
			}
		})

		if err := awaitToken(ctx, subscribeToken); err != nil {
			l.LogError(ctx, "Failed to subscribe to command topics in MQTT.", logwrap.Err(err))
		}

		client.Publish(lastWillTopic, cfg.QOS, cfg.Retained, `true`)

		if err := i.Connected(context.Background(), func(ctx context.Context, topic string, payload []byte) error {
			prefixedTopic := prefixTopic(cfg.TopicPrefix, topic)

			token := client.Publish(prefixedTopic, cfg.QOS, cfg.Retained, payload)
			if err := awaitToken(ctx, token); err != nil {
				l.LogError(ctx, "Failed to publish message to MQTT.", logwrap.Datum("topic", prefixedTopic), logwrap.Err(err))
				return err
			}

			return nil
		}); err != nil {
			l.LogError(context.Background(), "Failed to execute connection handler in MQTT interface.", logwrap.Err(err))
		}
	}

	clientOptions.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		l.LogInfo(context.Background(), "MQTT client disconnected.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server), logwrap.Err(err))
		i.Disconnected()
	})

	clientOptions.SetWill(lastWillTopic, `false`, cfg.QOS, cfg.Retained)

	if cfg.Credentials != nil {
		clientOptions.SetUsername(cfg.Credentials.Username)
		clientOptions.SetPassword(cfg.Credentials.Password)
	}

	if cfg.TLS != nil {
		tlsConfig := &tls.Config{InsecureSkipVerify: cfg.TLS.SkipCertificateVerification}

		if cfg.TLS.SkipCertificateVerification {
			l.LogWarn(context.Background(), "Set to ignore remote TLS certificate, this is considered insecure.")
		}

		if len(cfg.TLS.Cert) > 0 {
			cert, err := tls.LoadX509KeyPair(cfg.TLS.Cert, cfg.TLS.Key)
			if err != nil {
				return nil, fmt.Errorf("failed to load TLS certificate/key for mqtt: %w", err)
			}

			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		var certPool *x509.CertPool

		if cfg.TLS.IgnoreSystemRootCertificates {
			l.LogInfo(context.Background(), "Configured to ignore system root certificates, ensure you are providing your own.")
			certPool = x509.NewCertPool()
		} else {
			certPool, err = x509.SystemCertPool()
			if err != nil {
				// This call fails on Windows with an error, but is not typed appropriately so it's impossible to switch, as
				// such we continue on with an empty certificate pool.

				if runtime.GOOS == "windows" {
					l.LogWarn(context.Background(), "Failed to load system certificate pool for root CAs, this is expected on Windows (see Go Issues 16736 and 18609), you must provide the CA root certificate for your servers trust chain.", logwrap.Err(err))
					certPool = x509.NewCertPool()
				} else {
					l.LogError(context.Background(), "Failed to load system certificate pool for root CAs, you may disable loading system certificates by setting $.Config.TLS.IgnoreSystemRootCertificates and provide your own CA certificate.", logwrap.Err(err))
					return nil, fmt.Errorf("failed to load system certiticate pool: %w", err)
				}
			}
		}

		if len(cfg.TLS.CACert) > 0 {
			caCerts, err := os.ReadFile(filepath.Clean(cfg.TLS.CACert))
			if err != nil {
				return nil, fmt.Errorf("failed to load CA TLS certificats for mqtt: %w", err)
			}

			certPool.AppendCertsFromPEM(caCerts)
		}

		tlsConfig.RootCAs = certPool

		clientOptions.SetTLSConfig(tlsConfig)
	}

	i.Start()

	client := pahomqtt.NewClient(clientOptions)

	go func() {
		ctx := context.Background()

		retry := time.NewTicker(1 * time.Second)
		for {
			select {
			case <-retry.C:
				if token := client.Connect(); token.Wait() && token.Error() != nil {
					l.LogError(ctx, "Failed initial connection to MQTT server.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server), logwrap.Err(token.Error()))
				} else {
					l.LogInfo(ctx, "Initial MQTT connection call completed.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server))
					retry.Stop()
					return
				}
			}
		}
	}()

	return func() error {
		client.Disconnect(1500)
		i.Stop()
		return nil
	}, nil
}

func prefixTopic(topicPrefix string, topic string) string {
	if len(topicPrefix) > 0 {
		return fmt.Sprintf("%s/%s", topicPrefix, topic)
	}

	return topic
}

func stripPrefixTopic(topicPrefix string, topic string) string {
	if len(topicPrefix) > 0 {
		return strings.TrimPrefix(topic, topicPrefix+"/")
	}

	return topic
}

func randomClientID() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
