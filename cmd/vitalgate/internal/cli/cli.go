// Package cli wires kong's command tree to the vitalgate process:
// serve starts the ingestion supervisor, version and healthcheck are
// operational conveniences.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"

	"github.com/codeninja55/vitalgate/classify"
	"github.com/codeninja55/vitalgate/cmd/vitalgate/internal/build"
	"github.com/codeninja55/vitalgate/cmd/vitalgate/internal/config"
	"github.com/codeninja55/vitalgate/cmd/vitalgate/internal/ui"
	"github.com/codeninja55/vitalgate/deadletter"
	"github.com/codeninja55/vitalgate/events"
	fhirclient "github.com/codeninja55/vitalgate/fhir/client"
	"github.com/codeninja55/vitalgate/health"
	"github.com/codeninja55/vitalgate/history"
	"github.com/codeninja55/vitalgate/identity"
	"github.com/codeninja55/vitalgate/ingest"
	"github.com/codeninja55/vitalgate/store"
)

// CLI is the root kong command tree. config.GlobalConfig is embedded so
// its fields surface directly as top-level flags, the way the teacher
// threads a single config struct through every subcommand's Run method.
type CLI struct {
	config.GlobalConfig

	Serve       ServeCmd       `cmd:"" help:"Start the MQTT ingestion gateway."`
	Version     VersionCmd     `cmd:"" help:"Print version information."`
	Healthcheck HealthcheckCmd `cmd:"" help:"Check a running instance's /healthz endpoint."`
}

// VersionCmd prints build metadata and exits.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	build.PrintBuildInfo()
	return nil
}

// HealthcheckCmd probes a running instance's liveness endpoint, for use
// as a container HEALTHCHECK.
type HealthcheckCmd struct {
	URL string `kong:"arg,optional,default='http://localhost:8080/healthz'"`
}

func (c *HealthcheckCmd) Run() error {
	resp, err := http.Get(c.URL)
	if err != nil {
		return fmt.Errorf("healthcheck: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck: %s returned %d", c.URL, resp.StatusCode)
	}
	return nil
}

// ServeCmd starts the MQTT session, the ingestion supervisor, and the
// health/metrics HTTP server, then blocks until an interrupt signal.
type ServeCmd struct {
	HTTPAddr string `kong:"name='http-addr',default=':8080',help='Address for the health/metrics HTTP server.'"`
}

func (c *ServeCmd) Run(cfg config.GlobalConfig, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.URI))
	if err != nil {
		return fmt.Errorf("serve: connect document store: %w", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	documentStore := store.NewMongoStore(mongoClient.Database(cfg.Store.DB))

	var dlQueue *deadletter.Queue
	if cfg.DeadLetter.RedisURI != "" {
		opt, err := redis.ParseURL(cfg.DeadLetter.RedisURI)
		if err != nil {
			return fmt.Errorf("serve: parse dead-letter redis uri: %w", err)
		}
		rdb := redis.NewClient(opt)
		var slackClient *slack.Client
		if cfg.DeadLetter.SlackToken != "" {
			slackClient = slack.New(cfg.DeadLetter.SlackToken)
		}
		dlQueue = deadletter.New(rdb, slackClient, cfg.DeadLetter.SlackChannel, cfg.DeadLetter.AlertThreshold)
	}

	fhirClient := fhirclient.New(fhirclient.Config{
		BaseURL:           cfg.FHIR.BaseURL,
		BearerToken:       cfg.FHIR.Token,
		SingleCallTimeout: time.Duration(cfg.FHIR.TimeoutMS) * time.Millisecond,
		AssumeStoreDedup:  cfg.FHIR.AssumeStoreDedup,
	}, &http.Client{})

	emitter := events.New(cfg.Emit.SinkURL, cfg.Emit.RPS)
	go emitter.Run(ctx)

	supervisor := ingest.NewSupervisor(
		ingest.SupervisorConfig{Workers: cfg.Workers, QueueHigh: cfg.Queue.High, QueueLow: cfg.Queue.Low},
		classify.New(cfg.Validation.Strict),
		identity.New(documentStore),
		history.New(documentStore),
		fhirClient,
		emitter,
		dlQueue,
		logger,
	)
	supervisor.Start(ctx)

	healthSrv := health.NewServer(map[string]health.Checker{
		"document_store": func() error { return mongoClient.Ping(ctx, nil) },
	})
	httpServer := &http.Server{Addr: c.HTTPAddr, Handler: healthSrv}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server stopped", "err", err)
		}
	}()

	session := ingest.NewSession(ingest.SessionConfig{
		Broker: cfg.MQTT.Broker,
		Port:   cfg.MQTT.Port,
		User:   cfg.MQTT.User,
		Pass:   cfg.MQTT.Pass,
		QoS:    cfg.MQTT.QoS,
	}, supervisor.Submit, logger)

	if err := session.Connect(ctx); err != nil {
		return fmt.Errorf("serve: mqtt connect: %w", err)
	}
	healthSrv.SetReady(true)
	logger.Info("vitalgate ready", "mqtt_broker", cfg.MQTT.Broker, "workers", cfg.Workers)

	<-ctx.Done()
	logger.Info("shutting down")
	healthSrv.SetReady(false)
	session.Disconnect()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	supervisor.Shutdown(shutdownCtx)

	_ = httpServer.Shutdown(shutdownCtx)
	return nil
}

// Run is the process entry point, called from main with ldflags-injected
// build metadata.
func Run(version, commit, date string) {
	build.SetBuildInfo(version, commit, date)
	ui.PrintBanner()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("vitalgate"),
		kong.Description("Medical-IoT MQTT ingestion and FHIR projection gateway."),
		kong.UsageOnError(),
	)

	cfg, err := resolveConfig(cli)
	kctx.FatalIfErrorf(err)

	logger := setupLogger(cfg)

	switch kctx.Command() {
	case "serve":
		err = cli.Serve.Run(cfg, logger)
	case "version":
		err = cli.Version.Run()
	case "healthcheck", "healthcheck <url>":
		err = cli.Healthcheck.Run()
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	kctx.FatalIfErrorf(err)
}

// resolveConfig loads YAML from --config when given; otherwise it
// validates the kong-parsed flags directly. A config file, when present,
// is authoritative: it is read over config.Default(), so fields missing
// from the file take the package defaults, and command-line flags are not
// applied on top of it.
func resolveConfig(cli CLI) (config.GlobalConfig, error) {
	if cli.ConfigFile == "" {
		return cli.GlobalConfig, config.Validate(cli.GlobalConfig)
	}
	return config.Load(cli.ConfigFile)
}

func setupLogger(cfg config.GlobalConfig) *log.Logger {
	var out io.Writer = os.Stderr
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	}
	if !cfg.Pretty {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}
