package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gorm.io/gorm"

	"github.com/axlesim/axle/internal/api"
	"github.com/axlesim/axle/internal/channel"
	"github.com/axlesim/axle/internal/config"
	"github.com/axlesim/axle/internal/database"
	"github.com/axlesim/axle/internal/dispatcher"
	"github.com/axlesim/axle/internal/influx"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/monitor"
	intOtel "github.com/axlesim/axle/internal/otel"
	"github.com/axlesim/axle/internal/registry"
	"github.com/axlesim/axle/internal/scenario"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/internal/sim"
	"github.com/axlesim/axle/internal/storage"
	"github.com/axlesim/axle/internal/track"
	"github.com/axlesim/axle/internal/worker"
	"github.com/axlesim/axle/pkg/streaming"
)

// Build metadata, overridable at build time via ldflags.
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"
)

const appName = "axled"

var (
	flagConfig   = flag.String("config", ".", "directory containing axled.cfg.json")
	flagScenario = flag.String("scenario", "", "path to the scenario JSON file (required)")
	flagTrack    = flag.String("track", "", "path to a track JSON file; empty runs on a flat proving ground")
	flagBackend  = flag.String("backend", "", "storage backend override: memory, sqlite or postgres")
	flagRealtime = flag.Bool("realtime", false, "pace the loop at the configured tick rate")
	flagDuration = flag.Float64("duration", 0, "sim seconds to run; overrides the scenario duration")
	flagSession  = flag.String("session", "", "session name; defaults to the scenario name")
	flagStream   = flag.String("stream", "", "TCP address for the live telemetry feed, e.g. :7443")
)

var (
	sessionStartTime = time.Now()

	slogManager *logging.SlogManager
	logger      *slog.Logger
)

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	flag.Parse()
	if *flagScenario == "" {
		fmt.Fprintln(os.Stderr, "missing required -scenario flag")
		flag.Usage()
		os.Exit(2)
	}

	// Bootstrap logging to stderr until the log file is open.
	slogManager = logging.NewSlogManager()
	logger = slogManager.Logger()

	if err := config.Load(*flagConfig); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config")
	}
	applyFlagOverrides()

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fatal("Failed to create logs directory", err)
	}
	logPath := logging.LogFilePath(logsDir, appName, sessionStartTime)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fatal("Failed to open log file", err)
	}
	defer logFile.Close()

	var otelProvider *intOtel.Provider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}
	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
	}

	var sinks []io.Writer
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			sinks = append(sinks, gw)
			defer gw.Close()
		}
	}

	slogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider, sinks...)
	logger = slogManager.Logger()
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "logFile", logPath)

	sessionCtx := session.NewContext()
	vehicleRegistry := registry.NewVehicleRegistry()
	tickCounter := &registry.SafeCounter{}

	slogManager.AttachContext(func() []slog.Attr {
		return []slog.Attr{
			slog.String("session", sessionCtx.GetSession().Name),
			slog.Uint64("tick", sessionCtx.Tick()),
		}
	})
	logger = slogManager.Logger()

	// The dispatcher, database and influx managers log through zerolog;
	// everything else uses slog. Both write to the same file.
	zl := zerolog.New(logFile).With().Timestamp().Logger()

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zl.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		fatal("Failed to create dispatcher", err)
	}

	storageCfg := config.GetStorageConfig()
	var dbManager *database.Manager
	var backendDB *gorm.DB
	if storageCfg.Type == "postgres" {
		dbManager = database.NewManager(zl.With().Str("component", "database").Logger())
		if err := dbManager.Connect(); err != nil {
			fatal("Failed to connect to a database", err)
		}
		if dbManager.ShouldSaveLocal {
			// Postgres is unreachable; the fallback in-memory SQLite gets
			// dumped here at shutdown.
			dbManager.SqliteFilePath = filepath.Join(
				storageCfg.Memory.OutputDir,
				fmt.Sprintf("%s_%s.db", appName, sessionStartTime.Format("20060102_150405")),
			)
			logger.Warn("Postgres unreachable, recording to in-memory SQLite",
				"dumpPath", dbManager.SqliteFilePath)
		}
		if err := dbManager.Setup(); err != nil {
			fatal("Failed to set up database schema", err)
		}
		backendDB = dbManager.DB
	}

	backend, err := storage.NewBackend(storageCfg, storage.Dependencies{
		DB:             backendDB,
		LogManager:     slogManager,
		SessionContext: sessionCtx,
	})
	if err != nil {
		fatal("Failed to create storage backend", err)
	}
	if err := backend.Init(); err != nil {
		fatal("Failed to initialize storage backend", err)
	}
	logger.Info("Storage backend initialized", "type", storageCfg.Type)

	influxManager := influx.NewManager(
		zl.With().Str("component", "influx").Logger(),
		filepath.Join(logsDir, appName+"_influx_backup.gz"),
	)
	var liveInflux *influx.Manager
	if err := influxManager.Connect(); err != nil {
		logger.Info("Influx telemetry disabled", "reason", err)
	} else {
		liveInflux = influxManager
	}

	workerManager := worker.NewManager(worker.Dependencies{
		Registry:       vehicleRegistry,
		LogManager:     slogManager,
		SessionContext: sessionCtx,
		Influx:         liveInflux,
	}, backend)
	workerManager.RegisterHandlers(eventDispatcher)

	var recorder monitor.PerformanceRecorder
	if r, ok := backend.(monitor.PerformanceRecorder); ok {
		recorder = r
	}
	monitorService := monitor.NewService(monitor.Dependencies{
		DB:             backendDB,
		LogManager:     slogManager,
		SessionContext: sessionCtx,
		WorkerManager:  workerManager,
		TickCounter:    tickCounter,
		Recorder:       recorder,
		Influx:         liveInflux,
		StatusDir:      viper.GetString("monitor.statusDir"),
	})
	if dbManager != nil && !dbManager.ShouldSaveLocal {
		if err := monitorService.ValidateHypertables(map[string][]string{
			"tick_states":         {"session_id", "vehicle_id"},
			"wheel_states":        {"session_id", "vehicle_id"},
			"sim_events":          {"session_id"},
			"runner_performances": {"session_id"},
		}); err != nil {
			logger.Warn("TimescaleDB hypertable setup failed", "error", err)
		}
	}
	if err := monitorService.Start(); err != nil {
		logger.Error("Failed to start monitor service", "error", err)
	}

	var tr *track.Track
	if *flagTrack != "" {
		tr, err = track.Load(*flagTrack)
		if err != nil {
			fatal("Failed to load track", err)
		}
	} else {
		tr = track.Flat("Flat Proving Ground", 1.0)
	}
	world := track.NewWorld(tr)
	trackInfo := tr.Info()
	logger.Info("Track loaded", "name", tr.Name, "surfaces", trackInfo.Surfaces)

	sc, err := scenario.ParseFile(*flagScenario)
	if err != nil {
		fatal("Failed to parse scenario", err)
	}

	vcfg, err := config.Vehicle()
	if err != nil {
		fatal("Invalid vehicle tuning", err)
	}
	bcfg, err := config.Body()
	if err != nil {
		fatal("Invalid chassis config", err)
	}
	vehicleSpec, err := json.Marshal(viper.Get("vehicle"))
	if err != nil {
		logger.Warn("Failed to snapshot vehicle tuning", "error", err)
		vehicleSpec = nil
	}

	var feed channel.Channel[streaming.Frame]
	var feedServer *streamServer
	if *flagStream != "" {
		feed = channel.New[streaming.Frame](viper.GetInt("sim.streamBuffer"))
		feedServer, err = newStreamServer(*flagStream, feed, logger)
		if err != nil {
			fatal("Failed to start live feed listener", err)
		}
		logger.Info("Live feed listening", "addr", *flagStream)
	}

	runner, err := sim.New(sim.Dependencies{
		Dispatcher:     eventDispatcher,
		LogManager:     slogManager,
		SessionContext: sessionCtx,
		TickCounter:    tickCounter,
		Feed:           feed,
	}, sim.Config{
		SessionName: *flagSession,
		TickRate:    viper.GetInt("sim.tickRate"),
		Realtime:    viper.GetBool("sim.realtime"),
		Duration:    *flagDuration,
		VehicleSpec: vehicleSpec,
		Version:     Version,
	}, world, trackInfo)
	if err != nil {
		fatal("Failed to create runner", err)
	}
	if err := runner.Spawn(sc, vcfg, bcfg); err != nil {
		fatal("Failed to spawn vehicles", err)
	}

	go checkServerStatus()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := runner.Run(ctx)
	if runErr != nil {
		logger.Error("Simulation failed", "error", runErr)
	}

	// The runner is the only feed producer, so the feed can close now.
	if feed != nil {
		feed.Close()
	}
	if feedServer != nil {
		feedServer.Close()
	}

	monitorService.Stop()

	if err := backend.Close(); err != nil {
		logger.Error("Error closing storage backend", "error", err)
	}
	influxManager.Close()
	if dbManager != nil {
		if dbManager.ShouldSaveLocal {
			if err := dbManager.DumpMemoryToDisk(); err != nil {
				logger.Error("Error dumping fallback database to disk", "error", err)
			}
		}
		if err := dbManager.Close(); err != nil {
			logger.Error("Error closing database", "error", err)
		}
	}

	maybeUpload(backend)

	if otelProvider != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down OTel provider", "error", err)
		}
		cancel()
	}
	if err := slogManager.Flush(context.Background()); err != nil {
		logger.Error("Error flushing logs", "error", err)
	}

	if runErr != nil {
		os.Exit(1)
	}
}

// applyFlagOverrides lets explicitly set command line flags win over the
// config file.
func applyFlagOverrides() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			viper.Set("storage.type", *flagBackend)
		case "realtime":
			viper.Set("sim.realtime", *flagRealtime)
		}
	})
}

// checkServerStatus probes the frontend API once at startup.
func checkServerStatus() {
	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	if err := client.Healthcheck(); err != nil {
		logger.Info("Axle frontend is offline")
	} else {
		logger.Info("Axle frontend is online")
	}
}

// maybeUpload pushes the exported session file to the frontend when an API
// key is configured and the backend produced one.
func maybeUpload(backend storage.Backend) {
	apiKey := viper.GetString("api.apiKey")
	if apiKey == "" {
		return
	}
	up, ok := backend.(storage.Uploadable)
	if !ok {
		logger.Debug("Storage backend exports no file, skipping upload")
		return
	}
	path := up.GetExportedFilePath()
	if path == "" {
		logger.Debug("No exported session file, skipping upload")
		return
	}

	client := api.New(viper.GetString("api.serverUrl"), apiKey)
	if err := client.Healthcheck(); err != nil {
		logger.Warn("Frontend unreachable, keeping local export", "error", err, "path", path)
		return
	}
	meta := up.GetExportMetadata()
	if err := client.Upload(path, meta); err != nil {
		logger.Error("Session upload failed", "error", err, "path", path)
		return
	}
	logger.Info("Session uploaded", "path", path, "session", meta.SessionName)
}
