package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"netwatch-sim/internal/api"
	"netwatch-sim/internal/config"
	"netwatch-sim/internal/diagnosis"
	"netwatch-sim/internal/hub"
	"netwatch-sim/internal/logging"
	"netwatch-sim/internal/observability"
	"netwatch-sim/internal/sim"
	"netwatch-sim/internal/store"
)

var (
	servePrintOnly  bool
	serveConfigPath string
	serveSchemaPath string
	serveTick       time.Duration
	serveLogFile    string
	serveOutput     string
	serveAddr       string
	serveStore      string
	serveBadgerPath string
	serveNoStart    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the network simulation and its API",
	Long:  "serve starts the node simulation, the REST API and the WebSocket viewer stream.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := logging.FromContext(ctx)
		if serveOutput == outputTUI {
			log = logging.NewTo(io.Discard, logLevel)
			slog.SetDefault(log)
			ctx = logging.NewContext(ctx, log)
		}

		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}
		clusterID := envOr("CLUSTER_ID", cfg.ClusterID)
		tickInterval := serveTick
		if tickInterval <= 0 {
			tickInterval = cfg.TickInterval
		}
		if v := envOr("TICK_INTERVAL", ""); v != "" {
			if tickInterval, err = time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
			}
		}

		st, err := openStore(envOr("STORE", serveStore), envOr("BADGER_PATH", serveBadgerPath), log)
		if err != nil {
			return err
		}
		defer st.Close()

		metrics := observability.New(prometheus.DefaultRegisterer)
		h := hub.New(metrics, log)
		if url := envOr("REDIS_URL", ""); url != "" {
			rv, err := hub.NewRedisViewer(ctx, hub.RedisConfig{
				URL:     url,
				Channel: envOr("REDIS_CHANNEL", hub.DefaultRedisChannel),
			}, log)
			if err != nil {
				return err
			}
			defer rv.Close()
			h.Register(rv)
			log.Info("mirroring network updates to redis", "channel", envOr("REDIS_CHANNEL", hub.DefaultRedisChannel))
		}

		writer, cleanup, err := newWriters(cfg, clusterID, serveOutput, servePrintOnly, serveLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		simulator := sim.NewSimulator(clusterID, cfg, st, h, writer, tickInterval, nil, nil)
		simulator.SetMetrics(metrics)
		defer simulator.Close()

		llm, err := newLLMClient(log)
		if err != nil {
			return err
		}
		var status api.StatusReporter
		if sw, ok := writer.(sim.AdminStatusWriter); ok {
			status = sw
		}
		srv := api.NewServer(api.Config{
			Store:     st,
			Sim:       simulator,
			Hub:       h,
			Diagnoser: diagnosis.NewAssembler(st, llm),
			Metrics:   metrics,
			Origins:   api.ParseOrigins(envOr("CORS_ORIGINS", "*")),
			Status:    status,
			Logger:    log,
		})

		if !serveNoStart {
			if _, err := simulator.Start(ctx); err != nil {
				return err
			}
			log.Info("network simulation started", "cluster", clusterID, "nodes", len(cfg.Nodes), "tick", tickInterval)
		}

		err = srv.Start(ctx, envOr("LISTEN_ADDR", serveAddr))
		log.Info("network simulation stopped")
		return err
	},
}

func openStore(kind, badgerPath string, log *slog.Logger) (store.Store, error) {
	switch kind {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "badger":
		cfg := store.DefaultBadgerConfig(badgerPath)
		cfg.Logger = log
		st, err := store.OpenBadger(cfg)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		log.Info("badger store opened", "path", badgerPath)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want memory or badger)", kind)
	}
}

func newLLMClient(log *slog.Logger) (diagnosis.LLMClient, error) {
	key := envOr("OPENAI_API_KEY", "")
	if key == "" {
		log.Warn("OPENAI_API_KEY not set, diagnosis answers with an offline message")
		return diagnosis.StaticClient{}, nil
	}
	return diagnosis.NewOpenAIClient(key, envOr("OPENAI_MODEL", diagnosis.DefaultModel), envOr("OPENAI_BASE_URL", ""), log)
}

func init() {
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to GreptimeDB")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML (empty for built-in defaults)")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	serveCmd.Flags().DurationVar(&serveTick, "tick", 0, "Tick interval override (e.g. 500ms, 2s)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export network updates, alerts and state (JSONL)")
	serveCmd.Flags().StringVar(&serveOutput, "output", outputJSON, "Local output: json, color or tui")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8001", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveStore, "store", "memory", "Store backend: memory or badger")
	serveCmd.Flags().StringVar(&serveBadgerPath, "badger-path", "data/badger", "BadgerDB directory")
	serveCmd.Flags().BoolVar(&serveNoStart, "no-autostart", false, "Wait for POST /simulation/start instead of starting immediately")
}
