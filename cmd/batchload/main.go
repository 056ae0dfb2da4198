package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dd0wney/cluso-batchgraph/pkg/batch"
	"github.com/dd0wney/cluso-batchgraph/pkg/config"
	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
	"github.com/dd0wney/cluso-batchgraph/pkg/importer"
	"github.com/dd0wney/cluso-batchgraph/pkg/kvgraph"
	"github.com/dd0wney/cluso-batchgraph/pkg/logging"
	"github.com/dd0wney/cluso-batchgraph/pkg/metrics"
	"github.com/dd0wney/cluso-batchgraph/pkg/storage"
)

var version = "dev"

type cliOptions struct {
	configFile   string
	verticesFile string
	edgesFile    string
	skipInvalid  bool
	logLevel     string

	backend     string
	dataDir     string
	bufferSize  int64
	idType      string
	vertexIDKey string
	edgeIDKey   string
	incremental bool
	metricsAddr string
}

func main() {
	var opts cliOptions

	rootCmd := &cobra.Command{
		Use:   "batchload",
		Short: "Bulk load CSV vertices and edges into a graph store",
		Long: `batchload streams vertex and edge CSV files into a memory or Badger graph
store, committing every --buffer operations. Inputs may be local paths,
s3://bucket/key objects or - for standard input.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.verticesFile == "" && opts.edgesFile == "" {
				return errors.New("at least one of --vertices or --edges is required")
			}
			return runLoad(cmd, &opts)
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("batchload %s\n", version)
		},
	})

	flags := rootCmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&opts.verticesFile, "vertices", "", "Vertex CSV: local path, s3://bucket/key or - for stdin")
	flags.StringVar(&opts.edgesFile, "edges", "", "Edge CSV: local path, s3://bucket/key or - for stdin")
	flags.BoolVar(&opts.skipInvalid, "skip-invalid", false, "Skip rows that fail validation or resolution")
	flags.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "Library log level: debug, info, warn or error")
	flags.StringVar(&opts.backend, "backend", config.DefaultBackend, "Backing store: memory or badger")
	flags.StringVar(&opts.dataDir, "data", "", "Data directory (WAL for memory, database for badger)")
	flags.Int64Var(&opts.bufferSize, "buffer", config.DefaultBufferSize, "Operations per commit chunk")
	flags.StringVar(&opts.idType, "id-type", config.DefaultIDType, "Identifier cache: object, number, string or url")
	flags.StringVar(&opts.vertexIDKey, "vertex-id-key", "", "Property that stores the external vertex id")
	flags.StringVar(&opts.edgeIDKey, "edge-id-key", "", "Property that stores the external edge id")
	flags.BoolVar(&opts.incremental, "incremental", false, "Look up unknown ids in the existing store")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runLoad(cmd *cobra.Command, opts *cliOptions) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := resolveConfig(cmd.Flags(), opts)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, opts.verticesFile, opts.edgesFile, opts.skipInvalid); err != nil {
		logger.Error("load failed", "error", err)
		return err
	}
	return nil
}

// resolveConfig loads the configuration file, if any, and lets flags that
// were set explicitly override it.
func resolveConfig(flags *pflag.FlagSet, opts *cliOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Storage.Backend = opts.backend
		case "data":
			cfg.Storage.DataDir = opts.dataDir
		case "buffer":
			cfg.Loader.BufferSize = opts.bufferSize
		case "id-type":
			cfg.Loader.IDType = opts.idType
		case "vertex-id-key":
			cfg.Loader.VertexIDKey = opts.vertexIDKey
		case "edge-id-key":
			cfg.Loader.EdgeIDKey = opts.edgeIDKey
		case "incremental":
			cfg.Loader.Incremental = opts.incremental
		case "metrics-addr":
			cfg.Metrics.Addr = opts.metricsAddr
		case "log-level":
			cfg.Logging.Level = opts.logLevel
		}
	})
	return cfg, cfg.Validate()
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, verticesFile, edgesFile string, skipInvalid bool) error {
	loadID := uuid.NewString()
	libLogger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.Logging.Level))
	reg := metrics.NewRegistry()

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}

	logger.Info("opening graph storage", "backend", cfg.Storage.Backend, "data_dir", cfg.Storage.DataDir)
	base, closeBase, err := openStore(cfg, libLogger, reg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}

	idType, err := idcache.ParseType(cfg.Loader.IDType)
	if err != nil {
		closeBase()
		return err
	}

	opts := []batch.Option{
		batch.WithLogger(libLogger),
		batch.WithMetrics(reg),
		batch.WithLoadID(loadID),
	}
	if cfg.Loader.VertexIDKey != "" {
		opts = append(opts, batch.WithVertexIDKey(cfg.Loader.VertexIDKey))
	}
	if cfg.Loader.EdgeIDKey != "" {
		opts = append(opts, batch.WithEdgeIDKey(cfg.Loader.EdgeIDKey))
	}
	if cfg.Loader.Incremental {
		opts = append(opts, batch.WithIncrementalLoading())
	}

	g, err := batch.New(base, idType, cfg.Loader.BufferSize, opts...)
	if err != nil {
		closeBase()
		return err
	}

	start := time.Now()
	loadErr := load(ctx, logger, g, libLogger, verticesFile, edgesFile, skipInvalid)

	// Close commits the chunk in progress as well, so rows loaded before a
	// failure are kept
	closeErr := errors.Join(g.Close(), closeBase())
	if err := errors.Join(loadErr, closeErr); err != nil {
		return err
	}

	stats := g.Stats()
	logger.Info("load complete",
		"load_id", loadID,
		"vertices", stats.Vertices,
		"edges", stats.Edges,
		"commits", stats.Commits,
		"fast_path_hits", stats.FastPathHits,
		"duration", time.Since(start).String(),
	)
	return nil
}

func openStore(cfg *config.Config, l logging.Logger, reg *metrics.Registry) (graph.Graph, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		kv, err := kvgraph.Open(kvgraph.Options{
			DataDir:           cfg.Storage.DataDir,
			InMemory:          cfg.Storage.DataDir == "",
			SyncWrites:        cfg.Storage.SyncWrites,
			IndexedProperties: cfg.IndexedProperties(),
			Logger:            kvgraph.NewBadgerLogger(l),
			Metrics:           reg,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil
	default:
		gs, err := storage.NewGraphStorageWithConfig(storage.StorageConfig{
			DataDir:           cfg.Storage.DataDir,
			Transactions:      true,
			UserSuppliedIDs:   cfg.Storage.UserSuppliedIDs,
			IndexedProperties: cfg.IndexedProperties(),
			Metrics:           reg,
		})
		if err != nil {
			return nil, nil, err
		}
		return gs, gs.Close, nil
	}
}

func load(ctx context.Context, logger *slog.Logger, g *batch.BatchGraph, l logging.Logger, verticesFile, edgesFile string, skipInvalid bool) error {
	im := importer.New(g,
		importer.WithLogger(l),
		importer.WithSkipInvalid(skipInvalid),
	)

	steps := []struct {
		kind string
		uri  string
		fn   func(context.Context, io.Reader) (importer.Result, error)
	}{
		{"vertices", verticesFile, im.ImportVertices},
		{"edges", edgesFile, im.ImportEdges},
	}
	for _, step := range steps {
		if step.uri == "" {
			continue
		}
		logger.Info("importing "+step.kind, "source", step.uri)

		rc, err := importer.OpenSource(ctx, step.uri)
		if err != nil {
			return err
		}
		res, err := step.fn(ctx, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("import %s from %s: %w", step.kind, step.uri, err)
		}

		logger.Info("imported "+step.kind,
			"rows", res.Rows,
			"vertices", res.Vertices,
			"edges", res.Edges,
			"skipped", res.Skipped,
			"duration", res.Duration.String(),
		)
	}
	return nil
}
