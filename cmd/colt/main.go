// cmd/colt/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/elchinoo/colt/internal/config"
	"github.com/elchinoo/colt/internal/dbclient"
	"github.com/elchinoo/colt/internal/latencylog"
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/collector"
	"github.com/elchinoo/colt/internal/pipeline/dispatcher"
	"github.com/elchinoo/colt/internal/pipeline/fabricator"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/internal/pipeline/selector"
	"github.com/elchinoo/colt/internal/pipeline/supervisor"
	"github.com/elchinoo/colt/internal/pipeline/watchdog"
	"github.com/elchinoo/colt/internal/randgen"
	"github.com/elchinoo/colt/internal/schema"
	"github.com/elchinoo/colt/internal/tablekey"
	"github.com/elchinoo/colt/pkg/types"

	"github.com/spf13/cobra"
)

// Version information (set by build system via ldflags)
var (
	Version   = "v0.1.0-beta"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const defaultQueueTargetSize = 100

func main() {
	var (
		configFile  string
		deleteOld   bool
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "colt [config-file]",
		Short: "A deterministic, reproducible concurrent load generator for wide-column databases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("colt v%s (%s, %s)\n", Version, GitCommit, BuildTime)
				return nil
			}
			if len(args) == 1 {
				configFile = args[0]
			}
			return run(configFile, deleteOld)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("colt v%s (%s, %s)\n", Version, GitCommit, BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to config file")
	rootCmd.Flags().BoolVar(&deleteOld, "delete-old", false, "Drop existing keyspaces/tables before recreating them (overrides config)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false, "Show version information and exit")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(configFile string, deleteOld bool) error {
	logger := logging.NewDefault()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Error("failed to load config", err)
		return fmt.Errorf("load config: %w", err)
	}
	if deleteOld {
		cfg.DeleteOld = true
	}

	if cfg.Logging.Level != "" {
		if l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			Output:      cfg.Logging.Output,
			Development: cfg.Logging.Development,
		}); err == nil {
			logger = l
		}
	}

	executor, err := dbclient.DialGocql(cfg.Database.ConnectionArguments)
	if err != nil {
		logger.Error("failed to connect to database", err, logging.Fields.Database(cfg.Database.Type, "")...)
		return fmt.Errorf("dial database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if stopWatch, err := config.WatchForChanges(configFile, logger, func(*types.Config) {
		logger.Warn("config file changed on disk; restart colt to apply it to this run")
	}); err == nil {
		defer func() { _ = stopWatch() }()
	}

	if err := schema.Prepare(ctx, cfg, executor); err != nil {
		executor.Close()
		logger.Error("schema preparation failed", err)
		return fmt.Errorf("prepare schema: %w", err)
	}
	executor.Close() // schema preparation's own session; dispatcher workers open their own.

	targetSize := cfg.QueueTargetSize
	if targetSize <= 0 {
		targetSize = defaultQueueTargetSize
	}

	tableStates := buildTableStates(cfg)
	workloadTable := selector.NewWorkloadTable(cfg)
	registry := randgen.NewRegistry()

	selectedQ := queue.New[pipeline.SelectedQuery](targetSize)
	boundQ := queue.New[pipeline.BoundQuery](targetSize)
	pendingQ := queue.New[pipeline.PendingResponse](targetSize)

	signals := pipeline.NewSignals()
	log_ := latencylog.New()
	counters := pipeline.NewInsertedCounters()

	sup := supervisor.New(supervisor.Config{MaxWorkersPerClass: cfg.MaxWorkers}, signals, logger)

	var selectorSeed uint64 = 1
	sup.AddClass("selector",
		func(ctx context.Context) error {
			seed := selectorSeed
			selectorSeed++
			w := selector.New(workloadTable, tableStates, seed, selectedQ, signals, logger)
			return w.Run(ctx)
		},
		signals.NeedMoreSelectors.Load,
		func() { signals.NeedMoreSelectors.Store(false) },
	)

	sup.AddClass("fabricator",
		func(ctx context.Context) error {
			w := fabricator.New(registry, selectedQ, boundQ, signals, logger)
			return w.Run(ctx)
		},
		signals.NeedMoreFabricators.Load,
		func() { signals.NeedMoreFabricators.Store(false) },
	)

	sup.AddClass("dispatcher",
		func(ctx context.Context) error {
			exec, err := dbclient.DialGocql(cfg.Database.ConnectionArguments)
			if err != nil {
				return fmt.Errorf("dispatcher: dial database: %w", err)
			}
			w := dispatcher.New(boundQ, pendingQ, signals, logger)
			w.Attach(exec)
			return w.Run(ctx)
		},
		signals.NeedMoreDispatchers.Load,
		func() { signals.NeedMoreDispatchers.Store(false) },
	)

	sup.AddClass("collector",
		func(ctx context.Context) error {
			w := collector.New(pendingQ, log_, counters, signals, logger)
			return w.Run(ctx)
		},
		signals.NeedMoreCollectors.Load,
		func() { signals.NeedMoreCollectors.Store(false) },
	)

	wd := watchdog.New(log_, signals, *cfg, logger)
	sup.SetWatchdog(wd.Run)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", logging.Fields.String("signal", sig.String()))
		signals.TriggerShutdown()
	}()

	runErr := sup.Run(ctx)
	if runErr != nil {
		logger.Error("colt run terminated with error", runErr)
		return runErr
	}
	logger.Info("colt run completed")
	return nil
}

// buildTableStates returns one tablekey.State per configured table, keyed
// the same way schema.Prepare qualifies Query.Table ("keyspace@table").
func buildTableStates(cfg *types.Config) map[string]*tablekey.State {
	states := make(map[string]*tablekey.State)
	for ksName, ks := range cfg.Schemata {
		for tblName := range ks.Tables {
			states[ksName+"@"+tblName] = tablekey.New()
		}
	}
	return states
}
