package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gradplan/internal/config"
	"gradplan/internal/roadmap"
	"gradplan/internal/server"
	"gradplan/internal/store"
)

var (
	verbose    bool
	configPath string
	seedPath   string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gradplan",
	Short: "Degree-planning API with an academic-requirement reasoning core",
	Long: `gradplan serves a course catalog and degree program API: prerequisite
formula evaluation, prerequisite trees, requirement progress tracking,
course recommendation, and AI-generated semester roadmaps.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML fixture of courses and programs into the database",
	RunE:  runSeed,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gradplan.yaml", "path to config file")
	seedCmd.Flags().StringVarP(&seedPath, "file", "f", "seed.yaml", "path to seed fixture")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var generator server.RoadmapGenerator
	if cfg.OpenAI.APIKey != "" {
		cache, err := roadmap.OpenCache(cfg.Cache, logger)
		if err != nil {
			return err
		}
		defer cache.Close()

		gen, err := roadmap.NewGenerator(cfg.OpenAI, cache, logger)
		if err != nil {
			return err
		}
		generator = gen
	} else {
		logger.Warn("OPENAI_API_KEY not set, roadmap generation disabled")
	}

	srv := server.New(cfg, st, generator, logger)
	return srv.Run(ctx)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.Seed(ctx, seedPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
