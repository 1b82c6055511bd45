package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"abstractor/internal/config"
	"abstractor/internal/lattice"
	"abstractor/internal/logging"
	"abstractor/internal/naming"
	"abstractor/internal/pipeline"
	"abstractor/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "abstractor",
		Short: "Factors shared structure in class diagrams into abstract classes",
	}
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(inspectCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfig(configPath)
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return config.LoadConfig("config.yaml")
	}
	return config.Default(), nil
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <diagram.puml>",
	Short: "Analyze a diagram and emit an enhanced version with abstract classes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Lattice.ToolPath == "" {
			log.Fatal("lattice.tool_path is not configured")
		}

		logger, err := logging.New(verbose, false)
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		defer logger.Sync()

		ctx := context.Background()

		external, err := naming.NewNamer(ctx, naming.NamerOptions{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			BaseURL:  cfg.AI.BaseURL,
		})
		if err != nil {
			log.Fatalf("Failed to create namer: %v", err)
		}
		namer := naming.NewAdapter(external, logger,
			naming.WithCallTimeout(cfg.AI.CallTimeout.Std()),
			naming.WithRetries(cfg.AI.Retries),
		)

		store, err := storage.NewStore(cfg.Output.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer store.Close()

		runner := lattice.NewRunner(cfg.Lattice.ToolPath, cfg.Lattice.Timeout.Std())
		if cfg.Lattice.JavaPath != "" {
			runner.JavaPath = cfg.Lattice.JavaPath
		}

		enhancer := pipeline.NewEnhancer(cfg, runner, namer, store, logger)
		result, err := enhancer.Run(ctx, args[0])
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}

		fmt.Printf("✅ Run %s complete: %d abstract classes.\n", result.RunID, len(result.Candidates))
		for i, cand := range result.Candidates {
			rec := result.Records[i]
			fmt.Printf("  %s  NRS=%.2f ARS=%.2f  classes=%d features=%d\n",
				cand.Name, rec.NameScore, rec.AbstractionScore, len(cand.Extent), len(cand.Intent))
		}
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [run-id]",
	Short: "List stored runs, or show one run in detail",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := storage.NewStore(cfg.Output.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer store.Close()

		ctx := context.Background()

		if len(args) == 0 {
			runs, err := store.ListRuns(ctx)
			if err != nil {
				log.Fatalf("Failed to list runs: %v", err)
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %s  abstractions=%d\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.SourcePath, r.AbstractCount)
			}
			return
		}

		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load run: %v", err)
		}
		fmt.Printf("Run %s (%s)\n", run.ID, run.SourcePath)
		fmt.Printf("  threshold=%.1f min_extent=%d\n", run.Threshold, run.MinExtent)
		for _, cand := range run.Candidates {
			fmt.Printf("  %s  relevance=%.1f confidence=%.1f (%s)\n",
				cand.Name, cand.Relevance, cand.Confidence, cand.Source)
			fmt.Printf("    extent: %v\n", cand.Extent)
			fmt.Printf("    intent: %v\n", cand.Intent)
		}
		for _, rec := range run.Records {
			fmt.Printf("  [%s] NRS=%.2f ARS=%.2f\n", rec.ConceptID, rec.NameScore, rec.AbstractionScore)
		}
	},
}
