package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/humlab/amazon-scraper/internal/config"
	"github.com/humlab/amazon-scraper/internal/workflow"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile   string
	envPrefix string
	verbose   bool
	force     bool
	domain    string
	keyword   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "amazon-scraper",
		Short: "Keyword-driven product harvester for Amazon storefronts",
		Long: `amazon-scraper searches a storefront for a keyword, walks the result
pages, extracts the full per-product field set, and exports CSV tables,
product imagery, screenshots, and filtered reviews into a dated run
directory.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "AMZSCRAPER", "prefix of environment variables overriding config keys")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the harvest for the configured domains and keywords",
		Long: `Run the harvest. Domains and keywords come from the payload section of
the config file; --domain and --keyword narrow the run to a single
pair. A pair whose output directory already exists is skipped unless
--force is given.`,
		RunE: runScrape,
	}

	cmd.Flags().StringVar(&domain, "domain", "", "run a single storefront (market code or full URL)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "run a single search keyword")
	cmd.Flags().BoolVar(&force, "force", false, "rerun pairs whose output directory exists")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	store := config.Default()
	if _, err := store.Configure("default", cfgFile, config.ConfigureOptions{EnvPrefix: envPrefix}); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runner := workflow.New(store, logger)
	runner.Force = force

	if domain != "" && keyword != "" {
		return runner.Run(domain, keyword)
	}
	if domain != "" || keyword != "" {
		return fmt.Errorf("--domain and --keyword must be given together")
	}
	return runner.RunAll()
}

// configCmd creates the "config" subcommand for inspecting the
// resolved document with the environment overlay applied.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := config.Configure("default", cfgFile, config.ConfigureOptions{EnvPrefix: envPrefix})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out, err := json.MarshalIndent(ctx.Data(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("amazon-scraper %s\n", version)
		},
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
