// memegen ingests quote files and composites them onto images.
//
// Usage:
//
//	memegen serve [--config memegen.yaml]
//	memegen ingest [--parallel N] [--keep-going] <files...>
//	memegen make [--path img] [--body text --author name] [--out dir]
//	memegen mcp
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "memegen",
	Short: "Quote ingestion and meme generation",
	Long: "memegen extracts \"body - author\" quotes from txt, csv, docx, pdf, odt and html\n" +
		"files and composites them onto images, from the command line or over HTTP.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := setupLogger(cfg.LogLevel); err != nil {
			return err
		}
		current = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", env("MEMEGEN_CONFIG", ""), "YAML config file (default memegen.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
