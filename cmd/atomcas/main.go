package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/atomcas/pkg/config"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atomcas",
	Short: "atomcas - content-addressed persistence for an in-memory hypergraph",
	Long: `atomcas maps a mutable in-memory hypergraph onto an immutable
content-addressed DAG store, publishing the workspace root under a
stable mutable name so other processes can find it.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("atomcas version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("backend-uri", "", "Backend URI, overrides the config file's backendURI")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(fetchIDCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(incomingCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(wcidCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(barrierCmd)
	rootCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(watermarksCmd)
	rootCmd.AddCommand(stallCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearStatsCmd)
	rootCmd.AddCommand(killDataCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if uri, _ := cmd.Flags().GetString("backend-uri"); uri != "" {
		cfg.BackendURI = uri
	}
	return cfg, nil
}

// types is the small built-in atom-type vocabulary this CLI
// understands for --type. Embedding callers supply their own registry
// directly to backend.Open; this fixed set exists only so the CLI has
// something to decode --type against interactively. A single shared
// instance is used for the lifetime of the process so that every
// command resolves the same *hypergraph.Type values.
var types = newCLITypes()

func newCLITypes() *hypergraph.TypeRegistry {
	r := hypergraph.NewTypeRegistry()
	r.MustLookup("ConceptNode")
	r.MustLookup("PredicateNode")
	r.MustLookup("ListLink")
	r.MustLookup("EvaluationLink")
	return r
}
