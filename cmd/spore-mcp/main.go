package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/config"
	"github.com/ironsheep/spore-measure-mcp/internal/server"
	"github.com/ironsheep/spore-measure-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	dataDir    string
	backend    string
)

var rootCmd = &cobra.Command{
	Use:   "spore-mcp",
	Short: "MCP server for measuring spores on micrographs",
	Long: `spore-mcp measures spores on microscope images. Each spore is recorded as
two perpendicular axes, lengths are converted to micrometres with named
calibrations, and results are summarised as statistics, CSV or histograms.

Run without a subcommand to serve MCP over stdin/stdout. The other
subcommands work on the same calibration store from the shell.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdin/stdout (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spore-measure-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for stored calibrations and preferences")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "", "storage backend: json, sqlite or memory")
	rootCmd.Version = Version
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	// stdout is for MCP protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	server.ServerVersion = Version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config, if given, and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Empty()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Override(dataDir, backend)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRegistry opens the configured store and loads its calibrations. The
// caller closes the returned store.
func openRegistry() (*calibration.Registry, store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.GetStoreBackend(), cfg.GetDataDir())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	reg, err := calibration.NewRegistry(st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return reg, st, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.GetLogLevel() == "debug" || os.Getenv("SPORE_MCP_LOG_LEVEL") == "debug" {
		log.Printf("Spore MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Store: %s in %s", cfg.GetStoreBackend(), cfg.GetDataDir())
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
