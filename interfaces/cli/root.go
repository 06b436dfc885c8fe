// Package cli implements canvasctl, the operator tool for a stored canvas.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"canvas-backend/infrastructure/config"
	"canvas-backend/infrastructure/di"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// Flags shared by every command; they override the environment.
var (
	storeFlag  string
	dbFlag     string
	canvasFlag string
	configFlag string
	quietFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "canvasctl",
	Short: "Inspect, repair and export a stored diagram canvas",
	Long: `canvasctl opens the canvas named by CANVAS_ID in the configured store
(STORE_BACKEND, SQLITE_PATH, DYNAMODB_TABLE) and works on it directly.

Examples:
  canvasctl inspect
  canvasctl inspect --json
  canvasctl repair --store sqlite --db ./canvas.db
  canvasctl export -o canvas.png --font /usr/share/fonts/TTF/DejaVuSans.ttf
  canvasctl tui`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&storeFlag, "store", "", "store backend: memory, sqlite or dynamodb")
	pf.StringVar(&dbFlag, "db", "", "sqlite database path")
	pf.StringVar(&canvasFlag, "canvas", "", "canvas id")
	pf.StringVar(&configFlag, "config", "", "canvas tunables file (.yaml or .toml)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "only log errors")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", bad.Sprint("error:"), err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies command-line overrides.
func loadConfig() (*config.Config, error) {
	if configFlag != "" {
		if err := os.Setenv("CONFIG_FILE", configFlag); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if storeFlag != "" {
		cfg.StoreBackend = storeFlag
	}
	if dbFlag != "" {
		cfg.SQLitePath = dbFlag
	}
	if canvasFlag != "" {
		cfg.CanvasID = canvasFlag
	}
	if quietFlag {
		cfg.LogLevel = "error"
	}
	// A one-shot tool has no use for reloading.
	cfg.HotReload = false
	return cfg, cfg.Validate()
}

// openContainer loads config and wires a session over the stored canvas.
func openContainer(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return di.InitializeContainer(ctx, cfg)
}
