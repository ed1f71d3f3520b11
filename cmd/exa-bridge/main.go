package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/config"
	"github.com/young1lin/exa-bridge/internal/exa"
	"github.com/young1lin/exa-bridge/internal/storage"
	"github.com/young1lin/exa-bridge/internal/websets"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	settingsFile string
	showVer      bool
)

var rootCmd = &cobra.Command{
	Use:   "exa-bridge",
	Short: "Exa search and websets bridge",
	Long: `Runs one-shot Exa searches and webset jobs from the command line,
or serves the same operations over HTTP. Webset results are flattened
into tables and exported as JSON and Excel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("exa-bridge %s (built %s)\n", Version, BuildDate)
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsFile, "settings", "s", "", "app settings file (yaml or json)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")

	rootCmd.AddCommand(serveCmd, searchCmd, websetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads and validates settings and initializes logging
func setup() (*config.Config, error) {
	cfg, err := config.Load(settingsFile)
	if err != nil {
		return nil, err
	}

	logger.Init(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPoller builds the webset poller, with the run journal when storage is configured.
// The returned func closes the journal.
func newPoller(cfg *config.Config, client *exa.Client) (*websets.Poller, func(), error) {
	poller := websets.NewPoller(client, cfg)
	if cfg.Storage.Path == "" {
		return poller, func() {}, nil
	}

	store, err := storage.NewRunStore(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open run journal: %w", err)
	}
	closer := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close run journal", zap.Error(err))
		}
	}
	return poller.WithJournal(store), closer, nil
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
