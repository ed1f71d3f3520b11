package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/apperr"
	"github.com/young1lin/exa-bridge/internal/config"
	"github.com/young1lin/exa-bridge/internal/exa"
	"github.com/young1lin/exa-bridge/internal/export"
	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/internal/storage"
	"github.com/young1lin/exa-bridge/internal/websets"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

var websetFlags struct {
	jobFile  string
	output   string
	format   string
	websetID string
	timeout  int
	interval int
	raw      bool
	forget   string
}

var websetCmd = &cobra.Command{
	Use:   "webset",
	Short: "Create, check and list websets",
}

var websetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a webset (or resume one), wait for it and export its items",
	RunE:  runWebsetCreate,
}

var websetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a webset once and export its items if it is idle",
	RunE:  runWebsetCheck,
}

var websetHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List websets recorded in the run journal",
	RunE:  runWebsetHistory,
}

func init() {
	f := websetCreateCmd.Flags()
	f.StringVarP(&websetFlags.jobFile, "config", "c", "config/config.json", "webset job file")
	f.StringVarP(&websetFlags.output, "output", "o", "results/webset_results.json", "output path (.json, .csv or .xlsx)")
	f.StringVarP(&websetFlags.format, "format", "f", "", "output format: json, tabular (csv) or xlsx (default from the output extension)")
	f.StringVar(&websetFlags.websetID, "webset-id", "", "resume an existing webset instead of creating one")
	f.IntVar(&websetFlags.timeout, "timeout", 0, "seconds to wait for the webset (default from settings)")
	f.IntVar(&websetFlags.interval, "interval", 0, "seconds between status checks (default from settings)")

	f = websetCheckCmd.Flags()
	f.StringVar(&websetFlags.websetID, "webset-id", "", "webset to check")
	f.StringVarP(&websetFlags.jobFile, "config", "c", "config/config.json", "webset job file, used for column titles")
	f.StringVarP(&websetFlags.output, "output", "o", "results/webset_results.json", "output path (.json, .csv or .xlsx)")
	f.StringVarP(&websetFlags.format, "format", "f", "", "output format: json, tabular (csv) or xlsx (default from the output extension)")
	f.BoolVar(&websetFlags.raw, "raw", false, "also write the unflattened items")
	_ = websetCheckCmd.MarkFlagRequired("webset-id")

	websetHistoryCmd.Flags().StringVar(&websetFlags.forget, "delete", "", "remove a webset from the journal")

	websetCmd.AddCommand(websetCreateCmd, websetCheckCmd, websetHistoryCmd)
}

func runWebsetCreate(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	job, err := config.LoadJob(websetFlags.jobFile)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	poller, closeJournal, err := newPoller(cfg, exa.NewClient(&cfg.Provider))
	if err != nil {
		return err
	}
	defer closeJournal()

	opts := websets.Options{
		MaxWait:  time.Duration(websetFlags.timeout) * time.Second,
		Interval: time.Duration(websetFlags.interval) * time.Second,
		Titles:   job.Titles(),
	}

	var res *websets.RunResult
	if websetFlags.websetID != "" {
		fmt.Printf("Resuming webset %s\n", websetFlags.websetID)
		res, err = poller.Resume(ctx, websetFlags.websetID, opts)
	} else {
		fmt.Printf("Creating webset for %q\n", job.Search.Query)
		res, err = poller.RunToCompletion(ctx, job.Request(), opts)
	}
	if err != nil {
		return err
	}
	if res.Query != "" {
		fmt.Printf("Query: %s\n", res.Query)
	}

	if res.TimedOut() {
		fmt.Printf("\nWebset %s is still %s after %.0fs (%d found so far).\n", res.WebsetID, res.Status, res.Elapsed.Seconds(), res.Found)
		fmt.Printf("Resume later with: exa-bridge webset create --webset-id %s\n", res.WebsetID)
		return nil
	}

	return writeResults(res.WebsetID, res.Table, res.Items, false)
}

func runWebsetCheck(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	client := exa.NewClient(&cfg.Provider)
	ws, err := client.GetWebset(ctx, websetFlags.websetID)
	if err != nil {
		return err
	}

	if ws.Status != models.WebsetStatusIdle {
		fmt.Printf("Webset %s is not idle yet (status: %s, %d found so far).\n", ws.ID, ws.Status, ws.Found())
		return nil
	}

	job, err := config.LoadJob(websetFlags.jobFile)
	if err != nil {
		return err
	}

	poller, closeJournal, err := newPoller(cfg, client)
	if err != nil {
		return err
	}
	defer closeJournal()

	items, err := poller.Collect(ctx, ws.ID)
	if err != nil {
		return err
	}
	table := websets.Flatten(items, websets.EnrichmentTitles(ws, job.Titles()))

	return writeResults(ws.ID, table, items, websetFlags.raw)
}

func runWebsetHistory(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Storage.Path == "" {
		return &apperr.ConfigError{Key: "storage.path", Message: "run journal is not configured"}
	}

	store, err := storage.NewRunStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open run journal: %w", err)
	}
	defer store.Close()

	if websetFlags.forget != "" {
		run, err := store.Get(websetFlags.forget)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("webset %s is not in the journal", websetFlags.forget)
		}
		if err := store.Delete(websetFlags.forget); err != nil {
			return err
		}
		fmt.Printf("Removed webset %s from the journal.\n", websetFlags.forget)
		return nil
	}

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No websets recorded.")
		return nil
	}

	fmt.Printf("%-28s %-9s %-10s %6s  %-20s  %s\n", "WEBSET", "STATUS", "OUTCOME", "ITEMS", "UPDATED", "QUERY")
	for _, r := range runs {
		fmt.Printf("%-28s %-9s %-10s %6d  %-20s  %s\n",
			r.WebsetID, r.Status, r.Outcome, r.ItemCount,
			r.UpdatedAt.Local().Format("2006-01-02 15:04:05"), r.Query)
	}
	return nil
}

// writeResults prints the flattened rows and writes them next to an .xlsx copy
func writeResults(websetID string, table *models.Table, items []models.Item, raw bool) error {
	if err := export.Write(os.Stdout, table, export.FormatJSON); err != nil {
		return err
	}

	output := websetFlags.output
	format := export.FormatFromPath(output)
	if websetFlags.format != "" {
		f, err := export.ParseFormat(websetFlags.format)
		if err != nil {
			return err
		}
		format = f
	}

	if err := export.WriteFile(output, table, format); err != nil {
		return err
	}
	written := []string{output}

	if workbook := export.SiblingPath(output, ".xlsx"); format != export.FormatXLSX && workbook != output {
		if err := export.WriteWorkbookFile(workbook, table, export.DefaultSheet); err != nil {
			return err
		}
		written = append(written, workbook)
	}

	if raw {
		rawPath := export.RawPath(output)
		if err := export.WriteRawItems(rawPath, items); err != nil {
			return err
		}
		written = append(written, rawPath)
	}

	logger.Info("webset results written",
		zap.String("webset_id", websetID),
		zap.Int("rows", table.Len()),
		zap.Strings("files", written),
	)
	fmt.Printf("\n%d results from webset %s saved to %v\n", table.Len(), websetID, written)
	return nil
}
